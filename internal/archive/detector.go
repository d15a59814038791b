package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Format represents the container format of a release archive
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTar
	FormatTarGz
	FormatTarXz
	FormatTarZst
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatTarGz:
		return "tar.gz"
	case FormatTarXz:
		return "tar.xz"
	case FormatTarZst:
		return "tar.zst"
	default:
		return "unknown"
	}
}

// Magic bytes for archive detection
var (
	// Zip local file header
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

	// Empty zip archives only carry the end of central directory record
	zipEmptyMagic = []byte{0x50, 0x4B, 0x05, 0x06}

	gzipMagic = []byte{0x1F, 0x8B}

	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

	xzMagic = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}

	// POSIX tar carries "ustar" at offset 257
	tarMagic       = []byte("ustar")
	tarMagicOffset = 257
)

// DetectFormat determines the archive format based on file extension and magic bytes
func DetectFormat(path string) (Format, error) {
	if f := FormatFromName(filepath.Base(path)); f != FormatUnknown {
		return f, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	// Read first 512 bytes for magic byte detection
	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return FormatUnknown, err
	}
	header = header[:n]

	return formatFromMagic(header), nil
}

// FormatFromName determines the archive format from a file name alone
func FormatFromName(name string) Format {
	name = strings.ToLower(name)

	switch {
	case strings.HasSuffix(name, ".zip"):
		return FormatZip
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return FormatTarXz
	case strings.HasSuffix(name, ".tar.zst"), strings.HasSuffix(name, ".tzst"):
		return FormatTarZst
	case strings.HasSuffix(name, ".tar"):
		return FormatTar
	default:
		return FormatUnknown
	}
}

func formatFromMagic(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, zipMagic), bytes.HasPrefix(header, zipEmptyMagic):
		return FormatZip
	case bytes.HasPrefix(header, gzipMagic):
		return FormatTarGz
	case bytes.HasPrefix(header, xzMagic):
		return FormatTarXz
	case bytes.HasPrefix(header, zstdMagic):
		return FormatTarZst
	case len(header) >= tarMagicOffset+len(tarMagic) &&
		bytes.Equal(header[tarMagicOffset:tarMagicOffset+len(tarMagic)], tarMagic):
		return FormatTar
	default:
		return FormatUnknown
	}
}
