package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrMemberNotFound is returned when an archive has no member with the requested name
var ErrMemberNotFound = errors.New("member not found in archive")

// errStopWalk ends a walk early without reporting an error
var errStopWalk = errors.New("stop walk")

// Entry describes one member of an archive
type Entry struct {
	Name string
	// Size is the declared uncompressed size
	Size int64
}

// walkFunc is called for every archive member. open returns the member's
// uncompressed contents and is only valid during the call.
type walkFunc func(entry Entry, open func() (io.ReadCloser, error)) error

// InstallSize returns the sum of the declared uncompressed sizes of every
// entry in the archive at path
func InstallSize(archivePath string, format Format) (int64, error) {
	entries, err := Entries(archivePath, format)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, entry := range entries {
		total += entry.Size
	}

	return total, nil
}

// Entries lists the members of the archive at path
func Entries(archivePath string, format Format) ([]Entry, error) {
	var entries []Entry

	err := walk(archivePath, format, func(entry Entry, _ func() (io.ReadCloser, error)) error {
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// ReadMember returns the contents of the member called name.
// A leading "./" on member names is ignored.
func ReadMember(archivePath string, format Format, name string) ([]byte, error) {
	want := cleanName(name)
	var data []byte

	err := walk(archivePath, format, func(entry Entry, open func() (io.ReadCloser, error)) error {
		if cleanName(entry.Name) != want {
			return nil
		}

		rc, err := open()
		if err != nil {
			return err
		}
		defer rc.Close()

		data, err = io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", entry.Name, err)
		}
		return errStopWalk
	})
	if err != nil {
		return nil, err
	}

	if data == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrMemberNotFound)
	}

	return data, nil
}

func walk(archivePath string, format Format, fn walkFunc) error {
	var err error

	switch format {
	case FormatZip:
		err = walkZip(archivePath, fn)
	case FormatTar, FormatTarGz, FormatTarXz, FormatTarZst:
		err = walkTar(archivePath, format, fn)
	default:
		return fmt.Errorf("unsupported archive format: %s", format)
	}

	if errors.Is(err, errStopWalk) {
		return nil
	}
	return err
}

func walkZip(archivePath string, fn walkFunc) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		entry := Entry{
			Name: f.Name,
			Size: int64(f.UncompressedSize64),
		}
		if err := fn(entry, f.Open); err != nil {
			return err
		}
	}

	return nil
}

func walkTar(archivePath string, format Format, fn walkFunc) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	dr, err := decompressor(format, f)
	if err != nil {
		return err
	}
	defer dr.Close()

	tr := tar.NewReader(dr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		// Directories, links and other special entries occupy no space
		if header.Typeflag != tar.TypeReg {
			continue
		}

		entry := Entry{
			Name: header.Name,
			Size: header.Size,
		}
		open := func() (io.ReadCloser, error) {
			return io.NopCloser(tr), nil
		}
		if err := fn(entry, open); err != nil {
			return err
		}
	}

	return nil
}

func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
