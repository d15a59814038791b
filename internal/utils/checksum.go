package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// ChecksumChunkSize is the read size used when hashing files
const ChecksumChunkSize = 4096

// Checksum contains the integrity digest and size of a file
type Checksum struct {
	SHA256 string
	Size   int64
}

// CalculateChecksums streams a file through SHA-256 in fixed-size chunks
func CalculateChecksums(path string) (*Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Get file info for size
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	sum, err := hashReader(f)
	if err != nil {
		return nil, err
	}

	return &Checksum{
		SHA256: sum,
		Size:   info.Size(),
	}, nil
}

func hashReader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, ChecksumChunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
