// Package checksum computes streaming SHA-256 digests for artifact
// integrity verification.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"lathe/internal/services"
)

const chunkSize = 32 * 1024

// File streams the file at path through SHA-256 and returns its byte size
// and hex digest. The file is read in fixed-size chunks and never loaded
// into memory whole.
func File(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", services.Wrap(services.ErrIO, "", "checksum", fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	hasher := sha256.New()
	buf := make([]byte, chunkSize)
	var size int64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			size += int64(n)
			hasher.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return 0, "", services.Wrap(services.ErrIO, "", "checksum", fmt.Sprintf("read %s", path), readErr)
		}
	}
	return size, hex.EncodeToString(hasher.Sum(nil)), nil
}
