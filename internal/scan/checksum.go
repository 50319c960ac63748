package scan

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// Supported content hash algorithms
const (
	MD5    = "md5"
	SHA1   = "sha1"
	SHA256 = "sha256"
)

var hashConstructors = map[string]func() hash.Hash{
	MD5:    md5.New,
	SHA1:   sha1.New,
	SHA256: sha256.New,
}

// IsSupported checks if the given algorithm is supported
func IsSupported(algo string) bool {
	_, ok := hashConstructors[algo]
	return ok
}

// digests streams the reader once through every requested hasher.
// Returns an error if the stream exceeds maxSize (0 = unlimited).
func digests(ctx context.Context, reader io.Reader, algorithms []string, maxSize int64, bufferSize int) (map[string]string, error) {
	hashers := make(map[string]hash.Hash, len(algorithms))
	writers := make([]io.Writer, 0, len(algorithms))
	for _, algo := range algorithms {
		newHash, ok := hashConstructors[algo]
		if !ok {
			return nil, fmt.Errorf("unsupported algorithm: %s", algo)
		}
		h := newHash()
		hashers[algo] = h
		writers = append(writers, h)
	}
	sink := io.MultiWriter(writers...)

	var limitedReader io.Reader = reader
	if maxSize > 0 {
		limitedReader = io.LimitReader(reader, maxSize+1)
	}

	if bufferSize <= 0 {
		bufferSize = 32 * 1024
	}
	buffer := make([]byte, bufferSize)
	totalBytes := int64(0)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, err := limitedReader.Read(buffer)
		if n > 0 {
			totalBytes += int64(n)
			if maxSize > 0 && totalBytes > maxSize {
				return nil, fmt.Errorf("file size exceeds maximum (%d bytes)", maxSize)
			}
			if _, hashErr := sink.Write(buffer[:n]); hashErr != nil {
				return nil, fmt.Errorf("hash write error: %w", hashErr)
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
	}

	result := make(map[string]string, len(hashers))
	for algo, h := range hashers {
		result[algo] = hex.EncodeToString(h.Sum(nil))
	}
	return result, nil
}
