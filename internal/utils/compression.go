// Package utils holds small file, checksum and compression helpers.
package utils

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
)

// GzipCompress compresses data using gzip at best compression, which is
// what repodata consumers expect for primary.xml.gz
func GzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
