package archive

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies the compression applied to a payload
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionXz
)

// String returns the string representation of Compression
func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionXz:
		return "xz"
	default:
		return "none"
	}
}

// Container identifies the payload container format
type Container int

const (
	ContainerTar Container = iota
	ContainerCpio
)

// String returns the string representation of Container
func (c Container) String() string {
	if c == ContainerCpio {
		return "cpio"
	}
	return "tar"
}

// Magic bytes for payload detection
var (
	gzipMagic = []byte{0x1F, 0x8B}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic   = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}

	// cpio "new ASCII" format, without and with checksums
	cpioNewcMagic = []byte("070701")
	cpioCrcMagic  = []byte("070702")
)

// DetectCompression determines the compression from a stream prefix
func DetectCompression(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(header, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(header, xzMagic):
		return CompressionXz
	default:
		return CompressionNone
	}
}

// DetectContainer determines the container from a decompressed stream prefix
func DetectContainer(header []byte) Container {
	if bytes.HasPrefix(header, cpioNewcMagic) || bytes.HasPrefix(header, cpioCrcMagic) {
		return ContainerCpio
	}
	return ContainerTar
}

// Decompress wraps r in a decompressor for c
func Decompress(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewReader(r)
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case CompressionXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	default:
		return io.NopCloser(r), nil
	}
}
