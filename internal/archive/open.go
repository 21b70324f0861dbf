package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// peekSize is enough for every magic we sniff, including the tar header
const peekSize = 512

// multiCloser closes every closer in order and joins their errors
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open opens a payload file, detecting its compression and container
func Open(path string) (Cursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	c, err := NewCursor(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open payload %s: %w", path, err)
	}

	switch cur := c.(type) {
	case *CpioCursor:
		cur.closer = multiCloser{cur.closer, f}
	case *TarCursor:
		cur.closer = multiCloser{cur.closer, f}
	}
	return c, nil
}

// NewCursor detects the compression and container of r and returns a cursor
// over it. Closing the cursor releases the decompressor but not r.
func NewCursor(r io.Reader) (Cursor, error) {
	br := bufio.NewReaderSize(r, peekSize)
	header, err := br.Peek(peekSize)
	if err != nil && err != io.EOF {
		return nil, err
	}

	compression := DetectCompression(header)
	dr, err := Decompress(br, compression)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s stream: %w", compression, err)
	}

	dbr := bufio.NewReaderSize(dr, peekSize)
	header, err = dbr.Peek(peekSize)
	if err != nil && err != io.EOF {
		dr.Close()
		return nil, err
	}

	container := DetectContainer(header)
	logrus.Debugf("Detected %s payload (%s compression)", container, compression)

	if container == ContainerCpio {
		c := NewCpioCursor(dbr)
		c.closer = dr
		return c, nil
	}
	c := NewTarCursor(dbr)
	c.closer = dr
	return c, nil
}
