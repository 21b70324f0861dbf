package scanner

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// RPM packages start with the lead magic 0xED 0xAB 0xEE 0xDB
var rpmMagic = []byte{0xED, 0xAB, 0xEE, 0xDB}

// IsRPM reports whether path holds an RPM package, by lead magic or, for
// files too short to carry one, by extension
func IsRPM(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, len(rpmMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}

	if n == len(rpmMagic) {
		return bytes.Equal(header, rpmMagic), nil
	}
	return filepath.Ext(path) == ".rpm", nil
}
