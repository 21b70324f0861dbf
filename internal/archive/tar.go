package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"strings"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/sirupsen/logrus"
)

// TarCursor reads a tar stream, typically a staged build root packed with
// `tar -C root .`. Symlink content is served from the link name so the
// entry looks the same as it would inside a cpio payload.
type TarCursor struct {
	r      *tar.Reader
	cur    io.Reader
	closer io.Closer
}

// NewTarCursor creates a cursor over an uncompressed tar stream
func NewTarCursor(r io.Reader) *TarCursor {
	return &TarCursor{r: tar.NewReader(r)}
}

// Next advances to the next entry
func (c *TarCursor) Next() (*EntryInfo, error) {
	for {
		hdr, err := c.r.Next()
		if err != nil {
			c.cur = nil
			return nil, err
		}

		typeBits, ok := tarTypeBits(hdr.Typeflag)
		if !ok {
			if hdr.Typeflag == tar.TypeLink {
				return nil, fmt.Errorf("hard link %s -> %s is not supported", hdr.Name, hdr.Linkname)
			}
			logrus.Debugf("Skipping tar entry %s of type %q", hdr.Name, hdr.Typeflag)
			continue
		}

		name := hdr.Name
		if typeBits == models.ModeDir && len(name) > 1 {
			name = strings.TrimSuffix(name, "/")
		}

		info := &EntryInfo{
			Name:  name,
			Mode:  typeBits | uint32(hdr.Mode)&models.ModePermMask,
			Size:  hdr.Size,
			Mtime: hdr.ModTime.Unix(),
			Uid:   hdr.Uid,
			Gid:   hdr.Gid,
			Rdev:  Mkdev(uint32(hdr.Devmajor), uint32(hdr.Devminor)),
			Nlink: 1,
		}

		switch typeBits {
		case models.ModeSymlink:
			info.Size = int64(len(hdr.Linkname))
			c.cur = strings.NewReader(hdr.Linkname)
		case models.ModeDir:
			info.Nlink = 2
			c.cur = c.r
		default:
			c.cur = c.r
		}

		return info, nil
	}
}

// Read reads content of the current entry
func (c *TarCursor) Read(p []byte) (int, error) {
	if c.cur == nil {
		return 0, io.EOF
	}
	return c.cur.Read(p)
}

// Close releases the underlying stream, if the cursor owns one
func (c *TarCursor) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

func tarTypeBits(flag byte) (uint32, bool) {
	switch flag {
	case tar.TypeReg, '\x00':
		return models.ModeRegular, true
	case tar.TypeDir:
		return models.ModeDir, true
	case tar.TypeSymlink:
		return models.ModeSymlink, true
	case tar.TypeChar:
		return models.ModeChar, true
	case tar.TypeBlock:
		return models.ModeBlock, true
	case tar.TypeFifo:
		return models.ModeFifo, true
	default:
		return 0, false
	}
}
