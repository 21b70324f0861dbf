package archive

import (
	"io"

	"github.com/sassoftware/go-rpmutils/cpio"
)

const cpioTrailer = "TRAILER!!!"

// CpioCursor reads a cpio newc stream, the container format of RPM payloads
type CpioCursor struct {
	r      *cpio.Reader
	closer io.Closer
	done   bool
}

// NewCpioCursor creates a cursor over an uncompressed cpio stream
func NewCpioCursor(r io.Reader) *CpioCursor {
	return &CpioCursor{r: cpio.NewReader(r)}
}

// Next advances to the next entry. The trailer entry ends iteration.
func (c *CpioCursor) Next() (*EntryInfo, error) {
	if c.done {
		return nil, io.EOF
	}

	hdr, err := c.r.Next()
	if err != nil {
		if err == io.EOF {
			c.done = true
		}
		return nil, err
	}
	if hdr == nil || hdr.Filename() == cpioTrailer {
		c.done = true
		return nil, io.EOF
	}

	return &EntryInfo{
		Name:   hdr.Filename(),
		Mode:   uint32(hdr.Mode()),
		Size:   int64(hdr.Filesize()),
		Mtime:  int64(hdr.Mtime()),
		Uid:    int(hdr.Uid()),
		Gid:    int(hdr.Gid()),
		Inode:  uint64(hdr.Ino()),
		Device: Mkdev(uint32(hdr.Devmajor()), uint32(hdr.Devminor())),
		Rdev:   Mkdev(uint32(hdr.Rdevmajor()), uint32(hdr.Rdevminor())),
		Nlink:  uint32(hdr.Nlink()),
	}, nil
}

// Read reads content of the current entry
func (c *CpioCursor) Read(p []byte) (int, error) {
	if c.done {
		return 0, io.EOF
	}
	return c.r.Read(p)
}

// Close releases the underlying stream, if the cursor owns one
func (c *CpioCursor) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
