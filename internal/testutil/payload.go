// Package testutil builds payload fixtures for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// POSIX type bits used by fixtures
const (
	ModeRegular = 0100000
	ModeDir     = 0040000
	ModeSymlink = 0120000
	ModeChar    = 0020000
)

// Entry is one payload entry. For symlinks Content is the link target.
type Entry struct {
	Name    string
	Mode    uint32
	Content []byte
	Size    int64 // overrides len(Content) in the header when non-zero
	Mtime   int64
	Ino     uint32
}

// File returns a regular file entry
func File(name string, content string) Entry {
	return Entry{Name: name, Mode: ModeRegular | 0644, Content: []byte(content)}
}

// Dir returns a directory entry
func Dir(name string) Entry {
	return Entry{Name: name, Mode: ModeDir | 0755}
}

// Symlink returns a symlink entry
func Symlink(name, target string) Entry {
	return Entry{Name: name, Mode: ModeSymlink | 0777, Content: []byte(target)}
}

// Cpio encodes entries as a cpio newc stream terminated by the trailer
func Cpio(entries ...Entry) []byte {
	var buf bytes.Buffer
	for i, e := range entries {
		ino := e.Ino
		if ino == 0 {
			ino = uint32(i + 1)
		}
		size := e.Size
		if size == 0 {
			size = int64(len(e.Content))
		}
		writeCpioHeader(&buf, e.Name, ino, e.Mode, uint32(e.Mtime), uint32(size))
		buf.Write(e.Content)
		pad(&buf, len(e.Content))
	}
	writeCpioHeader(&buf, "TRAILER!!!", 0, 0, 0, 0)
	return buf.Bytes()
}

func writeCpioHeader(buf *bytes.Buffer, name string, ino, mode, mtime, size uint32) {
	nlink := uint32(1)
	if mode&0170000 == ModeDir {
		nlink = 2
	}
	fmt.Fprintf(buf, "070701%08X%08X%08X%08X%08X%08X%08X%08X%08X%08X%08X%08X%08X",
		ino, mode, 0, 0, nlink, mtime, size, 8, 1, 0, 0, len(name)+1, 0)
	buf.WriteString(name)
	buf.WriteByte(0)
	pad(buf, 110+len(name)+1)
}

func pad(buf *bytes.Buffer, n int) {
	for n%4 != 0 {
		buf.WriteByte(0)
		n++
	}
}

// Tar encodes entries as a tar stream
func Tar(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:    e.Name,
			Mode:    int64(e.Mode & 07777),
			ModTime: time.Unix(e.Mtime, 0),
		}
		switch e.Mode & 0170000 {
		case ModeDir:
			hdr.Typeflag = tar.TypeDir
		case ModeSymlink:
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = string(e.Content)
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Content))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("Failed to write tar header: %v", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write(e.Content); err != nil {
				t.Fatalf("Failed to write tar content: %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar writer: %v", err)
	}
	return buf.Bytes()
}

// Gzip compresses data with gzip
func Gzip(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	return compress(t, w, &buf, data)
}

// Zstd compresses data with zstd
func Zstd(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("Failed to create zstd writer: %v", err)
	}
	return compress(t, w, &buf, data)
}

// Xz compresses data with xz
func Xz(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("Failed to create xz writer: %v", err)
	}
	return compress(t, w, &buf, data)
}

// Gunzip decompresses gzip data
func Gunzip(t testing.TB, data []byte) []byte {
	t.Helper()
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to open gzip stream: %v", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}
	return out
}

func compress(t testing.TB, w io.WriteCloser, buf *bytes.Buffer, data []byte) []byte {
	t.Helper()
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to finish compression: %v", err)
	}
	return buf.Bytes()
}
