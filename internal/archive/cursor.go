// Package archive exposes payload containers (cpio, tar) as a sequential
// entry cursor.
package archive

import "io"

// EntryInfo is the metadata block of one payload entry
type EntryInfo struct {
	Name   string
	Mode   uint32 // POSIX type and permission bits
	Size   int64
	Mtime  int64
	Uid    int
	Gid    int
	Inode  uint64
	Device uint64
	Rdev   uint64
	Nlink  uint32
}

// Cursor iterates the entries of a payload container. Read returns the
// content of the entry most recently returned by Next and reports io.EOF at
// its end. Next returns io.EOF once the container is exhausted.
type Cursor interface {
	io.Reader
	Next() (*EntryInfo, error)
	Close() error
}

// Mkdev combines major and minor device numbers the way glibc's makedev does
func Mkdev(major, minor uint32) uint64 {
	return uint64(minor&0xff) |
		uint64(major&0xfff)<<8 |
		uint64(minor&^0xff)<<12 |
		uint64(major&^0xfff)<<32
}
