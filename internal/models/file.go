package models

// POSIX file type bits as stored in cpio headers and RPM FILEMODES
const (
	ModeTypeMask uint32 = 0170000
	ModeSocket   uint32 = 0140000
	ModeSymlink  uint32 = 0120000
	ModeRegular  uint32 = 0100000
	ModeBlock    uint32 = 0060000
	ModeDir      uint32 = 0040000
	ModeChar     uint32 = 0020000
	ModeFifo     uint32 = 0010000
	ModePermMask uint32 = 07777
)

// VerifyAll is the RPMVERIFY value asking rpm -V to check every attribute
const VerifyAll uint32 = 0xffffffff

// File flags (RPMFILE_*) an analyzer may attach to a record
const (
	FileConfig  uint32 = 1 << 0
	FileDoc     uint32 = 1 << 1
	FileLicense uint32 = 1 << 7
)

// Owner of every payload entry
const (
	RootUser  = "root"
	RootGroup = "root"
)

// FileRecord holds the per-file metadata of one payload entry
type FileRecord struct {
	Name        string
	Size        int64
	Mode        uint32
	Digest      []byte
	LinkTarget  string
	User        string
	Group       string
	Mtime       int64
	Inode       uint64
	Device      uint64
	Rdev        uint64
	Nlink       uint32
	VerifyFlags uint32

	// Classification, as returned by the analyzer
	Flags uint32
	Color uint32
	Class string

	Requires []Dependency
	Provides []Dependency
}

// FileType returns the type bits of the record's mode
func (f *FileRecord) FileType() uint32 {
	return f.Mode & ModeTypeMask
}

// IsDir reports whether the record is a directory
func (f *FileRecord) IsDir() bool {
	return f.FileType() == ModeDir
}

// IsSymlink reports whether the record is a symbolic link
func (f *FileRecord) IsSymlink() bool {
	return f.FileType() == ModeSymlink
}

// IsRegular reports whether the record is a regular file
func (f *FileRecord) IsRegular() bool {
	return f.FileType() == ModeRegular
}
