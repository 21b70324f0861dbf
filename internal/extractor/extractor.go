// Package extractor turns payload entries into per-file metadata records.
package extractor

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/ralt/rpmfiles/internal/analyzer"
	"github.com/ralt/rpmfiles/internal/archive"
	"github.com/ralt/rpmfiles/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// ChunkSize is the read granularity; the first chunk doubles as the
	// header buffer handed to the analyzer.
	ChunkSize = 1024

	// DirSize is the size recorded for every directory
	DirSize = 4096
)

// Extractor builds file records from payload entries
type Extractor struct {
	analyzer analyzer.Analyzer
}

// New creates an extractor classifying entries with a. A nil analyzer,
// including a nil pointer held in the interface, is rejected.
func New(a analyzer.Analyzer) (*Extractor, error) {
	if isNil(a) {
		return nil, &models.Error{
			Type: models.ErrInvalidConfig,
			Err:  errors.New("an analyzer is required"),
		}
	}
	return &Extractor{analyzer: a}, nil
}

func isNil(a analyzer.Analyzer) bool {
	if a == nil {
		return true
	}
	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Next advances c to its next entry and returns the entry's record. It
// returns io.EOF when c is exhausted.
func (e *Extractor) Next(c archive.Cursor) (*models.FileRecord, error) {
	info, err := c.Next()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &models.Error{Type: models.ErrArchiveRead, Err: err}
	}

	digest, header, err := readEntry(c, info)
	if err != nil {
		return nil, &models.Error{Type: models.ErrArchiveRead, Entry: info.Name, Err: err}
	}

	name := NormalizeName(info.Name)
	size := info.Size
	var linkTarget string

	switch info.Mode & models.ModeTypeMask {
	case models.ModeSymlink:
		// Targets longer than ChunkSize are truncated
		linkTarget = LinkTarget(header)
		digest = nil
	case models.ModeDir:
		size = DirSize
		digest = nil
	}

	res, err := e.analyzer.Analyze(name, *info, header)
	if err != nil {
		return nil, &models.Error{Type: models.ErrAnalyze, Entry: name, Err: err}
	}

	logrus.Debugf("Extracted %s (mode %o, %d bytes, class %q)", name, info.Mode, size, res.Class)

	return &models.FileRecord{
		Name:        name,
		Size:        size,
		Mode:        info.Mode,
		Digest:      digest,
		LinkTarget:  linkTarget,
		User:        models.RootUser,
		Group:       models.RootGroup,
		Mtime:       info.Mtime,
		Inode:       info.Inode,
		Device:      info.Device,
		Rdev:        info.Rdev,
		Nlink:       info.Nlink,
		VerifyFlags: models.VerifyAll,
		Flags:       res.Flags,
		Color:       res.Color,
		Class:       res.Class,
		Requires:    res.Requires,
		Provides:    res.Provides,
	}, nil
}

// ExtractAll drains c. The payload root entry ("." or "./") carries no file
// and is skipped, so the result is not one record per archive entry; use
// Next to see every entry.
func (e *Extractor) ExtractAll(c archive.Cursor) ([]models.FileRecord, error) {
	var records []models.FileRecord
	for {
		rec, err := e.Next(c)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if rec.Name == "" || rec.Name == "." {
			logrus.Debug("Skipping payload root entry")
			continue
		}
		records = append(records, *rec)
	}

	logrus.Infof("Extracted %d file records", len(records))
	return records, nil
}

// readEntry consumes the current entry chunk by chunk until a short chunk,
// hashing everything and keeping the first chunk.
func readEntry(r io.Reader, info *archive.EntryInfo) ([]byte, []byte, error) {
	h := sha256.New()
	buf := make([]byte, ChunkSize)
	var header []byte
	var total int64

	for first := true; ; first = false {
		n, err := readChunk(r, buf)
		if err != nil {
			return nil, nil, err
		}
		h.Write(buf[:n])
		total += int64(n)
		if first {
			header = append([]byte(nil), buf[:n]...)
		}
		if n < ChunkSize {
			break
		}
	}

	if info.Mode&models.ModeTypeMask == models.ModeRegular && total != info.Size {
		return nil, nil, fmt.Errorf("truncated entry: read %d of %d bytes", total, info.Size)
	}
	return h.Sum(nil), header, nil
}

// readChunk fills buf unless the entry ends first
func readChunk(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// NormalizeName strips the same-directory marker payload names start with.
// The two-character "./" prefix rpmbuild writes is deliberately treated as a
// single marker, so "./usr/bin/foo" becomes "usr/bin/foo"; otherwise a
// single leading "/" is removed.
func NormalizeName(name string) string {
	switch {
	case strings.HasPrefix(name, "./"):
		return name[2:]
	case strings.HasPrefix(name, "/"):
		return name[1:]
	default:
		return name
	}
}

// LinkTarget decodes a symlink target from an entry's header buffer: the
// bytes up to the first NUL, or all of them, as UTF-8.
func LinkTarget(header []byte) string {
	if i := bytes.IndexByte(header, 0); i >= 0 {
		header = header[:i]
	}
	return strings.ToValidUTF8(string(header), "\uFFFD")
}
