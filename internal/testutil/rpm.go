package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Header tags used by fixtures
const (
	TagName              = 1000
	TagVersion           = 1001
	TagRelease           = 1002
	TagArch              = 1022
	TagProvideName       = 1047
	TagRequireFlags      = 1048
	TagRequireName       = 1049
	TagRequireVersion    = 1050
	TagProvideFlags      = 1112
	TagProvideVersion    = 1113
	TagPayloadCompressor = 1125

	sigTagSize = 1000
)

const (
	typeInt32       = 4
	typeString      = 6
	typeStringArray = 8
)

// Tag is one header index entry with its encoded data
type Tag struct {
	ID    uint32
	typ   uint32
	count uint32
	data  []byte
}

// StringTag encodes a STRING tag
func StringTag(id uint32, s string) Tag {
	return Tag{ID: id, typ: typeString, count: 1, data: append([]byte(s), 0)}
}

// StringArrayTag encodes a STRING_ARRAY tag
func StringArrayTag(id uint32, ss ...string) Tag {
	var data []byte
	for _, s := range ss {
		data = append(data, s...)
		data = append(data, 0)
	}
	return Tag{ID: id, typ: typeStringArray, count: uint32(len(ss)), data: data}
}

// Int32Tag encodes an INT32 tag
func Int32Tag(id uint32, vs ...uint32) Tag {
	data := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint32(data[4*i:], v)
	}
	return Tag{ID: id, typ: typeInt32, count: uint32(len(vs)), data: data}
}

func header(tags []Tag) []byte {
	var index, store bytes.Buffer
	for _, e := range tags {
		if e.typ == typeInt32 {
			for store.Len()%4 != 0 {
				store.WriteByte(0)
			}
		}
		for _, v := range []uint32{e.ID, e.typ, uint32(store.Len()), e.count} {
			binary.Write(&index, binary.BigEndian, v)
		}
		store.Write(e.data)
	}

	var buf bytes.Buffer
	buf.Write([]byte{0x8e, 0xad, 0xe8, 0x01, 0, 0, 0, 0})
	binary.Write(&buf, binary.BigEndian, uint32(len(tags)))
	binary.Write(&buf, binary.BigEndian, uint32(store.Len()))
	buf.Write(index.Bytes())
	buf.Write(store.Bytes())
	return buf.Bytes()
}

// RPM writes lead, signature header, main header and payload to a file in
// a temporary directory and returns its path
func RPM(t testing.TB, tags []Tag, payload []byte) string {
	t.Helper()

	var buf bytes.Buffer
	lead := make([]byte, 96)
	copy(lead, []byte{0xed, 0xab, 0xee, 0xdb, 3, 0, 0, 0, 0, 1})
	copy(lead[10:], "demo-1.0-1")
	binary.BigEndian.PutUint16(lead[76:], 1)
	binary.BigEndian.PutUint16(lead[78:], 5)
	buf.Write(lead)

	buf.Write(header([]Tag{Int32Tag(sigTagSize, uint32(len(payload)))}))
	for buf.Len()%8 != 0 {
		buf.WriteByte(0)
	}

	buf.Write(header(tags))
	buf.Write(payload)

	path := filepath.Join(t.TempDir(), "demo-1.0-1.x86_64.rpm")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write rpm: %v", err)
	}
	return path
}

// Rpmlib flags (LESS|EQUAL|RPMLIB) and the ldconfig trigger flags
const (
	SenseRpmlibLE = 0x100000a
	SensePost     = 0x100 | 0x400
	SensePostUn   = 0x100 | 0x1000
)

// DemoRPM builds demo-1.0-1.x86_64 with an xz payload holding entries and
// the dependency set rpmbuild would have written for it
func DemoRPM(t testing.TB, entries ...Entry) string {
	t.Helper()

	tags := []Tag{
		StringTag(TagName, "demo"),
		StringTag(TagVersion, "1.0"),
		StringTag(TagRelease, "1"),
		StringTag(TagArch, "x86_64"),
		StringArrayTag(TagProvideName, "demo", "demo(x86-64)", "libdemo.so.1()(64bit)"),
		Int32Tag(TagProvideFlags, 8, 8, 0),
		StringArrayTag(TagProvideVersion, "1.0-1", "1.0-1", ""),
		StringArrayTag(TagRequireName, "bash", "/sbin/ldconfig", "/sbin/ldconfig",
			"rpmlib(CompressedFileNames)", "rpmlib(FileDigests)", "rpmlib(PayloadFilesHavePrefix)",
			"rtld(GNU_HASH)", "rpmlib(PayloadIsXz)"),
		Int32Tag(TagRequireFlags, 0, SensePost, SensePostUn, SenseRpmlibLE, SenseRpmlibLE, SenseRpmlibLE, 0x4000, SenseRpmlibLE),
		StringArrayTag(TagRequireVersion, "", "", "", "3.0.4-1", "4.6.0-1", "4.0-1", "", "5.2-1"),
		StringTag(TagPayloadCompressor, "xz"),
	}
	return RPM(t, tags, Xz(t, Cpio(entries...)))
}
