package extractor

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ralt/rpmfiles/internal/analyzer"
	"github.com/ralt/rpmfiles/internal/archive"
	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/testutil"
)

// fakeCursor serves canned entries and can fail reads on demand
type fakeCursor struct {
	entries []fakeEntry
	pos     int
	cur     io.Reader
	nextErr error
}

type fakeEntry struct {
	info    archive.EntryInfo
	content []byte
	readErr error
}

func (c *fakeCursor) Next() (*archive.EntryInfo, error) {
	if c.nextErr != nil {
		return nil, c.nextErr
	}
	if c.pos >= len(c.entries) {
		return nil, io.EOF
	}
	e := c.entries[c.pos]
	c.pos++
	c.cur = bytes.NewReader(e.content)
	if e.readErr != nil {
		c.cur = io.MultiReader(bytes.NewReader(e.content), &failingReader{err: e.readErr})
	}
	info := e.info
	return &info, nil
}

func (c *fakeCursor) Read(p []byte) (int, error) {
	return c.cur.Read(p)
}

func (c *fakeCursor) Close() error {
	return nil
}

type failingReader struct {
	err error
}

func (r *failingReader) Read(p []byte) (int, error) {
	return 0, r.err
}

// oneByteReader forces readChunk to assemble chunks from short reads
type oneByteCursor struct {
	archive.Cursor
}

func (c oneByteCursor) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return c.Cursor.Read(p)
}

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(analyzer.NewMagicAnalyzer())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func cpioCursor(entries ...testutil.Entry) archive.Cursor {
	return archive.NewCpioCursor(bytes.NewReader(testutil.Cpio(entries...)))
}

func sha(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func TestNewRequiresAnalyzer(t *testing.T) {
	_, err := New(nil)
	if err == nil {
		t.Fatal("New(nil) should fail")
	}
	if !models.IsType(err, models.ErrInvalidConfig) {
		t.Errorf("New(nil) error = %v, want InvalidConfig", err)
	}
}

func TestNewRejectsTypedNilAnalyzer(t *testing.T) {
	tests := []struct {
		name string
		a    analyzer.Analyzer
	}{
		{"nil pointer", (*analyzer.MagicAnalyzer)(nil)},
		{"nil func", analyzer.Func(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.a)
			if !models.IsType(err, models.ErrInvalidConfig) {
				t.Errorf("New(%T) error = %v, want InvalidConfig", tt.a, err)
			}
		})
	}

	if _, err := New(analyzer.NewMagicAnalyzer()); err != nil {
		t.Errorf("New(MagicAnalyzer) failed: %v", err)
	}
}

func TestRegularFileScenario(t *testing.T) {
	e := newExtractor(t)

	rec, err := e.Next(cpioCursor(testutil.File("./usr/bin/foo", "hello")))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if rec.Name != "usr/bin/foo" {
		t.Errorf("Name = %q, want usr/bin/foo", rec.Name)
	}
	if rec.Size != 5 {
		t.Errorf("Size = %d, want 5", rec.Size)
	}
	if !bytes.Equal(rec.Digest, sha([]byte("hello"))) {
		t.Errorf("Digest = %x, want sha256(hello)", rec.Digest)
	}
	if rec.LinkTarget != "" {
		t.Errorf("LinkTarget = %q, want empty", rec.LinkTarget)
	}
	if rec.User != "root" || rec.Group != "root" {
		t.Errorf("owner = %s:%s, want root:root", rec.User, rec.Group)
	}
	if rec.VerifyFlags != models.VerifyAll {
		t.Errorf("VerifyFlags = %#x, want %#x", rec.VerifyFlags, models.VerifyAll)
	}
	if rec.Class != "text" {
		t.Errorf("Class = %q, want text", rec.Class)
	}
}

func TestDigestAcrossChunkBoundaries(t *testing.T) {
	e := newExtractor(t)

	for _, size := range []int{0, 1, ChunkSize - 1, ChunkSize, ChunkSize + 1, 3*ChunkSize + 7} {
		content := bytes.Repeat([]byte{'x'}, size)
		for i := range content {
			content[i] = byte(i % 251)
		}

		for name, c := range map[string]archive.Cursor{
			"cpio":     cpioCursor(testutil.Entry{Name: "./data", Mode: testutil.ModeRegular | 0644, Content: content}),
			"one-byte": oneByteCursor{cpioCursor(testutil.Entry{Name: "./data", Mode: testutil.ModeRegular | 0644, Content: content})},
		} {
			rec, err := e.Next(c)
			if err != nil {
				t.Fatalf("%s size %d: Next failed: %v", name, size, err)
			}
			if !bytes.Equal(rec.Digest, sha(content)) {
				t.Errorf("%s size %d: digest mismatch", name, size)
			}
			if rec.Size != int64(size) {
				t.Errorf("%s size %d: Size = %d", name, size, rec.Size)
			}
		}
	}
}

func TestHeaderBufferIsFirstChunk(t *testing.T) {
	var seen []byte
	a := analyzer.Func(func(name string, info archive.EntryInfo, header []byte) (analyzer.Result, error) {
		seen = append([]byte(nil), header...)
		return analyzer.Result{}, nil
	})
	e, err := New(a)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	content := []byte(strings.Repeat("a", ChunkSize) + "tail")
	if _, err := e.Next(cpioCursor(testutil.Entry{Name: "./f", Mode: testutil.ModeRegular | 0644, Content: content})); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if !bytes.Equal(seen, content[:ChunkSize]) {
		t.Errorf("header buffer has %d bytes, want the first %d", len(seen), ChunkSize)
	}

	if _, err := e.Next(cpioCursor(testutil.File("./g", "short"))); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if string(seen) != "short" {
		t.Errorf("header buffer = %q, want short", seen)
	}
}

func TestSymlinkScenario(t *testing.T) {
	e := newExtractor(t)

	rec, err := e.Next(cpioCursor(testutil.Symlink("./opt/link", "/opt/target")))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if rec.Name != "opt/link" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.LinkTarget != "/opt/target" {
		t.Errorf("LinkTarget = %q, want /opt/target", rec.LinkTarget)
	}
	if len(rec.Digest) != 0 {
		t.Errorf("Digest = %x, want empty", rec.Digest)
	}
	if rec.Size != int64(len("/opt/target")) {
		t.Errorf("Size = %d, want the reported size", rec.Size)
	}
}

func TestSymlinkTargetTruncatedAtChunk(t *testing.T) {
	e := newExtractor(t)
	target := "/" + strings.Repeat("t", ChunkSize+10)

	rec, err := e.Next(cpioCursor(testutil.Symlink("./long", target)))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.LinkTarget != target[:ChunkSize] {
		t.Errorf("LinkTarget has %d bytes, want %d", len(rec.LinkTarget), ChunkSize)
	}
	if rec.Size != int64(len(target)) {
		t.Errorf("Size = %d, want %d", rec.Size, len(target))
	}
}

func TestLinkTarget(t *testing.T) {
	tests := []struct {
		header []byte
		want   string
	}{
		{[]byte("/opt/target"), "/opt/target"},
		{[]byte("/opt/target\x00garbage"), "/opt/target"},
		{[]byte("\x00"), ""},
		{[]byte("caf\xe9"), "caf\uFFFD"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := LinkTarget(tt.header); got != tt.want {
			t.Errorf("LinkTarget(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestDirectory(t *testing.T) {
	e := newExtractor(t)
	c := &fakeCursor{entries: []fakeEntry{
		{info: archive.EntryInfo{Name: "./usr/share", Mode: models.ModeDir | 0755, Size: 512}},
	}}

	rec, err := e.Next(c)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.Size != DirSize {
		t.Errorf("Size = %d, want %d", rec.Size, DirSize)
	}
	if len(rec.Digest) != 0 {
		t.Errorf("Digest = %x, want empty", rec.Digest)
	}
	if rec.Class != "directory" {
		t.Errorf("Class = %q", rec.Class)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"./usr/bin/foo", "usr/bin/foo"},
		{"/usr/bin/foo", "usr/bin/foo"},
		{"usr/bin/foo", "usr/bin/foo"},
		{".//x", "/x"},
		{"//x", "/x"},
		{".hidden", ".hidden"},
		{".", "."},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnalyzerResultPassedThrough(t *testing.T) {
	gnuHash := models.NewDependency("rtld(GNU_HASH)", models.SenseFindRequires, "")
	soname := models.NewDependency("libfoo.so.1()(64bit)", models.SenseAny, "")

	var gotName string
	var gotInfo archive.EntryInfo
	a := analyzer.Func(func(name string, info archive.EntryInfo, header []byte) (analyzer.Result, error) {
		gotName, gotInfo = name, info
		return analyzer.Result{
			Flags:    7,
			Color:    2,
			Class:    "ELF 64-bit LSB shared object",
			Requires: []models.Dependency{gnuHash},
			Provides: []models.Dependency{soname},
		}, nil
	})
	e, _ := New(a)

	rec, err := e.Next(cpioCursor(testutil.File("./usr/lib64/libfoo.so.1", "\x7fELF")))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if gotName != "usr/lib64/libfoo.so.1" {
		t.Errorf("analyzer got name %q", gotName)
	}
	if gotInfo.Name != "./usr/lib64/libfoo.so.1" || gotInfo.Size != 4 {
		t.Errorf("analyzer got info %+v", gotInfo)
	}
	if rec.Flags != 7 || rec.Color != 2 || rec.Class != "ELF 64-bit LSB shared object" {
		t.Errorf("classification not passed through: %+v", rec)
	}
	if diff := cmp.Diff([]models.Dependency{gnuHash}, rec.Requires); diff != "" {
		t.Errorf("Requires mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]models.Dependency{soname}, rec.Provides); diff != "" {
		t.Errorf("Provides mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	e, _ := New(analyzer.Func(func(string, archive.EntryInfo, []byte) (analyzer.Result, error) {
		return analyzer.Result{}, boom
	}))

	rec, err := e.Next(cpioCursor(testutil.File("./a", "x")))
	if rec != nil {
		t.Errorf("Next returned a partial record: %+v", rec)
	}
	if !errors.Is(err, boom) || !models.IsType(err, models.ErrAnalyze) {
		t.Errorf("Next error = %v, want wrapped boom of type Analyze", err)
	}
}

func TestReadErrorsAreFatal(t *testing.T) {
	e := newExtractor(t)

	t.Run("content read", func(t *testing.T) {
		c := &fakeCursor{entries: []fakeEntry{{
			info:    archive.EntryInfo{Name: "./a", Mode: models.ModeRegular | 0644, Size: 2048},
			content: bytes.Repeat([]byte{1}, 1500),
			readErr: io.ErrClosedPipe,
		}}}
		rec, err := e.Next(c)
		if rec != nil {
			t.Error("Next returned a partial record")
		}
		if !errors.Is(err, io.ErrClosedPipe) || !models.IsType(err, models.ErrArchiveRead) {
			t.Errorf("Next error = %v", err)
		}
	})

	t.Run("truncated entry", func(t *testing.T) {
		c := &fakeCursor{entries: []fakeEntry{{
			info:    archive.EntryInfo{Name: "./a", Mode: models.ModeRegular | 0644, Size: 10},
			content: []byte("abc"),
		}}}
		if _, err := e.Next(c); !models.IsType(err, models.ErrArchiveRead) {
			t.Errorf("Next error = %v, want ArchiveRead", err)
		}
	})

	t.Run("header read", func(t *testing.T) {
		c := &fakeCursor{nextErr: io.ErrUnexpectedEOF}
		if _, err := e.Next(c); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("Next error = %v", err)
		}
	})

	t.Run("extract all aborts", func(t *testing.T) {
		c := &fakeCursor{entries: []fakeEntry{
			{info: archive.EntryInfo{Name: "./ok", Mode: models.ModeRegular | 0644, Size: 1}, content: []byte("k")},
			{info: archive.EntryInfo{Name: "./bad", Mode: models.ModeRegular | 0644, Size: 5}, content: []byte("b"), readErr: io.ErrClosedPipe},
		}}
		recs, err := e.ExtractAll(c)
		if err == nil {
			t.Fatal("ExtractAll should fail")
		}
		if recs != nil {
			t.Errorf("ExtractAll returned records on failure: %d", len(recs))
		}
	})
}

func TestExtractAll(t *testing.T) {
	e := newExtractor(t)

	c := archive.NewTarCursor(bytes.NewReader(testutil.Tar(t,
		testutil.Dir("./"),
		testutil.Dir("./usr/"),
		testutil.File("./usr/bin/foo", "hello"),
		testutil.Symlink("./usr/bin/bar", "foo"),
	)))

	recs, err := e.ExtractAll(c)
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}

	var names []string
	for _, r := range recs {
		names = append(names, r.Name)
	}
	want := []string{"usr", "usr/bin/foo", "usr/bin/bar"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	if recs[0].Size != DirSize || recs[2].LinkTarget != "foo" || recs[2].Digest != nil {
		t.Errorf("unexpected records: %+v", recs)
	}
}

func TestExtractAllSkipsRootButNextReturnsIt(t *testing.T) {
	payload := testutil.Cpio(
		testutil.Dir("."),
		testutil.File("./etc/demo.conf", "x=1\n"),
	)

	e := newExtractor(t)
	c := cpioCursor(testutil.Dir("."), testutil.File("./etc/demo.conf", "x=1\n"))
	var entries int
	for {
		_, err := e.Next(c)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		entries++
	}
	if entries != 2 {
		t.Fatalf("Next returned %d entries, want 2", entries)
	}

	recs, err := e.ExtractAll(archive.NewCpioCursor(bytes.NewReader(payload)))
	if err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Name != "etc/demo.conf" {
		t.Errorf("ExtractAll records = %+v, want only etc/demo.conf", recs)
	}
}
