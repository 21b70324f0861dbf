package repodata

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/patcher"
	"github.com/ralt/rpmfiles/internal/testutil"
)

func patchedDemo(t *testing.T) *models.PackageMetadata {
	t.Helper()
	pkg := &models.PackageMetadata{
		Name: "demo", Version: "1.0", Release: "1", Arch: "x86_64",
		Files: []models.FileRecord{
			{Name: "usr/bin", Mode: models.ModeDir | 0755, Size: 4096},
			{Name: "usr/bin/demo", Mode: models.ModeRegular | 0755, Size: 12},
		},
		Requires: []models.Dependency{models.NewDependency("glibc", models.SenseGreater|models.SenseEqual, "1:2.17-5")},
	}
	if err := patcher.Patch(pkg); err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	return pkg
}

func TestRender(t *testing.T) {
	out, err := Render(patchedDemo(t), Options{Checksum: "abc", Size: 1234, Location: "Packages/demo-1.0-1.x86_64.rpm"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var doc metadata
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid XML: %v\n%s", err, out)
	}
	if doc.PackagesCount != 1 || len(doc.Packages) != 1 {
		t.Fatalf("unexpected package count: %d", doc.PackagesCount)
	}

	s := string(out)
	for _, want := range []string{
		`<rpm:entry name="demo" flags="EQ" epoch="0" ver="1.0" rel="1"></rpm:entry>`,
		`<rpm:entry name="demo(x86-64)" flags="EQ" epoch="0" ver="1.0" rel="1"></rpm:entry>`,
		`<rpm:entry name="glibc" flags="GE" epoch="1" ver="2.17" rel="5"></rpm:entry>`,
		`<rpm:entry name="/sbin/ldconfig" pre="1"></rpm:entry>`,
		`<rpm:entry name="rtld(GNU_HASH)"></rpm:entry>`,
		`<file type="dir">/usr/bin</file>`,
		`<file>/usr/bin/demo</file>`,
		`<checksum type="sha256" pkgid="YES">abc</checksum>`,
		`<size package="1234" installed="12"></size>`,
		`<location href="Packages/demo-1.0-1.x86_64.rpm"></location>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %s", want)
		}
	}
	if strings.Contains(s, "rpmlib(") {
		t.Error("rpmlib requires should be omitted")
	}
}

func TestRenderGzip(t *testing.T) {
	pkg := patchedDemo(t)

	plain, err := Render(pkg, Options{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	gz, err := Render(pkg, Options{Gzip: true})
	if err != nil {
		t.Fatalf("Render gzip failed: %v", err)
	}
	out := testutil.Gunzip(t, gz)
	if diff := cmp.Diff(string(plain), string(out)); diff != "" {
		t.Errorf("gzip payload differs (-plain +gunzipped):\n%s", diff)
	}
}

func TestSplitEVR(t *testing.T) {
	tests := []struct {
		in              string
		epoch, ver, rel string
	}{
		{"1.0-1", "0", "1.0", "1"},
		{"2:1.0-1.fc40", "2", "1.0", "1.fc40"},
		{"3.0.4", "0", "3.0.4", ""},
		{"1.0-rc1-2", "0", "1.0-rc1", "2"},
	}

	for _, tt := range tests {
		e, v, r := splitEVR(tt.in)
		if e != tt.epoch || v != tt.ver || r != tt.rel {
			t.Errorf("splitEVR(%q) = %q, %q, %q", tt.in, e, v, r)
		}
	}
}

func TestFlagName(t *testing.T) {
	tests := []struct {
		flags models.SenseFlags
		want  string
	}{
		{models.SenseEqual, "EQ"},
		{models.SenseLess, "LT"},
		{models.SenseGreater, "GT"},
		{models.SenseLess | models.SenseEqual | models.SenseRpmLib, "LE"},
		{models.SenseGreater | models.SenseEqual, "GE"},
		{models.SenseFindRequires, ""},
	}
	for _, tt := range tests {
		if got := flagName(tt.flags); got != tt.want {
			t.Errorf("flagName(%#x) = %q, want %q", tt.flags, got, tt.want)
		}
	}
}
