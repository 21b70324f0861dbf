package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ralt/rpmfiles/internal/models"
	"gopkg.in/yaml.v3"
)

func samplePackage() *models.PackageMetadata {
	return &models.PackageMetadata{
		Name:    "demo",
		Version: "1.0",
		Release: "1",
		Arch:    "x86_64",
		Files: []models.FileRecord{
			{Name: "usr/bin", Mode: models.ModeDir | 0755, Size: 4096, User: models.RootUser, Group: models.RootGroup},
			{Name: "usr/bin/demo", Mode: models.ModeRegular | 0755, Size: 3, Digest: []byte{0xab, 0xcd}, User: models.RootUser, Group: models.RootGroup},
			{Name: "usr/bin/d", Mode: models.ModeSymlink | 0777, Size: 4, LinkTarget: "demo", User: models.RootUser, Group: models.RootGroup},
		},
		Provides: []models.Dependency{models.NewDependency("demo", models.SenseEqual, "1.0-1")},
		Requires: []models.Dependency{models.NewDependency("libc.so.6()(64bit)", 0, "")},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", FormatXML, false},
		{"toml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatText, samplePackage(), Options{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"demo-1.0-1.x86_64",
		"drwxr-xr-x",
		"lrwxrwxrwx",
		"abcd",
		"usr/bin/d -> demo",
		"Provides:\n  demo = 1.0-1\n",
		"Requires:\n  libc.so.6()(64bit)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTextFilesOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatText, samplePackage(), Options{FilesOnly: true}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "Provides:") || strings.Contains(out, "Package:") {
		t.Errorf("files-only output has package sections:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("got %d lines, want 3", got)
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatJSON, samplePackage(), Options{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var got packageView
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Name != "demo" || len(got.Files) != 3 {
		t.Fatalf("unexpected document: %+v", got)
	}
	if got.Files[0].Mode != "0040755" {
		t.Errorf("dir mode = %q, want 0040755", got.Files[0].Mode)
	}
	if got.Files[1].Digest != "abcd" {
		t.Errorf("digest = %q, want abcd", got.Files[1].Digest)
	}
	if diff := cmp.Diff([]string{"demo = 1.0-1"}, got.Provides); diff != "" {
		t.Errorf("provides mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatYAML, samplePackage(), Options{FilesOnly: true}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var got packageView
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if got.Name != "" || got.Provides != nil {
		t.Errorf("files-only yaml has package fields: %+v", got)
	}
	if got.Files[2].LinkTarget != "demo" {
		t.Errorf("link target = %q, want demo", got.Files[2].LinkTarget)
	}
}

func TestRenderXML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, FormatXML, samplePackage(), Options{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<metadata") {
		t.Errorf("xml output is not a primary document:\n%s", buf.String())
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, Format("toml"), samplePackage(), Options{})
	if !models.IsType(err, models.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode uint32
		want string
	}{
		{models.ModeRegular | 0644, "-rw-r--r--"},
		{models.ModeDir | 0755, "drwxr-xr-x"},
		{models.ModeSymlink | 0777, "lrwxrwxrwx"},
		{models.ModeChar | 0620, "crw--w----"},
		{models.ModeBlock | 0660, "brw-rw----"},
		{models.ModeFifo | 0600, "prw-------"},
		{models.ModeSocket | 0755, "srwxr-xr-x"},
		{models.ModeRegular | 04755, "-rwsr-xr-x"},
		{models.ModeRegular | 04644, "-rwSr--r--"},
		{models.ModeDir | 02775, "drwxrwsr-x"},
		{models.ModeDir | 02745, "drwxr-Sr-x"},
		{models.ModeDir | 01777, "drwxrwxrwt"},
		{models.ModeDir | 01776, "drwxrwxrwT"},
	}

	for _, tt := range tests {
		if got := ModeString(tt.mode); got != tt.want {
			t.Errorf("ModeString(%o) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
