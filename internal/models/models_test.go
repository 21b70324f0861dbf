package models

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestDependencyString(t *testing.T) {
	tests := []struct {
		dep  Dependency
		want string
	}{
		{NewDependency("demo", SenseEqual, "1.0-1"), "demo = 1.0-1"},
		{NewDependency("rpmlib(FileDigests)", SenseLess|SenseEqual|SenseRpmLib, "4.6.0-1"), "rpmlib(FileDigests) <= 4.6.0-1"},
		{NewDependency("libc", SenseGreater|SenseEqual, "2.17"), "libc >= 2.17"},
		{NewDependency("rtld(GNU_HASH)", SenseFindRequires, ""), "rtld(GNU_HASH)"},
		{NewDependency("/sbin/ldconfig", SenseInterp|SenseScriptPost, ""), "/sbin/ldconfig"},
		{NewDependency("foo", SenseAny, "1.0"), "foo"},
	}

	for _, tt := range tests {
		if got := tt.dep.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDependencyEqual(t *testing.T) {
	a := NewDependency("demo", SenseEqual, "1.0-1")

	if !a.Equal(NewDependency("demo", SenseEqual, "1.0-1")) {
		t.Error("identical dependencies should be equal")
	}
	if a.Equal(NewDependency("demo", SenseEqual|SenseLess, "1.0-1")) {
		t.Error("dependencies with different flags should differ")
	}
	if a.Equal(NewDependency("demo", SenseEqual, "1.0-2")) {
		t.Error("dependencies with different versions should differ")
	}

	deps := []Dependency{NewDependency("x", SenseAny, ""), a}
	if !ContainsDependency(deps, a) {
		t.Error("ContainsDependency should find a")
	}
	if IndexDependency(deps, "demo") != 1 {
		t.Errorf("IndexDependency = %d, want 1", IndexDependency(deps, "demo"))
	}
	if IndexDependency(deps, "missing") != -1 {
		t.Error("IndexDependency should return -1 for a missing name")
	}
}

func TestFileRecordType(t *testing.T) {
	dir := FileRecord{Mode: ModeDir | 0755}
	link := FileRecord{Mode: ModeSymlink | 0777}
	reg := FileRecord{Mode: ModeRegular | 0644}

	if !dir.IsDir() || dir.IsSymlink() || dir.IsRegular() {
		t.Error("directory mode misclassified")
	}
	if !link.IsSymlink() || link.IsDir() {
		t.Error("symlink mode misclassified")
	}
	if !reg.IsRegular() || reg.IsDir() {
		t.Error("regular mode misclassified")
	}
}

func TestPackageNEVRA(t *testing.T) {
	pkg := PackageMetadata{Name: "demo", Version: "1.0", Release: "1", Arch: "x86_64"}

	if got := pkg.NEVRA(); got != "demo-1.0-1.x86_64" {
		t.Errorf("NEVRA() = %q", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("extract: %w", &Error{Type: ErrArchiveRead, Entry: "./usr/bin/foo", Err: io.ErrUnexpectedEOF})

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if !IsType(err, ErrArchiveRead) {
		t.Error("IsType should find ErrArchiveRead")
	}
	if IsType(err, ErrAnalyze) {
		t.Error("IsType should not match ErrAnalyze")
	}
	want := "[ArchiveRead] ./usr/bin/foo: unexpected EOF"
	var me *Error
	if !errors.As(err, &me) || me.Error() != want {
		t.Errorf("Error() = %q, want %q", me.Error(), want)
	}
}
