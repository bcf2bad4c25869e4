package output

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

type rawCatalog []byte

func (c rawCatalog) IndentedJSON() ([]byte, error) { return c, nil }

type failingCatalog struct{}

func (failingCatalog) IndentedJSON() ([]byte, error) { return nil, errors.New("boom") }

func TestCreateDirIsIdempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "c")
	for i := 0; i < 2; i++ {
		if err := CreateDir(target); err != nil {
			t.Fatalf("CreateDir attempt %d: %v", i, err)
		}
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory: %v", err)
	}
}

func TestCreateDirOverFileFails(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := CreateDir(filepath.Join(file, "child"))
	if !errors.Is(err, ErrFilesystem) {
		t.Fatalf("expected filesystem error, got %v", err)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	if err := os.WriteFile(present, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if ok, err := Exists(present); err != nil || !ok {
		t.Fatalf("Exists(present) = %v, %v", ok, err)
	}
	if ok, err := Exists(filepath.Join(dir, "absent")); err != nil || ok {
		t.Fatalf("Exists(absent) = %v, %v", ok, err)
	}
}

func TestExistsReportsUnexpectedErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS == "windows" {
		t.Skip("ENOTDIR semantics differ on windows")
	}
	// A path below a regular file yields ENOTDIR, which is not "not found".
	_, err := Exists(filepath.Join(file, "child"))
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) || fsErr.Op != "stat" {
		t.Fatalf("expected stat FilesystemError, got %v", err)
	}
}

func TestWriteCatalogOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte("stale"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteCatalog(path, rawCatalog("[]\n")); err != nil {
		t.Fatalf("WriteCatalog: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "[]\n" {
		t.Fatalf("unexpected catalog %q, %v", data, err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".items.json.part-*"))
	if len(leftovers) != 0 {
		t.Fatalf("expected no staging files, got %v", leftovers)
	}
}

func TestWriteCatalogEncodeFailure(t *testing.T) {
	err := WriteCatalog(filepath.Join(t.TempDir(), "items.json"), failingCatalog{})
	if !errors.Is(err, ErrFilesystem) {
		t.Fatalf("expected filesystem error, got %v", err)
	}
}

func TestPlaceReplacesDestination(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(dst, []byte("sentinel"), 0o600); err != nil {
		t.Fatal(err)
	}
	tmp := TempPath(dst)
	if !strings.HasPrefix(filepath.Base(tmp), ".a.txt.part-") {
		t.Fatalf("unexpected temp name %q", tmp)
	}
	if err := os.WriteFile(tmp, []byte("fresh"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Place(tmp, dst); err != nil {
		t.Fatalf("Place: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "fresh" {
		t.Fatalf("expected replacement, got %q", data)
	}
	if _, err := os.Stat(tmp); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp file gone, got %v", err)
	}
}

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":       "report.pdf",
		"  spaced.txt  ":   "  spaced.txt  ",
		"report.txt ":      "report.txt ",
		"../../etc/passwd": ".._.._etc_passwd",
		`dir\file.txt`:     "dir_file.txt",
		"..":               "__",
		".":                "_",
		"":                 "_",
		"cafe\u0301.txt":   "caf\u00e9.txt",
		"nul\x00byte":      "nul_byte",
	}
	for in, want := range cases {
		if got := SafeFileName(in); got != want {
			t.Fatalf("SafeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
