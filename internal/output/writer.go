package output

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	// DirPerm keeps exported vault data private to the owner.
	DirPerm  = 0o700
	FilePerm = 0o600
)

// Catalog is anything that can render the item list as indented JSON.
type Catalog interface {
	IndentedJSON() ([]byte, error)
}

// CreateDir creates path and any missing parents. Existing directories are fine.
func CreateDir(path string) error {
	if err := os.MkdirAll(path, DirPerm); err != nil {
		return fsError("create directory", path, err)
	}
	return nil
}

// Exists reports whether path exists. Not-found is false; any other stat
// failure is returned as a *FilesystemError.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fsError("stat", path, err)
}

// WriteCatalog serializes the catalog to path, replacing any previous dump.
func WriteCatalog(path string, catalog Catalog) error {
	data, err := catalog.IndentedJSON()
	if err != nil {
		return fsError("encode catalog", path, err)
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temporary sibling and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	tmp := TempPath(path)
	if err := os.WriteFile(tmp, data, FilePerm); err != nil {
		_ = os.Remove(tmp)
		return fsError("write", tmp, err)
	}
	return Place(tmp, path)
}

// TempPath returns an unused hidden sibling path for staging a write to dst.
func TempPath(dst string) string {
	dir, base := filepath.Split(dst)
	return filepath.Join(dir, "."+base+".part-"+uuid.NewString()[:8])
}

// Place moves a fully written temporary file onto dst, replacing dst if present.
func Place(tmp, dst string) error {
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fsError("rename", dst, err)
	}
	return nil
}

// Discard removes a staging file left behind by a failed write.
func Discard(tmp string) {
	_ = os.Remove(tmp)
}

// SafeFileName maps a vault-supplied name to a single path element. The name
// is NFC-normalized, path separators and NUL are replaced, and the dot entries
// are neutralized so the result can never escape its parent directory.
// Surrounding whitespace is kept; it is part of the name.
func SafeFileName(name string) string {
	name = norm.NFC.String(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	switch name {
	case "":
		return "_"
	case ".", "..":
		return strings.Repeat("_", len(name))
	}
	return name
}
