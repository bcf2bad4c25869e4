package output

import (
	"errors"
	"fmt"
)

// ErrFilesystem matches every *FilesystemError.
var ErrFilesystem = errors.New("filesystem error")

// FilesystemError reports an unexpected failure while touching the destination tree.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

func (e *FilesystemError) Is(target error) bool {
	return target == ErrFilesystem
}

func fsError(op, path string, err error) error {
	return &FilesystemError{Op: op, Path: path, Err: err}
}
