package filesystem

import (
	"io"
	"io/fs"
	"time"
)

// FS is the filesystem interface required by the copy engine and its helpers
type FS interface {
	// Metadata
	Stat(name string) (fs.FileInfo, error)
	// Lstat does not follow the final path element when it is a link.
	// Implementations without link support fall back to Stat.
	Lstat(name string) (fs.FileInfo, error)

	// Directory operations
	ReadDir(name string) ([]fs.DirEntry, error)
	Mkdir(name string, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error

	// File operations
	Open(name string) (io.ReadCloser, error)
	Create(name string, perm fs.FileMode) (io.WriteCloser, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Metadata updates
	Chmod(name string, mode fs.FileMode) error
	Chtimes(name string, atime, mtime time.Time) error
}

// Exists reports whether name can be stat'ed through fsys.
func Exists(fsys FS, name string) bool {
	_, err := fsys.Stat(name)
	return err == nil
}

// IsDir reports whether name is a directory, following links.
func IsDir(fsys FS, name string) bool {
	info, err := fsys.Stat(name)
	return err == nil && info.IsDir()
}
