//go:build windows

package reparse

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/windows"
)

// isRedirect reports symbolic links of any kind, and directory reparse
// points (junctions, mount points). File-level reparse points such as cloud
// placeholders or deduplicated files are readable in place and stay normal.
func isRedirect(info fs.FileInfo) bool {
	if info.Mode()&fs.ModeSymlink != 0 {
		return true
	}
	if data, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return data.FileAttributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0 &&
			data.FileAttributes&windows.FILE_ATTRIBUTE_DIRECTORY != 0
	}
	// Go 1.23+ reports junctions as irregular directories.
	return info.Mode()&fs.ModeIrregular != 0 && info.IsDir()
}
