//go:build !windows

package reparse

import "io/fs"

// isRedirect treats symbolic links as the only redirection mechanism
func isRedirect(info fs.FileInfo) bool {
	return info.Mode()&fs.ModeSymlink != 0
}
