//go:build !windows

package elevation

import (
	"os"

	"github.com/arthur-debert/winbackup/pkg/errors"
)

// IsElevated reports whether the process runs as root
func IsElevated() bool {
	return os.Geteuid() == 0
}

// Relaunch is not supported outside Windows
func Relaunch(exe, args string) error {
	return errors.Newf(errors.ErrUnsupported, "cannot relaunch %s with elevated rights on this platform", exe)
}
