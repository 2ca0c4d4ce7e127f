// Package elevation checks for and requests administrative rights. Reading
// other users' profiles and the machine-wide catalog needs them on Windows.
package elevation

import (
	"os"
	"strings"

	"github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/logging"
)

// Require returns nil when the process is elevated. Otherwise, unless
// relaunch is false, it starts an elevated copy of the current process and
// returns an ErrNotElevated error so the caller can exit.
func Require(relaunch bool) error {
	logger := logging.GetLogger("elevation")
	if IsElevated() {
		logger.Debug().Msg("Process is elevated")
		return nil
	}
	if !relaunch {
		return errors.New(errors.ErrNotElevated, "administrative rights are required")
	}

	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot locate executable")
	}
	logger.Info().Str("executable", exe).Msg("Requesting elevation")
	if err := Relaunch(exe, quoteArgs(os.Args[1:])); err != nil {
		return errors.Wrap(err, errors.ErrNotElevated, "elevation request failed")
	}
	return errors.New(errors.ErrNotElevated, "relaunched with administrative rights").
		WithDetail("relaunched", true)
}

// Relaunched reports whether err came from Require handing over to an
// elevated copy, in which case the current process should just exit.
func Relaunched(err error) bool {
	v, ok := errors.GetErrorDetails(err)["relaunched"].(bool)
	return ok && v
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
