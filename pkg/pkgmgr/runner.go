package pkgmgr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every external command
const DefaultTimeout = 2 * time.Minute

// Runner runs an external command and returns its standard output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands found on PATH
type ExecRunner struct {
	Timeout time.Duration
	logger  zerolog.Logger
}

// NewExecRunner creates a runner; a non-positive timeout uses DefaultTimeout
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{
		Timeout: timeout,
		logger:  logging.GetLogger("pkgmgr.exec"),
	}
}

// Run executes name with args. A missing executable, a non-zero exit or
// a timeout is an error.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotFound, "command not found: %s", name)
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	logging.LogCommand(r.logger, path, args)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.Debug().
			Err(err).
			Str("command", name).
			Strs("args", args).
			Str("stderr", strings.TrimSpace(stderr.String())).
			Msg("Command failed")
		return stdout.Bytes(), errors.Wrapf(err, errors.ErrPackageList,
			"command failed: %s %s", name, strings.Join(args, " "))
	}
	return stdout.Bytes(), nil
}
