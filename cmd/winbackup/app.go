package main

import (
	"fmt"
	"io"

	"github.com/arthur-debert/winbackup/pkg/config"
	"github.com/arthur-debert/winbackup/pkg/ui"
	"github.com/arthur-debert/winbackup/pkg/ui/console"
	"github.com/arthur-debert/winbackup/pkg/ui/styles"
)

// app carries the streams and settings shared by the commands
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	styled bool

	configFile string
	verbosity  int
	dryRun     bool
	format     string

	cfg         *config.Config
	console     *console.Console
	pauseOnExit bool
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut}
}

// resolveFormat decides once whether output is styled
func (a *app) resolveFormat() error {
	f, err := ui.ParseFormat(a.format)
	if err != nil {
		return err
	}
	a.styled = ui.Styled(f, a.out)
	return nil
}

// loadConfig reads the configuration once
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(config.LoadOptions{ConfigFile: a.configFile})
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) getConsole() *console.Console {
	if a.console == nil {
		a.console = console.New(a.in, a.out, a.styled)
	}
	return a.console
}

// fail reports an error that ended the program and, for interactive runs,
// waits so the message stays visible in a console window.
func (a *app) fail(err error) {
	msg := fmt.Sprintf(MsgFailed, err)
	if a.styled {
		msg = styles.Render("Error", msg)
	}
	_, _ = fmt.Fprintln(a.errOut, msg)
	if a.pauseOnExit {
		a.getConsole().Pause(MsgExitPause)
	}
}
