//go:build windows

package elevation

import (
	"golang.org/x/sys/windows"
)

// IsElevated reports whether the process token is elevated
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

// Relaunch starts exe with args through the "runas" verb, which shows the
// UAC prompt.
func Relaunch(exe, args string) error {
	verb, err := windows.UTF16PtrFromString("runas")
	if err != nil {
		return err
	}
	file, err := windows.UTF16PtrFromString(exe)
	if err != nil {
		return err
	}
	params, err := windows.UTF16PtrFromString(args)
	if err != nil {
		return err
	}
	return windows.ShellExecute(0, verb, file, params, nil, windows.SW_NORMAL)
}
