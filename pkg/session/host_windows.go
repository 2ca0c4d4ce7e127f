//go:build windows

package session

import "golang.org/x/sys/windows"

func windowsBuild() (uint32, bool) {
	v := windows.RtlGetVersion()
	if v == nil {
		return 0, false
	}
	return v.BuildNumber, true
}
