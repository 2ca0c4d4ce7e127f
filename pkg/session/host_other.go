//go:build !windows

package session

func windowsBuild() (uint32, bool) {
	return 0, false
}
