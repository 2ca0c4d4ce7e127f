// Package paths provides the locations winbackup keeps its own files in.
// It follows the XDG Base Directory specification through adrg/xdg, with
// environment overrides for scripted runs.
package paths
