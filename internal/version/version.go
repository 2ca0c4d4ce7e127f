// Package version holds build information stamped by the release build.
package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/winbackup/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/winbackup/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/winbackup/internal/version.Date={{.Date}}
)
