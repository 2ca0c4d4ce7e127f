package session

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// TimestampLayout formats the bracketed timestamp of a destination name
const TimestampLayout = "2006-01-02-15-04-05"

// Host identifies the machine being backed up
type Host struct {
	Name  string
	OSTag string
}

// windowsReleases maps Windows 11 build numbers to their marketing release
var windowsReleases = map[uint32]string{
	22000: "21H2",
	22621: "22H2",
	22631: "23H2",
	26100: "24H2",
}

// ReleaseForBuild returns the release name of a build, or "build<N>" for
// builds not in the table.
func ReleaseForBuild(build uint32) string {
	if r, ok := windowsReleases[build]; ok {
		return r
	}
	return fmt.Sprintf("build%d", build)
}

// DetectHost reads the machine name and operating system tag
func DetectHost() Host {
	return Host{Name: hostName(), OSTag: osTag()}
}

func hostName() string {
	if name := strings.TrimSpace(os.Getenv("COMPUTERNAME")); name != "" {
		return name
	}
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "unknown-host"
}

func osTag() string {
	if build, ok := windowsBuild(); ok {
		return "win" + ReleaseForBuild(build)
	}
	return runtime.GOOS
}

// DestinationName is "<host>-<os>-backup-[YYYY-MM-DD-HH-MM-SS]"
func DestinationName(host Host, t time.Time) string {
	return fmt.Sprintf("%s-%s-backup-[%s]", host.Name, host.OSTag, t.Format(TimestampLayout))
}
