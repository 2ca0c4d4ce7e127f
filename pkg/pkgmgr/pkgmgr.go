// Package pkgmgr detects a command-line package manager (Chocolatey by
// default) and lists the packages it has installed.
package pkgmgr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/winbackup/pkg/logging"
	"github.com/rs/zerolog"
)

// ErrListingFailed is returned when the manager is present but its package
// listing could not be read.
var ErrListingFailed = errors.New("package listing failed")

// DefaultCommand is the Chocolatey executable
const DefaultCommand = "choco"

// Result of a probe. Packages is only meaningful when Present.
type Result struct {
	Present  bool
	Version  string
	Packages []string
}

// Options configure a Probe
type Options struct {
	Command     string
	VersionArgs []string
	// ListArgs overrides the version-dependent listing arguments
	ListArgs []string
}

// Probe asks a package manager for its installed packages
type Probe struct {
	runner Runner
	opts   Options
	logger zerolog.Logger
}

// NewProbe creates a probe; zero options select Chocolatey defaults
func NewProbe(runner Runner, opts Options) *Probe {
	if opts.Command == "" {
		opts.Command = DefaultCommand
	}
	if len(opts.VersionArgs) == 0 {
		opts.VersionArgs = []string{"--version"}
	}
	return &Probe{
		runner: runner,
		opts:   opts,
		logger: logging.GetLogger("pkgmgr"),
	}
}

// Command returns the executable name being probed
func (p *Probe) Command() string {
	return p.opts.Command
}

// Probe checks for the manager and lists its packages. A manager that is
// missing or fails its version check is reported absent with a nil error
// and is never asked for a listing.
func (p *Probe) Probe(ctx context.Context) (Result, error) {
	out, err := p.runner.Run(ctx, p.opts.Command, p.opts.VersionArgs...)
	if err != nil {
		p.logger.Debug().Err(err).Str("command", p.opts.Command).Msg("Package manager not available")
		return Result{}, nil
	}

	result := Result{Present: true, Version: firstLine(out)}
	args := p.listArgs(result.Version)

	out, err = p.runner.Run(ctx, p.opts.Command, args...)
	if err != nil {
		return result, fmt.Errorf("%w: %s %s: %w", ErrListingFailed, p.opts.Command, strings.Join(args, " "), err)
	}

	result.Packages = ParseListing(out)
	p.logger.Info().
		Str("command", p.opts.Command).
		Str("version", result.Version).
		Int("packages", len(result.Packages)).
		Msg("Package manager listed")
	return result, nil
}

// listArgs picks the listing arguments. Chocolatey 2 lists local packages
// by default and rejects --local-only.
func (p *Probe) listArgs(version string) []string {
	if len(p.opts.ListArgs) > 0 {
		return p.opts.ListArgs
	}
	if major, ok := majorVersion(version); ok && major < 2 {
		return []string{"list", "--local-only", "--limit-output"}
	}
	return []string{"list", "--limit-output"}
}

// ParseListing extracts package identifiers from limit-output lines of the
// form "name|version". Blank lines are ignored; the result is sorted
// case-insensitively.
func ParseListing(out []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, _, _ := strings.Cut(line, "|")
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

func firstLine(out []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}

func majorVersion(version string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimPrefix(version, "v"), ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return major, true
}
