// Package session runs one backup: it picks profiles, names and creates the
// destination, replicates each profile's selected directories and finally
// writes the software inventories and a manifest.
package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/filesystem"
	"github.com/arthur-debert/winbackup/pkg/inventory"
	"github.com/arthur-debert/winbackup/pkg/logging"
	"github.com/arthur-debert/winbackup/pkg/pkgmgr"
	"github.com/arthur-debert/winbackup/pkg/replicate"
	"github.com/arthur-debert/winbackup/pkg/selection"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Output file names inside the destination
const (
	DefaultSoftwareFile = "installed-softwares.txt"
	DefaultPackagesFile = "choco-installed-softwares.txt"
)

// ProfileChooser picks which of the available profiles to back up
type ProfileChooser interface {
	ChooseProfiles(available []string) ([]string, error)
}

// BaseDirChooser confirms or replaces the configured base directory
type BaseDirChooser interface {
	ChooseBaseDir(defaultDir string) (string, error)
}

// Pauser waits for the operator after each profile
type Pauser interface {
	Pause(message string)
}

// SoftwareCollector lists installed software
type SoftwareCollector interface {
	Collect(roots []inventory.Root) inventory.Result
}

// PackageProber lists packages of a package manager
type PackageProber interface {
	Probe(ctx context.Context) (pkgmgr.Result, error)
	Command() string
}

// Options are the settings of one session. PreviewDepth is handed to the
// tree renderer as is, so 0 lists only the immediate children of an
// optional directory.
type Options struct {
	BaseDir         string
	ProfilesRoot    string
	ExcludeProfiles []string
	MandatoryDirs   []string
	PreviewDepth    int
	CatalogRoots    []inventory.Root
	SoftwareFile    string
	PackagesFile    string
	ManifestFile    string
	DryRun          bool
}

// Deps are the collaborators of a session. FS is required; nil Software or
// Packages skip that step, nil Chooser selects every profile and nil
// Decider declines every optional directory.
type Deps struct {
	FS       filesystem.FS
	Host     *Host
	Now      func() time.Time
	BaseDir  BaseDirChooser
	Chooser  ProfileChooser
	Decider  selection.Decider
	Pauser   Pauser
	Software SoftwareCollector
	Packages PackageProber
}

// Session is a single backup run
type Session struct {
	opts   Options
	deps   Deps
	host   Host
	logger zerolog.Logger
}

// New creates a session, filling unset options with defaults
func New(opts Options, deps Deps) *Session {
	if opts.SoftwareFile == "" {
		opts.SoftwareFile = DefaultSoftwareFile
	}
	if opts.PackagesFile == "" {
		opts.PackagesFile = DefaultPackagesFile
	}
	if opts.ManifestFile == "" {
		opts.ManifestFile = DefaultManifestFile
	}
	if opts.ExcludeProfiles == nil {
		opts.ExcludeProfiles = DefaultExcludedProfiles
	}
	if opts.PreviewDepth < 0 {
		opts.PreviewDepth = selection.DefaultPreviewDepth
	}
	if opts.CatalogRoots == nil {
		opts.CatalogRoots = inventory.DefaultRoots
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Session{
		opts:   opts,
		deps:   deps,
		logger: logging.GetLogger("session"),
	}
	if deps.Host != nil {
		s.host = *deps.Host
	} else {
		s.host = DetectHost()
	}
	return s
}

// Run performs the backup. Fatal preconditions (no profile selected, an
// existing destination) are reported before anything is written. Per entry
// failures never stop the run; they are counted in the report.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	done := logging.LogOperationStart(s.logger, "backup")
	defer done()

	report := &Report{
		SessionID:    uuid.NewString(),
		Host:         s.host,
		DryRun:       s.opts.DryRun,
		Started:      s.deps.Now(),
		SoftwareFile: s.opts.SoftwareFile,
		PackagesFile: s.opts.PackagesFile,
	}

	baseDir, err := s.baseDir()
	if err != nil {
		return report, err
	}

	profiles, err := s.chooseProfiles()
	if err != nil {
		return report, err
	}

	report.Destination = filepath.Join(baseDir, DestinationName(s.host, report.Started))
	if err := s.createDestination(report.Destination); err != nil {
		return report, err
	}
	s.logger.Info().
		Str("destination", report.Destination).
		Strs("profiles", profiles).
		Bool("dry_run", s.opts.DryRun).
		Msg("Backup started")

	policy := selection.NewPolicy(s.deps.FS, s.opts.MandatoryDirs, s.deps.Decider)
	policy.PreviewDepth = s.opts.PreviewDepth
	replicator := replicate.New(s.deps.FS, s.opts.DryRun)

	for _, name := range profiles {
		pr, err := s.backupProfile(ctx, policy, replicator, name, report.Destination)
		report.Profiles = append(report.Profiles, pr)
		if err != nil {
			report.Finished = s.deps.Now()
			return report, err
		}
		if s.deps.Pauser != nil {
			verb := "backup"
			if s.opts.DryRun {
				verb = "dry-run"
			}
			s.deps.Pauser.Pause("User '" + name + "' " + verb + " completed.")
		}
	}

	if err := ctx.Err(); err != nil {
		report.Finished = s.deps.Now()
		return report, errors.Wrap(err, errors.ErrInterrupted, "backup interrupted")
	}

	s.saveSoftware(report)
	s.savePackages(ctx, report)

	report.Finished = s.deps.Now()
	if !s.opts.DryRun {
		path := filepath.Join(report.Destination, s.opts.ManifestFile)
		if err := WriteManifest(s.deps.FS, path, NewManifest(report)); err != nil {
			return report, err
		}
		report.ManifestFile = path
	}

	total := report.Totals()
	s.logger.Info().
		Int("profiles", len(report.Profiles)).
		Int("directories", total.Attempted).
		Int("files", total.FilesCopied).
		Int64("bytes", total.BytesCopied).
		Msg("Backup finished")
	return report, nil
}

func (s *Session) baseDir() (string, error) {
	dir := s.opts.BaseDir
	if s.deps.BaseDir != nil {
		chosen, err := s.deps.BaseDir.ChooseBaseDir(dir)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInvalidInput, "no base directory")
		}
		if chosen = strings.TrimSpace(chosen); chosen != "" {
			dir = chosen
		}
	}
	if dir == "" {
		return "", errors.New(errors.ErrInvalidInput, "base directory is not set")
	}
	return dir, nil
}

func (s *Session) chooseProfiles() ([]string, error) {
	available, err := DiscoverProfiles(s.deps.FS, s.opts.ProfilesRoot, s.opts.ExcludeProfiles)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Strs("profiles", available).Msg("Profiles discovered")

	selected := available
	if s.deps.Chooser != nil && len(available) > 0 {
		selected, err = s.deps.Chooser.ChooseProfiles(available)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrNoProfiles, "profile selection failed")
		}
	}
	if len(selected) == 0 {
		return nil, errors.New(errors.ErrNoProfiles, "no profiles selected")
	}
	return selected, nil
}

// createDestination never reuses a directory. In a dry run it only checks.
func (s *Session) createDestination(dest string) error {
	if filesystem.Exists(s.deps.FS, dest) {
		return errors.Newf(errors.ErrDestinationExists, "backup directory already exists: %s", dest).
			WithDetail("path", dest)
	}
	if s.opts.DryRun {
		s.logger.Info().Str("path", dest).Msg("Would create directory")
		return nil
	}

	if err := s.deps.FS.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", filepath.Dir(dest))
	}
	if err := s.deps.FS.Mkdir(dest, 0755); err != nil {
		if os.IsExist(err) {
			return errors.Newf(errors.ErrDestinationExists, "backup directory already exists: %s", dest).
				WithDetail("path", dest)
		}
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", dest)
	}
	return nil
}

func (s *Session) backupProfile(ctx context.Context, policy *selection.Policy, replicator *replicate.Replicator, name, dest string) (ProfileReport, error) {
	pr := ProfileReport{
		Name:        name,
		Destination: filepath.Join(dest, name),
	}
	logger := s.logger.With().Str("profile", name).Logger()
	logger.Info().Msg("Processing profile")

	plans, err := policy.Plan(filepath.Join(s.opts.ProfilesRoot, name), pr.Destination)
	if err != nil {
		// An unreadable profile is reported and the next one proceeds.
		logger.Error().Err(err).Msg("Cannot plan profile")
		pr.Summary.Failed++
		return pr, nil
	}

	if !s.opts.DryRun {
		if err := s.deps.FS.MkdirAll(pr.Destination, 0755); err != nil {
			return pr, errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", pr.Destination)
		}
	}

	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return pr, errors.Wrap(err, errors.ErrInterrupted, "backup interrupted")
		}

		outcome := Outcome{Plan: plan}
		if plan.Decision.Included() {
			outcome.Result = replicator.Replicate(plan.Source, plan.Destination)
			logger.Info().
				Str("directory", plan.Name).
				Int("files", outcome.Result.FilesCopied).
				Int("failures", len(outcome.Result.Failed)).
				Msg("Directory replicated")
		} else {
			logger.Debug().
				Str("directory", plan.Name).
				Str("decision", plan.Decision.String()).
				Str("reason", plan.Reason).
				Msg("Directory skipped")
		}
		pr.Summary.record(plan, outcome.Result)
		pr.Outcomes = append(pr.Outcomes, outcome)
	}
	return pr, nil
}

// saveSoftware and savePackages record failures on the report; a list
// that cannot be written never stops the run.
func (s *Session) saveSoftware(report *Report) {
	if s.deps.Software == nil {
		return
	}
	report.Software = s.deps.Software.Collect(s.opts.CatalogRoots)
	path := filepath.Join(report.Destination, s.opts.SoftwareFile)
	if err := s.writeList(path, report.Software.Names); err != nil {
		report.SoftwareErr = err
		s.logger.Error().Err(err).Str("path", path).Msg("Software list not saved")
	}
}

func (s *Session) savePackages(ctx context.Context, report *Report) {
	if s.deps.Packages == nil {
		return
	}
	report.PackageManager = s.deps.Packages.Command()

	result, err := s.deps.Packages.Probe(ctx)
	report.Packages = result
	if err != nil {
		report.PackagesErr = err
		s.logger.Warn().Err(err).Msg("Package listing failed")
		return
	}
	if !result.Present {
		s.logger.Info().Str("command", report.PackageManager).Msg("Package manager not installed")
		return
	}
	path := filepath.Join(report.Destination, s.opts.PackagesFile)
	if err := s.writeList(path, result.Packages); err != nil {
		report.PackagesErr = err
		s.logger.Error().Err(err).Str("path", path).Msg("Package list not saved")
	}
}

// writeList writes one line per item with a trailing newline
func (s *Session) writeList(path string, lines []string) error {
	if s.opts.DryRun {
		s.logger.Info().Str("path", path).Int("lines", len(lines)).Msg("Would write list")
		return nil
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if err := s.deps.FS.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
	}
	return nil
}
