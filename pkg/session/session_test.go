package session

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	werrors "github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/filesystem"
	"github.com/arthur-debert/winbackup/pkg/inventory"
	"github.com/arthur-debert/winbackup/pkg/pkgmgr"
	"github.com/arthur-debert/winbackup/pkg/selection"
	"github.com/arthur-debert/winbackup/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedTime = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	testHost  = Host{Name: "DESKTOP-TEST", OSTag: "win23H2"}
	destName  = "DESKTOP-TEST-win23H2-backup-[2024-05-17-09-30-00]"
)

type chooser struct {
	pick    []string
	offered []string
	err     error
}

func (c *chooser) ChooseProfiles(available []string) ([]string, error) {
	c.offered = available
	return c.pick, c.err
}

type pauser struct{ messages []string }

func (p *pauser) Pause(message string) { p.messages = append(p.messages, message) }

type prober struct {
	result pkgmgr.Result
	err    error
	calls  int
}

func (p *prober) Probe(context.Context) (pkgmgr.Result, error) {
	p.calls++
	return p.result, p.err
}

func (p *prober) Command() string { return "choco" }

func writeTree(t *testing.T, fsys filesystem.FS, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(p, "/")))
		if strings.HasSuffix(p, "/") {
			require.NoError(t, fsys.MkdirAll(full, 0755))
			continue
		}
		require.NoError(t, fsys.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, fsys.WriteFile(full, []byte(p), 0644))
	}
}

func softwareCatalog() *inventory.Collector {
	catalog := inventory.NewMemoryCatalog()
	root := catalog.AddRoot(inventory.DefaultRoots[0])
	root.Child("{1}", "Zoom")
	root.Child("{2}", "7-Zip")
	return inventory.NewCollector(catalog)
}

func newSession(fsys filesystem.FS, opts Options, deps Deps) *Session {
	deps.FS = fsys
	deps.Host = &testHost
	deps.Now = func() time.Time { return fixedTime }
	if opts.ProfilesRoot == "" {
		opts.ProfilesRoot = "/Users"
	}
	if opts.BaseDir == "" {
		opts.BaseDir = "/backup"
	}
	return New(opts, deps)
}

func TestRunBacksUpMandatoryAndDeclinesOptional(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users",
		"alice/Documents/cv.docx",
		"alice/Desktop/todo.txt",
		"alice/Desktop/Browser.lnk",
		"alice/Projects/app/main.go",
		"Public/Documents/shared.txt",
		"Default/",
	)
	ch := &chooser{pick: []string{"alice"}}
	pa := &pauser{}
	pr := &prober{result: pkgmgr.Result{Present: true, Version: "2.2.2", Packages: []string{"git", "vscode"}}}
	declineAll := selection.DeciderFunc(func(string, string) (bool, error) { return false, nil })

	report, err := newSession(fsys, Options{}, Deps{
		Chooser:  ch,
		Decider:  declineAll,
		Pauser:   pa,
		Software: softwareCatalog(),
		Packages: pr,
	}).Run(context.Background())
	require.NoError(t, err)

	dest := filepath.Join("/backup", destName)
	assert.Equal(t, dest, report.Destination)
	assert.Equal(t, []string{"alice"}, ch.offered, "Public and Default are never offered")
	assert.Equal(t, []string{"User 'alice' backup completed."}, pa.messages)
	assert.NotEmpty(t, report.SessionID)

	require.Len(t, report.Profiles, 1)
	summary := report.Profiles[0].Summary
	assert.Equal(t, 2, summary.Attempted, "Documents and Desktop")
	assert.Equal(t, 4, summary.Skipped, "Downloads, Pictures, Videos missing and Projects declined")
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.FilesCopied)
	assert.Equal(t, 1, summary.EntriesSkipped, "the shortcut")

	assert.True(t, filesystem.Exists(fsys, filepath.Join(dest, "alice", "Documents", "cv.docx")))
	assert.True(t, filesystem.Exists(fsys, filepath.Join(dest, "alice", "Desktop", "todo.txt")))
	assert.False(t, filesystem.Exists(fsys, filepath.Join(dest, "alice", "Desktop", "Browser.lnk")))
	assert.False(t, filesystem.Exists(fsys, filepath.Join(dest, "alice", "Projects")))
	for _, missing := range []string{"Downloads", "Pictures", "Videos"} {
		assert.False(t, filesystem.Exists(fsys, filepath.Join(dest, "alice", missing)),
			"missing %s is reported, not created", missing)
	}

	assert.Equal(t, "7-Zip\nZoom\n", readFile(t, fsys, filepath.Join(dest, DefaultSoftwareFile)))
	assert.Equal(t, "git\nvscode\n", readFile(t, fsys, filepath.Join(dest, DefaultPackagesFile)))

	manifest, err := ReadManifest(fsys, report.ManifestFile)
	require.NoError(t, err)
	assert.Equal(t, report.SessionID, manifest.SessionID)
	assert.Equal(t, "DESKTOP-TEST", manifest.Host)
	assert.Equal(t, 2, manifest.Software.Count)
	assert.Equal(t, 2, manifest.Packages.Count)
	require.Len(t, manifest.Profiles, 1)
	assert.Equal(t, "alice", manifest.Profiles[0].Name)
	assert.Len(t, manifest.Profiles[0].Directories, 6)
	assert.Equal(t, "optional-declined", manifest.Profiles[0].Directories[5].Decision)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users", "bob/Documents/a.txt", "bob/Documents/b.txt")
	pr := &prober{result: pkgmgr.Result{Present: true, Packages: []string{"git"}}}

	report, err := newSession(fsys, Options{DryRun: true}, Deps{
		Chooser:  &chooser{pick: []string{"bob"}},
		Software: softwareCatalog(),
		Packages: pr,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.False(t, filesystem.Exists(fsys, "/backup"), "no destination is created")
	assert.Equal(t, 1, report.Totals().Attempted, "one directory would be copied")
	assert.Equal(t, 2, report.Totals().FilesCopied)
	assert.Len(t, report.Software.Names, 2, "catalog reads still happen")
	assert.Equal(t, 1, pr.calls)
	assert.Empty(t, report.ManifestFile)
}

func TestRunNoProfilesSelected(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users", "alice/Documents/")

	_, err := newSession(fsys, Options{}, Deps{Chooser: &chooser{}}).Run(context.Background())

	require.Error(t, err)
	assert.True(t, werrors.IsErrorCode(err, werrors.ErrNoProfiles))
	assert.False(t, filesystem.Exists(fsys, "/backup"), "nothing is written before profiles are chosen")
}

func TestRunNoProfilesAvailable(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users", "Public/")

	_, err := newSession(fsys, Options{}, Deps{}).Run(context.Background())

	assert.True(t, werrors.IsErrorCode(err, werrors.ErrNoProfiles))
}

func TestRunDestinationExists(t *testing.T) {
	for _, dryRun := range []bool{false, true} {
		fsys := filesystem.NewMemory()
		writeTree(t, fsys, "/Users", "alice/Documents/a.txt")
		writeTree(t, fsys, "/backup", destName+"/")

		_, err := newSession(fsys, Options{DryRun: dryRun}, Deps{}).Run(context.Background())

		require.Error(t, err)
		assert.True(t, werrors.IsErrorCode(err, werrors.ErrDestinationExists), "dry run %v", dryRun)
		assert.False(t, filesystem.Exists(fsys, filepath.Join("/backup", destName, "alice")))
	}
}

func TestRunChooserErrorIsFatal(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users", "alice/")

	_, err := newSession(fsys, Options{}, Deps{Chooser: &chooser{err: errors.New("EOF")}}).Run(context.Background())

	assert.True(t, werrors.IsErrorCode(err, werrors.ErrNoProfiles))
}

func TestRunPackageManagerAbsent(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users", "alice/Documents/a.txt")

	report, err := newSession(fsys, Options{}, Deps{Packages: &prober{}}).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Packages.Present)
	assert.False(t, filesystem.Exists(fsys, filepath.Join(report.Destination, DefaultPackagesFile)))
	assert.False(t, filesystem.Exists(fsys, filepath.Join(report.Destination, DefaultSoftwareFile)),
		"no collector, no software list")
}

func TestRunPackageListingFailureIsReported(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users", "alice/Documents/a.txt")
	pr := &prober{result: pkgmgr.Result{Present: true}, err: pkgmgr.ErrListingFailed}

	report, err := newSession(fsys, Options{}, Deps{Packages: pr}).Run(context.Background())

	require.NoError(t, err)
	assert.ErrorIs(t, report.PackagesErr, pkgmgr.ErrListingFailed)
	assert.False(t, filesystem.Exists(fsys, filepath.Join(report.Destination, DefaultPackagesFile)))
}

func TestRunInterrupted(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users", "alice/Documents/a.txt", "bob/Documents/b.txt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newSession(fsys, Options{}, Deps{Software: softwareCatalog()}).Run(ctx)

	require.Error(t, err)
	assert.True(t, werrors.IsErrorCode(err, werrors.ErrInterrupted))
	require.Len(t, report.Profiles, 1)
	assert.Empty(t, report.Profiles[0].Outcomes)
	assert.False(t, filesystem.Exists(fsys, filepath.Join(report.Destination, DefaultSoftwareFile)))
}

func TestRunBaseDirChooser(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users", "alice/Documents/a.txt")

	report, err := newSession(fsys, Options{}, Deps{
		BaseDir: baseDirFunc(func(def string) (string, error) {
			assert.Equal(t, "/backup", def)
			return "/elsewhere", nil
		}),
	}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/elsewhere", destName), report.Destination)
}

func TestRunUnreadableProfileContinues(t *testing.T) {
	fsys := filesystem.NewMemory()
	writeTree(t, fsys, "/Users", "alice/Documents/a.txt", "bob/Documents/b.txt")

	report, err := newSession(fsys, Options{}, Deps{
		Chooser: &chooser{pick: []string{"ghost", "bob"}},
	}).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, report.Profiles, 2)
	assert.Equal(t, 1, report.Profiles[0].Summary.Failed)
	assert.Equal(t, 1, report.Profiles[1].Summary.Attempted)
	assert.False(t, filesystem.Exists(fsys, filepath.Join(report.Destination, "ghost")),
		"an unreadable profile leaves no directory behind")
	assert.True(t, filesystem.Exists(fsys, filepath.Join(report.Destination, "bob", "Documents", "b.txt")))
}

func TestRunPreviewDepth(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		want  string
	}{
		{"immediate children only", 0, "└── app/"},
		{"one level below", 1, "└── app/\n    └── main.go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := filesystem.NewMemory()
			writeTree(t, fsys, "/Users", "alice/Documents/a.txt", "alice/Projects/app/main.go")
			var previews []string
			decider := selection.DeciderFunc(func(_ string, preview string) (bool, error) {
				previews = append(previews, preview)
				return false, nil
			})

			_, err := newSession(fsys, Options{PreviewDepth: tt.depth}, Deps{Decider: decider}).Run(context.Background())

			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, previews)
		})
	}
}

// failingWrites rejects WriteFile for the listed base names
type failingWrites struct {
	filesystem.FS
	names []string
}

func (f failingWrites) WriteFile(name string, data []byte, perm fs.FileMode) error {
	for _, n := range f.names {
		if filepath.Base(name) == n {
			return &fs.PathError{Op: "write", Path: name, Err: errors.New("disk full")}
		}
	}
	return f.FS.WriteFile(name, data, perm)
}

func TestRunListWriteFailureContinues(t *testing.T) {
	mem := filesystem.NewMemory()
	writeTree(t, mem, "/Users", "alice/Documents/a.txt")
	fsys := failingWrites{FS: mem, names: []string{DefaultSoftwareFile}}
	pr := &prober{result: pkgmgr.Result{Present: true, Packages: []string{"git"}}}

	report, err := newSession(fsys, Options{}, Deps{Software: softwareCatalog(), Packages: pr}).Run(context.Background())

	require.NoError(t, err)
	assert.True(t, werrors.IsErrorCode(report.SoftwareErr, werrors.ErrFileWrite))
	assert.Len(t, report.Software.Names, 2, "the inventory is still reported")
	assert.Equal(t, 1, pr.calls, "the package manager is still probed")
	assert.Equal(t, "git\n", readFile(t, mem, filepath.Join(report.Destination, DefaultPackagesFile)))
	assert.NotEmpty(t, report.ManifestFile)
	assert.True(t, filesystem.Exists(mem, report.ManifestFile))
}

func TestRunPackageWriteFailureIsReported(t *testing.T) {
	mem := filesystem.NewMemory()
	writeTree(t, mem, "/Users", "alice/Documents/a.txt")
	fsys := failingWrites{FS: mem, names: []string{DefaultPackagesFile}}
	pr := &prober{result: pkgmgr.Result{Present: true, Packages: []string{"git"}}}

	report, err := newSession(fsys, Options{}, Deps{Packages: pr}).Run(context.Background())

	require.NoError(t, err)
	assert.True(t, werrors.IsErrorCode(report.PackagesErr, werrors.ErrFileWrite))
	assert.True(t, filesystem.Exists(mem, report.ManifestFile))
}

type baseDirFunc func(string) (string, error)

func (f baseDirFunc) ChooseBaseDir(def string) (string, error) { return f(def) }

func TestDiscoverProfilesOnDisk(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTree(t, root, "alice/", "bob/", "Public/", "default/", "desktop.ini")
	testutil.CreateSymlink(t, filepath.Join(root, "alice"), filepath.Join(root, "All Users"))

	names, err := DiscoverProfiles(filesystem.NewOS(), root, DefaultExcludedProfiles)

	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func readFile(t *testing.T, fsys filesystem.FS, path string) string {
	t.Helper()
	r, err := fsys.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	var b strings.Builder
	_, err = io.Copy(&b, r)
	require.NoError(t, err)
	return b.String()
}
