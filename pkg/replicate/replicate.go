// Package replicate duplicates a directory subtree into a destination,
// skipping reparse points and shortcut files.
//
// The walk uses an explicit work-list instead of recursion. Skipping
// reparse points is the only cycle guard and is sufficient: without them a
// directory tree cannot loop back on itself.
//
// Replication is best-effort. A failure on one entry is recorded in the
// Result and the walk moves on to the next sibling; nothing is rolled back.
package replicate

import (
	"io"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/filesystem"
	"github.com/arthur-debert/winbackup/pkg/logging"
	"github.com/arthur-debert/winbackup/pkg/reparse"
	"github.com/rs/zerolog"
)

// SkipReason explains why an entry was left out
type SkipReason string

const (
	SkipJunction SkipReason = "junction"
	SkipShortcut SkipReason = "shortcut"
	SkipSpecial  SkipReason = "special"
)

// Skip is an entry that was deliberately not copied
type Skip struct {
	Path   string
	Reason SkipReason
}

// Failure is an entry that could not be copied
type Failure struct {
	Path string
	Err  error
}

// Result describes one replication. In dry-run mode the counters describe
// what would have been copied.
type Result struct {
	Source      string
	Destination string
	DryRun      bool

	DirsCreated int
	FilesCopied int
	BytesCopied int64
	Skipped     []Skip
	Failed      []Failure
}

// OK reports whether every entry was either copied or deliberately skipped
func (r *Result) OK() bool {
	return len(r.Failed) == 0
}

func (r *Result) skip(path string, reason SkipReason) {
	r.Skipped = append(r.Skipped, Skip{Path: path, Reason: reason})
}

func (r *Result) fail(path string, err error) {
	r.Failed = append(r.Failed, Failure{Path: path, Err: err})
}

// Replicator copies directory trees
type Replicator struct {
	fs         filesystem.FS
	classifier *reparse.Classifier
	logger     zerolog.Logger
	dryRun     bool

	DirPerm fs.FileMode
}

// New creates a replicator working through fsys. With dryRun set the
// source is walked and classified but nothing is written.
func New(fsys filesystem.FS, dryRun bool) *Replicator {
	return &Replicator{
		fs:         fsys,
		classifier: reparse.NewClassifier(fsys),
		logger:     logging.GetLogger("replicate"),
		dryRun:     dryRun,
		DirPerm:    0755,
	}
}

// WithClassifier replaces the default classifier, e.g. to change the
// shortcut extension
func (r *Replicator) WithClassifier(c *reparse.Classifier) *Replicator {
	r.classifier = c
	return r
}

type job struct {
	src string
	dst string
}

// Replicate copies the contents of source into destination, creating
// destination and its parents when missing.
func (r *Replicator) Replicate(source, destination string) *Result {
	result := &Result{Source: source, Destination: destination, DryRun: r.dryRun}
	done := logging.LogOperationStart(r.logger, "replicate "+source)
	defer done()

	if !r.dryRun {
		if err := r.fs.MkdirAll(destination, r.dirPerm()); err != nil {
			result.fail(destination, errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", destination))
			return result
		}
	}

	stack := []job{{src: source, dst: destination}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := r.replicateDir(current, result)
		// Reverse push keeps the visit order alphabetical.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	r.logger.Info().
		Str("source", source).
		Str("destination", destination).
		Bool("dryRun", r.dryRun).
		Int("files", result.FilesCopied).
		Int("skipped", len(result.Skipped)).
		Int("failed", len(result.Failed)).
		Msg("Directory replicated")

	return result
}

// replicateDir copies the files of one directory and returns the
// subdirectories still to visit. Each returned destination already exists.
func (r *Replicator) replicateDir(current job, result *Result) []job {
	entries, err := r.fs.ReadDir(current.src)
	if err != nil {
		r.logger.Warn().Err(err).Str("path", current.src).Msg("Cannot list directory")
		result.fail(current.src, errors.Wrapf(err, errors.ErrDirList, "cannot list %s", current.src))
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var children []job
	for _, e := range entries {
		src := filepath.Join(current.src, e.Name())
		dst := filepath.Join(current.dst, e.Name())
		entry := r.classifier.Inspect(src)

		switch {
		case entry.Kind == reparse.KindJunction:
			r.logger.Warn().Str("path", src).Msg("Skipping junction point")
			result.skip(src, SkipJunction)

		case entry.IsDir():
			if !r.dryRun {
				if err := r.fs.MkdirAll(dst, r.dirPerm()); err != nil {
					r.logger.Error().Err(err).Str("path", dst).Msg("Cannot create directory")
					result.fail(src, errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", dst))
					continue
				}
			}
			result.DirsCreated++
			children = append(children, job{src: src, dst: dst})

		case entry.Kind == reparse.KindShortcut:
			r.logger.Info().Str("path", src).Msg("Skipping shortcut file")
			result.skip(src, SkipShortcut)

		case entry.Info == nil:
			// Vanished between listing and inspection.
			result.fail(src, errors.Newf(errors.ErrFileAccess, "cannot stat %s", src))

		case !entry.IsCopyable():
			r.logger.Debug().Str("path", src).Str("mode", entry.Info.Mode().String()).Msg("Skipping special file")
			result.skip(src, SkipSpecial)

		default:
			if err := r.copyFile(entry, dst, result); err != nil {
				r.logger.Error().Err(err).Str("path", src).Msg("Failed to copy file")
				result.fail(src, err)
			}
		}
	}
	return children
}

// copyFile streams one file and carries over permission bits and
// modification time. Metadata failures do not fail the copy.
func (r *Replicator) copyFile(entry reparse.Entry, dst string, result *Result) error {
	size := entry.Info.Size()
	if r.dryRun {
		r.logger.Debug().Str("path", entry.Path).Msg("Would copy file")
		result.FilesCopied++
		result.BytesCopied += size
		return nil
	}

	in, err := r.fs.Open(entry.Path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot open %s", entry.Path)
	}
	defer func() {
		_ = in.Close()
	}()

	perm := entry.Info.Mode().Perm()
	out, err := r.fs.Create(dst, perm|0200)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot create %s", dst)
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot copy %s", entry.Path)
	}

	if err := r.fs.Chmod(dst, perm); err != nil {
		r.logger.Debug().Err(err).Str("path", dst).Msg("Cannot preserve permissions")
	}
	mtime := entry.Info.ModTime()
	if err := r.fs.Chtimes(dst, mtime, mtime); err != nil {
		r.logger.Debug().Err(err).Str("path", dst).Msg("Cannot preserve modification time")
	}

	result.FilesCopied++
	result.BytesCopied += n
	r.logger.Trace().Str("path", entry.Path).Int64("bytes", n).Msg("Copied file")
	return nil
}

func (r *Replicator) dirPerm() fs.FileMode {
	if r.DirPerm == 0 {
		return 0755
	}
	return r.DirPerm
}
