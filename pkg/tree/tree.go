// Package tree renders a bounded preview of a directory for a human to skim
// before deciding whether to back it up.
//
// Output looks like:
//
//	├── Invoices/
//	│   ├── 2023.pdf
//	│   └── 2024.pdf
//	├── notes.txt
//	└── todo.md
//
// At most MaxEntries entries are drawn per level; a longer listing ends
// with a "└── ..." line. Reparse points are labelled and never expanded.
package tree

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/winbackup/pkg/filesystem"
	"github.com/arthur-debert/winbackup/pkg/reparse"
)

const (
	// DefaultMaxEntries bounds the number of entries drawn per level
	DefaultMaxEntries = 5
	// PermissionDenied replaces a subtree that could not be listed
	PermissionDenied = "[Permission Denied]"
	// JunctionMarker follows the name of an entry that is not expanded
	JunctionMarker = "[junction]"

	branch     = "├── "
	lastBranch = "└── "
	pipe       = "│   "
	space      = "    "
)

// Renderer draws directory previews
type Renderer struct {
	fs         filesystem.FS
	classifier *reparse.Classifier
	MaxEntries int
}

// NewRenderer creates a renderer listing through fsys
func NewRenderer(fsys filesystem.FS) *Renderer {
	return &Renderer{
		fs:         fsys,
		classifier: reparse.NewClassifier(fsys),
		MaxEntries: DefaultMaxEntries,
	}
}

// Render returns the preview of dir. maxDepth 0 lists immediate children
// only; each extra level expands one more generation of subdirectories.
// A negative depth or a path that is not a directory yields "".
func (r *Renderer) Render(dir string, maxDepth int) string {
	if maxDepth < 0 || !filesystem.IsDir(r.fs, dir) {
		return ""
	}
	lines, denied := r.render(dir, maxDepth, "")
	if denied {
		return PermissionDenied
	}
	return strings.Join(lines, "\n")
}

// render returns the lines for one level, or denied when the level could
// not be listed for lack of permission. Other listing errors render as an
// empty level.
func (r *Renderer) render(dir string, depth int, prefix string) (lines []string, denied bool) {
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		return nil, errors.Is(err, fs.ErrPermission)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	limit := r.MaxEntries
	if limit <= 0 {
		limit = DefaultMaxEntries
	}

	for i, e := range entries {
		if i >= limit {
			lines = append(lines, prefix+lastBranch+"...")
			break
		}

		last := i == len(entries)-1
		connector, childPrefix := branch, prefix+pipe
		if last {
			connector, childPrefix = lastBranch, prefix+space
		}

		path := filepath.Join(dir, e.Name())
		entry := r.classifier.Inspect(path)

		switch {
		case entry.Kind == reparse.KindJunction:
			lines = append(lines, prefix+connector+e.Name()+" "+JunctionMarker)
		case entry.IsDir():
			lines = append(lines, prefix+connector+e.Name()+"/")
			if depth > 0 {
				sub, subDenied := r.render(path, depth-1, childPrefix)
				if subDenied {
					lines = append(lines, childPrefix+PermissionDenied)
				} else {
					lines = append(lines, sub...)
				}
			}
		default:
			lines = append(lines, prefix+connector+e.Name())
		}
	}
	return lines, false
}
