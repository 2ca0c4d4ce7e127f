// Package reparse classifies filesystem entries that the copy engine must
// never traverse or copy: redirecting reparse points (junctions, mount
// points, symbolic links) and shortcut files.
//
// Shortcut detection is a name heuristic: a file whose extension matches
// ShortcutExt, compared case-insensitively. File contents are not inspected.
package reparse

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/winbackup/pkg/filesystem"
)

// DefaultShortcutExt is the Windows shell link extension
const DefaultShortcutExt = ".lnk"

// Kind is the classification of a single filesystem entry
type Kind int

const (
	// KindNormal is a regular file or directory, or an entry that could not be inspected
	KindNormal Kind = iota
	// KindJunction is a reparse point that redirects elsewhere
	KindJunction
	// KindShortcut is a shell link file, identified by extension
	KindShortcut
)

// String returns the lower-case name of the kind
func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindJunction:
		return "junction"
	case KindShortcut:
		return "shortcut"
	default:
		return "unknown"
	}
}

// Classifier decides the Kind of a path. It never fails: an entry that
// cannot be inspected is reported as KindNormal and the operation that
// follows is expected to fail on its own.
type Classifier struct {
	fs          filesystem.FS
	ShortcutExt string
}

// NewClassifier creates a classifier reading metadata through fsys
func NewClassifier(fsys filesystem.FS) *Classifier {
	return &Classifier{fs: fsys, ShortcutExt: DefaultShortcutExt}
}

// Entry is a classified filesystem entry. Info is nil when the entry could
// not be inspected.
type Entry struct {
	Path string
	Kind Kind
	Info fs.FileInfo
}

// IsDir reports whether the entry is a plain directory that may be descended into
func (e Entry) IsDir() bool {
	return e.Kind != KindJunction && e.Info != nil && e.Info.IsDir()
}

// IsCopyable reports whether the entry is a file whose content can be
// copied: not a directory, link, device, pipe or socket. Irregular files
// (cloud placeholders) are readable and count as copyable.
func (e Entry) IsCopyable() bool {
	if e.Kind != KindNormal || e.Info == nil || e.Info.IsDir() {
		return false
	}
	return e.Info.Mode()&(fs.ModeDevice|fs.ModeCharDevice|fs.ModeNamedPipe|fs.ModeSocket) == 0
}

// Inspect classifies path and keeps the metadata that was read to do so
func (c *Classifier) Inspect(path string) Entry {
	info, err := c.fs.Lstat(path)
	if err != nil {
		return Entry{Path: path, Kind: KindNormal}
	}
	entry := Entry{Path: path, Kind: KindNormal, Info: info}
	switch {
	case isRedirect(info):
		entry.Kind = KindJunction
	case !info.IsDir() && c.IsShortcutName(info.Name()):
		entry.Kind = KindShortcut
	}
	return entry
}

// Classify returns the Kind of path. Reparse points win over the shortcut
// heuristic, so a linked ".lnk" is a junction. Directories are never shortcuts.
func (c *Classifier) Classify(path string) Kind {
	return c.Inspect(path).Kind
}

// IsShortcutName applies the extension heuristic to a bare file name
func (c *Classifier) IsShortcutName(name string) bool {
	ext := c.ShortcutExt
	if ext == "" {
		ext = DefaultShortcutExt
	}
	return strings.EqualFold(filepath.Ext(name), ext)
}
