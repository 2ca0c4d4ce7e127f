// Package inventory lists installed software from hierarchical catalogs such
// as the Windows registry Uninstall keys.
//
// Each root is enumerated by index until the first index that fails; each
// child key contributes its DisplayName value when it has one. Results are
// concatenated in root order and then sorted case-insensitively, keeping
// duplicates.
package inventory

import (
	"errors"
	"iter"
	"sort"
	"strings"

	"github.com/arthur-debert/winbackup/pkg/logging"
	"github.com/rs/zerolog"
)

var (
	// ErrRootNotFound is returned by Catalog.OpenRoot for an absent root
	ErrRootNotFound = errors.New("catalog root not found")
	// ErrValueNotFound is returned by Key.StringValue for an absent value
	ErrValueNotFound = errors.New("catalog value not found")
)

// DisplayNameValue is the value holding the human-readable product name
const DisplayNameValue = "DisplayName"

// Scope selects the hive a root lives in
type Scope string

const (
	ScopeMachine Scope = "HKLM"
	ScopeUser    Scope = "HKCU"
)

// ParseScope accepts the short and long hive names in any case
func ParseScope(s string) (Scope, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HKLM", "HKEY_LOCAL_MACHINE":
		return ScopeMachine, true
	case "HKCU", "HKEY_CURRENT_USER":
		return ScopeUser, true
	}
	return "", false
}

// Root is one catalog location to enumerate
type Root struct {
	Scope Scope
	Path  string
}

func (r Root) String() string {
	return string(r.Scope) + `\` + r.Path
}

// DefaultRoots are the three Uninstall locations covering 64-bit, 32-bit
// and per-user installs.
var DefaultRoots = []Root{
	{ScopeMachine, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
	{ScopeMachine, `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`},
	{ScopeUser, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
}

// Catalog opens roots of a hierarchical key/value store
type Catalog interface {
	OpenRoot(root Root) (Key, error)
}

// Key is an open node of a catalog
type Key interface {
	// SubKeyName returns the name of the child at index. Any error ends
	// enumeration.
	SubKeyName(index int) (string, error)
	OpenSubKey(name string) (Key, error)
	StringValue(name string) (string, error)
	Close() error
}

// SubKeys yields child names in index order, stopping at the first index
// that cannot be read.
func SubKeys(k Key) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; ; i++ {
			name, err := k.SubKeyName(i)
			if err != nil {
				return
			}
			if !yield(name) {
				return
			}
		}
	}
}

// Result holds the collected names and what could not be read
type Result struct {
	Names        []string
	RootsMissing []Root
	Unreadable   int
}

// Collector reads display names from a catalog
type Collector struct {
	catalog Catalog
	logger  zerolog.Logger
}

// NewCollector creates a collector over catalog
func NewCollector(catalog Catalog) *Collector {
	return &Collector{
		catalog: catalog,
		logger:  logging.GetLogger("inventory"),
	}
}

// Collect enumerates every root in order and returns the sorted names
func (c *Collector) Collect(roots []Root) Result {
	var result Result
	for _, root := range roots {
		c.collectRoot(root, &result)
	}

	sort.SliceStable(result.Names, func(i, j int) bool {
		return strings.ToLower(result.Names[i]) < strings.ToLower(result.Names[j])
	})

	c.logger.Info().
		Int("names", len(result.Names)).
		Int("roots_missing", len(result.RootsMissing)).
		Int("unreadable", result.Unreadable).
		Msg("Software inventory collected")
	return result
}

func (c *Collector) collectRoot(root Root, result *Result) {
	key, err := c.catalog.OpenRoot(root)
	if err != nil {
		if errors.Is(err, ErrRootNotFound) {
			c.logger.Debug().Str("root", root.String()).Msg("Catalog root absent")
		} else {
			c.logger.Warn().Err(err).Str("root", root.String()).Msg("Cannot open catalog root")
		}
		result.RootsMissing = append(result.RootsMissing, root)
		return
	}
	defer func() { _ = key.Close() }()

	for name := range SubKeys(key) {
		display, present, ok := c.displayName(key, name)
		if !ok {
			result.Unreadable++
			continue
		}
		if present {
			result.Names = append(result.Names, display)
		}
	}
}

// displayName returns ok=false only for read failures. A child without a
// display name value has present=false; an empty value is still present.
func (c *Collector) displayName(parent Key, name string) (display string, present, ok bool) {
	child, err := parent.OpenSubKey(name)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", name).Msg("Cannot open catalog entry")
		return "", false, false
	}
	defer func() { _ = child.Close() }()

	display, err = child.StringValue(DisplayNameValue)
	switch {
	case errors.Is(err, ErrValueNotFound):
		return "", false, true
	case err != nil:
		c.logger.Debug().Err(err).Str("key", name).Msg("Cannot read display name")
		return "", false, false
	}
	return display, true, true
}
