package session

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/filesystem"
	"github.com/arthur-debert/winbackup/pkg/reparse"
)

// DefaultExcludedProfiles are system profiles that hold no personal data
var DefaultExcludedProfiles = []string{"Public", "Default"}

// DiscoverProfiles lists the profile directories under root, excluding the
// given names (case-insensitively) and junctions such as "All Users".
func DiscoverProfiles(fsys filesystem.FS, root string, exclude []string) ([]string, error) {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirList, "cannot list profiles in %s", root)
	}

	classifier := reparse.NewClassifier(fsys)
	var names []string
	for _, e := range entries {
		if excluded(e.Name(), exclude) {
			continue
		}
		if classifier.Inspect(filepath.Join(root, e.Name())).IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func excluded(name string, exclude []string) bool {
	for _, x := range exclude {
		if strings.EqualFold(x, name) {
			return true
		}
	}
	return false
}
