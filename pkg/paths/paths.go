package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/winbackup/pkg/errors"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for winbackup
	EnvConfigDir = "WINBACKUP_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for winbackup
	EnvStateDir = "WINBACKUP_STATE_DIR"
)

// Default names
const (
	// AppDirName is the directory name used under the XDG base directories
	AppDirName = "winbackup"

	// ConfigFileName is the user configuration file
	ConfigFileName = "config.toml"

	// LogFileName is the name of the log file
	LogFileName = "winbackup.log"
)

// ConfigDir returns the directory holding the user configuration
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// StateDir returns the directory holding logs
func StateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return dir
	}
	if xdg.StateHome == "" {
		return "."
	}
	return filepath.Join(xdg.StateHome, AppDirName)
}

// UserConfigFile returns the user configuration file if it exists
func UserConfigFile() (string, bool) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		path := filepath.Join(dir, ConfigFileName)
		_, err := os.Stat(path)
		return path, err == nil
	}
	path, err := xdg.SearchConfigFile(filepath.Join(AppDirName, ConfigFileName))
	if err != nil {
		return "", false
	}
	return path, true
}

// LogFilePath returns the path of the log file
func LogFilePath() string {
	return filepath.Join(StateDir(), LogFileName)
}

// GetHomeDirectory returns the user's home directory.
// It first tries os.UserHomeDir(), then falls back to the HOME and
// USERPROFILE environment variables.
func GetHomeDirectory() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home, nil
	}
	for _, env := range []string{"HOME", "USERPROFILE"} {
		if home := os.Getenv(env); home != "" {
			return home, nil
		}
	}
	return "", errors.New(errors.ErrFileAccess, "unable to determine home directory")
}

// ExpandHome expands a leading ~ to the user's home directory. Both / and
// \ are accepted after the tilde.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := GetHomeDirectory()
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot expand %s", path)
	}
	return filepath.Join(home, path[1:]), nil
}
