package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	werrors "github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{NoUserConfig: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"Documents", "Desktop", "Downloads", "Pictures", "Videos"}, cfg.Selection.MandatoryDirs)
	assert.Equal(t, 1, cfg.Selection.PreviewDepth)
	assert.Equal(t, []string{"Public", "Default"}, cfg.Backup.ExcludeProfiles)
	assert.True(t, cfg.Backup.PromptBaseDir)
	assert.True(t, cfg.Packages.Enabled)
	assert.Equal(t, "choco", cfg.Packages.Command)
	assert.Equal(t, 2*time.Minute, cfg.Packages.Timeout)
	assert.Empty(t, cfg.Packages.ListArgs)
	assert.Equal(t, "installed-softwares.txt", cfg.Output.SoftwareFile)
	assert.Equal(t, "choco-installed-softwares.txt", cfg.Output.PackagesFile)

	roots, err := cfg.Inventory.CatalogRoots()
	require.NoError(t, err)
	assert.Equal(t, inventory.DefaultRoots, roots)

	if runtime.GOOS == "windows" {
		assert.Equal(t, "D:/WindowsBackup", cfg.Backup.BaseDir)
		assert.Equal(t, "C:/Users", cfg.Backup.ProfilesRoot)
	} else {
		home, err := os.UserHomeDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "WindowsBackup"), cfg.Backup.BaseDir)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[backup]
base_dir = "/mnt/backups"
profiles_root = "/srv/users"

[selection]
mandatory_dirs = ["Documents"]
preview_depth = 3

[packages]
timeout = "30s"
list_args = ["list", "-r"]
`)

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "/mnt/backups", cfg.Backup.BaseDir)
	assert.Equal(t, "/srv/users", cfg.Backup.ProfilesRoot)
	assert.Equal(t, []string{"Documents"}, cfg.Selection.MandatoryDirs)
	assert.Equal(t, 3, cfg.Selection.PreviewDepth)
	assert.Equal(t, 30*time.Second, cfg.Packages.Timeout)
	assert.Equal(t, []string{"list", "-r"}, cfg.Packages.ListArgs)
	assert.Equal(t, "choco", cfg.Packages.Command, "keys absent from the file keep their defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[backup]\nbase_dir = \"/from/file\"\n")
	t.Setenv("WINBACKUP_BACKUP__BASE_DIR", "/from/env")
	t.Setenv("WINBACKUP_SELECTION__MANDATORY_DIRS", "Music,Videos")
	t.Setenv("WINBACKUP_PACKAGES__ENABLED", "false")

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Backup.BaseDir)
	assert.Equal(t, []string{"Music", "Videos"}, cfg.Selection.MandatoryDirs)
	assert.False(t, cfg.Packages.Enabled)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.toml")})

	require.Error(t, err)
	assert.True(t, werrors.IsErrorCode(err, werrors.ErrConfigLoad))
}

func TestLoadMalformedConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: writeConfig(t, "[backup\nbase_dir=")})

	require.Error(t, err)
	assert.True(t, werrors.IsErrorCode(err, werrors.ErrConfigParse))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"preview depth too deep", "[selection]\npreview_depth = 9\n"},
		{"no mandatory dirs", "[selection]\nmandatory_dirs = []\n"},
		{"unknown hive", "[inventory]\nroots = ['HKCR\\Software']\n"},
		{"zero timeout", "[packages]\ntimeout = \"0s\"\n"},
		{"empty output name", "[output]\nsoftware_file = \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(LoadOptions{ConfigFile: writeConfig(t, tt.content)})
			require.Error(t, err)
			assert.True(t, werrors.IsErrorCode(err, werrors.ErrConfigValid), "got %v", err)
		})
	}
}

func TestDisabledPackagesSkipValidation(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: writeConfig(t, "[packages]\nenabled = false\ncommand = \"\"\n")})
	assert.NoError(t, err)
}

func TestParseRoot(t *testing.T) {
	root, err := ParseRoot(`HKEY_CURRENT_USER\Software\Vendor\`)
	require.NoError(t, err)
	assert.Equal(t, inventory.Root{Scope: inventory.ScopeUser, Path: `Software\Vendor`}, root)

	root, err = ParseRoot("hklm/SOFTWARE/Uninstall")
	require.NoError(t, err)
	assert.Equal(t, inventory.Root{Scope: inventory.ScopeMachine, Path: `SOFTWARE\Uninstall`}, root)

	for _, bad := range []string{"", "HKLM", `HKLM\`, `HKU\x`} {
		_, err := ParseRoot(bad)
		assert.Error(t, err, bad)
	}
}

func TestPlatformDefaults(t *testing.T) {
	assert.Equal(t, "C:/Users", platformDefaults("windows")["backup.profiles_root"])
	assert.Equal(t, "/Users", platformDefaults("darwin")["backup.profiles_root"])
	assert.Equal(t, "/home", platformDefaults("linux")["backup.profiles_root"])
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "backup.base_dir", envKey("WINBACKUP_BACKUP__BASE_DIR"))
	assert.Equal(t, "packages.version_args", envKey("WINBACKUP_PACKAGES__VERSION_ARGS"))
}
