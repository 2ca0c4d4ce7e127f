package config

import (
	_ "embed"
	"errors"
	"os"
	"runtime"
	"strings"

	werrors "github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/logging"
	"github.com/arthur-debert/winbackup/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Sections are separated by
// a double underscore: WINBACKUP_BACKUP__BASE_DIR.
const EnvPrefix = "WINBACKUP_"

//go:embed embedded/defaults.toml
var defaultConfig []byte

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// LoadOptions select the file layer
type LoadOptions struct {
	// ConfigFile must exist when set
	ConfigFile string
	// NoUserConfig skips the XDG lookup when ConfigFile is empty
	NoUserConfig bool
}

// Load reads the layered configuration and validates it
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, werrors.Wrap(err, werrors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Platform defaults
	if err := k.Load(confmap.Provider(platformDefaults(runtime.GOOS), "."), nil); err != nil {
		return nil, werrors.Wrap(err, werrors.ErrConfigLoad, "failed to load platform defaults")
	}

	// 3. Config file
	path, err := configFilePath(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug().Str("path", path).Msg("Loading config file")
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, werrors.Wrapf(err, werrors.ErrConfigParse, "failed to load config from %s", path)
		}
	}

	// 4. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, werrors.Wrap(err, werrors.ErrConfigLoad, "failed to load env vars")
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, werrors.Wrap(err, werrors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if cfg.Backup.BaseDir, err = paths.ExpandHome(cfg.Backup.BaseDir); err != nil {
		return nil, werrors.Wrap(err, werrors.ErrConfigValid, "invalid base_dir")
	}
	if cfg.Backup.ProfilesRoot, err = paths.ExpandHome(cfg.Backup.ProfilesRoot); err != nil {
		return nil, werrors.Wrap(err, werrors.ErrConfigValid, "invalid profiles_root")
	}

	if err := cfg.Validate(); err != nil {
		return nil, werrors.Wrap(err, werrors.ErrConfigValid, "invalid configuration")
	}
	return &cfg, nil
}

// envKey maps WINBACKUP_SELECTION__PREVIEW_DEPTH to selection.preview_depth
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func configFilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", werrors.Wrapf(err, werrors.ErrConfigLoad, "config file %s", opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}
	if opts.NoUserConfig {
		return "", nil
	}
	if path, ok := paths.UserConfigFile(); ok {
		return path, nil
	}
	return "", nil
}

// platformDefaults are the locations that differ per operating system
func platformDefaults(goos string) map[string]interface{} {
	switch goos {
	case "windows":
		return map[string]interface{}{
			"backup.base_dir":      "D:/WindowsBackup",
			"backup.profiles_root": "C:/Users",
		}
	case "darwin":
		return map[string]interface{}{
			"backup.base_dir":      "~/WindowsBackup",
			"backup.profiles_root": "/Users",
		}
	default:
		return map[string]interface{}{
			"backup.base_dir":      "~/WindowsBackup",
			"backup.profiles_root": "/home",
		}
	}
}
