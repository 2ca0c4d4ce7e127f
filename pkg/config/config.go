package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/arthur-debert/winbackup/pkg/inventory"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config is the complete winbackup configuration
type Config struct {
	Backup    Backup    `koanf:"backup"`
	Selection Selection `koanf:"selection"`
	Inventory Inventory `koanf:"inventory"`
	Packages  Packages  `koanf:"packages"`
	Output    Output    `koanf:"output"`
}

// Backup holds where profiles are read from and written to
type Backup struct {
	BaseDir         string   `koanf:"base_dir"`
	ProfilesRoot    string   `koanf:"profiles_root"`
	ExcludeProfiles []string `koanf:"exclude_profiles"`
	// PromptBaseDir asks for the base directory, offering BaseDir as default
	PromptBaseDir bool `koanf:"prompt_base_dir"`
	// Pause waits for Enter after each profile and before exiting
	Pause bool `koanf:"pause"`
}

// Selection configures which profile directories are copied
type Selection struct {
	MandatoryDirs []string `koanf:"mandatory_dirs"`
	PreviewDepth  int      `koanf:"preview_depth"`
}

// Inventory lists the catalog roots as "HIVE\path"
type Inventory struct {
	Roots []string `koanf:"roots"`
}

// Packages configures the package manager probe
type Packages struct {
	Enabled     bool          `koanf:"enabled"`
	Command     string        `koanf:"command"`
	VersionArgs []string      `koanf:"version_args"`
	ListArgs    []string      `koanf:"list_args"`
	Timeout     time.Duration `koanf:"timeout"`
}

// Output names the files written at the top of the destination
type Output struct {
	SoftwareFile string `koanf:"software_file"`
	PackagesFile string `koanf:"packages_file"`
	ManifestFile string `koanf:"manifest_file"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Backup.Validate(); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	if err := c.Selection.Validate(); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	if err := c.Inventory.Validate(); err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	if err := c.Packages.Validate(); err != nil {
		return fmt.Errorf("packages: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// Validate validates the backup configuration
func (c *Backup) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseDir, validation.Required),
		validation.Field(&c.ProfilesRoot, validation.Required),
	)
}

// Validate validates the selection configuration
func (c *Selection) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MandatoryDirs, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.PreviewDepth, validation.Min(0), validation.Max(5)),
	)
}

// Validate validates the inventory configuration
func (c *Inventory) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Roots, validation.Each(validation.By(validateRoot))),
	)
}

// Validate validates the package manager configuration
func (c *Packages) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Command, validation.Required),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// Validate validates the output configuration
func (c *Output) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SoftwareFile, validation.Required),
		validation.Field(&c.PackagesFile, validation.Required),
		validation.Field(&c.ManifestFile, validation.Required),
	)
}

// CatalogRoots parses the configured roots
func (c *Inventory) CatalogRoots() ([]inventory.Root, error) {
	roots := make([]inventory.Root, 0, len(c.Roots))
	for _, r := range c.Roots {
		root, err := ParseRoot(r)
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}
	return roots, nil
}

// ParseRoot splits "HKLM\SOFTWARE\..." into scope and path. Forward slashes
// are accepted as separators.
func ParseRoot(s string) (inventory.Root, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", `\`)
	hive, path, ok := strings.Cut(s, `\`)
	if !ok || strings.Trim(path, `\`) == "" {
		return inventory.Root{}, fmt.Errorf("root %q must be HIVE\\path", s)
	}
	scope, ok := inventory.ParseScope(hive)
	if !ok {
		return inventory.Root{}, fmt.Errorf("root %q: unknown hive %q", s, hive)
	}
	return inventory.Root{Scope: scope, Path: strings.Trim(path, `\`)}, nil
}

func validateRoot(value interface{}) error {
	s, _ := value.(string)
	_, err := ParseRoot(s)
	return err
}
