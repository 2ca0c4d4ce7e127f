package session

import (
	"time"

	"github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/filesystem"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultManifestFile is written at the top of the destination
const DefaultManifestFile = "backup-manifest.toml"

// Manifest records what a backup contains
type Manifest struct {
	SessionID string            `toml:"session_id"`
	Host      string            `toml:"host"`
	OS        string            `toml:"os"`
	Started   time.Time         `toml:"started"`
	Finished  time.Time         `toml:"finished"`
	Software  ManifestList      `toml:"software"`
	Packages  ManifestList      `toml:"packages"`
	Profiles  []ManifestProfile `toml:"profile"`
}

// ManifestList describes one of the flat inventory files
type ManifestList struct {
	File  string `toml:"file,omitempty"`
	Count int    `toml:"count"`
}

// ManifestProfile summarises one profile
type ManifestProfile struct {
	Name        string              `toml:"name"`
	Attempted   int                 `toml:"attempted"`
	Skipped     int                 `toml:"skipped"`
	Failed      int                 `toml:"failed"`
	FilesCopied int                 `toml:"files_copied"`
	BytesCopied int64               `toml:"bytes_copied"`
	Directories []ManifestDirectory `toml:"directory"`
}

// ManifestDirectory is the decision taken for one directory
type ManifestDirectory struct {
	Name     string `toml:"name"`
	Decision string `toml:"decision"`
	Reason   string `toml:"reason,omitempty"`
}

// NewManifest builds the manifest of a finished report
func NewManifest(r *Report) Manifest {
	m := Manifest{
		SessionID: r.SessionID,
		Host:      r.Host.Name,
		OS:        r.Host.OSTag,
		Started:   r.Started,
		Finished:  r.Finished,
		Software:  ManifestList{File: r.SoftwareFile, Count: len(r.Software.Names)},
	}
	if r.Packages.Present && r.PackagesErr == nil {
		m.Packages = ManifestList{File: r.PackagesFile, Count: len(r.Packages.Packages)}
	}
	for _, p := range r.Profiles {
		mp := ManifestProfile{
			Name:        p.Name,
			Attempted:   p.Summary.Attempted,
			Skipped:     p.Summary.Skipped,
			Failed:      p.Summary.Failed,
			FilesCopied: p.Summary.FilesCopied,
			BytesCopied: p.Summary.BytesCopied,
		}
		for _, o := range p.Outcomes {
			mp.Directories = append(mp.Directories, ManifestDirectory{
				Name:     o.Name,
				Decision: o.Decision.String(),
				Reason:   o.Reason,
			})
		}
		m.Profiles = append(m.Profiles, mp)
	}
	return m
}

// WriteManifest encodes m as TOML to path
func WriteManifest(fsys filesystem.FS, path string, m Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot encode manifest")
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write manifest %s", path)
	}
	return nil
}

// ReadManifest decodes a manifest written by WriteManifest
func ReadManifest(fsys filesystem.FS, path string) (Manifest, error) {
	var m Manifest
	r, err := fsys.Open(path)
	if err != nil {
		return m, errors.Wrapf(err, errors.ErrFileAccess, "cannot open manifest %s", path)
	}
	defer func() { _ = r.Close() }()

	if err := toml.NewDecoder(r).Decode(&m); err != nil {
		return m, errors.Wrapf(err, errors.ErrInternal, "cannot decode manifest %s", path)
	}
	return m, nil
}
