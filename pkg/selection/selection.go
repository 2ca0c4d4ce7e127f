// Package selection decides which directories of a user profile are backed
// up.
//
// Mandatory directories (Documents, Desktop, ...) are included whenever
// they exist. Every other subdirectory is optional and is only included
// after an explicit yes from a Decider, which is shown a short tree
// preview first. Anything but a yes declines the directory.
package selection

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/arthur-debert/winbackup/pkg/filesystem"
	"github.com/arthur-debert/winbackup/pkg/logging"
	"github.com/arthur-debert/winbackup/pkg/reparse"
	"github.com/arthur-debert/winbackup/pkg/tree"
	"github.com/rs/zerolog"
)

// DefaultMandatoryDirs are the well-known personal data folders of a Windows profile
var DefaultMandatoryDirs = []string{"Documents", "Desktop", "Downloads", "Pictures", "Videos"}

// DefaultPreviewDepth expands one level below each optional directory
const DefaultPreviewDepth = 1

// Decision is the inclusion verdict for one directory
type Decision int

const (
	MandatoryIncluded Decision = iota
	MandatoryMissing
	OptionalConfirmed
	OptionalDeclined
)

// String returns a hyphenated name of the decision
func (d Decision) String() string {
	switch d {
	case MandatoryIncluded:
		return "mandatory-included"
	case MandatoryMissing:
		return "mandatory-missing"
	case OptionalConfirmed:
		return "optional-confirmed"
	case OptionalDeclined:
		return "optional-declined"
	default:
		return "unknown"
	}
}

// Included reports whether the directory is to be copied
func (d Decision) Included() bool {
	return d == MandatoryIncluded || d == OptionalConfirmed
}

// Skip reasons attached to plans that are not copied
const (
	ReasonMissing           = "not present"
	ReasonJunction          = "junction"
	ReasonDestinationExists = "destination exists"
	ReasonDeclined          = "declined"
)

// Plan is the decision for one directory slot of a profile
type Plan struct {
	Name        string
	Source      string
	Destination string
	Decision    Decision
	Reason      string
}

// Decider answers whether an optional directory should be backed up.
// Any error counts as a no.
type Decider interface {
	Decide(name, preview string) (bool, error)
}

// DeciderFunc adapts a function to the Decider interface
type DeciderFunc func(name, preview string) (bool, error)

// Decide calls f
func (f DeciderFunc) Decide(name, preview string) (bool, error) {
	return f(name, preview)
}

// Policy builds plans for profiles
type Policy struct {
	fs           filesystem.FS
	classifier   *reparse.Classifier
	renderer     *tree.Renderer
	decider      Decider
	logger       zerolog.Logger
	mandatory    []string
	PreviewDepth int
}

// NewPolicy creates a policy. An empty mandatory list falls back to
// DefaultMandatoryDirs; the order of the list is the order of the plans.
func NewPolicy(fsys filesystem.FS, mandatory []string, decider Decider) *Policy {
	if len(mandatory) == 0 {
		mandatory = DefaultMandatoryDirs
	}
	return &Policy{
		fs:           fsys,
		classifier:   reparse.NewClassifier(fsys),
		renderer:     tree.NewRenderer(fsys),
		decider:      decider,
		logger:       logging.GetLogger("selection"),
		mandatory:    append([]string(nil), mandatory...),
		PreviewDepth: DefaultPreviewDepth,
	}
}

// Plan returns the mandatory plans in configured order followed by the
// optional plans sorted by name. It only fails when profileRoot cannot be
// listed.
func (p *Policy) Plan(profileRoot, destRoot string) ([]Plan, error) {
	entries, err := p.fs.ReadDir(profileRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirList, "cannot list profile %s", profileRoot)
	}

	plans := make([]Plan, 0, len(p.mandatory)+len(entries))
	for _, name := range p.mandatory {
		plans = append(plans, p.planMandatory(name, profileRoot, destRoot))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, e := range entries {
		if p.isMandatory(e.Name()) {
			continue
		}
		source := filepath.Join(profileRoot, e.Name())
		entry := p.classifier.Inspect(source)
		if entry.Kind == reparse.KindJunction {
			p.logger.Debug().Str("path", source).Msg("Not offering junction")
			continue
		}
		if !entry.IsDir() {
			continue
		}
		plans = append(plans, p.planOptional(e.Name(), source, filepath.Join(destRoot, e.Name())))
	}
	return plans, nil
}

func (p *Policy) planMandatory(name, profileRoot, destRoot string) Plan {
	plan := Plan{
		Name:        name,
		Source:      filepath.Join(profileRoot, name),
		Destination: filepath.Join(destRoot, name),
		Decision:    MandatoryIncluded,
	}

	entry := p.classifier.Inspect(plan.Source)
	switch {
	case entry.Kind == reparse.KindJunction:
		plan.Decision, plan.Reason = MandatoryMissing, ReasonJunction
	case !entry.IsDir():
		plan.Decision, plan.Reason = MandatoryMissing, ReasonMissing
	case filesystem.Exists(p.fs, plan.Destination):
		// Never merge into the output of an earlier run.
		plan.Decision, plan.Reason = OptionalDeclined, ReasonDestinationExists
	}

	p.logger.Debug().
		Str("name", name).
		Str("decision", plan.Decision.String()).
		Str("reason", plan.Reason).
		Msg("Mandatory directory planned")
	return plan
}

func (p *Policy) planOptional(name, source, destination string) Plan {
	plan := Plan{
		Name:        name,
		Source:      source,
		Destination: destination,
		Decision:    OptionalDeclined,
		Reason:      ReasonDeclined,
	}

	if p.decider == nil {
		return plan
	}

	preview := p.renderer.Render(source, p.PreviewDepth)
	include, err := p.decider.Decide(name, preview)
	if err != nil {
		p.logger.Warn().Err(err).Str("name", name).Msg("No decision, declining")
		return plan
	}
	if include {
		plan.Decision, plan.Reason = OptionalConfirmed, ""
	}
	return plan
}

// isMandatory matches case-insensitively, as Windows paths do
func (p *Policy) isMandatory(name string) bool {
	for _, m := range p.mandatory {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}
