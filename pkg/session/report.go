package session

import (
	"time"

	"github.com/arthur-debert/winbackup/pkg/inventory"
	"github.com/arthur-debert/winbackup/pkg/pkgmgr"
	"github.com/arthur-debert/winbackup/pkg/replicate"
	"github.com/arthur-debert/winbackup/pkg/selection"
)

// CopySummary counts the directory slots of one profile. Attempted,
// Skipped and Failed count directories; the remaining fields aggregate the
// replication results of the attempted ones.
type CopySummary struct {
	Attempted int
	Skipped   int
	Failed    int

	FilesCopied    int
	EntriesSkipped int
	EntryFailures  int
	BytesCopied    int64
}

func (s *CopySummary) record(plan selection.Plan, result *replicate.Result) {
	if !plan.Decision.Included() {
		s.Skipped++
		return
	}
	s.Attempted++
	if result == nil {
		return
	}
	if !result.OK() {
		s.Failed++
	}
	s.FilesCopied += result.FilesCopied
	s.EntriesSkipped += len(result.Skipped)
	s.EntryFailures += len(result.Failed)
	s.BytesCopied += result.BytesCopied
}

// Add returns the sum of two summaries
func (s CopySummary) Add(o CopySummary) CopySummary {
	return CopySummary{
		Attempted:      s.Attempted + o.Attempted,
		Skipped:        s.Skipped + o.Skipped,
		Failed:         s.Failed + o.Failed,
		FilesCopied:    s.FilesCopied + o.FilesCopied,
		EntriesSkipped: s.EntriesSkipped + o.EntriesSkipped,
		EntryFailures:  s.EntryFailures + o.EntryFailures,
		BytesCopied:    s.BytesCopied + o.BytesCopied,
	}
}

// Outcome pairs a plan with its replication result, nil when not copied
type Outcome struct {
	selection.Plan
	Result *replicate.Result
}

// ProfileReport describes one backed up profile
type ProfileReport struct {
	Name        string
	Destination string
	Outcomes    []Outcome
	Summary     CopySummary
}

// Report is the outcome of a session. In a dry run it describes what would
// have been done.
type Report struct {
	SessionID   string
	Host        Host
	Destination string
	DryRun      bool
	Started     time.Time
	Finished    time.Time

	Profiles []ProfileReport

	Software     inventory.Result
	SoftwareFile string
	SoftwareErr  error

	PackageManager string
	Packages       pkgmgr.Result
	PackagesFile   string
	PackagesErr    error

	ManifestFile string
}

// Totals sums the summaries of every profile
func (r *Report) Totals() CopySummary {
	var total CopySummary
	for _, p := range r.Profiles {
		total = total.Add(p.Summary)
	}
	return total
}
