// Package report turns a session report into a markdown summary, rendered
// with glamour on colour terminals.
package report

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/winbackup/pkg/selection"
	"github.com/arthur-debert/winbackup/pkg/session"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
)

// Markdown summarises r
func Markdown(r *session.Report) string {
	var b strings.Builder
	total := r.Totals()

	if r.DryRun {
		b.WriteString("# Dry run summary\n\n")
		fmt.Fprintf(&b, "- Would create backup structure in: `%s`\n", r.Destination)
		fmt.Fprintf(&b, "- Would process %d user profiles\n", len(r.Profiles))
		fmt.Fprintf(&b, "- Would copy %d directories (%d files, %s)\n",
			total.Attempted, total.FilesCopied, humanize.Bytes(uint64(total.BytesCopied)))
	} else {
		b.WriteString("# Backup summary\n\n")
		fmt.Fprintf(&b, "- Backup directory: `%s`\n", r.Destination)
		fmt.Fprintf(&b, "- Profiles: %d\n", len(r.Profiles))
		fmt.Fprintf(&b, "- Directories copied: %d (%d files, %s)\n",
			total.Attempted, total.FilesCopied, humanize.Bytes(uint64(total.BytesCopied)))
	}
	if total.EntryFailures > 0 {
		fmt.Fprintf(&b, "- **%s could not be copied**\n", plural(total.EntryFailures, "entry", "entries"))
	}
	if !r.Finished.IsZero() && !r.Started.IsZero() {
		fmt.Fprintf(&b, "- Duration: %s\n", r.Finished.Sub(r.Started).Round(1e9))
	}
	fmt.Fprintf(&b, "- Session: `%s`\n", r.SessionID)

	for _, p := range r.Profiles {
		fmt.Fprintf(&b, "\n## %s\n\n", p.Name)
		if len(p.Outcomes) == 0 {
			b.WriteString("Nothing to copy.\n")
			continue
		}
		b.WriteString("| Directory | Decision | Files | Size | Notes |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, o := range p.Outcomes {
			files, size, notes := "", "", o.Reason
			if o.Result != nil {
				files = fmt.Sprint(o.Result.FilesCopied)
				size = humanize.Bytes(uint64(o.Result.BytesCopied))
				notes = outcomeNotes(o)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", o.Name, decisionLabel(o.Decision), files, size, notes)
		}
	}

	b.WriteString("\n## Software\n\n")
	verb := "Saved"
	if r.DryRun {
		verb = "Would save"
	}
	if r.SoftwareErr != nil {
		fmt.Fprintf(&b, "- Software list not saved: %v\n", r.SoftwareErr)
	} else {
		fmt.Fprintf(&b, "- %s %s to `%s`\n", verb, plural(len(r.Software.Names), "installed program", "installed programs"), r.SoftwareFile)
	}
	if r.Software.Unreadable > 0 {
		fmt.Fprintf(&b, "- %s could not be read\n", plural(r.Software.Unreadable, "catalog entry", "catalog entries"))
	}
	switch {
	case r.PackagesErr != nil:
		fmt.Fprintf(&b, "- %s packages not saved: %v\n", r.PackageManager, r.PackagesErr)
	case r.Packages.Present:
		fmt.Fprintf(&b, "- %s %s to `%s`\n", verb, plural(len(r.Packages.Packages), r.PackageManager+" package", r.PackageManager+" packages"), r.PackagesFile)
	case r.PackageManager != "":
		fmt.Fprintf(&b, "- %s is not installed\n", r.PackageManager)
	}
	return b.String()
}

// ManifestMarkdown summarises the manifest of an earlier backup
func ManifestMarkdown(m session.Manifest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Backup of %s (%s)\n\n", m.Host, m.OS)
	fmt.Fprintf(&b, "- Started: %s\n", m.Started.Format("2006-01-02 15:04:05"))
	if !m.Finished.IsZero() {
		fmt.Fprintf(&b, "- Duration: %s\n", m.Finished.Sub(m.Started).Round(1e9))
	}
	fmt.Fprintf(&b, "- Session: `%s`\n", m.SessionID)
	if m.Software.File != "" {
		fmt.Fprintf(&b, "- %s in `%s`\n", plural(m.Software.Count, "installed program", "installed programs"), m.Software.File)
	}
	if m.Packages.File != "" {
		fmt.Fprintf(&b, "- %s in `%s`\n", plural(m.Packages.Count, "package", "packages"), m.Packages.File)
	}

	for _, p := range m.Profiles {
		fmt.Fprintf(&b, "\n## %s\n\n", p.Name)
		fmt.Fprintf(&b, "%s copied (%s, %s), %d skipped",
			plural(p.Attempted, "directory", "directories"),
			plural(p.FilesCopied, "file", "files"),
			humanize.Bytes(uint64(p.BytesCopied)), p.Skipped)
		if p.Failed > 0 {
			fmt.Fprintf(&b, ", **%d failed**", p.Failed)
		}
		b.WriteString("\n")
		if len(p.Directories) == 0 {
			continue
		}
		b.WriteString("\n| Directory | Decision | Notes |\n|---|---|---|\n")
		for _, d := range p.Directories {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", d.Name, d.Decision, d.Reason)
		}
	}
	return b.String()
}

// Render returns md rendered for the terminal when styled, md otherwise
func Render(md string, styled bool) string {
	if !styled {
		return md
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return rendered
}

func outcomeNotes(o session.Outcome) string {
	var notes []string
	if n := len(o.Result.Skipped); n > 0 {
		notes = append(notes, plural(n, "entry skipped", "entries skipped"))
	}
	if n := len(o.Result.Failed); n > 0 {
		notes = append(notes, plural(n, "failure", "failures"))
	}
	return strings.Join(notes, ", ")
}

func decisionLabel(d selection.Decision) string {
	switch d {
	case selection.MandatoryIncluded:
		return "copied"
	case selection.OptionalConfirmed:
		return "copied (confirmed)"
	case selection.MandatoryMissing:
		return "missing"
	case selection.OptionalDeclined:
		return "skipped"
	default:
		return d.String()
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return humanize.Comma(int64(n)) + " " + many
}
