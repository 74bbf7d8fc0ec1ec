package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/iobroker-community/adapter-radar/internal/history"
	"github.com/iobroker-community/adapter-radar/internal/ledger"
)

// Renderer writes console reports, with lipgloss styling when the
// destination is a terminal and plain text otherwise.
type Renderer struct {
	styled bool

	title lipgloss.Style
	label lipgloss.Style
	good  lipgloss.Style
	bad   lipgloss.Style
	faint lipgloss.Style
}

// NewRenderer creates a renderer. styled enables colour output.
func NewRenderer(styled bool) *Renderer {
	return &Renderer{
		styled: styled,
		title:  lipgloss.NewStyle().Bold(true),
		label:  lipgloss.NewStyle().Faint(true).Width(14),
		good:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		faint:  lipgloss.NewStyle().Faint(true),
	}
}

// IsTerminal reports whether the file descriptor is an interactive
// terminal, the default signal for enabling styling.
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// render applies a style only when styling is on.
func (r *Renderer) render(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

// Summary writes the one-screen result of a scan run.
func (r *Renderer) Summary(w io.Writer, sum ledger.Summary) {
	fmt.Fprintln(w, r.render(r.title, "Scan complete"))
	fmt.Fprintf(w, "  %s %s\n", r.render(r.label, "query"), sum.Query)
	fmt.Fprintf(w, "  %s %d (%d subdivided)\n", r.render(r.label, "strategies"), sum.Strategies, sum.Subdivided)
	fmt.Fprintf(w, "  %s %d\n", r.render(r.label, "found"), sum.Found)
	fmt.Fprintf(w, "  %s %s\n", r.render(r.label, "new"), r.render(r.good, fmt.Sprintf("%d", sum.New)))
	fmt.Fprintf(w, "  %s %d\n", r.render(r.label, "updated"), sum.Updated)
	fmt.Fprintf(w, "  %s %s\n", r.render(r.label, "stale"), r.render(r.bad, fmt.Sprintf("%d", sum.Stale)))
	if sum.Removed > 0 {
		fmt.Fprintf(w, "  %s %d\n", r.render(r.label, "removed"), sum.Removed)
	}
}

// Ledger writes an overview of the tracked set: totals, registry
// standing, the newest finds, and stale entries. limit caps the two
// lists; zero means a sensible default.
func (r *Renderer) Ledger(w io.Writer, l *ledger.Ledger, limit int) {
	if limit <= 0 {
		limit = 10
	}

	valid, stale := 0, 0
	registered := 0
	var entries []*ledger.Repository
	for _, repo := range l.Repositories {
		entries = append(entries, repo)
		if repo.Valid {
			valid++
		} else {
			stale++
		}
		if repo.Registry != nil && repo.Registry.InLatest {
			registered++
		}
	}

	fmt.Fprintln(w, r.render(r.title, "Repository ledger"))
	fmt.Fprintf(w, "  %s %d\n", r.render(r.label, "tracked"), l.TotalRepositories)
	fmt.Fprintf(w, "  %s %s\n", r.render(r.label, "live"), r.render(r.good, fmt.Sprintf("%d", valid)))
	fmt.Fprintf(w, "  %s %s\n", r.render(r.label, "stale"), r.render(r.bad, fmt.Sprintf("%d", stale)))
	fmt.Fprintf(w, "  %s %d\n", r.render(r.label, "registered"), registered)
	if !l.LastUpdated.IsZero() {
		fmt.Fprintf(w, "  %s %s\n", r.render(r.label, "last scan"), l.LastUpdated.Format("2006-01-02 15:04"))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FirstSeen.After(entries[j].FirstSeen)
	})

	fmt.Fprintf(w, "\n%s\n", r.render(r.title, "Newest finds"))
	for i, repo := range entries {
		if i >= limit {
			break
		}
		marker := r.render(r.good, "+")
		if !repo.Valid {
			marker = r.render(r.bad, "-")
		}
		fmt.Fprintf(w, "  %s %s %s\n", marker, repo.FullName,
			r.render(r.faint, repo.FirstSeen.Format("2006-01-02")))
	}

	if stale > 0 {
		fmt.Fprintf(w, "\n%s\n", r.render(r.title, "Stale entries"))
		printed := 0
		for _, repo := range entries {
			if repo.Valid {
				continue
			}
			fmt.Fprintf(w, "  %s %s\n", r.render(r.bad, "-"), repo.FullName)
			printed++
			if printed >= limit {
				break
			}
		}
	}
}

// History writes the recent scan runs, newest first.
func (r *Renderer) History(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No scan runs recorded yet.")
		return
	}

	fmt.Fprintln(w, r.render(r.title, "Scan history"))
	for _, run := range runs {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "  %s  found %4d  new %s  stale %s  %s\n",
			run.FinishedAt.Format("2006-01-02 15:04"),
			run.Summary.Found,
			r.render(r.good, fmt.Sprintf("%3d", run.Summary.New)),
			r.render(r.bad, fmt.Sprintf("%3d", run.Summary.Stale)),
			r.render(r.faint, id))
	}
}
