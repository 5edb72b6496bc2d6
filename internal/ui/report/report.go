// Package report renders finding lists for people and for other tools.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"moduledeps/internal/engine/rules"
)

const (
	FormatText     = "text"
	FormatTSV      = "tsv"
	FormatMarkdown = "markdown"
)

// Formats lists the accepted values of Options.Format.
func Formats() []string {
	return []string{FormatText, FormatTSV, FormatMarkdown}
}

type Options struct {
	// ApplyActions prints the action command under each finding that has one.
	ApplyActions bool
	// Color styles the severity prefix of text output.
	Color  bool
	Format string
}

var kindStyles = map[rules.Kind]lipgloss.Style{
	rules.Critical:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DC2626")),
	rules.Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
	rules.AutoAction: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
	rules.DevAction:  lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
	rules.Blocked:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
	rules.ToDo:       lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")),
}

// Render sorts reports in place and writes them to w in the requested format.
func Render(w io.Writer, reports []rules.Report, opts Options) error {
	rules.Sort(reports)

	var out string
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", FormatText:
		out = renderText(reports, opts)
	case FormatTSV:
		out = renderTSV(reports)
	case FormatMarkdown:
		out = renderMarkdown(reports, opts)
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", opts.Format, strings.Join(Formats(), ", "))
	}

	_, err := io.WriteString(w, out)
	return err
}

func renderText(reports []rules.Report, opts Options) string {
	var b strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&b, "%s: [%s] %s\n", kindLabel(r.Kind, opts.Color), r.ForTeam, r.Message)
		if opts.ApplyActions && r.HasAction() {
			b.WriteString("  " + r.Action + "\n")
		}
	}
	b.WriteString("\n")
	counts := rules.Count(reports)
	for _, k := range rules.AllKinds() {
		if counts[k] == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s -> %d\n", kindLabel(k, opts.Color), counts[k])
	}
	return b.String()
}

func kindLabel(k rules.Kind, color bool) string {
	if !color {
		return k.String()
	}
	style, ok := kindStyles[k]
	if !ok {
		return k.String()
	}
	return style.Render(k.String())
}
