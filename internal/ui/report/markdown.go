package report

import (
	"fmt"
	"strings"

	"moduledeps/internal/engine/rules"
)

func renderMarkdown(reports []rules.Report, opts Options) string {
	var b strings.Builder
	b.WriteString("# Module Dependency Report\n\n")

	counts := rules.Count(reports)
	b.WriteString("## Summary\n")
	b.WriteString("| Kind | Count |\n")
	b.WriteString("| --- | --- |\n")
	for _, k := range rules.AllKinds() {
		if counts[k] == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("| %s | %d |\n", k, counts[k]))
	}
	b.WriteString("\n")

	for _, k := range rules.AllKinds() {
		if counts[k] == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("## %s\n", k))
		for _, r := range reports {
			if r.Kind != k {
				continue
			}
			b.WriteString(fmt.Sprintf("- **%s** %s\n", r.ForTeam, escapeMarkdown(r.Message)))
			if opts.ApplyActions && r.HasAction() {
				b.WriteString("  ```\n  " + r.Action + "\n  ```\n")
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func escapeMarkdown(s string) string {
	return strings.NewReplacer("|", "\\|", "*", "\\*", "_", "\\_").Replace(s)
}
