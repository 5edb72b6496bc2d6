package report

import (
	"fmt"
	"strings"

	"moduledeps/internal/engine/rules"
)

func renderTSV(reports []rules.Report) string {
	var buf strings.Builder

	buf.WriteString("Kind\tTeam\tClass\tModules\tMessage\tAction\n")
	for _, r := range reports {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Kind,
			r.ForTeam,
			tsvField(r.ForClass),
			tsvField(strings.Join(r.ForModules, ",")),
			tsvField(r.Message),
			tsvField(r.Action),
		))
	}

	return buf.String()
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
