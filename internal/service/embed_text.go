package service

import (
	"strings"
	"time"

	"github.com/quantfold/arbscope/internal/domain"
)

// BuildEmbedText renders the compact textual form of a market that the
// external encoder embeds. The layout is fixed: vectors are only comparable
// when every market was encoded from the same schema, so changing it means
// re-embedding the whole pool.
//
//	query: <title>
//	end:<RFC3339 end date, empty when unset>
//	outcomes:<labels, comma separated>
//	desc:<description>
func BuildEmbedText(m domain.Market) string {
	labels := make([]string, 0, len(m.Outcomes))
	for _, o := range m.Outcomes {
		labels = append(labels, o.Label)
	}

	end := ""
	if m.EndDate != nil {
		end = m.EndDate.UTC().Format(time.RFC3339)
	}

	var b strings.Builder
	b.WriteString("query: ")
	b.WriteString(strings.TrimSpace(m.Title))
	b.WriteString("\nend:")
	b.WriteString(end)
	b.WriteString("\noutcomes:")
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("\ndesc:")
	b.WriteString(strings.TrimSpace(m.Description))
	return b.String()
}
