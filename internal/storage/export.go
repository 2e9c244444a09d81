package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cruciblehq/crucible/internal/history"
)

// ExportMarkdown renders a session and its records as a markdown document.
func ExportMarkdown(sess *Session, records []history.Record) string {
	var b strings.Builder

	title := sess.Title
	if title == "" {
		title = sess.ID
	}
	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	b.WriteString(fmt.Sprintf("- **Session:** %s\n", sess.ID))
	b.WriteString(fmt.Sprintf("- **Created:** %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("- **Runs:** %d\n", len(records)))
	b.WriteString("\n---\n\n")

	for _, rec := range records {
		b.WriteString(fmt.Sprintf("## Run %d\n\n", rec.Seq))
		b.WriteString(fmt.Sprintf("```\n%s\n```\n\n", rec.Source))

		if rec.Success {
			b.WriteString(fmt.Sprintf("**Output:**\n\n```\n%s\n```\n\n", rec.Output))
			for _, fig := range rec.Figures {
				label := fig.Kind
				if fig.Title != "" {
					label = fmt.Sprintf("%s — %s", fig.Kind, fig.Title)
				}
				b.WriteString(fmt.Sprintf("*Figure %d: %s*\n\n", fig.Seq, label))
			}
		} else {
			b.WriteString(fmt.Sprintf("**Failed:**\n\n```\n%s\n```\n\n", rec.Trace))
		}
	}

	return b.String()
}

// ExportJSON renders a session and its records as formatted JSON.
func ExportJSON(sess *Session, records []history.Record) ([]byte, error) {
	export := struct {
		Session *Session         `json:"session"`
		Records []history.Record `json:"records"`
	}{
		Session: sess,
		Records: records,
	}
	return json.MarshalIndent(export, "", "  ")
}
