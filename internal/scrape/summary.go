package scrape

import (
	"io"

	"github.com/dtnitsch/verse-scraper/pkg/session"
	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintSummary renders one row per chapter plus totals.
func PrintSummary(w io.Writer, results []ChapterResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Job", "Chapter", "Status", "Updates", "Rows", "Error"})

	var updates int
	var rows int64
	for _, r := range results {
		errText := ""
		if r.Error != nil {
			errText = r.Error.Error()
		}
		t.AppendRow(table.Row{r.Job, r.Chapter, r.Status, r.Updates, r.Rows, errText})
		updates += r.Updates
		rows += r.Rows
	}
	t.AppendFooter(table.Row{"", "", "Total", updates, rows, ""})

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// JobRecord converts chapter results into a run-record entry.
func JobRecord(name, mode string, results []ChapterResult) session.JobRecord {
	rec := session.JobRecord{Name: name, Mode: mode}
	for _, r := range results {
		ch := session.ChapterRecord{
			Chapter: r.Chapter,
			URL:     r.URL,
			Status:  string(r.Status),
			Updates: r.Updates,
			Rows:    r.Rows,
		}
		if r.Error != nil {
			ch.Error = r.Error.Error()
		}
		rec.Chapters = append(rec.Chapters, ch)
	}
	return rec
}
