package extraction

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderSummary prints the end-of-run accounting: one row per target,
// plus totals. This is the primary operator-facing view of a multi-hour
// sweep.
func RenderSummary(out io.Writer, summaries []TargetSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Target", "State", "Units", "Aborted", "New Records", "Total Records", "Duration", "Error"})

	var totalNew, totalAll int
	var totalDuration time.Duration
	for _, s := range summaries {
		errText := ""
		if s.Err != nil {
			errText = s.Err.Error()
		}
		t.AppendRow(table.Row{
			s.TargetId,
			string(s.State),
			s.UnitsCompleted,
			s.UnitsAborted,
			s.Records,
			s.TotalRecords,
			s.Duration.Round(time.Second),
			errText,
		})
		totalNew += s.Records
		totalAll += s.TotalRecords
		totalDuration += s.Duration
	}
	t.AppendFooter(table.Row{"", "", "", "", totalNew, totalAll, totalDuration.Round(time.Second), ""})

	t.SetStyle(table.StyleRounded)
	t.Render()
}
