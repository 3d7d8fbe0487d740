package main

import (
	"fmt"
	"io"
	"time"

	"github.com/RezaEskandarii/reportfire/types"
	"github.com/jedib0t/go-pretty/v6/table"
)

const timeLayout = "2006-01-02 15:04 MST"

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func renderSchedules(out io.Writer, page *types.PaginationResult[types.ScheduleDefinition]) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Type", "Content", "At", "Timezone", "Active", "Last run", "Next run"})
	for _, def := range page.Items {
		next := def.NextRun
		t.AppendRow(table.Row{
			def.ID,
			def.ScheduleType,
			def.ContentKind,
			def.ScheduledTime,
			def.Location().String(),
			def.IsActive,
			formatTime(def.LastRun),
			formatTime(&next),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Page", pageLabel(page.Page, page.TotalPages, page.TotalItems)})
	t.Render()
}

func renderHistory(out io.Writer, page *types.PaginationResult[types.ExecutionHistoryEntry]) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Schedule", "Executed at", "Status", "Notified", "Duration", "Error"})
	for _, e := range page.Items {
		executed := e.ExecutedAt
		msg := ""
		if e.Error != nil {
			msg = e.Error.Message
		}
		t.AppendRow(table.Row{
			e.ID,
			e.ScheduleID,
			formatTime(&executed),
			e.Status,
			e.NotificationSent,
			(time.Duration(e.DurationMs) * time.Millisecond).String(),
			msg,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Page", pageLabel(page.Page, page.TotalPages, page.TotalItems)})
	t.Render()
}

func pageLabel(page, totalPages, totalItems int) string {
	return fmt.Sprintf("%d/%d (%d)", page, totalPages, totalItems)
}
