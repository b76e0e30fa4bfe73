package views

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spec-kit/ticketdesk/internal/domain"
)

var exportHeader = []string{
	"ID", "Subject", "Status", "Priority", "Created By", "Assigned To", "Created Date", "Last Updated",
}

const exportDateLayout = "2006-01-02"

// ExportCSV writes tickets, typically a view's Visible rows, as CSV.
func ExportCSV(w io.Writer, tickets []domain.Ticket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range tickets {
		assignee := "Unassigned"
		if t.AssignedAgent != nil {
			assignee = t.AssignedAgent.FullName()
		}
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.Subject,
			string(t.Status),
			string(t.Priority),
			t.CreatedBy.FullName(),
			assignee,
			exportDate(t.CreatedAt),
			exportDate(t.UpdatedAt),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names an export taken at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("tickets-%s.csv", now.Format(exportDateLayout))
}

func exportDate(ts domain.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(exportDateLayout)
}
