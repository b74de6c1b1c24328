// Package export renders stored events as spreadsheet files for download.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/tealeg/xlsx/v2"

	"github.com/donight/donight/app/database"
)

const sheetName = "Events"

var headerCells = []string{
	"Title", "Start Time", "End Time", "Location", "Price", "URL",
	"Description", "Owner", "Ticket URL", "Source",
}

// ExcelWriter writes an events workbook with one sheet, grouped by calendar
// day. Each day gets a separator row holding the date, followed by that
// day's events sorted by start time.
type ExcelWriter struct{}

func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

func (e *ExcelWriter) Write(w io.Writer, events []database.Event) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, name := range headerCells {
		header.AddCell().SetString(name)
	}

	sorted := make([]database.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	var currentDay string
	for _, event := range sorted {
		day := event.StartTime.Format("Monday, 02 January 2006")
		if day != currentDay {
			currentDay = day
			separator := sheet.AddRow()
			separator.AddCell().SetString(day)
		}
		writeEventRow(sheet.AddRow(), event)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeEventRow(row *xlsx.Row, event database.Event) {
	row.AddCell().SetString(event.Title)
	row.AddCell().SetString(event.StartTime.Format("15:04"))
	row.AddCell().SetString(formatEndTime(event.EndTime))
	row.AddCell().SetString(event.Location)
	row.AddCell().SetString(event.Price)
	row.AddCell().SetString(event.URL)
	row.AddCell().SetString(event.Description)
	row.AddCell().SetString(event.OwnerName)
	row.AddCell().SetString(event.TicketURL)
	row.AddCell().SetString(event.SourceType)
}

func formatEndTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}
