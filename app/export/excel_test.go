package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/tealeg/xlsx/v2"

	"github.com/donight/donight/app/database"
)

func day(dayOfMonth, hour int) time.Time {
	return time.Date(2026, time.March, dayOfMonth, hour, 0, 0, 0, time.Local)
}

func TestWriteGroupsEventsByDay(t *testing.T) {
	events := []database.Event{
		{Title: "Late show", StartTime: day(2, 22)},
		{Title: "Morning show", StartTime: day(1, 10)},
		{Title: "Evening show", StartTime: day(1, 20)},
	}

	var buf bytes.Buffer
	if err := NewExcelWriter().Write(&buf, events); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	file, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("Failed to reopen workbook: %v", err)
	}

	sheet, ok := file.Sheet[sheetName]
	if !ok {
		t.Fatalf("Expected sheet %q", sheetName)
	}

	// Header, two day separators and three event rows.
	if len(sheet.Rows) != 6 {
		t.Fatalf("Expected 6 rows, got %d", len(sheet.Rows))
	}

	if got := sheet.Rows[0].Cells[0].String(); got != "Title" {
		t.Errorf("Expected header row, got first cell %q", got)
	}
	if got := sheet.Rows[1].Cells[0].String(); got != "Sunday, 01 March 2026" {
		t.Errorf("Expected first day separator, got %q", got)
	}
	if got := sheet.Rows[2].Cells[0].String(); got != "Morning show" {
		t.Errorf("Expected earliest event first, got %q", got)
	}
	if got := sheet.Rows[3].Cells[0].String(); got != "Evening show" {
		t.Errorf("Expected second event of the day, got %q", got)
	}
	if got := sheet.Rows[4].Cells[0].String(); got != "Monday, 02 March 2026" {
		t.Errorf("Expected second day separator, got %q", got)
	}
	if got := sheet.Rows[5].Cells[0].String(); got != "Late show" {
		t.Errorf("Expected last event, got %q", got)
	}
}

func TestWriteEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExcelWriter().Write(&buf, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	file, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("Failed to reopen workbook: %v", err)
	}

	sheet := file.Sheet[sheetName]
	if len(sheet.Rows) != 1 {
		t.Fatalf("Expected only the header row, got %d rows", len(sheet.Rows))
	}
}

func TestWriteEventRowFields(t *testing.T) {
	end := day(1, 23)
	events := []database.Event{{
		Title:       "Concert",
		StartTime:   day(1, 21),
		EndTime:     &end,
		Location:    "Levontin 7",
		Price:       "50",
		URL:         "https://example.com/concert",
		Description: "A show",
		OwnerName:   "The Band",
		TicketURL:   "https://tickets.example.com",
		SourceType:  "facebook",
	}}

	var buf bytes.Buffer
	if err := NewExcelWriter().Write(&buf, events); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	file, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("Failed to reopen workbook: %v", err)
	}

	row := file.Sheet[sheetName].Rows[2]
	want := []string{
		"Concert", "21:00", "23:00", "Levontin 7", "50",
		"https://example.com/concert", "A show", "The Band",
		"https://tickets.example.com", "facebook",
	}
	for i, expected := range want {
		if got := row.Cells[i].String(); got != expected {
			t.Errorf("Cell %d: expected %q, got %q", i, expected, got)
		}
	}
}
