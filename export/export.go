// Package export renders registration rows as an xlsx workbook.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"eventsapi/models"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	Filename    = "registrations.xlsx"
	SheetName   = "Sheet1"
	DateFormat  = "yyyy-mm-dd hh:mm:ss"
)

var Header = []string{"user_username", "event_title", "registration_date", "accepted"}

// Exporter turns export rows into a downloadable document.
type Exporter interface {
	Export(rows []models.ExportRow) ([]byte, error)
}

type XLSX struct{}

func NewXLSX() XLSX { return XLSX{} }

// Export writes a header row followed by one row per registration.
func (XLSX) Export(rows []models.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}

	dateFmt := DateFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return nil, fmt.Errorf("date style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		vals := []any{
			r.Username,
			r.EventTitle,
			excelize.Cell{StyleID: dateStyle, Value: r.RegistrationDate.UTC()},
			r.Accepted,
		}
		if err := sw.SetRow(cell, vals); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
