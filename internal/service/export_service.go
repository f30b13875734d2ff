package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/history"
	"shifttrack/internal/model"
)

const exportSheet = "History"

// ExportService renders work history as an xlsx workbook.
type ExportService struct {
	entries  *EntryService
	location *time.Location
}

func NewExportService(entries *EntryService, location *time.Location) *ExportService {
	if location == nil {
		location = time.Local
	}
	return &ExportService{entries: entries, location: location}
}

func (s *ExportService) Workbook(ctx context.Context, userID string, period history.Period) ([]byte, *apperrors.APIError) {
	list, apiErr := s.entries.ListPeriod(ctx, userID, period)
	if apiErr != nil {
		return nil, apiErr
	}

	data, err := s.render(list.Entries)
	if err != nil {
		return nil, apperrors.Internal("failed to build workbook")
	}
	return data, nil
}

func (s *ExportService) render(entries []model.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]interface{}{{"Date", "Swap In", "Swap Out", "Duration"}}
	for _, e := range entries {
		swapIn := e.SwapIn.In(s.location)
		swapOut := ""
		duration := ""
		if e.SwapOut != nil {
			swapOut = e.SwapOut.In(s.location).Format("15:04")
		}
		if worked, ok := e.Worked(); ok {
			duration = history.FormatDuration(worked)
		}
		rows = append(rows, []interface{}{swapIn.Format("2006-01-02"), swapIn.Format("15:04"), swapOut, duration})
	}
	rows = append(rows, []interface{}{"Total", "", "", history.FormatDuration(history.TotalWorked(entries))})

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "D", 14); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
