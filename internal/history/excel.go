package history

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/weighbill/internal/models"
)

const (
	receiptSheet = "Bill"
	historySheet = "History"
	dateLayout   = "2006-01-02 15:04"
)

// ReceiptXLSX renders one receipt as a workbook with a single "Bill" sheet.
func ReceiptXLSX(r models.Receipt, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", receiptSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	title := r.Name
	if title == "" {
		title = "Bill"
	}
	f.SetCellValue(receiptSheet, "A1", title)
	f.SetCellValue(receiptSheet, "A2", formatTS(r.TS, loc))

	headers := []string{"Item", "Grams", "Price", "Line Total"}
	if err := writeHeader(f, receiptSheet, 4, headers); err != nil {
		return nil, err
	}

	row := 5
	for _, line := range r.Lines {
		f.SetCellValue(receiptSheet, fmt.Sprintf("A%d", row), line.ItemName)
		if line.Grams != nil {
			f.SetCellValue(receiptSheet, fmt.Sprintf("B%d", row), *line.Grams)
		}
		if line.Price != nil {
			f.SetCellValue(receiptSheet, fmt.Sprintf("C%d", row), *line.Price)
		}
		f.SetCellValue(receiptSheet, fmt.Sprintf("D%d", row), line.LineTotal)
		row++
	}

	f.SetCellValue(receiptSheet, fmt.Sprintf("C%d", row), "Total")
	f.SetCellValue(receiptSheet, fmt.Sprintf("D%d", row), r.Total)
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(receiptSheet, fmt.Sprintf("C%d", row), fmt.Sprintf("D%d", row), bold)
	f.SetCellStyle(receiptSheet, "A1", "A1", bold)

	f.SetColWidth(receiptSheet, "A", "A", 24)
	f.SetColWidth(receiptSheet, "B", "D", 12)

	return writeFile(f)
}

// HistoryXLSX renders all receipts as one row each on a "History" sheet.
func HistoryXLSX(receipts []models.Receipt, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{"Name", "Date", "Lines", "Total"}
	if err := writeHeader(f, historySheet, 1, headers); err != nil {
		return nil, err
	}

	for i, r := range receipts {
		row := i + 2
		f.SetCellValue(historySheet, fmt.Sprintf("A%d", row), Label(r, i))
		f.SetCellValue(historySheet, fmt.Sprintf("B%d", row), formatTS(r.TS, loc))
		f.SetCellValue(historySheet, fmt.Sprintf("C%d", row), len(r.Lines))
		f.SetCellValue(historySheet, fmt.Sprintf("D%d", row), r.Total)
	}

	f.SetColWidth(historySheet, "A", "B", 20)
	f.SetColWidth(historySheet, "C", "D", 10)

	return writeFile(f)
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		f.SetCellValue(sheet, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	first, _ := excelize.CoordinatesToCellName(1, row)
	return f.SetCellStyle(sheet, first, last, headerStyle)
}

func writeFile(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTS(ts int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ts).In(loc).Format(dateLayout)
}
