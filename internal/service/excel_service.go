package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExcelService writes export tables as XLSX workbooks.
type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// WriteTable saves table to outputPath with a styled header row. Amount
// columns are written as numbers with two decimals.
func (s *ExcelService) WriteTable(table exportTable, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := table.Sheet
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	for i, header := range table.Headers {
		f.SetCellValue(sheetName, cellName(i, 1), header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", cellName(len(table.Headers)-1, 1), headerStyle)

	amounts := make(map[int]bool, len(table.AmountColumn))
	for _, col := range table.AmountColumn {
		amounts[col] = true
	}

	for rowIdx, row := range table.Rows {
		for colIdx, value := range row {
			cell := cellName(colIdx, rowIdx+2)
			if amounts[colIdx] {
				if v, err := parseAmount(value); err == nil {
					f.SetCellValue(sheetName, cell, v)
					continue
				}
			}
			// Identifiers such as NPWP keep their leading zeros.
			f.SetCellStr(sheetName, cell, value)
		}
	}

	numericStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4})
	for i := range table.Headers {
		col := columnName(i)
		width := 18.0
		if amounts[i] {
			f.SetColStyle(sheetName, col, numericStyle)
		}
		if table.Headers[i] == "Nama" || table.Headers[i] == "Nama Terpotong" {
			width = 30
		}
		f.SetColWidth(sheetName, col, col, width)
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

func columnName(index int) string {
	name, _ := excelize.ColumnNumberToName(index + 1)
	return name
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnName(col), row)
}

func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
