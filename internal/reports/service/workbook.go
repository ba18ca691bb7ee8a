package service

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	aidservice "oncofeliz/internal/aid/service"
)

const aidSheet = "Solicitudes"

var aidHeader = []string{
	"Código", "Beneficiario", "Paciente", "Tipo", "Prioridad", "Estado",
	"Detalle", "Costo estimado (Bs)", "Costo real (Bs)", "Proveedor",
	"Solicitado por", "Fecha solicitud", "Fecha entrega",
}

// Columns holding amounts; written as numbers so the sheet can sum them.
const (
	estimatedCol = 8
	realCol      = 9
)

func renderAidWorkbook(list []*aidservice.View) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", aidSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(aidSheet, "A1", &aidHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, v := range list {
		row := aidRow(v)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(aidSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := formatSheet(f, aidSheet, len(aidHeader), len(list)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func aidRow(v *aidservice.View) []any {
	row := make([]any, len(aidHeader))
	row[0] = v.Code
	if v.Beneficiary != nil {
		row[1] = v.Beneficiary.Code
	}
	if v.Case != nil {
		row[2] = v.Case.ChildName
	}
	row[3] = string(v.Type)
	row[4] = string(v.Priority)
	row[5] = string(v.Status)
	row[6] = v.Detail
	if v.EstimatedCost != nil {
		row[estimatedCol-1] = float64(*v.EstimatedCost) / 100
	}
	if v.RealCost != nil {
		row[realCol-1] = float64(*v.RealCost) / 100
	}
	row[9] = v.Provider
	if v.Requester != nil {
		row[10] = v.Requester.FullName
	}
	row[11] = v.CreatedAt.Format(time.DateOnly)
	if v.DeliveredAt != nil {
		row[12] = v.DeliveredAt.Format(time.DateOnly)
	}
	return row
}

// formatSheet bolds the header, adds an autofilter, formats the amount
// columns and sizes every column to its longest value.
func formatSheet(f *excelize.File, sheet string, cols, rows int) error {
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", bold); err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, "A1:"+last+"1", nil); err != nil {
		return err
	}
	if rows > 0 {
		money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
		if err != nil {
			return err
		}
		for _, col := range []int{estimatedCol, realCol} {
			name, _ := excelize.ColumnNumberToName(col)
			if err := f.SetCellStyle(sheet, name+"2", fmt.Sprintf("%s%d", name, rows+1), money); err != nil {
				return err
			}
		}
	}

	all, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	for c := 0; c < cols; c++ {
		width := 10.0
		for r, row := range all {
			if c >= len(row) {
				continue
			}
			w := float64(utf8.RuneCountInString(row[c])) * 1.1
			if r == 0 {
				w += 1.5
			}
			width = max(width, min(w, 60))
		}
		name, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}
