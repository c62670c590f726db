package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

const registerSheet = "Evidence"

// RegisterWriter produces the XLSX register the municipal accounting
// office files permit decisions in. One row per draft, Czech headers.
type RegisterWriter struct{}

func NewRegisterWriter() *RegisterWriter {
	return &RegisterWriter{}
}

func (w *RegisterWriter) WriteRegister(drafts []domain.Draft) ([]byte, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(registerSheet); index == -1 {
		if _, err := f.NewSheet(registerSheet); err != nil {
			return nil, fmt.Errorf("create register sheet: %w", err)
		}
	}
	activeIndex, _ := f.GetSheetIndex(registerSheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"ID konceptu",
		"Stav",
		"Zadatel",
		"Plocha (m2)",
		"Zabor od",
		"Zabor do",
		"Dny",
		"Sazba (Kc/m2/den)",
		"Poplatek (Kc)",
		"Variabilni symbol",
		"Ke kontrole",
		"Zdrojovy soubor",
		"Vytvoreno",
		"Rozhodnuto",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(registerSheet, cell, h)
	}

	row := 2
	for _, d := range drafts {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(registerSheet, cell, v)
		}

		write(1, d.ID)
		write(2, string(d.State))
		write(3, d.Fields.ApplicantName)
		if d.Fields.AreaM2 != nil {
			write(4, *d.Fields.AreaM2)
		}
		if d.Fields.StartDate != nil {
			write(5, d.Fields.StartDate.Format("02.01.2006"))
		}
		if d.Fields.EndDate != nil {
			write(6, d.Fields.EndDate.Format("02.01.2006"))
		}
		if d.Fee != nil {
			write(7, d.Fee.DurationDays)
			write(8, d.Fee.RateCZKPerM2Day)
			write(9, d.Fee.TotalCZK)
			write(10, d.Fee.VariableSymbol)
		}
		if d.NeedsReview {
			write(11, "ano")
		} else {
			write(11, "ne")
		}
		write(12, d.SourceFilename)
		write(13, d.CreatedAt.Format("02.01.2006 15:04"))
		if d.DecidedAt != nil {
			write(14, d.DecidedAt.Format("02.01.2006 15:04"))
		}

		row++
	}

	_ = f.SetColWidth(registerSheet, "A", "A", 38)
	_ = f.SetColWidth(registerSheet, "B", "B", 10)
	_ = f.SetColWidth(registerSheet, "C", "C", 28)
	_ = f.SetColWidth(registerSheet, "D", "J", 14)
	_ = f.SetColWidth(registerSheet, "K", "K", 10)
	_ = f.SetColWidth(registerSheet, "L", "L", 32)
	_ = f.SetColWidth(registerSheet, "M", "N", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
