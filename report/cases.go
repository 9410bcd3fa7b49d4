// Package report renders case documents as spreadsheets.
package report

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/medevac"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of the export.
const SheetName = "Cases"

// CasesHeader is the export column order.
var CasesHeader = []string{
	"Obligation Number",
	"Patient Name",
	"Agency",
	"Medevac Type",
	"Region",
	"Status",
	"Cable Status",
	"Effective Start",
	"Effective End",
	"Days",
	"Current Location",
	"Extensions",
	"Initial Funding",
	"Extension Funding",
	"Amendment Funding",
	"Total Obligation",
	"Deobligation",
	"Completion %",
	"Missing Fields",
}

var columnWidths = []float64{18, 24, 12, 14, 8, 28, 18, 14, 14, 7, 20, 11, 16, 18, 18, 16, 14, 13, 40}

// CasesWorkbook writes one row per case, in the order given.
func CasesWorkbook(docs []medevac.CaseDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	moneyFormat := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat})
	if err != nil {
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &CasesHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(CasesHeader), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, doc := range docs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := caseRow(doc)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if len(docs) > 0 {
		// Columns M..Q hold money.
		from, _ := excelize.CoordinatesToCellName(13, 2)
		to, _ := excelize.CoordinatesToCellName(17, len(docs)+1)
		if err := f.SetCellStyle(SheetName, from, to, moneyStyle); err != nil {
			return nil, fmt.Errorf("failed to set money style: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func caseRow(doc medevac.CaseDocument) []any {
	r, d := doc.Record, doc.Derived
	missing := ""
	for i, name := range d.MissingFields {
		if i > 0 {
			missing += ", "
		}
		missing += name
	}
	return []any{
		r.ObligationNumber,
		r.PatientName,
		string(r.AgencyType),
		string(r.MedevacType),
		d.Region,
		d.MedevacStatus,
		d.CableStatus,
		d.EffectiveStartDate.String(),
		d.EffectiveEndDate.String(),
		generic.NewPeriod(d.EffectiveStartDate, d.EffectiveEndDate).DayCount(),
		d.CurrentMedevacLocation,
		len(r.Extensions),
		amount(d.InitialFundingTotal),
		amount(d.TotalExtensionFunding),
		amount(d.AmendmentFundingTotal),
		amount(d.TotalObligation),
		amount(d.DeobligationAmount),
		d.CompletionPercentage,
		missing,
	}
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
