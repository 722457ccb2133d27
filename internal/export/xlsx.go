package export

import (
	"fmt"
	"io"

	"chart-prophet/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	tradesSheet = "Trades"
	xlsxTime    = "2006-01-02 15:04:05"
)

var tradeHeader = []any{
	"ID", "Created At", "Symbol", "Recommendation", "Confidence", "Trend",
	"Outcome", "Profit/Loss", "Indicator", "RSI Signal", "MACD Signal",
	"Entry Price", "Exit Price", "Notes",
}

// WriteTradesXLSX renders trades as a single-sheet workbook.
func WriteTradesXLSX(w io.Writer, trades []domain.Trade) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", tradesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(tradesSheet, "A1", &tradeHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, t := range trades {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			t.ID,
			t.CreatedAt.UTC().Format(xlsxTime),
			t.Symbol,
			string(t.Recommendation),
			t.ConfidenceLevel,
			t.TrendDirection,
			deref(t.Outcome, ""),
			deref(t.ProfitLoss, nil),
			t.IndicatorType,
			t.RSISignal,
			t.MACDSignal,
			deref(t.EntryPrice, nil),
			deref(t.ExitPrice, nil),
			t.Notes,
		}
		if err := f.SetSheetRow(tradesSheet, cell, &row); err != nil {
			return fmt.Errorf("write trade %d: %w", t.ID, err)
		}
	}

	if err := f.SetPanes(tradesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	return f.Write(w)
}

// deref returns *p, or empty when p is nil. Empty cells stay blank.
func deref[T any](p *T, empty any) any {
	if p == nil {
		return empty
	}
	return *p
}
