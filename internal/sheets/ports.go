// Package sheets defines the outbound port used to export ledger entries to
// a spreadsheet.
package sheets

import (
	"context"
	"strconv"

	"fintrack/internal/core"
)

// LedgerExporter appends one row per exported ledger entry and returns a
// reference to the written row.
type LedgerExporter interface {
	AppendEntry(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
}

// DateLayout formats the date column.
const DateLayout = "2006-01-02 15:04"

// Header is the column layout of exported rows.
var Header = []string{"Entry", "Date", "Type", "Flow", "Amount", "Card", "Description"}

// Row renders e in Header order. Amounts are written with two decimals and
// keep their stored sign.
func Row(e core.LedgerEntry) []any {
	return []any{
		strconv.FormatInt(e.ID, 10),
		e.CreatedAt.UTC().Format(DateLayout),
		string(e.Kind),
		core.Classify(e.Kind).String(),
		core.FormatMoney(e.Amount),
		e.CardName,
		e.Description,
	}
}
