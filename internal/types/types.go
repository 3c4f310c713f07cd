// =============================================================================
// POS Sales Report - Shared Types
// =============================================================================
//
// This package contains the record types that flow through the pipeline.
// They live here to avoid import cycles between:
//   - csvparser / xlsxparser (produce RawLine)
//   - normalize             (RawLine -> TransactionLine)
//   - aggregate             (TransactionLine -> Receipt)
//   - report                (Receipt / TransactionLine -> Table)
//   - xlsxwriter / server   (consume Table)
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INTAKE TYPES
// =============================================================================

// RawLine is one data row of an uploaded POS export, before any parsing.
// Every field is the cell text exactly as read (trimmed of surrounding space).
type RawLine struct {
	// SaleDateTime is the free-text sale timestamp, e.g. "2024年05月01日 10:15".
	SaleDateTime string

	// ReceiptID is the free-text receipt number, e.g. "No.2-0001".
	// The leading digit run after "No." is the store code.
	ReceiptID string

	// UnitPrice may carry an "@" prefix and thousands separators.
	UnitPrice string

	Quantity    string
	Subtotal    string
	ProductName string

	// RowNumber is the 1-based line number in the source file.
	RowNumber int
}

// =============================================================================
// NORMALIZED TYPES
// =============================================================================

// TransactionLine is one cleaned receipt line.
type TransactionLine struct {
	SaleDate  time.Time
	SaleHour  int
	StoreCode string
	StoreName string

	// UnitPrice is zero when HasUnitPrice is false; a missing price never drops a line.
	UnitPrice    decimal.Decimal
	HasUnitPrice bool

	Quantity    decimal.Decimal
	Subtotal    decimal.Decimal
	ProductName string
	ReceiptID   string

	// Weekday is Monday=0 .. Sunday=6.
	Weekday   int
	YearMonth string
}

// Receipt is one row per (date, year-month, hour, store, receipt id).
type Receipt struct {
	SaleDate  time.Time
	YearMonth string
	SaleHour  int
	StoreName string
	ReceiptID string

	// CustomerCount is the number of distinct receipt ids in the group, so it
	// is always 1: one receipt counts as one customer.
	CustomerCount int
	ItemCount     decimal.Decimal
	Revenue       decimal.Decimal
	AvgUnitPrice  decimal.Decimal
}

// Weekday returns the Monday-based weekday index of the receipt's date.
func (r Receipt) Weekday() int {
	return WeekdayIndex(r.SaleDate.Weekday())
}

// WeekdayIndex converts time.Weekday (Sunday=0) to Monday=0 .. Sunday=6.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// =============================================================================
// OUTPUT TYPES
// =============================================================================

// Table is a flattened report view ready for rendering.
// Row cells hold only string, int or float64 values.
type Table struct {
	// View is the stable view key ("daily", "monthly", ...).
	View    string   `json:"view"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
