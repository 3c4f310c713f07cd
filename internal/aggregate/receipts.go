// Package aggregate collapses transaction lines into receipts, the grain every
// store-level report reads from.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

// Key identifies one receipt.
type Key struct {
	SaleDate  time.Time
	YearMonth string
	SaleHour  int
	StoreName string
	ReceiptID string
}

// KeyOf returns the receipt key of a line.
func KeyOf(l types.TransactionLine) Key {
	return Key{
		SaleDate:  l.SaleDate,
		YearMonth: l.YearMonth,
		SaleHour:  l.SaleHour,
		StoreName: l.StoreName,
		ReceiptID: l.ReceiptID,
	}
}

// keyOfReceipt returns the grouping key of a receipt.
func keyOfReceipt(r types.Receipt) Key {
	return Key{r.SaleDate, r.YearMonth, r.SaleHour, r.StoreName, r.ReceiptID}
}

func (a Key) less(b Key) bool {
	if !a.SaleDate.Equal(b.SaleDate) {
		return a.SaleDate.Before(b.SaleDate)
	}
	if a.SaleHour != b.SaleHour {
		return a.SaleHour < b.SaleHour
	}
	if a.StoreName != b.StoreName {
		return a.StoreName < b.StoreName
	}
	if a.YearMonth != b.YearMonth {
		return a.YearMonth < b.YearMonth
	}
	return a.ReceiptID < b.ReceiptID
}

// SafeDiv divides num by den, yielding zero when den is zero.
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, 4)
}

type group struct {
	receipts map[string]struct{}
	items    decimal.Decimal
	revenue  decimal.Decimal
}

// Receipts groups lines by Key. The result is sorted by date, hour, store,
// year-month and receipt id, so identical input always yields identical output.
func Receipts(lines []types.TransactionLine) []types.Receipt {
	groups := make(map[Key]*group)
	for _, l := range lines {
		k := KeyOf(l)
		g, ok := groups[k]
		if !ok {
			g = &group{receipts: map[string]struct{}{}, items: decimal.Zero, revenue: decimal.Zero}
			groups[k] = g
		}
		g.receipts[l.ReceiptID] = struct{}{}
		g.items = g.items.Add(l.Quantity)
		g.revenue = g.revenue.Add(l.Subtotal)
	}

	out := make([]types.Receipt, 0, len(groups))
	for k, g := range groups {
		out = append(out, types.Receipt{
			SaleDate:      k.SaleDate,
			YearMonth:     k.YearMonth,
			SaleHour:      k.SaleHour,
			StoreName:     k.StoreName,
			ReceiptID:     k.ReceiptID,
			CustomerCount: len(g.receipts),
			ItemCount:     g.items,
			Revenue:       g.revenue,
			AvgUnitPrice:  SafeDiv(g.revenue, g.items),
		})
	}
	sort.Slice(out, func(i, j int) bool { return keyOfReceipt(out[i]).less(keyOfReceipt(out[j])) })
	return out
}

// Table is the read-only receipt table of one run.
type Table struct {
	receipts []types.Receipt
}

// NewTable aggregates lines once and wraps the result.
func NewTable(lines []types.TransactionLine) *Table {
	return &Table{receipts: Receipts(lines)}
}

// Len returns the number of receipts.
func (t *Table) Len() int {
	return len(t.receipts)
}

// Each calls fn for every receipt in key order.
func (t *Table) Each(fn func(types.Receipt)) {
	for _, r := range t.receipts {
		fn(r)
	}
}

// Rows returns a copy of the receipts.
func (t *Table) Rows() []types.Receipt {
	return append([]types.Receipt(nil), t.receipts...)
}
