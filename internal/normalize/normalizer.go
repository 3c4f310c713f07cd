// Package normalize turns raw export rows into cleaned transaction lines.
//
// A row survives only when its quantity, subtotal, sale date and sale hour
// all parse and its quantity is not negative. Rows failing any of these are
// dropped without an error; the drop is only visible through Stats.
package normalize

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/pos-sales-report/internal/extract"
	"github.com/ginjaninja78/pos-sales-report/internal/stores"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

// DropReason names why a row was excluded.
type DropReason string

const (
	DropDate          DropReason = "date"
	DropTime          DropReason = "time"
	DropQuantity      DropReason = "quantity"
	DropSubtotal      DropReason = "subtotal"
	DropProductFilter DropReason = "product_filter"
)

// Options tune normalization.
type Options struct {
	// ProductFilter keeps only lines whose product name contains one of these
	// substrings. Empty keeps all lines.
	ProductFilter []string
}

// Stats counts rows in and out of normalization.
type Stats struct {
	Total   int
	Kept    int
	Dropped map[DropReason]int
}

// DroppedTotal returns the number of excluded rows.
func (s Stats) DroppedTotal() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Reasons returns the drop reasons that occurred, sorted.
func (s Stats) Reasons() []DropReason {
	out := make([]DropReason, 0, len(s.Dropped))
	for r := range s.Dropped {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Normalize parses every raw line and returns the survivors in input order.
func Normalize(raw []types.RawLine, dir *stores.Directory, opts Options) ([]types.TransactionLine, Stats) {
	stats := Stats{Total: len(raw), Dropped: map[DropReason]int{}}
	lines := make([]types.TransactionLine, 0, len(raw))

	filter := make([]string, 0, len(opts.ProductFilter))
	for _, f := range opts.ProductFilter {
		if f = strings.TrimSpace(f); f != "" {
			filter = append(filter, f)
		}
	}

	for _, r := range raw {
		line, reason, ok := normalizeLine(r, dir)
		if ok && !matchesFilter(line.ProductName, filter) {
			reason, ok = DropProductFilter, false
		}
		if !ok {
			stats.Dropped[reason]++
			continue
		}
		lines = append(lines, line)
	}

	stats.Kept = len(lines)
	return lines, stats
}

func normalizeLine(r types.RawLine, dir *stores.Directory) (types.TransactionLine, DropReason, bool) {
	qty, ok := extract.Number(r.Quantity)
	if !ok || qty.IsNegative() {
		return types.TransactionLine{}, DropQuantity, false
	}
	subtotal, ok := extract.Number(r.Subtotal)
	if !ok {
		return types.TransactionLine{}, DropSubtotal, false
	}
	dateText, ok := extract.SaleDate(r.SaleDateTime)
	if !ok {
		return types.TransactionLine{}, DropDate, false
	}
	date, ok := extract.ParseSaleDate(dateText)
	if !ok {
		return types.TransactionLine{}, DropDate, false
	}
	hour, ok := extract.SaleHour(r.SaleDateTime)
	if !ok {
		return types.TransactionLine{}, DropTime, false
	}

	code, _ := extract.StoreCode(r.ReceiptID)
	price, hasPrice := extract.Price(r.UnitPrice)

	return types.TransactionLine{
		SaleDate:     date,
		SaleHour:     hour,
		StoreCode:    code,
		StoreName:    dir.Name(code),
		UnitPrice:    price,
		HasUnitPrice: hasPrice,
		Quantity:     qty,
		Subtotal:     subtotal,
		ProductName:  r.ProductName,
		ReceiptID:    r.ReceiptID,
		Weekday:      types.WeekdayIndex(date.Weekday()),
		YearMonth:    extract.YearMonth(date),
	}, "", true
}

func matchesFilter(product string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if strings.Contains(product, f) {
			return true
		}
	}
	return false
}
