// Package report derives the reporting views of one run.
//
// Store-level views (daily, monthly, hourly, weekday x store x hour) read the
// receipt table. Product-level views (product pivot, ranking, weekday x store)
// read transaction lines, because product identity is gone after receipts are
// formed. Every function here is pure: identical input yields identical views.
package report

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pos-sales-report/internal/aggregate"
	"github.com/ginjaninja78/pos-sales-report/internal/stores"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

// View keys, in workbook order.
const (
	ViewDaily       = "daily"
	ViewMonthly     = "monthly"
	ViewHourly      = "hourly"
	ViewProduct     = "product"
	ViewRanking     = "ranking"
	ViewWeekday     = "weekday"
	ViewWeekdayHour = "weekday_hour"
)

// Views lists every view key in export order.
var Views = []string{ViewDaily, ViewMonthly, ViewHourly, ViewProduct, ViewRanking, ViewWeekday, ViewWeekdayHour}

// SafeDiv divides num by den, yielding zero when den is zero.
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	return aggregate.SafeDiv(num, den)
}

// Measures are the summed receipt measures of one group.
type Measures struct {
	Revenue   decimal.Decimal
	Customers int
	Items     decimal.Decimal
}

func (m *Measures) add(r types.Receipt) {
	m.Revenue = m.Revenue.Add(r.Revenue)
	m.Customers += r.CustomerCount
	m.Items = m.Items.Add(r.ItemCount)
}

// PerCustomer is revenue per customer (receipt), zero without customers.
func (m Measures) PerCustomer() decimal.Decimal {
	return SafeDiv(m.Revenue, decimal.NewFromInt(int64(m.Customers)))
}

// AvgUnitPrice is revenue per item, zero without items.
func (m Measures) AvgUnitPrice() decimal.Decimal {
	return SafeDiv(m.Revenue, m.Items)
}

// DailyRow is one (date, store) group.
type DailyRow struct {
	Date  time.Time
	Store string
	Measures
}

// MonthlyRow is one (year-month, store) group.
type MonthlyRow struct {
	YearMonth string
	Store     string
	Measures
}

// HourlyRow is one (year-month, hour, store) group.
type HourlyRow struct {
	YearMonth string
	Hour      int
	Store     string
	Measures
}

// groupReceipts sums receipts per key, keeping first-encounter order of keys.
func groupReceipts[K comparable](receipts []types.Receipt, key func(types.Receipt) K) ([]K, map[K]*Measures) {
	var order []K
	groups := make(map[K]*Measures)
	for _, r := range receipts {
		k := key(r)
		m, ok := groups[k]
		if !ok {
			m = &Measures{}
			groups[k] = m
			order = append(order, k)
		}
		m.add(r)
	}
	return order, groups
}

// Daily groups receipts by (date, store).
func Daily(receipts []types.Receipt, dir *stores.Directory) []DailyRow {
	type key struct {
		date  time.Time
		store string
	}
	keys, groups := groupReceipts(receipts, func(r types.Receipt) key { return key{r.SaleDate, r.StoreName} })

	rows := make([]DailyRow, len(keys))
	for i, k := range keys {
		rows[i] = DailyRow{Date: k.date, Store: k.store, Measures: *groups[k]}
	}
	slices.SortStableFunc(rows, func(a, b DailyRow) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return compareStores(dir, a.Store, b.Store)
	})
	return rows
}

// Monthly groups receipts by (year-month, store).
func Monthly(receipts []types.Receipt, dir *stores.Directory) []MonthlyRow {
	type key struct{ month, store string }
	keys, groups := groupReceipts(receipts, func(r types.Receipt) key { return key{r.YearMonth, r.StoreName} })

	rows := make([]MonthlyRow, len(keys))
	for i, k := range keys {
		rows[i] = MonthlyRow{YearMonth: k.month, Store: k.store, Measures: *groups[k]}
	}
	slices.SortStableFunc(rows, func(a, b MonthlyRow) int {
		if c := strings.Compare(a.YearMonth, b.YearMonth); c != 0 {
			return c
		}
		return compareStores(dir, a.Store, b.Store)
	})
	return rows
}

// Hourly groups receipts by (year-month, hour, store).
func Hourly(receipts []types.Receipt, dir *stores.Directory) []HourlyRow {
	type key struct {
		month string
		hour  int
		store string
	}
	keys, groups := groupReceipts(receipts, func(r types.Receipt) key { return key{r.YearMonth, r.SaleHour, r.StoreName} })

	rows := make([]HourlyRow, len(keys))
	for i, k := range keys {
		rows[i] = HourlyRow{YearMonth: k.month, Hour: k.hour, Store: k.store, Measures: *groups[k]}
	}
	slices.SortStableFunc(rows, func(a, b HourlyRow) int {
		if c := strings.Compare(a.YearMonth, b.YearMonth); c != 0 {
			return c
		}
		if a.Hour != b.Hour {
			return a.Hour - b.Hour
		}
		return compareStores(dir, a.Store, b.Store)
	})
	return rows
}

func compareStores(dir *stores.Directory, a, b string) int {
	switch {
	case a == b:
		return 0
	case dir.Less(a, b):
		return -1
	default:
		return 1
	}
}
