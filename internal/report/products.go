package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pos-sales-report/internal/stores"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

// Matrix is a store x column grid of decimal totals.
type Matrix struct {
	Rows    []string
	Columns []string
	Values  [][]decimal.Decimal
}

// At returns the cell for (row, col), zero when either is absent.
func (m Matrix) At(row, col string) decimal.Decimal {
	r := slices.Index(m.Rows, row)
	c := slices.Index(m.Columns, col)
	if r < 0 || c < 0 {
		return decimal.Zero
	}
	return m.Values[r][c]
}

// RankingRow is one product in the revenue ranking.
type RankingRow struct {
	Rank     int
	Product  string
	Quantity decimal.Decimal
	Revenue  decimal.Decimal
}

// WeekdayMatrix holds per-store quantity and revenue for each weekday,
// Monday first. Both layers have one row per store and seven columns.
type WeekdayMatrix struct {
	Stores   []string
	Quantity [][]decimal.Decimal
	Revenue  [][]decimal.Decimal
}

// curatedStores returns the curated stores present in lines, in display order.
func curatedStores(lines []types.TransactionLine, dir *stores.Directory) []string {
	present := make(map[string]bool)
	for _, l := range lines {
		present[l.StoreName] = true
	}
	var out []string
	for _, name := range dir.Order() {
		if present[name] {
			out = append(out, name)
		}
	}
	return out
}

func zeroGrid(rows, cols int) [][]decimal.Decimal {
	grid := make([][]decimal.Decimal, rows)
	for i := range grid {
		grid[i] = make([]decimal.Decimal, cols)
		for j := range grid[i] {
			grid[i][j] = decimal.Zero
		}
	}
	return grid
}

// ProductPivot sums quantity per (store, product). Rows are the curated
// stores present in display order; columns are product names sorted
// lexicographically. Lines of stores outside the curated order are ignored.
func ProductPivot(lines []types.TransactionLine, dir *stores.Directory) Matrix {
	rows := curatedStores(lines, dir)
	rowIdx := indexOf(rows)

	var products []string
	seen := make(map[string]bool)
	for _, l := range lines {
		if _, ok := rowIdx[l.StoreName]; ok && !seen[l.ProductName] {
			seen[l.ProductName] = true
			products = append(products, l.ProductName)
		}
	}
	slices.Sort(products)
	colIdx := indexOf(products)

	values := zeroGrid(len(rows), len(products))
	for _, l := range lines {
		r, ok := rowIdx[l.StoreName]
		if !ok {
			continue
		}
		c := colIdx[l.ProductName]
		values[r][c] = values[r][c].Add(l.Quantity)
	}
	return Matrix{Rows: rows, Columns: products, Values: values}
}

// Ranking sums quantity and revenue per product and returns the n best
// products by revenue. Ties keep the order products were first seen in.
func Ranking(lines []types.TransactionLine, n int) []RankingRow {
	var rows []RankingRow
	idx := make(map[string]int)
	for _, l := range lines {
		i, ok := idx[l.ProductName]
		if !ok {
			i = len(rows)
			idx[l.ProductName] = i
			rows = append(rows, RankingRow{Product: l.ProductName, Quantity: decimal.Zero, Revenue: decimal.Zero})
		}
		rows[i].Quantity = rows[i].Quantity.Add(l.Quantity)
		rows[i].Revenue = rows[i].Revenue.Add(l.Subtotal)
	}

	slices.SortStableFunc(rows, func(a, b RankingRow) int {
		return b.Revenue.Cmp(a.Revenue)
	})
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// WeekdayPivot sums quantity and revenue per (curated store, weekday).
func WeekdayPivot(lines []types.TransactionLine, dir *stores.Directory) WeekdayMatrix {
	rows := curatedStores(lines, dir)
	rowIdx := indexOf(rows)

	m := WeekdayMatrix{
		Stores:   rows,
		Quantity: zeroGrid(len(rows), 7),
		Revenue:  zeroGrid(len(rows), 7),
	}
	for _, l := range lines {
		r, ok := rowIdx[l.StoreName]
		if !ok {
			continue
		}
		m.Quantity[r][l.Weekday] = m.Quantity[r][l.Weekday].Add(l.Quantity)
		m.Revenue[r][l.Weekday] = m.Revenue[r][l.Weekday].Add(l.Subtotal)
	}
	return m
}

func indexOf[K comparable](keys []K) map[K]int {
	idx := make(map[K]int, len(keys))
	for i, k := range keys {
		idx[k] = i
	}
	return idx
}
