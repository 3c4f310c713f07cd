package report

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pos-sales-report/internal/stores"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

// DefaultTopN is the ranking length used when Options.TopN is not positive.
const DefaultTopN = 10

// DefaultDateLayout renders daily dates as 2024/5/1.
const DefaultDateLayout = "2006/1/2"

// DefaultWeekdayLabels are the business weekday labels, Monday first.
var DefaultWeekdayLabels = []string{"月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日", "日曜日"}

// Header ids used by Tables. TableOptions.Headers may override any of them.
const (
	HeaderDate         = "date"
	HeaderStore        = "store"
	HeaderYearMonth    = "year_month"
	HeaderHour         = "hour"
	HeaderRevenue      = "revenue"
	HeaderCustomers    = "customers"
	HeaderItems        = "items"
	HeaderPerCustomer  = "per_customer"
	HeaderAvgUnitPrice = "avg_unit_price"
	HeaderRank         = "rank"
	HeaderProduct      = "product"
	HeaderQuantity     = "quantity"
	HeaderWeekday      = "weekday"
)

var defaultHeaders = map[string]string{
	HeaderDate:         "販売日",
	HeaderStore:        "店舗名",
	HeaderYearMonth:    "年月",
	HeaderHour:         "時間帯",
	HeaderRevenue:      "売上金額",
	HeaderCustomers:    "客数",
	HeaderItems:        "販売個数",
	HeaderPerCustomer:  "客単価",
	HeaderAvgUnitPrice: "平均単価",
	HeaderRank:         "順位",
	HeaderProduct:      "商品名",
	HeaderQuantity:     "数量",
	HeaderWeekday:      "曜日",
}

// Options tune Build.
type Options struct {
	TopN int
}

// Report holds every view of one run. It is built once and read-only after.
type Report struct {
	Daily       []DailyRow
	Monthly     []MonthlyRow
	Hourly      []HourlyRow
	Product     Matrix
	Ranking     []RankingRow
	Weekday     WeekdayMatrix
	WeekdayHour HourMatrix

	receipts []types.Receipt
	dir      *stores.Directory
}

// Build computes all views from the lines and receipts of one run.
func Build(lines []types.TransactionLine, receipts []types.Receipt, dir *stores.Directory, opts Options) *Report {
	n := opts.TopN
	if n <= 0 {
		n = DefaultTopN
	}
	return &Report{
		Daily:       Daily(receipts, dir),
		Monthly:     Monthly(receipts, dir),
		Hourly:      Hourly(receipts, dir),
		Product:     ProductPivot(lines, dir),
		Ranking:     Ranking(lines, n),
		Weekday:     WeekdayPivot(lines, dir),
		WeekdayHour: WeekdayStoreHour(receipts, dir),
		receipts:    receipts,
		dir:         dir,
	}
}

// Weekdays returns the weekday indexes present in the run, Monday first.
func (r *Report) Weekdays() []int {
	return Weekdays(r.receipts)
}

// WeekdayMatrix returns the store x hour customer matrix of one weekday.
func (r *Report) WeekdayMatrix(weekday int) CountMatrix {
	return WeekdayHourMatrix(r.receipts, r.dir, weekday)
}

// Directory returns the store directory the report was built with.
func (r *Report) Directory() *stores.Directory {
	return r.dir
}

// TableOptions localize flattened tables.
type TableOptions struct {
	WeekdayLabels []string
	DateLayout    string
	Headers       map[string]string
}

func (o TableOptions) header(id string) string {
	if h, ok := o.Headers[id]; ok && h != "" {
		return h
	}
	return defaultHeaders[id]
}

// WeekdayLabel returns the label of a weekday index.
func (o TableOptions) WeekdayLabel(d int) string {
	labels := o.WeekdayLabels
	if len(labels) != 7 {
		labels = DefaultWeekdayLabels
	}
	return labels[d]
}

func (o TableOptions) layout() string {
	if o.DateLayout == "" {
		return DefaultDateLayout
	}
	return o.DateLayout
}

// Tables flattens every view in export order.
func (r *Report) Tables(opts TableOptions) []types.Table {
	return []types.Table{
		r.DailyTable(opts),
		r.MonthlyTable(opts),
		r.HourlyTable(opts),
		r.ProductTable(opts),
		r.RankingTable(opts),
		r.WeekdayTable(opts),
		r.WeekdayHourTable(opts),
	}
}

// Table flattens one view by key.
func (r *Report) Table(view string, opts TableOptions) (types.Table, bool) {
	for _, t := range r.Tables(opts) {
		if t.View == view {
			return t, true
		}
	}
	return types.Table{}, false
}

func (o TableOptions) measureHeaders() []string {
	return []string{
		o.header(HeaderRevenue),
		o.header(HeaderCustomers),
		o.header(HeaderItems),
		o.header(HeaderPerCustomer),
		o.header(HeaderAvgUnitPrice),
	}
}

func measureCells(m Measures) []any {
	return []any{
		num(m.Revenue),
		m.Customers,
		num(m.Items),
		num(m.PerCustomer()),
		num(m.AvgUnitPrice()),
	}
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// DailyTable flattens the daily view.
func (r *Report) DailyTable(opts TableOptions) types.Table {
	t := types.Table{
		View:    ViewDaily,
		Columns: append([]string{opts.header(HeaderDate), opts.header(HeaderStore)}, opts.measureHeaders()...),
	}
	for _, row := range r.Daily {
		t.Rows = append(t.Rows, append([]any{row.Date.Format(opts.layout()), row.Store}, measureCells(row.Measures)...))
	}
	return t
}

// MonthlyTable flattens the monthly view.
func (r *Report) MonthlyTable(opts TableOptions) types.Table {
	t := types.Table{
		View:    ViewMonthly,
		Columns: append([]string{opts.header(HeaderYearMonth), opts.header(HeaderStore)}, opts.measureHeaders()...),
	}
	for _, row := range r.Monthly {
		t.Rows = append(t.Rows, append([]any{row.YearMonth, row.Store}, measureCells(row.Measures)...))
	}
	return t
}

// HourlyTable flattens the hourly view.
func (r *Report) HourlyTable(opts TableOptions) types.Table {
	t := types.Table{
		View: ViewHourly,
		Columns: append([]string{
			opts.header(HeaderYearMonth),
			opts.header(HeaderHour),
			opts.header(HeaderStore),
		}, opts.measureHeaders()...),
	}
	for _, row := range r.Hourly {
		t.Rows = append(t.Rows, append([]any{row.YearMonth, row.Hour, row.Store}, measureCells(row.Measures)...))
	}
	return t
}

// ProductTable flattens the store x product quantity pivot.
func (r *Report) ProductTable(opts TableOptions) types.Table {
	t := types.Table{
		View:    ViewProduct,
		Columns: append([]string{opts.header(HeaderStore)}, r.Product.Columns...),
	}
	for i, store := range r.Product.Rows {
		row := []any{store}
		for _, v := range r.Product.Values[i] {
			row = append(row, num(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// RankingTable flattens the product ranking.
func (r *Report) RankingTable(opts TableOptions) types.Table {
	t := types.Table{
		View: ViewRanking,
		Columns: []string{
			opts.header(HeaderRank),
			opts.header(HeaderProduct),
			opts.header(HeaderQuantity),
			opts.header(HeaderRevenue),
		},
	}
	for _, row := range r.Ranking {
		t.Rows = append(t.Rows, []any{row.Rank, row.Product, num(row.Quantity), num(row.Revenue)})
	}
	return t
}

// WeekdayTable flattens the store x weekday view: seven quantity columns
// followed by seven revenue columns.
func (r *Report) WeekdayTable(opts TableOptions) types.Table {
	cols := []string{opts.header(HeaderStore)}
	for _, measure := range []string{HeaderQuantity, HeaderRevenue} {
		for d := 0; d < 7; d++ {
			cols = append(cols, opts.header(measure)+"_"+opts.WeekdayLabel(d))
		}
	}

	t := types.Table{View: ViewWeekday, Columns: cols}
	for i, store := range r.Weekday.Stores {
		row := []any{store}
		for _, v := range r.Weekday.Quantity[i] {
			row = append(row, num(v))
		}
		for _, v := range r.Weekday.Revenue[i] {
			row = append(row, num(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WeekdayHourTable flattens the weekday x store x hour customer counts.
func (r *Report) WeekdayHourTable(opts TableOptions) types.Table {
	cols := []string{opts.header(HeaderWeekday), opts.header(HeaderStore)}
	for _, h := range r.WeekdayHour.Hours {
		cols = append(cols, strconv.Itoa(h))
	}

	t := types.Table{View: ViewWeekdayHour, Columns: cols}
	for _, row := range r.WeekdayHour.Rows {
		cells := []any{opts.WeekdayLabel(row.Weekday), row.Store}
		for _, c := range row.Counts {
			cells = append(cells, c)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// MatrixTable flattens a per-weekday store x hour matrix.
func MatrixTable(m CountMatrix, opts TableOptions) types.Table {
	cols := []string{opts.header(HeaderStore)}
	for _, h := range m.Hours {
		cols = append(cols, strconv.Itoa(h))
	}

	t := types.Table{View: ViewWeekdayHour, Columns: cols}
	for i, store := range m.Stores {
		cells := []any{store}
		for _, c := range m.Counts[i] {
			cells = append(cells, c)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
