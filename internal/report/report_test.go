package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pos-sales-report/internal/aggregate"
	"github.com/ginjaninja78/pos-sales-report/internal/stores"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

func testDirectory(t *testing.T) *stores.Directory {
	t.Helper()
	d, err := stores.New([]stores.Entry{
		{Code: "2", Name: "隼人", Label: "Hayato"},
		{Code: "3", Name: "鷹尾", Label: "Takao"},
		{Code: "14", Name: "鹿屋", Label: "Kanoya"},
	}, []string{"隼人", "鹿屋", "鷹尾"}, "")
	require.NoError(t, err)
	return d
}

func line(date string, hour int, store, receipt, product string, qty, subtotal int64) types.TransactionLine {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return types.TransactionLine{
		SaleDate:    d,
		SaleHour:    hour,
		StoreName:   store,
		ReceiptID:   receipt,
		ProductName: product,
		Quantity:    decimal.NewFromInt(qty),
		Subtotal:    decimal.NewFromInt(subtotal),
		Weekday:     types.WeekdayIndex(d.Weekday()),
		YearMonth:   d.Format("2006-01"),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDaily_SingleLine(t *testing.T) {
	lines := []types.TransactionLine{line("2024-05-01", 10, "隼人", "No.2-0001", "A", 2, 1000)}

	rows := Daily(aggregate.Receipts(lines), testDirectory(t))

	require.Len(t, rows, 1)
	assert.Equal(t, "隼人", rows[0].Store)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.True(t, rows[0].Revenue.Equal(dec("1000")))
	assert.Equal(t, 1, rows[0].Customers)
	assert.True(t, rows[0].PerCustomer().Equal(dec("1000")))
	assert.True(t, rows[0].AvgUnitPrice().Equal(dec("500")))
}

func TestDaily_OrdersByDateThenStoreOrder(t *testing.T) {
	lines := []types.TransactionLine{
		line("2024-05-02", 9, "鷹尾", "No.3-0001", "A", 1, 100),
		line("2024-05-01", 9, "鷹尾", "No.3-0002", "A", 1, 100),
		line("2024-05-01", 9, stores.DefaultUnknownLabel, "No.99-0001", "A", 1, 100),
		line("2024-05-01", 11, "隼人", "No.2-0001", "A", 1, 100),
		line("2024-05-01", 12, "隼人", "No.2-0002", "A", 3, 300),
	}

	rows := Daily(aggregate.Receipts(lines), testDirectory(t))

	require.Len(t, rows, 4)
	assert.Equal(t, "隼人", rows[0].Store)
	assert.Equal(t, 2, rows[0].Customers)
	assert.True(t, rows[0].Items.Equal(dec("4")))
	assert.True(t, rows[0].PerCustomer().Equal(dec("200")))
	assert.Equal(t, "鷹尾", rows[1].Store)
	assert.Equal(t, stores.DefaultUnknownLabel, rows[2].Store, "unknown stores sort after curated ones")
	assert.Equal(t, 2, rows[3].Date.Day())
}

func TestMonthlyAndHourly(t *testing.T) {
	lines := []types.TransactionLine{
		line("2024-05-01", 10, "隼人", "No.2-0001", "A", 1, 100),
		line("2024-05-20", 10, "隼人", "No.2-0002", "A", 1, 200),
		line("2024-05-20", 9, "鹿屋", "No.14-0001", "A", 1, 300),
		line("2024-06-01", 10, "隼人", "No.2-0003", "A", 1, 400),
	}
	receipts := aggregate.Receipts(lines)
	dir := testDirectory(t)

	monthly := Monthly(receipts, dir)
	require.Len(t, monthly, 3)
	assert.Equal(t, "2024-05", monthly[0].YearMonth)
	assert.Equal(t, "隼人", monthly[0].Store)
	assert.True(t, monthly[0].Revenue.Equal(dec("300")))
	assert.Equal(t, "鹿屋", monthly[1].Store)
	assert.Equal(t, "2024-06", monthly[2].YearMonth)

	hourly := Hourly(receipts, dir)
	require.Len(t, hourly, 3)
	assert.Equal(t, 9, hourly[0].Hour)
	assert.Equal(t, 10, hourly[1].Hour)
	assert.Equal(t, 2, hourly[1].Customers)
}

func TestProductPivot(t *testing.T) {
	lines := []types.TransactionLine{
		line("2024-05-01", 10, "鷹尾", "No.3-0001", "お茶", 2, 300),
		line("2024-05-01", 10, "隼人", "No.2-0001", "弁当", 1, 500),
		line("2024-05-01", 10, "隼人", "No.2-0001", "お茶", 1, 150),
		line("2024-05-01", 10, stores.DefaultUnknownLabel, "No.99-0001", "パン", 5, 500),
	}

	m := ProductPivot(lines, testDirectory(t))

	assert.Equal(t, []string{"隼人", "鷹尾"}, m.Rows, "curated order, non-curated stores excluded")
	assert.Equal(t, []string{"お茶", "弁当"}, m.Columns)
	assert.True(t, m.At("隼人", "お茶").Equal(dec("1")))
	assert.True(t, m.At("鷹尾", "お茶").Equal(dec("2")))
	assert.True(t, m.At("鷹尾", "弁当").IsZero(), "missing cells are zero")
	assert.True(t, m.At("鹿屋", "お茶").IsZero())
}

func TestRanking_TiesKeepEncounterOrder(t *testing.T) {
	lines := []types.TransactionLine{
		line("2024-05-01", 10, "隼人", "No.2-0001", "B", 1, 500),
		line("2024-05-01", 10, "隼人", "No.2-0001", "A", 1, 500),
		line("2024-05-01", 10, "隼人", "No.2-0002", "C", 1, 900),
		line("2024-05-01", 10, "隼人", "No.2-0002", "D", 1, 100),
		line("2024-05-01", 10, "隼人", "No.2-0003", "C", 2, 200),
	}

	rows := Ranking(lines, 3)

	require.Len(t, rows, 3)
	assert.Equal(t, "C", rows[0].Product)
	assert.True(t, rows[0].Revenue.Equal(dec("1100")))
	assert.True(t, rows[0].Quantity.Equal(dec("3")))
	assert.Equal(t, "B", rows[1].Product)
	assert.Equal(t, "A", rows[2].Product)
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].Rank, rows[1].Rank, rows[2].Rank})

	assert.Len(t, Ranking(lines, 10), 4)
}

func TestWeekdayPivot(t *testing.T) {
	lines := []types.TransactionLine{
		line("2024-05-05", 10, "鷹尾", "No.3-0001", "A", 2, 200), // Sunday
		line("2024-05-01", 10, "隼人", "No.2-0001", "A", 1, 100), // Wednesday
		line("2024-05-06", 10, "隼人", "No.2-0002", "A", 3, 300), // Monday
		line("2024-05-06", 10, stores.DefaultUnknownLabel, "X-1", "A", 9, 900),
	}

	m := WeekdayPivot(lines, testDirectory(t))

	assert.Equal(t, []string{"隼人", "鷹尾"}, m.Stores)
	require.Len(t, m.Quantity[0], 7)
	assert.True(t, m.Quantity[0][0].Equal(dec("3")))
	assert.True(t, m.Quantity[0][2].Equal(dec("1")))
	assert.True(t, m.Revenue[1][6].Equal(dec("200")))
	assert.True(t, m.Revenue[1][0].IsZero())
}

func TestWeekdayHourMatrix(t *testing.T) {
	lines := []types.TransactionLine{
		line("2024-05-01", 14, "鷹尾", "No.3-0001", "A", 1, 100),
		line("2024-05-01", 10, "隼人", "No.2-0001", "A", 1, 100),
		line("2024-05-01", 10, "隼人", "No.2-0001", "B", 1, 100),
		line("2024-05-01", 10, "隼人", "No.2-0002", "A", 1, 100),
		line("2024-05-01", 10, stores.DefaultUnknownLabel, "X-1", "A", 1, 100),
		line("2024-05-04", 18, "隼人", "No.2-0003", "A", 1, 100),
	}
	receipts := aggregate.Receipts(lines)
	dir := testDirectory(t)

	assert.Equal(t, []int{2, 5}, Weekdays(receipts))

	wed := WeekdayHourMatrix(receipts, dir, 2)
	assert.Equal(t, []string{"隼人", "鷹尾", stores.DefaultUnknownLabel}, wed.Stores)
	assert.Equal(t, []int{10, 14}, wed.Hours)
	assert.Equal(t, [][]int{{2, 0}, {0, 1}, {1, 0}}, wed.Counts)

	assert.True(t, WeekdayHourMatrix(receipts, dir, 0).Empty())

	hm := WeekdayStoreHour(receipts, dir)
	assert.Equal(t, []int{10, 14, 18}, hm.Hours)
	require.Len(t, hm.Rows, 4)
	assert.Equal(t, HourRow{Weekday: 2, Store: "隼人", Counts: []int{2, 0, 0}}, hm.Rows[0])
	assert.Equal(t, HourRow{Weekday: 5, Store: "隼人", Counts: []int{0, 0, 1}}, hm.Rows[3])
}

func TestSafeDiv(t *testing.T) {
	assert.True(t, SafeDiv(dec("10"), decimal.Zero).IsZero())
	assert.True(t, SafeDiv(dec("10"), dec("4")).Equal(dec("2.5")))
}

func TestBuild_Tables(t *testing.T) {
	lines := []types.TransactionLine{
		line("2024-05-01", 10, "隼人", "No.2-0001", "A", 2, 1000),
		line("2024-05-04", 18, "鷹尾", "No.3-0001", "B", 1, 300),
	}
	r := Build(lines, aggregate.Receipts(lines), testDirectory(t), Options{})

	tables := r.Tables(TableOptions{})
	require.Len(t, tables, len(Views))
	for i, view := range Views {
		assert.Equal(t, view, tables[i].View)
	}

	daily := tables[0]
	assert.Equal(t, []string{"販売日", "店舗名", "売上金額", "客数", "販売個数", "客単価", "平均単価"}, daily.Columns)
	assert.Equal(t, []any{"2024/5/1", "隼人", 1000.0, 1, 2.0, 1000.0, 500.0}, daily.Rows[0])

	weekday := tables[5]
	require.Len(t, weekday.Columns, 15)
	assert.Equal(t, "数量_月曜日", weekday.Columns[1])
	assert.Equal(t, "売上金額_日曜日", weekday.Columns[14])

	hours, ok := r.Table(ViewWeekdayHour, TableOptions{
		WeekdayLabels: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		Headers:       map[string]string{HeaderStore: "Store"},
	})
	require.True(t, ok)
	assert.Equal(t, []string{"曜日", "Store", "10", "18"}, hours.Columns)
	assert.Equal(t, []any{"Wed", "隼人", 1, 0}, hours.Rows[0])
	assert.Equal(t, []any{"Sat", "鷹尾", 0, 1}, hours.Rows[1])

	_, ok = r.Table("nope", TableOptions{})
	assert.False(t, ok)
}

func TestBuild_Deterministic(t *testing.T) {
	lines := []types.TransactionLine{
		line("2024-05-02", 9, "鷹尾", "No.3-0001", "B", 1, 300),
		line("2024-05-01", 10, "隼人", "No.2-0001", "A", 2, 1000),
		line("2024-05-01", 10, "鹿屋", "No.14-0001", "C", 1, 1000),
	}
	dir := testDirectory(t)

	first := Build(lines, aggregate.Receipts(lines), dir, Options{}).Tables(TableOptions{})
	second := Build(lines, aggregate.Receipts(lines), dir, Options{}).Tables(TableOptions{})
	assert.Equal(t, first, second)
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0", 0},
		{"6", 6},
		{"mon", 0},
		{"Wed", 2},
		{"sunday", 6},
		{"土曜日", 5},
	}
	for _, tt := range tests {
		got, err := ParseWeekday(tt.in, DefaultWeekdayLabels)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"7", "-1", "someday", ""} {
		_, err := ParseWeekday(bad, DefaultWeekdayLabels)
		assert.ErrorIs(t, err, ErrUnknownWeekday, bad)
	}
}
