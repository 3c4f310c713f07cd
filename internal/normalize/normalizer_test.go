package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pos-sales-report/internal/stores"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

func testDirectory(t *testing.T) *stores.Directory {
	t.Helper()
	d, err := stores.New([]stores.Entry{
		{Code: "2", Name: "隼人", Label: "Hayato"},
		{Code: "3", Name: "鷹尾", Label: "Takao"},
	}, []string{"隼人", "鷹尾"}, "")
	require.NoError(t, err)
	return d
}

func raw(datetime, receipt, price, qty, subtotal, product string) types.RawLine {
	return types.RawLine{
		SaleDateTime: datetime,
		ReceiptID:    receipt,
		UnitPrice:    price,
		Quantity:     qty,
		Subtotal:     subtotal,
		ProductName:  product,
	}
}

func TestNormalize_SingleLine(t *testing.T) {
	lines, stats := Normalize([]types.RawLine{
		raw("2024年05月01日 10:15", "No.2-0001", "@500", "2", "1000", "A"),
	}, testDirectory(t), Options{})

	require.Len(t, lines, 1)
	l := lines[0]
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), l.SaleDate)
	assert.Equal(t, 10, l.SaleHour)
	assert.Equal(t, "2", l.StoreCode)
	assert.Equal(t, "隼人", l.StoreName)
	assert.True(t, l.HasUnitPrice)
	assert.Equal(t, "500", l.UnitPrice.String())
	assert.Equal(t, "2", l.Quantity.String())
	assert.Equal(t, "1000", l.Subtotal.String())
	assert.Equal(t, "A", l.ProductName)
	assert.Equal(t, "No.2-0001", l.ReceiptID)
	assert.Equal(t, 2, l.Weekday, "2024-05-01 is a Wednesday")
	assert.Equal(t, "2024-05", l.YearMonth)

	assert.Equal(t, Stats{Total: 1, Kept: 1, Dropped: map[DropReason]int{}}, stats)
}

func TestNormalize_DropsMalformedRows(t *testing.T) {
	input := []types.RawLine{
		raw("garbage", "No.2-0001", "@500", "2", "1000", "A"),
		raw("2024年02月30日 10:15", "No.2-0002", "@500", "2", "1000", "A"),
		raw("2024年05月01日", "No.2-0003", "@500", "2", "1000", "A"),
		raw("2024年05月01日 10:15", "No.2-0004", "@500", "", "1000", "A"),
		raw("2024年05月01日 10:15", "No.2-0005", "@500", "-1", "-500", "A"),
		raw("2024年05月01日 10:15", "No.2-0006", "@500", "2", "n/a", "A"),
		raw("2024年05月01日 10:15", "No.2-0007", "@500", "2", "1000", "A"),
	}

	lines, stats := Normalize(input, testDirectory(t), Options{})

	require.Len(t, lines, 1)
	assert.Equal(t, "No.2-0007", lines[0].ReceiptID)
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, 6, stats.DroppedTotal())
	assert.Equal(t, map[DropReason]int{
		DropDate:     2,
		DropTime:     1,
		DropQuantity: 2,
		DropSubtotal: 1,
	}, stats.Dropped)
	assert.Equal(t, []DropReason{DropDate, DropQuantity, DropSubtotal, DropTime}, stats.Reasons())
}

func TestNormalize_UnknownStoreAndMissingPrice(t *testing.T) {
	lines, _ := Normalize([]types.RawLine{
		raw("2024年05月04日 18:40", "No.99-0001", "", "1", "300", "B"),
		raw("2024年05月04日 18:40", "R-0001", "@300", "1", "300", "B"),
	}, testDirectory(t), Options{})

	require.Len(t, lines, 2)
	assert.Equal(t, "99", lines[0].StoreCode)
	assert.Equal(t, stores.DefaultUnknownLabel, lines[0].StoreName)
	assert.False(t, lines[0].HasUnitPrice)
	assert.True(t, lines[0].UnitPrice.IsZero())
	assert.Equal(t, "", lines[1].StoreCode)
	assert.Equal(t, stores.DefaultUnknownLabel, lines[1].StoreName)
	assert.Equal(t, 5, lines[0].Weekday, "2024-05-04 is a Saturday")
}

func TestNormalize_ProductFilter(t *testing.T) {
	input := []types.RawLine{
		raw("2024年05月01日 10:15", "No.2-0001", "@500", "1", "500", "鮭おにぎり"),
		raw("2024年05月01日 10:15", "No.2-0001", "@800", "1", "800", "幕の内弁当"),
		raw("2024年05月01日 10:15", "No.2-0001", "@150", "1", "150", "お茶"),
	}

	lines, stats := Normalize(input, testDirectory(t), Options{ProductFilter: []string{"おにぎり", " 弁当 ", ""}})

	require.Len(t, lines, 2)
	assert.Equal(t, "鮭おにぎり", lines[0].ProductName)
	assert.Equal(t, "幕の内弁当", lines[1].ProductName)
	assert.Equal(t, 1, stats.Dropped[DropProductFilter])
}

func TestNormalize_Deterministic(t *testing.T) {
	input := []types.RawLine{
		raw("2024年05月02日 09:05", "No.3-0001", "@120", "3", "360", "C"),
		raw("2024年05月01日 10:15", "No.2-0001", "@500", "2", "1000", "A"),
	}
	dir := testDirectory(t)

	first, _ := Normalize(input, dir, Options{})
	second, _ := Normalize(input, dir, Options{})
	assert.Equal(t, first, second)
	assert.Equal(t, "No.3-0001", first[0].ReceiptID, "input order is kept")
}
