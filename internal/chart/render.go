package chart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/pos-sales-report/internal/report"
	"github.com/ginjaninja78/pos-sales-report/internal/stores"
)

// Chart names, in the order RenderAll returns them.
const (
	NameHourlyHeatmap  = "hourly_heatmap"
	NameHourlyTrend    = "hourly_trend"
	NameTopProducts    = "top_products"
	NameWeekdayHeatmap = "weekday_heatmap"
)

// ShortWeekdays are the ASCII weekday labels used on charts, Monday first.
var ShortWeekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Image is one rendered chart.
type Image struct {
	Name  string
	Title string
	PNG   []byte
}

// HourlyGrid sums customers per (store, hour) across the whole run.
func HourlyGrid(r *report.Report, dir *stores.Directory) Grid {
	type cell struct {
		store string
		hour  int
	}
	counts := make(map[cell]int)
	var names []string
	var hours []int
	for _, row := range r.Hourly {
		if !slices.Contains(names, row.Store) {
			names = append(names, row.Store)
		}
		if !slices.Contains(hours, row.Hour) {
			hours = append(hours, row.Hour)
		}
		counts[cell{row.Store, row.Hour}] += row.Customers
	}
	dir.SortNames(names)
	slices.Sort(hours)

	g := Grid{Title: "Customers by store and hour"}
	for _, h := range hours {
		g.ColLabels = append(g.ColLabels, strconv.Itoa(h))
	}
	for _, name := range names {
		g.RowLabels = append(g.RowLabels, dir.Label(name))
		values := make([]float64, len(hours))
		for j, h := range hours {
			values[j] = float64(counts[cell{name, h}])
		}
		g.Values = append(g.Values, values)
	}
	return g
}

// TrendData turns the hourly grid into one customer series per store.
func TrendData(g Grid) LineData {
	d := LineData{Title: "Hourly customer trend by store", XLabels: g.ColLabels}
	for i, label := range g.RowLabels {
		d.Series = append(d.Series, Series{Label: label, Values: g.Values[i]})
	}
	return d
}

// WeekdayRevenueGrid is the store x weekday revenue matrix.
func WeekdayRevenueGrid(r *report.Report, dir *stores.Directory) Grid {
	g := Grid{Title: "Revenue by store and weekday", ColLabels: ShortWeekdays}
	for i, name := range r.Weekday.Stores {
		g.RowLabels = append(g.RowLabels, dir.Label(name))
		values := make([]float64, len(r.Weekday.Revenue[i]))
		for j, v := range r.Weekday.Revenue[i] {
			values[j] = v.InexactFloat64()
		}
		g.Values = append(g.Values, values)
	}
	return g
}

// CountGrid converts a per-weekday store x hour matrix.
func CountGrid(m report.CountMatrix, dir *stores.Directory) Grid {
	g := Grid{Title: fmt.Sprintf("Customers by store and hour (%s)", ShortWeekdays[m.Weekday])}
	for _, h := range m.Hours {
		g.ColLabels = append(g.ColLabels, strconv.Itoa(h))
	}
	for i, name := range m.Stores {
		g.RowLabels = append(g.RowLabels, dir.Label(name))
		values := make([]float64, len(m.Counts[i]))
		for j, v := range m.Counts[i] {
			values[j] = float64(v)
		}
		g.Values = append(g.Values, values)
	}
	return g
}

// TopProducts renders the ranking as bars labelled by rank.
func TopProducts(rows []report.RankingRow, opts Options) ([]byte, error) {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, row := range rows {
		labels[i] = "#" + strconv.Itoa(row.Rank)
		values[i] = row.Revenue.InexactFloat64()
	}
	return Bars(fmt.Sprintf("Top %d products by revenue", len(rows)), labels, values, opts)
}

// RenderAll renders the four workbook charts concurrently. Charts with no
// data are skipped; any other failure cancels the remaining renders.
func RenderAll(ctx context.Context, r *report.Report, dir *stores.Directory, opts Options) ([]Image, error) {
	hourly := HourlyGrid(r, dir)
	weekday := WeekdayRevenueGrid(r, dir)

	jobs := []struct {
		name   string
		title  string
		render func() ([]byte, error)
	}{
		{NameHourlyHeatmap, hourly.Title, func() ([]byte, error) { return Heatmap(hourly, opts) }},
		{NameHourlyTrend, "Hourly customer trend by store", func() ([]byte, error) { return Lines(TrendData(hourly), opts) }},
		{NameTopProducts, "Top products by revenue", func() ([]byte, error) { return TopProducts(r.Ranking, opts) }},
		{NameWeekdayHeatmap, weekday.Title, func() ([]byte, error) { return Heatmap(weekday, opts) }},
	}

	out := make([]Image, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := job.render()
			if errors.Is(err, ErrEmpty) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("rendering %s: %w", job.name, err)
			}
			out[i] = Image{Name: job.name, Title: job.title, PNG: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return slices.DeleteFunc(out, func(img Image) bool { return img.PNG == nil }), nil
}
