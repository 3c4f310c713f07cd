package report

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ginjaninja78/pos-sales-report/internal/stores"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

// ErrUnknownWeekday is returned by ParseWeekday.
var ErrUnknownWeekday = errors.New("unknown weekday")

var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// ParseWeekday accepts a Monday-based index (0-6), an English weekday name
// or its three-letter abbreviation, or one of labels (the configured
// business labels, Monday first).
func ParseWeekday(s string, labels []string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: %d", ErrUnknownWeekday, n)
		}
		return n, nil
	}
	lower := strings.ToLower(s)
	for i, name := range weekdayNames {
		if lower == name || lower == name[:3] {
			return i, nil
		}
	}
	if i := slices.Index(labels, s); i >= 0 && i < 7 {
		return i, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
}

// CountMatrix is a store x hour grid of customer counts.
type CountMatrix struct {
	Weekday int
	Stores  []string
	Hours   []int
	Counts  [][]int
}

// Empty reports whether the matrix has no cells.
func (m CountMatrix) Empty() bool {
	return len(m.Stores) == 0 || len(m.Hours) == 0
}

// HourRow is one (weekday, store) row of a HourMatrix.
type HourRow struct {
	Weekday int
	Store   string
	Counts  []int
}

// HourMatrix is the weekday x store x hour customer count view.
type HourMatrix struct {
	Hours []int
	Rows  []HourRow
}

// Weekdays returns the weekday indexes present in receipts, Monday first.
func Weekdays(receipts []types.Receipt) []int {
	var present [7]bool
	for _, r := range receipts {
		present[r.Weekday()] = true
	}
	var out []int
	for d, ok := range present {
		if ok {
			out = append(out, d)
		}
	}
	return out
}

func hoursOf(receipts []types.Receipt) []int {
	var hours []int
	for _, r := range receipts {
		if !slices.Contains(hours, r.SaleHour) {
			hours = append(hours, r.SaleHour)
		}
	}
	slices.Sort(hours)
	return hours
}

func storesOf(receipts []types.Receipt, dir *stores.Directory) []string {
	var names []string
	seen := make(map[string]bool)
	for _, r := range receipts {
		if !seen[r.StoreName] {
			seen[r.StoreName] = true
			names = append(names, r.StoreName)
		}
	}
	dir.SortNames(names)
	return names
}

// WeekdayHourMatrix sums customer counts per (store, hour) for one weekday.
// Only stores and hours that occur on that weekday appear.
func WeekdayHourMatrix(receipts []types.Receipt, dir *stores.Directory, weekday int) CountMatrix {
	var day []types.Receipt
	for _, r := range receipts {
		if r.Weekday() == weekday {
			day = append(day, r)
		}
	}

	m := CountMatrix{Weekday: weekday, Stores: storesOf(day, dir), Hours: hoursOf(day)}
	rowIdx := indexOf(m.Stores)
	colIdx := indexOf(m.Hours)
	m.Counts = make([][]int, len(m.Stores))
	for i := range m.Counts {
		m.Counts[i] = make([]int, len(m.Hours))
	}
	for _, r := range day {
		m.Counts[rowIdx[r.StoreName]][colIdx[r.SaleHour]] += r.CustomerCount
	}
	return m
}

// WeekdayStoreHour stacks the per-weekday matrices into one view. Rows run
// Monday to Sunday, stores ordered within each weekday; columns are every
// hour seen in the run.
func WeekdayStoreHour(receipts []types.Receipt, dir *stores.Directory) HourMatrix {
	hm := HourMatrix{Hours: hoursOf(receipts)}
	colIdx := indexOf(hm.Hours)

	for _, d := range Weekdays(receipts) {
		m := WeekdayHourMatrix(receipts, dir, d)
		for i, store := range m.Stores {
			counts := make([]int, len(hm.Hours))
			for j, h := range m.Hours {
				counts[colIdx[h]] = m.Counts[i][j]
			}
			hm.Rows = append(hm.Rows, HourRow{Weekday: d, Store: store, Counts: counts})
		}
	}
	return hm
}
