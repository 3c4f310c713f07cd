// Package extract pulls typed fields out of the free-text columns of a POS
// export. Every extractor reports absence with a false second return value
// instead of an error; callers treat absence as "drop this line".
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

var (
	datePattern  = regexp.MustCompile(`(\d{4})年(\d{2})月(\d{2})日`)
	timePattern  = regexp.MustCompile(`(\d{2}):(\d{2})`)
	storePattern = regexp.MustCompile(`No\.(\d+)-`)

	// numberNoise is stripped from price and numeric cells before parsing.
	numberNoise = strings.NewReplacer("@", "", ",", "", "¥", "", "\\", "", " ", "")
)

// SaleDate returns the "YYYY年MM月DD日" portion of a sale datetime string.
func SaleDate(raw string) (string, bool) {
	m := datePattern.FindString(raw)
	if m == "" {
		return "", false
	}
	return m, true
}

// ParseSaleDate converts a "YYYY年MM月DD日" string to a UTC calendar date.
// Impossible dates (2024年02月30日) are rejected rather than normalized.
func ParseSaleDate(text string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// SaleHour returns the hour of the first "HH:MM" found in raw.
func SaleHour(raw string) (int, bool) {
	m := timePattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return 0, false
	}
	return hour, true
}

// StoreCode returns the digit run of a "No.<digits>-..." receipt id.
// Full-width forms ("Ｎｏ．２－") are folded before matching.
func StoreCode(raw string) (string, bool) {
	m := storePattern.FindStringSubmatch(fold(raw))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Price parses a unit price such as "@1,280" or "¥980".
func Price(raw string) (decimal.Decimal, bool) {
	return Number(raw)
}

// Number parses a quantity or subtotal cell, tolerating thousands separators
// and currency marks.
func Number(raw string) (decimal.Decimal, bool) {
	s := numberNoise.Replace(fold(raw))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// YearMonth formats the month key used by monthly views.
func YearMonth(t time.Time) string {
	return t.Format("2006-01")
}

func fold(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}
