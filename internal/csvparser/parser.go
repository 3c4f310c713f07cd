// =============================================================================
// POS Sales Report - CSV Parser Module
// =============================================================================
//
// This module reads a POS receipt-line export into memory.
//
// EXPORT LAYOUT:
//   Line 1-2   : boilerplate (report title, extraction period) - skipped
//   Line 3     : header row
//   Line 4...  : one row per receipt line
//
// The file is read once, in full, and decoded from its legacy codec
// (Shift_JIS / cp932 by default) before CSV tokenization. A file that cannot be
// decoded is a file-level failure: nothing downstream runs.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/pos-sales-report/internal/config"
	"github.com/ginjaninja78/pos-sales-report/internal/types"
)

var (
	// ErrDecode reports a file that is not valid in the configured encoding.
	ErrDecode = errors.New("file cannot be decoded with the configured encoding")

	// ErrEmpty reports a file with no header row after the skipped lines.
	ErrEmpty = errors.New("file contains no header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData holds a parsed export.
type CSVData struct {
	// Headers are the cleaned header names, in file order.
	Headers []string

	// Records are the non-empty data rows, as read.
	Records [][]string

	// LineNumbers holds the 1-based source line of each record.
	LineNumbers []int

	SourceFile string
}

// RowCount returns the number of data rows.
func (d *CSVData) RowCount() int {
	return len(d.Records)
}

// =============================================================================
// MAIN PARSING FUNCTION
// =============================================================================

// Parse decodes and tokenizes an export.
func Parse(r io.Reader, settings config.CSVSettings, source string) (*CSVData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	text, err := Decode(raw, settings.Encoding)
	if err != nil {
		return nil, err
	}

	body, skipped := skipLines(text, settings.SkipRows)

	reader := csv.NewReader(strings.NewReader(body))
	configureReader(reader, settings)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	data := &CSVData{
		Headers:    CleanHeaders(header),
		SourceFile: source,
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if IsRowEmpty(row) {
			continue
		}
		line, _ := reader.FieldPos(0)
		data.Records = append(data.Records, row)
		data.LineNumbers = append(data.LineNumbers, line+skipped)
	}

	return data, nil
}

// Decode converts raw file bytes to UTF-8 text.
func Decode(raw []byte, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case "utf-8", "utf8":
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w: invalid UTF-8", ErrDecode)
		}
		return string(raw), nil

	case "shift_jis", "sjis", "cp932", "":
		out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		// The decoder substitutes U+FFFD for invalid byte sequences.
		if i := bytes.IndexRune(out, utf8.RuneError); i >= 0 {
			return "", fmt.Errorf("%w: invalid Shift_JIS sequence near byte %d", ErrDecode, i)
		}
		return string(out), nil

	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", ErrDecode, encoding)
	}
}

// Lines maps records onto RawLine using the configured column headers.
// Columns absent from the header map to empty strings.
func (d *CSVData) Lines(cols config.ColumnSettings) []types.RawLine {
	idx := make(map[string]int, len(d.Headers))
	for i, h := range d.Headers {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	cell := func(row []string, header string) string {
		i, ok := idx[header]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	lines := make([]types.RawLine, len(d.Records))
	for i, row := range d.Records {
		lines[i] = types.RawLine{
			SaleDateTime: cell(row, cols.SaleDateTime),
			ReceiptID:    cell(row, cols.ReceiptID),
			UnitPrice:    cell(row, cols.UnitPrice),
			Quantity:     cell(row, cols.Quantity),
			Subtotal:     cell(row, cols.Subtotal),
			ProductName:  cell(row, cols.ProductName),
			RowNumber:    d.LineNumbers[i],
		}
	}
	return lines
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// skipLines drops the first n physical lines and reports how many were dropped.
func skipLines(text string, n int) (string, int) {
	skipped := 0
	for skipped < n {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			return "", skipped + 1
		}
		text = text[i+1:]
		skipped++
	}
	return text, skipped
}

// configureReader sets up the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case `\t`, "tab", "TAB":
		reader.Comma = '\t'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports pad some rows with trailing empty columns.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// CleanHeaders trims header names and names blank headers after their position.
func CleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// IsRowEmpty reports whether a row contains only empty or whitespace values.
func IsRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
