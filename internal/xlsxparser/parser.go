// =============================================================================
// POS Sales Report - XLSX Intake Parser
// =============================================================================
//
// This module reads a POS export that was saved as an xlsx workbook instead of
// a CSV file. The layout is the same as the CSV export:
//
//   Row 1-2   : boilerplate (report title, extraction period) - skipped
//   Row 3     : header row
//   Row 4...  : one row per receipt line
//
// Only the first sheet is read. Workbooks are always UTF-8 internally, so no
// codec decoding happens here. The result is the same CSVData the CSV parser
// produces, so everything downstream is shared.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pos-sales-report/internal/csvparser"
)

var (
	// ErrOpen is returned when the input is not a readable xlsx workbook.
	ErrOpen = errors.New("file is not a readable xlsx workbook")

	// ErrNoSheets is returned for a workbook without any sheet.
	ErrNoSheets = errors.New("workbook has no sheets")
)

// Parse reads the first sheet of an xlsx export.
//
// PARAMETERS:
//   - r: the workbook bytes.
//   - skipRows: the number of boilerplate rows before the header row.
//   - source: the file name, kept for logging.
//
// RETURNS:
//   - The header and data rows, with 1-based sheet row numbers.
//   - ErrOpen when r is not an xlsx workbook.
//   - csvparser.ErrEmpty when no header row follows the skipped rows.
func Parse(r io.Reader, skipRows int, source string) (*csvparser.CSVData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if skipRows < 0 {
		skipRows = 0
	}
	if len(rows) <= skipRows {
		return nil, csvparser.ErrEmpty
	}

	data := &csvparser.CSVData{
		Headers:    csvparser.CleanHeaders(rows[skipRows]),
		SourceFile: source,
	}

	for i := skipRows + 1; i < len(rows); i++ {
		row := rows[i]

		// GetRows trims trailing empty cells, so short rows are normal.
		if len(row) == 0 || csvparser.IsRowEmpty(row) {
			continue
		}

		data.Records = append(data.Records, row)
		data.LineNumbers = append(data.LineNumbers, i+1)
	}

	return data, nil
}
