// =============================================================================
// POS Sales Report - Validation Module
// =============================================================================
//
// This module performs the file-level checks that decide whether an export
// can enter the pipeline at all. Row-level problems are not validated here:
// a malformed row is silently excluded by the normalizer and only shows up as
// a reduced row count.
//
// VALIDATION RULES:
//   - required : every configured column header is present (error)
//   - unique   : a required header appears only once (warning; first wins)
//   - rows     : the file has at least one data row (warning)
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/pos-sales-report/internal/config"
)

// ErrMissingColumns is wrapped by ValidationResult.Err when required columns are absent.
var ErrMissingColumns = errors.New("required columns missing")

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is one finding about an export.
type ValidationError struct {
	// Severity is "error" (blocks the run) or "warning" (informational).
	Severity string

	// Field is the column header the finding is about, if any.
	Field string

	// Rule names the rule that produced the finding.
	Rule string

	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", strings.ToUpper(e.Severity), e.Message)
	}
	return fmt.Sprintf("[%s] Column '%s': %s", strings.ToUpper(e.Severity), e.Field, e.Message)
}

// ValidationResult contains all findings for one export.
type ValidationResult struct {
	IsValid      bool
	Errors       []*ValidationError
	ErrorCount   int
	WarningCount int
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
}

// Missing lists the headers reported by the required rule.
func (r *ValidationResult) Missing() []string {
	var out []string
	for _, e := range r.Errors {
		if e.Rule == "required" {
			out = append(out, e.Field)
		}
	}
	return out
}

// Warnings returns the warning-level findings.
func (r *ValidationResult) Warnings() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

// Err returns nil for a valid result, otherwise an error wrapping ErrMissingColumns.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(r.Missing(), ", "))
}

// =============================================================================
// VALIDATION FUNCTIONS
// =============================================================================

// Validate checks an export's header row and data row count against the
// configured columns.
func Validate(headers []string, rowCount int, cols config.ColumnSettings) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	seen := make(map[string]int, len(headers))
	for _, h := range headers {
		seen[h]++
	}

	for _, col := range cols.Required() {
		switch n := seen[col]; {
		case n == 0:
			result.add(&ValidationError{
				Severity: SeverityError,
				Field:    col,
				Rule:     "required",
				Message:  "column is missing from the header row",
			})
		case n > 1:
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Field:    col,
				Rule:     "unique",
				Message:  fmt.Sprintf("column appears %d times; the first occurrence is used", n),
			})
		}
	}

	if rowCount == 0 {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Rule:     "rows",
			Message:  "file has no data rows",
		})
	}

	return result
}
