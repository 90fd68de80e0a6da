// =============================================================================
// Meal Voucher Generator - Validation Engine
// =============================================================================
//
// This module inspects parsed rows and processed records for data that the
// pipeline tolerates but an operator should know about. Nothing here stops
// processing: the export is rendered as-is and the findings are reported
// next to it.
//
// VALIDATION STRATEGY:
//   Inspection runs at two levels:
//   1. Row-level: shape problems found while reading (ragged observation,
//      short lines, missing key columns).
//   2. Record-level: problems in the derived values of eligible rows
//      (unparseable dates, stays that are not positive).
//
// ERROR HANDLING:
//   - Findings are collected, never returned as errors
//   - Each finding carries the source line, field and value
//   - "warning" findings affect the vouchers; "info" findings do not
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/meal-vouchers/internal/csvparser"
	"github.com/ginjaninja78/meal-vouchers/internal/types"
)

// =============================================================================
// SEVERITIES AND RULES
// =============================================================================

const (
	// SeverityWarning marks a finding that changes what a voucher shows.
	SeverityWarning = "warning"

	// SeverityInfo marks a finding that was corrected or has no effect on
	// the vouchers.
	SeverityInfo = "info"
)

// Rule names, as reported in Warning.Rule.
const (
	RuleRaggedObservation = "ragged_observation"
	RuleShortRow          = "short_row"
	RuleMissingDNI        = "missing_dni"
	RuleMissingRoom       = "missing_room"
	RuleInvalidDates      = "invalid_dates"
	RuleNonPositiveStay   = "non_positive_stay"
)

// =============================================================================
// WARNING TYPE
// =============================================================================

// Warning is a single inspection finding.
type Warning struct {
	// Severity is SeverityWarning or SeverityInfo.
	Severity string

	// Rule is the rule that produced the finding.
	Rule string

	// Field is the column the finding is about.
	Field string

	// Value is the offending value.
	Value string

	// Message is a human-readable description.
	Message string

	// Line is the source line number.
	Line int
}

// String formats the warning for logs and terminal output.
func (w Warning) String() string {
	return fmt.Sprintf("[%s] line %d, field '%s': %s (value: '%s')",
		strings.ToUpper(w.Severity),
		w.Line,
		w.Field,
		w.Message,
		w.Value,
	)
}

// =============================================================================
// INSPECTION
// =============================================================================

// Inspect reports row and record findings, rows first, each in input order.
//
// PARAMETERS:
//   - rows: Every parsed row, eligible or not.
//   - records: The eligible records computed from rows.
//
// RETURNS:
//   - The findings. An empty slice means the export looked clean.
func Inspect(rows []csvparser.Row, records []types.ProcessedRecord) []Warning {
	var warnings []Warning

	for _, row := range rows {
		warnings = append(warnings, InspectRow(row)...)
	}
	for _, record := range records {
		warnings = append(warnings, InspectRecord(record)...)
	}

	return warnings
}

// InspectRow checks the shape of one parsed row.
func InspectRow(row csvparser.Row) []Warning {
	var warnings []Warning

	switch {
	case row.MergedObservation == 1:
		warnings = append(warnings, Warning{
			Severity: SeverityInfo,
			Rule:     RuleRaggedObservation,
			Field:    "observation",
			Value:    row.Observation.Value,
			Message:  "observation contained the delimiter and was merged back into one field",
			Line:     row.Line,
		})
	case row.MergedObservation > 1:
		warnings = append(warnings, Warning{
			Severity: SeverityWarning,
			Rule:     RuleRaggedObservation,
			Field:    "observation",
			Value:    row.Observation.Value,
			Message:  fmt.Sprintf("%d extra fields were merged into the observation; the column split is a guess", row.MergedObservation),
			Line:     row.Line,
		})
	}

	if !row.Services.Present {
		warnings = append(warnings, Warning{
			Severity: SeverityWarning,
			Rule:     RuleShortRow,
			Field:    "services",
			Value:    "",
			Message:  fmt.Sprintf("line has only %d fields; missing columns read as empty", row.FieldCount),
			Line:     row.Line,
		})
	}

	return warnings
}

// InspectRecord checks the derived values of one eligible record.
func InspectRecord(record types.ProcessedRecord) []Warning {
	var warnings []Warning

	if strings.TrimSpace(record.DNI) == "" {
		warnings = append(warnings, Warning{
			Severity: SeverityWarning,
			Rule:     RuleMissingDNI,
			Field:    "dni",
			Value:    record.DNI,
			Message:  "identity number is empty",
			Line:     record.Line,
		})
	}

	if record.Room == "" {
		warnings = append(warnings, Warning{
			Severity: SeverityWarning,
			Rule:     RuleMissingRoom,
			Field:    "room",
			Value:    record.Room,
			Message:  "room has no digits; records without a room share one voucher per booking",
			Line:     record.Line,
		})
	}

	if !record.DatesValid {
		warnings = append(warnings, Warning{
			Severity: SeverityWarning,
			Rule:     RuleInvalidDates,
			Field:    "check_in/check_out",
			Value:    record.CheckInRaw + " - " + record.CheckOutRaw,
			Message:  "dates could not be parsed; stay counted as 0 nights",
			Line:     record.Line,
		})
	} else if record.StayDuration <= 0 {
		warnings = append(warnings, Warning{
			Severity: SeverityWarning,
			Rule:     RuleNonPositiveStay,
			Field:    "check_in/check_out",
			Value:    record.CheckInRaw + " - " + record.CheckOutRaw,
			Message:  fmt.Sprintf("stay is %d nights; the voucher has no days to check", record.StayDuration),
			Line:     record.Line,
		})
	}

	return warnings
}

// CountBySeverity returns the number of findings per severity.
func CountBySeverity(warnings []Warning) map[string]int {
	counts := make(map[string]int)
	for _, w := range warnings {
		counts[w.Severity]++
	}
	return counts
}

// =============================================================================
// WARNING FORMATTING
// =============================================================================

// FormatWarnings formats findings for display or logging.
//
// PARAMETERS:
//   - warnings: The findings to format.
//
// RETURNS:
//   - A formatted string containing all findings.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return "No validation warnings."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(warnings)))

	for i, w := range warnings {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, w.String()))
	}

	return builder.String()
}

// WriteLog writes findings to a log file, with a timestamped header.
//
// PARAMETERS:
//   - warnings: The findings to write.
//   - filePath: The path to the output file.
//
// RETURNS:
//   - An error if writing fails.
func WriteLog(warnings []Warning, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create validation log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Validation log generated %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(writer, "%s\n", strings.Repeat("=", 60))
	writer.WriteString(FormatWarnings(warnings))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}
