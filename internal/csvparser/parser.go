// =============================================================================
// Meal Voucher Generator - Reservation Export Parser
// =============================================================================
//
// This module turns the raw text of a reservation-system export into row
// records. The export is a plain delimiter-separated file without quoting,
// and it comes in two column layouts:
//
//   - Combined-name layout (28 or more fields): the passenger's full name is
//     a single column (13).
//   - Split-name layout (19 fields): first and last name are separate
//     columns (13 and 14). Older exports of this layout leave commas inside
//     the observation column (4), which shows up as extra fields.
//
// The layout is chosen per line by counting fields, so a file may mix both.
//
// TOLERANCE:
//   Parsing never fails because of content. Missing positions become absent
//   fields, blank lines are skipped and the header is dropped without being
//   inspected. Only read errors from the underlying reader are returned.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

const (
	// CombinedMinFields is the field count from which a line is read with the
	// combined-name layout.
	CombinedMinFields = 28

	// SplitExpectedFields is the field count of a well-formed split-name line.
	SplitExpectedFields = 19

	// observationIndex is the free-text column that may contain stray
	// delimiters in split-name exports.
	observationIndex = 4

	// observationJoiner replaces the delimiters found inside a repaired
	// observation.
	observationJoiner = ";"
)

// Layout identifies which column layout a row was read with.
type Layout int

const (
	// LayoutSplitName is the legacy layout with separate first/last names.
	LayoutSplitName Layout = iota

	// LayoutCombinedName is the layout with one full-name column.
	LayoutCombinedName
)

// String returns a short human readable name for the layout.
func (l Layout) String() string {
	switch l {
	case LayoutCombinedName:
		return "combined-name"
	case LayoutSplitName:
		return "split-name"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// Classify picks the layout for a line that split into fieldCount fields.
func Classify(fieldCount int) Layout {
	if fieldCount >= CombinedMinFields {
		return LayoutCombinedName
	}
	return LayoutSplitName
}

// =============================================================================
// ROW STRUCTURE
// =============================================================================

// Field is a single positional value. Present is false when the line had no
// column at that position, which is different from a column that is empty.
type Field struct {
	Value   string
	Present bool
}

// String returns the value, or "" for an absent field.
func (f Field) String() string {
	return f.Value
}

// Common holds the columns that both layouts share, at the same positions.
type Common struct {
	ID          Field // 0
	Hotel       Field // 1
	Room        Field // 2, digits only
	RoomType    Field // 3
	Observation Field // 4
	Occupants   Field // 5, declared capacity
	Booking     Field // 6, voucher / booking identifier
	CheckIn     Field // 8, d/m/y
	CheckOut    Field // 9, d/m/y
	DNI         Field // 12, identity number
	Services    Field // 16, contracted services
}

// CombinedFields are the columns specific to the combined-name layout.
type CombinedFields struct {
	Site              Field // 7
	OccupiedConfirmed Field // 10
	DocumentType      Field // 11
	FullName          Field // 13, trimmed and uppercased
	Age               Field // 14
	Entity            Field // 15
	Package           Field // 17
	Transport         Field // 18

	// Trailing keeps every column after 18 verbatim.
	Trailing []string
}

// SplitFields are the columns specific to the split-name layout.
type SplitFields struct {
	Status      Field // 7
	Rate        Field // 10
	Category    Field // 11
	FirstName   Field // 13, trimmed
	LastName    Field // 14, trimmed
	Email       Field // 15
	Origin      Field // 17
	Destination Field // 18
}

// Row is one parsed line. Exactly one of Combined and Split is set, matching
// Layout.
type Row struct {
	// Line is the 1-based line number in the source text.
	Line int

	// FieldCount is the number of fields the line split into, before any
	// observation repair.
	FieldCount int

	// Layout is the layout the line was read with.
	Layout Layout

	// MergedObservation is the number of extra fields folded back into the
	// observation column. Zero for well-formed lines.
	MergedObservation int

	Common

	Combined *CombinedFields
	Split    *SplitFields
}

// FirstName returns the name passed to name assembly: the full name for the
// combined layout, the first name for the split layout.
func (r Row) FirstName() string {
	if r.Combined != nil {
		return r.Combined.FullName.Value
	}
	if r.Split != nil {
		return r.Split.FirstName.Value
	}
	return ""
}

// LastName returns the surname passed to name assembly. It is always empty
// for the combined layout.
func (r Row) LastName() string {
	if r.Split != nil {
		return r.Split.LastName.Value
	}
	return ""
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads an export from r and returns one Row per non-blank data line,
// in input order.
//
// PARAMETERS:
//   - r: The export contents.
//   - settings: The delimiter and number of header lines to skip.
//
// RETURNS:
//   - The parsed rows. When reading fails, the rows read before the failure.
//   - An error only if reading from r fails. Line length is not limited.
func Parse(r io.Reader, settings config.CSVSettings) ([]Row, error) {
	scanner := NewScanner(r, settings)

	var rows []Row
	for scanner.Next() {
		rows = append(rows, scanner.Row())
	}

	return rows, scanner.Err()
}

// ParseString parses export text that is already in memory.
func ParseString(text string, settings config.CSVSettings) []Row {
	lines := newLineState(settings)

	var rows []Row
	for _, raw := range strings.Split(text, "\n") {
		if row, ok := lines.feed(raw); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// ParseLine maps a single data line into a Row. The line must already be
// trimmed and non-blank.
func ParseLine(line string, lineNumber int, delimiter string) Row {
	fields := strings.Split(line, delimiter)

	row := Row{
		Line:       lineNumber,
		FieldCount: len(fields),
		Layout:     Classify(len(fields)),
	}

	if row.Layout == LayoutSplitName {
		fields, row.MergedObservation = repairObservation(fields)
	}

	row.Common = mapCommon(fields)

	switch row.Layout {
	case LayoutCombinedName:
		row.Combined = mapCombined(fields)
	default:
		row.Split = mapSplit(fields)
	}

	return row
}

// repairObservation folds extra fields back into the observation column.
//
// A split-name line with more than 19 fields is assumed to carry stray
// delimiters inside column 4; fields 4..4+overflow are joined with ";".
// Only one ragged column per line is handled.
func repairObservation(fields []string) ([]string, int) {
	overflow := len(fields) - SplitExpectedFields
	if overflow <= 0 {
		return fields, 0
	}

	end := observationIndex + overflow
	repaired := make([]string, 0, SplitExpectedFields)
	repaired = append(repaired, fields[:observationIndex]...)
	repaired = append(repaired, strings.Join(fields[observationIndex:end+1], observationJoiner))
	repaired = append(repaired, fields[end+1:]...)

	return repaired, overflow
}

// =============================================================================
// POSITIONAL MAPPING
// =============================================================================

// at returns the field at index i, or an absent field.
func at(fields []string, i int) Field {
	if i < len(fields) {
		return Field{Value: fields[i], Present: true}
	}
	return Field{}
}

// trimmed returns the field at index i with surrounding spaces removed.
func trimmed(fields []string, i int) Field {
	f := at(fields, i)
	f.Value = strings.TrimSpace(f.Value)
	return f
}

// digitsOnly keeps the decimal digits of a free-text room field.
func digitsOnly(f Field) Field {
	var b strings.Builder
	for _, r := range f.Value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return Field{Value: b.String(), Present: f.Present}
}

func mapCommon(fields []string) Common {
	return Common{
		ID:          at(fields, 0),
		Hotel:       at(fields, 1),
		Room:        digitsOnly(at(fields, 2)),
		RoomType:    at(fields, 3),
		Observation: at(fields, 4),
		Occupants:   at(fields, 5),
		Booking:     at(fields, 6),
		CheckIn:     at(fields, 8),
		CheckOut:    at(fields, 9),
		DNI:         at(fields, 12),
		Services:    at(fields, 16),
	}
}

func mapCombined(fields []string) *CombinedFields {
	fullName := trimmed(fields, 13)
	fullName.Value = strings.ToUpper(fullName.Value)

	combined := &CombinedFields{
		Site:              at(fields, 7),
		OccupiedConfirmed: at(fields, 10),
		DocumentType:      at(fields, 11),
		FullName:          fullName,
		Age:               at(fields, 14),
		Entity:            at(fields, 15),
		Package:           at(fields, 17),
		Transport:         at(fields, 18),
	}
	if len(fields) > 19 {
		combined.Trailing = append([]string(nil), fields[19:]...)
	}
	return combined
}

func mapSplit(fields []string) *SplitFields {
	return &SplitFields{
		Status:      at(fields, 7),
		Rate:        at(fields, 10),
		Category:    at(fields, 11),
		FirstName:   trimmed(fields, 13),
		LastName:    trimmed(fields, 14),
		Email:       at(fields, 15),
		Origin:      at(fields, 17),
		Destination: at(fields, 18),
	}
}

// resolveDelimiter maps the configured delimiter to the literal separator.
func resolveDelimiter(delimiter string) string {
	switch delimiter {
	case "\\t", "tab", "TAB":
		return "\t"
	case "pipe", "PIPE":
		return "|"
	case "semicolon":
		return ";"
	case "":
		return ","
	default:
		return delimiter
	}
}

// lineState numbers raw lines and turns data lines into rows.
type lineState struct {
	delimiter  string
	headerRows int
	lineNumber int
}

func newLineState(settings config.CSVSettings) *lineState {
	headerRows := settings.HeaderRows
	if headerRows < 0 {
		headerRows = 0
	}
	return &lineState{
		delimiter:  resolveDelimiter(settings.Delimiter),
		headerRows: headerRows,
	}
}

// feed consumes one raw line, with or without its line ending. It reports
// false for header and blank lines.
func (l *lineState) feed(raw string) (Row, bool) {
	l.lineNumber++

	// Header lines are dropped without looking at them.
	if l.lineNumber <= l.headerRows {
		return Row{}, false
	}

	line := strings.TrimSpace(raw)
	if line == "" {
		return Row{}, false
	}
	return ParseLine(line, l.lineNumber, l.delimiter), true
}

// =============================================================================
// STREAMING SCANNER
// =============================================================================

// Scanner reads an export one data line at a time.
//
// USAGE:
//   scanner := NewScanner(r, settings)
//   for scanner.Next() {
//       row := scanner.Row()
//       // Process the row...
//   }
//   if err := scanner.Err(); err != nil {
//       return err
//   }
type Scanner struct {
	reader  *bufio.Reader
	lines   *lineState
	current Row
	err     error
	done    bool
}

// NewScanner creates a Scanner over r.
func NewScanner(r io.Reader, settings config.CSVSettings) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
		lines:  newLineState(settings),
	}
}

// Next advances to the next data line. It returns false at end of input or
// on a read error.
func (s *Scanner) Next() bool {
	for !s.done {
		raw, err := s.reader.ReadString('\n')
		if err != nil {
			s.done = true
			if err != io.EOF {
				s.err = fmt.Errorf("error reading line %d: %w", s.lines.lineNumber+1, err)
				return false
			}
			if raw == "" {
				return false
			}
		}

		if row, ok := s.lines.feed(raw); ok {
			s.current = row
			return true
		}
	}
	return false
}

// Row returns the current row.
func (s *Scanner) Row() Row {
	return s.current
}

// Err returns the read error that stopped the scanner, if any.
func (s *Scanner) Err() error {
	return s.err
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// CountByLayout returns how many rows were read with each layout.
func CountByLayout(rows []Row) map[Layout]int {
	counts := make(map[Layout]int, 2)
	for _, row := range rows {
		counts[row.Layout]++
	}
	return counts
}
