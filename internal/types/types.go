// =============================================================================
// Meal Voucher Generator - Shared Types
// =============================================================================
//
// This package contains the record types passed between pipeline stages.
// They live here to avoid import cycles between:
//   - rules       (produces ProcessedRecord)
//   - converter   (groups records into VoucherGroup)
//   - htmlwriter  (renders VoucherGroup)
//   - xlsxwriter  (exports VoucherGroup)
//   - validation  (inspects ProcessedRecord)
//
// =============================================================================

package types

import "fmt"

// =============================================================================
// PROCESSED RECORD
// =============================================================================

// ProcessedRecord is one eligible occupant row after the business rules ran.
// Nothing changes it afterwards; grouping overrides are kept on the group.
type ProcessedRecord struct {
	// PassengerName is the uppercase display name.
	PassengerName string

	// DNI is the identity number as written in the export.
	DNI string

	// Hotel is the facility name.
	Hotel string

	// CheckInRaw and CheckOutRaw are the dates as exported (day/month/year).
	CheckInRaw  string
	CheckOutRaw string

	// CheckIn and CheckOut are the reformatted dates (year/month/day).
	CheckIn  string
	CheckOut string

	// Room is the room token (digits only).
	Room string

	// Occupants is the number of people the voucher covers for this row.
	Occupants int

	// StayDuration is the number of nights. It can be zero or negative when
	// the export dates are inconsistent.
	StayDuration int

	// Booking is the booking / voucher identifier.
	Booking string

	// MealCount is Occupants * StayDuration * meal multiplier.
	MealCount int

	// RoomType is the room-type descriptor.
	RoomType string

	// Line is the source line number, for diagnostics.
	Line int

	// DatesValid is false when either date could not be parsed, in which
	// case StayDuration is 0.
	DatesValid bool
}

// Key returns the grouping key of the record.
func (r ProcessedRecord) Key() GroupKey {
	return GroupKey{Room: r.Room, Booking: r.Booking}
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupKey identifies one voucher: a room within a booking. It is a
// composite key, so room "1" + booking "23" and room "12" + booking "3"
// are different vouchers.
type GroupKey struct {
	Room    string
	Booking string
}

// String renders the key for logs and file output.
func (k GroupKey) String() string {
	return fmt.Sprintf("%s/%s", k.Room, k.Booking)
}

// VoucherGroup is all records sharing a GroupKey, reduced to what one
// voucher shows.
type VoucherGroup struct {
	// Key is the room + booking of the group.
	Key GroupKey

	// Members are the group's records in input order.
	Members []ProcessedRecord

	// Representative is the member with the smallest numeric DNI; its name,
	// dates and room are displayed.
	Representative ProcessedRecord

	// Occupants is the resolved number of people on the voucher.
	Occupants int

	// MealCount is the resolved number of meals on the voucher.
	MealCount int
}

// StayDuration returns the representative's stay, which sizes the
// check-off grids.
func (g VoucherGroup) StayDuration() int {
	return g.Representative.StayDuration
}
