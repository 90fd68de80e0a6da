// =============================================================================
// Meal Voucher Generator - Business Rule Engine
// =============================================================================
//
// This module decides which parsed rows get a meal voucher under the active
// tier and computes, per row, how many people and meals the voucher covers.
//
// RULES (applied in order, per row):
//   1. Eligibility: the contracted-services text, folded to uppercase without
//      accents, must contain the tier's service match. Half-board also
//      rejects breakfast-only bookings. Ineligible rows are dropped.
//   2. Occupants: derived from the room type, falling back to the declared
//      capacity, falling back to 1.
//   3. Derived fields: display name, reformatted dates, stay duration and
//      meal count = occupants * stay * tier meal multiplier.
//
// The engine is pure: the same rows and configuration always give the same
// records, in input order.
//
// =============================================================================

package rules

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/meal-vouchers/internal/config"
	"github.com/ginjaninja78/meal-vouchers/internal/csvparser"
	"github.com/ginjaninja78/meal-vouchers/internal/normalize"
	"github.com/ginjaninja78/meal-vouchers/internal/types"
)

// breakfast marks a breakfast-only booking in the services text.
const breakfast = "DESAYUNO"

// occupancyRule maps a room-type fragment to a fixed occupant count.
type occupancyRule struct {
	contains  string
	occupants int
}

// occupancyRules are checked in order; the first match wins.
var occupancyRules = []occupancyRule{
	{contains: "DBL MAT", occupants: 2},
	{contains: "DOBLE A COMPARTIR", occupants: 2},
	{contains: "TRIPLE A COMPARTIR", occupants: 3},
	{contains: "DBL IND", occupants: 1},
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine applies the business rules for one configuration.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates an Engine. A nil logger discards log output.
func New(cfg *config.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.Named("rules"),
	}
}

// Process filters rows by eligibility and returns the computed records of
// the eligible ones, preserving input order.
func (e *Engine) Process(rows []csvparser.Row) []types.ProcessedRecord {
	tier := e.cfg.Tier
	match := e.cfg.ServiceMatch()
	multiplier := e.cfg.MealMultiplier()

	e.logger.Debug("applying rules",
		zap.String("tier", string(tier)),
		zap.String("service_match", match),
		zap.Int("meal_multiplier", multiplier),
		zap.Int("rows", len(rows)),
	)

	records := make([]types.ProcessedRecord, 0, len(rows))
	for _, row := range rows {
		include := Eligible(row.Services.Value, tier, match)
		e.logger.Debug("row eligibility",
			zap.Int("line", row.Line),
			zap.String("dni", row.DNI.Value),
			zap.String("services", row.Services.Value),
			zap.Bool("include", include),
		)
		if !include {
			continue
		}

		records = append(records, Compute(row, multiplier))
	}

	return records
}

// =============================================================================
// RULES
// =============================================================================

// Eligible reports whether a row with the given contracted services gets a
// voucher under tier. match is the tier's service text; both sides are
// folded before comparing.
func Eligible(services string, tier config.Tier, match string) bool {
	folded := normalize.FoldServices(services)
	target := normalize.FoldServices(match)

	switch tier {
	case config.TierMAP:
		if strings.Contains(folded, breakfast) && !strings.Contains(folded, target) {
			return false
		}
		return strings.Contains(folded, target)
	case config.TierPC:
		return strings.Contains(folded, target)
	default:
		return false
	}
}

// ResolveOccupants returns the number of people a row's voucher covers.
// Shared-room types override the declared capacity; otherwise the declared
// value is read as a leading integer. Zero or a value that does not start
// with a number counts as 1; a negative value is kept as read.
func ResolveOccupants(roomType, declared string) int {
	upper := strings.ToUpper(roomType)
	for _, rule := range occupancyRules {
		if strings.Contains(upper, rule.contains) {
			return rule.occupants
		}
	}

	if n, ok := normalize.LeadingInt(declared); ok && n != 0 {
		return n
	}
	return 1
}

// Compute derives the record of an eligible row.
func Compute(row csvparser.Row, multiplier int) types.ProcessedRecord {
	stay, datesValid := normalize.StayDuration(row.CheckIn.Value, row.CheckOut.Value)
	occupants := ResolveOccupants(row.RoomType.Value, row.Occupants.Value)

	return types.ProcessedRecord{
		PassengerName: normalize.PassengerName(row.FirstName(), row.LastName()),
		DNI:           row.DNI.Value,
		Hotel:         row.Hotel.Value,
		CheckInRaw:    row.CheckIn.Value,
		CheckOutRaw:   row.CheckOut.Value,
		CheckIn:       normalize.ReformatDate(row.CheckIn.Value),
		CheckOut:      normalize.ReformatDate(row.CheckOut.Value),
		Room:          row.Room.Value,
		Occupants:     occupants,
		StayDuration:  stay,
		Booking:       row.Booking.Value,
		MealCount:     occupants * stay * multiplier,
		RoomType:      row.RoomType.Value,
		Line:          row.Line,
		DatesValid:    datesValid,
	}
}
