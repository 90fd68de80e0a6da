// =============================================================================
// Meal Voucher Generator - Grouping Stage
// =============================================================================
//
// This module collapses the occupant records of a shared room into a single
// voucher. Records are partitioned by (room, booking); each partition
// becomes one VoucherGroup.
//
// GROUPING LOGIC:
//   - Groups are emitted in the order their key first appears.
//   - The representative is the member with the smallest numeric DNI; ties
//     and unparseable DNIs keep input order, unparseable ones sorting last.
//   - A group with a single member covers one person: its occupant count is
//     forced to 1 and its meal count to multiplier * stay. This corrects a
//     lone guest whose room type would otherwise claim two or three people.
//   - Larger groups keep the representative's own occupant and meal counts.
//
// =============================================================================

package converter

import (
	"github.com/ginjaninja78/meal-vouchers/internal/config"
	"github.com/ginjaninja78/meal-vouchers/internal/normalize"
	"github.com/ginjaninja78/meal-vouchers/internal/types"
)

// Group partitions records into voucher groups.
//
// PARAMETERS:
//   - records: The eligible records, in input order.
//   - cfg: The configuration; its meal multiplier drives the singleton
//     override.
//
// RETURNS:
//   - One VoucherGroup per distinct (room, booking), in first-seen order.
func Group(records []types.ProcessedRecord, cfg *config.Config) []types.VoucherGroup {
	index := make(map[types.GroupKey]int)
	var groups []types.VoucherGroup

	for _, record := range records {
		key := record.Key()
		i, exists := index[key]
		if !exists {
			i = len(groups)
			index[key] = i
			groups = append(groups, types.VoucherGroup{Key: key})
		}
		groups[i].Members = append(groups[i].Members, record)
	}

	multiplier := cfg.MealMultiplier()
	for i := range groups {
		resolveGroup(&groups[i], multiplier)
	}

	return groups
}

// resolveGroup picks the representative and the final counts of a group.
func resolveGroup(group *types.VoucherGroup, multiplier int) {
	rep := group.Members[0]
	for _, member := range group.Members[1:] {
		if dniLess(member.DNI, rep.DNI) {
			rep = member
		}
	}

	group.Representative = rep
	group.Occupants = rep.Occupants
	group.MealCount = rep.MealCount

	if len(group.Members) == 1 {
		group.Occupants = 1
		group.MealCount = multiplier * rep.StayDuration
	}
}

// dniLess orders identity numbers numerically. Numbers sort before values
// that do not start with a number.
func dniLess(a, b string) bool {
	na, okA := normalize.LeadingInt(a)
	nb, okB := normalize.LeadingInt(b)

	switch {
	case okA && okB:
		return na < nb
	case okA:
		return true
	default:
		return false
	}
}
