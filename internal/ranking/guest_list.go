// Package ranking orders vetted attendees by yesness score and cuts the guest list to capacity.
package ranking

import (
	"math"
	"sort"

	"github.com/jonathan/velvet-rope/internal/biometrics"
	"github.com/jonathan/velvet-rope/internal/types"
)

// DefaultCapacityRatio is the share of the roster admitted when no capacity is chosen.
const DefaultCapacityRatio = 0.5

// DefaultCapacity returns the capacity offered before the operator picks one.
func DefaultCapacity(rosterSize int) int {
	return int(math.Ceil(float64(rosterSize) * DefaultCapacityRatio))
}

// Rank pairs each profile with its biometric result and sorts descending by score.
// Equal scores keep their roster order. Profiles without a result are treated as neutral.
// Rank and Admitted are left unset; see SelectAdmitted.
func Rank(profiles []types.EnrichedProfile, results []types.BiometricResult) []types.GuestListEntry {
	byID := make(map[string]types.BiometricResult, len(results))
	for _, r := range results {
		byID[r.AttendeeID] = r
	}

	entries := make([]types.GuestListEntry, 0, len(profiles))
	for _, p := range profiles {
		result, ok := byID[p.ID]
		if !ok {
			result = biometrics.NeutralResult(p.ID)
		}
		entries = append(entries, types.GuestListEntry{
			Attendee:        p,
			BiometricResult: result,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].BiometricResult.YesnessScore > entries[j].BiometricResult.YesnessScore
	})
	return entries
}

// SelectAdmitted assigns 1-based ranks in the given order and admits the first
// capacity entries. Capacity is clamped to [0, len(ranked)]. The input is not modified.
func SelectAdmitted(ranked []types.GuestListEntry, capacity int) []types.GuestListEntry {
	capacity = ClampCapacity(capacity, len(ranked))

	out := make([]types.GuestListEntry, len(ranked))
	for i, entry := range ranked {
		entry.Rank = i + 1
		entry.Admitted = i < capacity
		out[i] = entry
	}
	return out
}

// ClampCapacity bounds capacity to [0, size].
func ClampCapacity(capacity, size int) int {
	if capacity < 0 {
		return 0
	}
	if capacity > size {
		return size
	}
	return capacity
}

// BuildGuestList ranks the roster and applies the capacity cut.
func BuildGuestList(profiles []types.EnrichedProfile, results []types.BiometricResult, capacity int) []types.GuestListEntry {
	return SelectAdmitted(Rank(profiles, results), capacity)
}

// Recut changes only which prefix of an existing guest list is admitted.
// The existing order is reused as-is.
func Recut(list []types.GuestListEntry, capacity int) []types.GuestListEntry {
	ordered := make([]types.GuestListEntry, len(list))
	copy(ordered, list)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})
	return SelectAdmitted(ordered, capacity)
}
