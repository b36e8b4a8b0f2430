// Package facts - bundle selection
package facts

import (
	"fmt"
	"sort"

	"bundle-pricing/core/types"
	"bundle-pricing/internal/errors"
)

// SelectBundle picks the bundle for a requested duration. If the
// requested duration is in the known duration catalog and a candidate
// exists there, that duration wins; otherwise the smallest known
// duration strictly longer than the request that has a candidate
// wins. At an exact-duration tie the candidate matching the preferred
// provider is picked, else the first. Selection only ever lands on
// the requested duration or a longer one, so unused days are never
// negative.
func SelectBundle(requestedDays int, knownDurations []int, candidates []types.Bundle, preferredProvider string) (*types.Bundle, error) {
	if len(candidates) == 0 {
		return nil, errors.NotFound("bundle", fmt.Sprintf("%d days", requestedDays))
	}

	durations := make([]int, len(knownDurations))
	copy(durations, knownDurations)
	sort.Ints(durations)

	// Ascending walk lands on the exact duration when present, else
	// the smallest longer one with a candidate.
	for _, d := range durations {
		if d < requestedDays {
			continue
		}
		atDuration := candidatesAt(candidates, d)
		if len(atDuration) == 0 {
			continue
		}
		return pickPreferred(atDuration, preferredProvider), nil
	}

	return nil, errors.NotFound("bundle", fmt.Sprintf("%d days or longer", requestedDays))
}

// PreviousBundle returns the candidate at the largest known duration
// strictly shorter than the selected bundle's validity, or nil when
// none exists
func PreviousBundle(selected *types.Bundle, knownDurations []int, candidates []types.Bundle) *types.Bundle {
	if selected == nil {
		return nil
	}

	durations := make([]int, len(knownDurations))
	copy(durations, knownDurations)
	sort.Sort(sort.Reverse(sort.IntSlice(durations)))

	for _, d := range durations {
		if d >= selected.ValidityDays {
			continue
		}
		atDuration := candidatesAt(candidates, d)
		if len(atDuration) > 0 {
			b := atDuration[0]
			return &b
		}
	}
	return nil
}

// UnusedDays is the selected validity minus the requested days.
// Selection semantics guarantee the result is never negative.
func UnusedDays(selected *types.Bundle, requestedDays int) int {
	if selected == nil {
		return 0
	}
	unused := selected.ValidityDays - requestedDays
	if unused < 0 {
		return 0
	}
	return unused
}

func candidatesAt(candidates []types.Bundle, days int) []types.Bundle {
	out := make([]types.Bundle, 0, len(candidates))
	for _, b := range candidates {
		if b.ValidityDays == days {
			out = append(out, b)
		}
	}
	return out
}

func pickPreferred(candidates []types.Bundle, preferredProvider string) *types.Bundle {
	for i := range candidates {
		if preferredProvider != "" && candidates[i].Provider == preferredProvider {
			b := candidates[i]
			return &b
		}
	}
	b := candidates[0]
	return &b
}
