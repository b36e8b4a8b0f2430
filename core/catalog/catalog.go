// Package catalog provides the bundle catalog interface.
// The catalog is an external collaborator; the pricing core only reads
// immutable bundle snapshots and the duration catalog through it.
package catalog

import (
	"context"

	"bundle-pricing/core/types"
)

// Provider serves catalog reads for one pricing run
type Provider interface {
	// AvailableBundles returns the bundles matching the filter,
	// already restricted to unlimited bundles where applicable.
	// Country and region are mutually exclusive; group narrows by
	// group membership.
	AvailableBundles(ctx context.Context, group, country, region string) ([]types.Bundle, error)

	// DurationCatalog returns the sorted distinct validity durations
	// known to the catalog
	DurationCatalog(ctx context.Context) ([]int, error)
}

// FilterUnlimited keeps only unlimited bundles
func FilterUnlimited(bundles []types.Bundle) []types.Bundle {
	out := make([]types.Bundle, 0, len(bundles))
	for _, b := range bundles {
		if b.Unlimited {
			out = append(out, b)
		}
	}
	return out
}

// FilterGroup keeps bundles belonging to the requested group.
// A bundle with no declared groups matches any group.
func FilterGroup(bundles []types.Bundle, group string) []types.Bundle {
	if group == "" {
		return bundles
	}
	out := make([]types.Bundle, 0, len(bundles))
	for _, b := range bundles {
		if b.HasGroup(group) {
			out = append(out, b)
		}
	}
	return out
}

// FilterGeography keeps bundles covering the requested country or region
func FilterGeography(bundles []types.Bundle, country, region string) []types.Bundle {
	if country == "" && region == "" {
		return bundles
	}
	out := make([]types.Bundle, 0, len(bundles))
	for _, b := range bundles {
		if country != "" && b.CoversCountry(country) {
			out = append(out, b)
			continue
		}
		if region != "" && b.CoversRegion(region) {
			out = append(out, b)
		}
	}
	return out
}
