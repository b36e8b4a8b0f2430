// Package catalog provides a YAML fixture-backed catalog provider.
// Production deployments put a remote catalog service behind the same
// interface; the static adapter serves tests, the CLI and local runs.
package catalog

import (
	"context"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	core "bundle-pricing/core/catalog"
	"bundle-pricing/core/types"
	"bundle-pricing/internal/errors"
)

// fixture is the on-disk catalog document
type fixture struct {
	Bundles   []types.Bundle `yaml:"bundles"`
	Durations []int          `yaml:"durations,omitempty"`
}

// Static is an in-memory catalog loaded from a YAML fixture
type Static struct {
	bundles   []types.Bundle
	durations []int
}

// NewStatic creates a catalog from bundles. The duration catalog is
// derived from the bundles when durations is empty.
func NewStatic(bundles []types.Bundle, durations []int) *Static {
	if len(durations) == 0 {
		durations = deriveDurations(bundles)
	}
	sorted := make([]int, len(durations))
	copy(sorted, durations)
	sort.Ints(sorted)
	return &Static{bundles: bundles, durations: sorted}
}

// LoadStatic reads a YAML catalog fixture
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config("reading catalog fixture", err).WithContext("path", path)
	}

	var doc fixture
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Config("parsing catalog fixture", err).WithContext("path", path)
	}

	return NewStatic(doc.Bundles, doc.Durations), nil
}

// AvailableBundles implements catalog.Provider: geography, unlimited
// and group filters applied server-side, as a remote catalog would
func (s *Static) AvailableBundles(ctx context.Context, group, country, region string) ([]types.Bundle, error) {
	bundles := core.FilterGeography(s.bundles, country, region)
	bundles = core.FilterUnlimited(bundles)
	bundles = core.FilterGroup(bundles, group)
	return bundles, nil
}

// DurationCatalog implements catalog.Provider
func (s *Static) DurationCatalog(ctx context.Context) ([]int, error) {
	out := make([]int, len(s.durations))
	copy(out, s.durations)
	return out, nil
}

func deriveDurations(bundles []types.Bundle) []int {
	seen := make(map[int]bool)
	var durations []int
	for _, b := range bundles {
		if !seen[b.ValidityDays] {
			seen[b.ValidityDays] = true
			durations = append(durations, b.ValidityDays)
		}
	}
	return durations
}
