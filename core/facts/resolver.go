// Package facts computes the static and derived facts a pricing run
// evaluates rules against: selected and previous bundle, unused days,
// margin lookups and provider preference. Facts are resolved lazily
// and memoized for the lifetime of one request only.
package facts

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bundle-pricing/core/catalog"
	"bundle-pricing/core/types"
	"bundle-pricing/internal/logging"
)

// ProviderSelection ranks the currently available providers
type ProviderSelection struct {
	// Available lists providers present in the candidate set, in
	// preference order
	Available []string `json:"available"`

	// Preferred is the best-ranked available provider
	Preferred string `json:"preferred"`

	// Fallback is the next-ranked available provider
	Fallback string `json:"fallback,omitempty"`
}

type factEntry struct {
	value interface{}
	err   error
}

// Resolver is a request-scoped fact source. Each fact is computed at
// most once per run; the memo is discarded with the resolver at the
// end of the request. Resolvers are not safe for concurrent use --
// a pricing run is a single sequence of awaited steps.
type Resolver struct {
	request            types.PricingRequest
	catalog            catalog.Provider
	markup             *MarkupMatrix
	preferredProviders []string

	// flatMarkup substitutes for a missing matrix entry, so the
	// markup fact always equals the margin the pipeline applies
	flatMarkup decimal.Decimal

	memo map[string]factEntry
	log  *zap.Logger
}

// NewResolver creates a resolver for one request
func NewResolver(req types.PricingRequest, cat catalog.Provider, markup *MarkupMatrix, preferredProviders []string) *Resolver {
	return &Resolver{
		request:            req,
		catalog:            cat,
		markup:             markup,
		preferredProviders: preferredProviders,
		memo:               make(map[string]factEntry),
		log:                logging.Named("facts"),
	}
}

// WithFlatMarkup sets the margin used when the matrix has no entry
// for the selected bundle
func (r *Resolver) WithFlatMarkup(flat decimal.Decimal) *Resolver {
	r.flatMarkup = flat
	return r
}

// Fact implements rule.FactSource. Known root facts:
// request, bundle, facts, provider, markup.
func (r *Resolver) Fact(ctx context.Context, name string) (interface{}, error) {
	if entry, ok := r.memo[name]; ok {
		return entry.value, entry.err
	}

	value, err := r.computeFact(ctx, name)
	r.memo[name] = factEntry{value: value, err: err}
	return value, err
}

func (r *Resolver) computeFact(ctx context.Context, name string) (interface{}, error) {
	switch name {
	case "request":
		return map[string]interface{}{
			"days":          r.request.Days,
			"group":         r.request.Group,
			"country":       r.request.Country,
			"region":        r.request.Region,
			"paymentMethod": r.request.PaymentMethod,
			"strategy":      r.request.StrategyID,
		}, nil

	case "bundle":
		selected, err := r.SelectedBundle(ctx)
		if err != nil {
			return nil, err
		}
		previous, err := r.PrevBundle(ctx)
		if err != nil {
			return nil, err
		}
		available, err := r.AvailableBundles(ctx)
		if err != nil {
			return nil, err
		}
		availableMaps := make([]interface{}, len(available))
		for i := range available {
			availableMaps[i] = bundleFactMap(&available[i])
		}
		return map[string]interface{}{
			"selected":  bundleFactMap(selected),
			"previous":  bundleFactMap(previous),
			"available": availableMaps,
		}, nil

	case "facts":
		unused, err := r.ResolveUnusedDays(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"unusedDays": unused,
		}, nil

	case "provider":
		selection, err := r.ResolveProviderSelection(ctx)
		if err != nil {
			return nil, err
		}
		available := make([]interface{}, len(selection.Available))
		for i, p := range selection.Available {
			available[i] = p
		}
		return map[string]interface{}{
			"preferred": selection.Preferred,
			"fallback":  selection.Fallback,
			"available": available,
		}, nil

	case "markup":
		margin, err := r.ResolveMarkup(ctx)
		if err != nil {
			return nil, err
		}
		return margin, nil
	}

	// Unknown facts resolve to nil so exists/not-exists conditions
	// can probe for them
	r.log.Debug("unknown fact requested", zap.String("fact", name))
	return nil, nil
}

// AvailableBundles returns the catalog candidates for the request,
// with the unlimited and group filters applied
func (r *Resolver) AvailableBundles(ctx context.Context) ([]types.Bundle, error) {
	const key = "__available"
	if entry, ok := r.memo[key]; ok {
		if entry.err != nil {
			return nil, entry.err
		}
		return entry.value.([]types.Bundle), nil
	}

	bundles, err := r.catalog.AvailableBundles(ctx, r.request.Group, r.request.Country, r.request.Region)
	if err == nil {
		bundles = catalog.FilterUnlimited(bundles)
		bundles = catalog.FilterGroup(bundles, r.request.Group)
	}
	r.memo[key] = factEntry{value: bundles, err: err}
	return bundles, err
}

// SelectedBundle resolves the bundle for the requested duration
func (r *Resolver) SelectedBundle(ctx context.Context) (*types.Bundle, error) {
	const key = "__selected"
	if entry, ok := r.memo[key]; ok {
		if entry.err != nil {
			return nil, entry.err
		}
		return entry.value.(*types.Bundle), nil
	}

	selected, err := r.selectBundle(ctx)
	r.memo[key] = factEntry{value: selected, err: err}
	return selected, err
}

func (r *Resolver) selectBundle(ctx context.Context) (*types.Bundle, error) {
	candidates, err := r.AvailableBundles(ctx)
	if err != nil {
		return nil, err
	}
	durations, err := r.catalog.DurationCatalog(ctx)
	if err != nil {
		return nil, err
	}
	selection, err := r.ResolveProviderSelection(ctx)
	if err != nil {
		return nil, err
	}
	return SelectBundle(r.request.Days, durations, candidates, selection.Preferred)
}

// PrevBundle resolves the bundle one known duration below the
// selected one; nil when no shorter candidate exists
func (r *Resolver) PrevBundle(ctx context.Context) (*types.Bundle, error) {
	selected, err := r.SelectedBundle(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := r.AvailableBundles(ctx)
	if err != nil {
		return nil, err
	}
	durations, err := r.catalog.DurationCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return PreviousBundle(selected, durations, candidates), nil
}

// ResolveUnusedDays returns selected validity minus requested days
func (r *Resolver) ResolveUnusedDays(ctx context.Context) (int, error) {
	selected, err := r.SelectedBundle(ctx)
	if err != nil {
		return 0, err
	}
	return UnusedDays(selected, r.request.Days), nil
}

// ResolveMarkup resolves the margin for the selected bundle from the
// markup matrix, falling back to the configured flat markup on a
// miss. A missing entry is a soft fallback, never an error.
func (r *Resolver) ResolveMarkup(ctx context.Context) (decimal.Decimal, error) {
	selected, err := r.SelectedBundle(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if r.markup != nil {
		if amount, ok := r.markup.Lookup(selected); ok {
			return amount, nil
		}
	}
	r.log.Warn("no markup entry for bundle, using flat markup",
		zap.String("bundle", selected.ID),
		zap.String("flat", r.flatMarkup.String()))
	return r.flatMarkup, nil
}

// ResolveProviderSelection ranks the providers present in the
// candidate set by the configured preference order; providers absent
// from the preference list rank last in candidate order
func (r *Resolver) ResolveProviderSelection(ctx context.Context) (*ProviderSelection, error) {
	candidates, err := r.AvailableBundles(ctx)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool)
	var unranked []string
	for _, b := range candidates {
		if !present[b.Provider] {
			present[b.Provider] = true
			unranked = append(unranked, b.Provider)
		}
	}

	var ranked []string
	seen := make(map[string]bool)
	for _, p := range r.preferredProviders {
		if present[p] && !seen[p] {
			ranked = append(ranked, p)
			seen[p] = true
		}
	}
	for _, p := range unranked {
		if !seen[p] {
			ranked = append(ranked, p)
			seen[p] = true
		}
	}

	selection := &ProviderSelection{Available: ranked}
	if len(ranked) > 0 {
		selection.Preferred = ranked[0]
	}
	if len(ranked) > 1 {
		selection.Fallback = ranked[1]
	}
	return selection, nil
}

// Snapshot returns the resolved fact values for debug output.
// Only facts already computed during the run appear.
func (r *Resolver) Snapshot() map[string]interface{} {
	snap := make(map[string]interface{}, len(r.memo))
	for name, entry := range r.memo {
		if entry.err == nil && !strings.HasPrefix(name, "_") {
			snap[name] = entry.value
		}
	}
	return snap
}

// bundleFactMap returns interface{} so an absent bundle is an
// untyped nil the exists/not-exists operators can see; a typed nil
// map boxed into the fact tree would read as present.
func bundleFactMap(b *types.Bundle) interface{} {
	if b == nil {
		return nil
	}
	return map[string]interface{}{
		"id":        b.ID,
		"name":      b.Name,
		"provider":  b.Provider,
		"group":     b.Group,
		"price":     b.Price,
		"validity":  b.ValidityDays,
		"unlimited": b.Unlimited,
	}
}
