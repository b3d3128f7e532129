package resolver

import (
	"slices"

	"etsy/lister/internal/domain"
)

// RemoteData is what the marketplace returned for one load. Nil and empty slices mean "no data".
type RemoteData struct {
	ShippingProfiles []domain.ShippingProfile
	Categories       []domain.CategoryNode
	ReturnPolicies   []domain.ReturnPolicy
}

// Builtins are the static lists used whenever remote data is unavailable
type Builtins struct {
	Categories       []domain.FlatCategory
	ShippingProfiles []domain.ShippingProfile
	ReturnPolicies   []domain.ReturnPolicy
}

func DefaultBuiltins() Builtins {
	return Builtins{
		Categories:       domain.FallbackCategories,
		ShippingProfiles: domain.FallbackShippingProfiles,
		ReturnPolicies:   domain.FallbackReturnPolicies,
	}
}

// Resolve picks the selectable list and default of every field independently.
// A field uses remote data only when connected and the remote list is non-empty after
// normalisation; otherwise it uses its builtin list. Remote categories are flattened first.
func Resolve(connected bool, remote RemoteData, builtins Builtins) domain.ResolvedOptionSet {
	builtins = builtins.orDefaults()

	categories, categorySource := pick(connected,
		uniqueBy(Flatten(remote.Categories), func(c domain.FlatCategory) int64 { return c.ID }, nil),
		builtins.Categories)

	profiles, profileSource := pick(connected,
		uniqueBy(remote.ShippingProfiles,
			func(p domain.ShippingProfile) string { return p.ID },
			func(p domain.ShippingProfile) bool { return p.ID != "" }),
		builtins.ShippingProfiles)

	policies, policySource := pick(connected,
		uniqueBy(remote.ReturnPolicies,
			func(p domain.ReturnPolicy) string { return p.ID },
			func(p domain.ReturnPolicy) bool { return p.ID != "" }),
		builtins.ReturnPolicies)

	return domain.ResolvedOptionSet{
		Categories: domain.CategoryOptions{
			Options: categories,
			Default: categories[0],
			Source:  categorySource,
		},
		ShippingProfiles: domain.ShippingProfileOptions{
			Options: profiles,
			Default: domain.Selection{ID: profiles[0].ID, Display: profiles[0].DisplayValue()},
			Source:  profileSource,
		},
		ReturnPolicies: domain.ReturnPolicyOptions{
			Options: policies,
			Default: domain.Selection{ID: policies[0].ID, Display: policies[0].DisplayValue()},
			Source:  policySource,
		},
	}
}

func pick[T any](connected bool, remote, builtin []T) ([]T, domain.Source) {
	if connected && len(remote) > 0 {
		return remote, domain.SourceRemote
	}
	return slices.Clone(builtin), domain.SourceFallback
}

// uniqueBy keeps the first item of every key, in source order, skipping items rejected by keep
func uniqueBy[T any, K comparable](items []T, key func(T) K, keep func(T) bool) []T {
	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		if keep != nil && !keep(item) {
			continue
		}
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, item)
	}
	return result
}

func (b Builtins) orDefaults() Builtins {
	if len(b.Categories) == 0 {
		b.Categories = domain.FallbackCategories
	}
	if len(b.ShippingProfiles) == 0 {
		b.ShippingProfiles = domain.FallbackShippingProfiles
	}
	if len(b.ReturnPolicies) == 0 {
		b.ReturnPolicies = domain.FallbackReturnPolicies
	}
	return b
}
