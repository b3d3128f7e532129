package domain

type ShippingProfile struct {
	ID    string `json:"shipping_profile_id"`
	Title string `json:"title,omitempty"`
}

// DisplayValue returns the title, or the identifier when the title is missing
func (p ShippingProfile) DisplayValue() string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}

type ReturnPolicy struct {
	ID    string `json:"return_policy_id"`
	Label string `json:"label,omitempty"`
}

// DisplayValue returns the label, or the identifier when the label is missing
func (p ReturnPolicy) DisplayValue() string {
	if p.Label != "" {
		return p.Label
	}
	return p.ID
}

// Selection is the identifier and display value of a chosen option
type Selection struct {
	ID      string `json:"id"`
	Display string `json:"display"`
}

// Source tells where a selectable list came from
type Source string

func (s Source) String() string {
	return string(s)
}

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

type CategoryOptions struct {
	Options []FlatCategory `json:"options"`
	Default FlatCategory   `json:"default"`
	Source  Source         `json:"source"`
}

type ShippingProfileOptions struct {
	Options []ShippingProfile `json:"options"`
	Default Selection         `json:"default"`
	Source  Source            `json:"source"`
}

type ReturnPolicyOptions struct {
	Options []ReturnPolicy `json:"options"`
	Default Selection      `json:"default"`
	Source  Source         `json:"source"`
}

// ResolvedOptionSet holds the selectable lists and the default selection of every configurable field.
// Every list is non-empty and every default is a member of its list.
type ResolvedOptionSet struct {
	Categories       CategoryOptions        `json:"categories"`
	ShippingProfiles ShippingProfileOptions `json:"shippingProfiles"`
	ReturnPolicies   ReturnPolicyOptions    `json:"returnPolicies"`
}

// Seed merges the default selections into a settings record
func (s ResolvedOptionSet) Seed(current ListingDefaults) ListingDefaults {
	categoryID := s.Categories.Default.ID
	shippingID := s.ShippingProfiles.Default.ID
	returnID := s.ReturnPolicies.Default.ID

	return ApplyPatch(current, DefaultsPatch{
		Category:          &s.Categories.Default.Name,
		CategoryID:        &NullableID[int64]{Value: &categoryID},
		ShippingProfile:   &s.ShippingProfiles.Default.Display,
		ShippingProfileID: &NullableID[string]{Value: &shippingID},
		ReturnPolicy:      &s.ReturnPolicies.Default.Display,
		ReturnPolicyID:    &NullableID[string]{Value: &returnID},
	})
}
