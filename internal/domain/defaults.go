package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDefaults = errors.New("invalid listing defaults")

// ListingDefaults is the flat settings record applied to every product of a batch.
// JSON keys are consumed by the upload workers and must not change.
type ListingDefaults struct {
	DefaultPrice      string  `json:"defaultPrice"`
	Category          string  `json:"category"`
	CategoryID        *int64  `json:"categoryId"`
	ShippingProfile   string  `json:"shippingProfile"`
	ShippingProfileID *string `json:"shippingProfileId"`
	ShippingCost      string  `json:"shippingCost"`
	ShippingTime      string  `json:"shippingTime"`
	ReturnPolicy      string  `json:"returnPolicy"`
	ReturnPolicyID    *string `json:"returnPolicyId"`
	Quantity          int     `json:"quantity"`
	Materials         string  `json:"materials"`
	AutoPublish       bool    `json:"autoPublish"`
	SaveAsTemplate    bool    `json:"saveAsTemplate"`
	TemplateName      string  `json:"templateName"`
}

// NewListingDefaults returns the record a fresh form starts with
func NewListingDefaults() ListingDefaults {
	return ListingDefaults{Quantity: 1}
}

// Validate checks the record before it is handed to the upload workers
func (d ListingDefaults) Validate() error {
	if d.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidDefaults, d.Quantity)
	}
	if d.SaveAsTemplate && strings.TrimSpace(d.TemplateName) == "" {
		return fmt.Errorf("%w: template name is required when saving as template", ErrInvalidDefaults)
	}
	return nil
}

// NullableID is a patch value for an identifier that can be explicitly cleared (Value == nil)
type NullableID[T any] struct {
	Value *T
}

// DefaultsPatch is a partial update of ListingDefaults. Nil fields are left untouched.
type DefaultsPatch struct {
	DefaultPrice      *string
	Category          *string
	CategoryID        *NullableID[int64]
	ShippingProfile   *string
	ShippingProfileID *NullableID[string]
	ShippingCost      *string
	ShippingTime      *string
	ReturnPolicy      *string
	ReturnPolicyID    *NullableID[string]
	Quantity          *int
	Materials         *string
	AutoPublish       *bool
	SaveAsTemplate    *bool
	TemplateName      *string
}

// ApplyPatch returns current with every non-nil field of patch applied. current is not modified.
func ApplyPatch(current ListingDefaults, patch DefaultsPatch) ListingDefaults {
	next := current.clone()

	setIfPresent(&next.DefaultPrice, patch.DefaultPrice)
	setIfPresent(&next.Category, patch.Category)
	setIDIfPresent(&next.CategoryID, patch.CategoryID)
	setIfPresent(&next.ShippingProfile, patch.ShippingProfile)
	setIDIfPresent(&next.ShippingProfileID, patch.ShippingProfileID)
	setIfPresent(&next.ShippingCost, patch.ShippingCost)
	setIfPresent(&next.ShippingTime, patch.ShippingTime)
	setIfPresent(&next.ReturnPolicy, patch.ReturnPolicy)
	setIDIfPresent(&next.ReturnPolicyID, patch.ReturnPolicyID)
	setIfPresent(&next.Quantity, patch.Quantity)
	setIfPresent(&next.Materials, patch.Materials)
	setIfPresent(&next.AutoPublish, patch.AutoPublish)
	setIfPresent(&next.SaveAsTemplate, patch.SaveAsTemplate)
	setIfPresent(&next.TemplateName, patch.TemplateName)

	return next
}

// SelectCategory builds the patch for picking a category by its display name.
// An unknown name keeps the display value and clears the identifier.
func SelectCategory(options []FlatCategory, name string) DefaultsPatch {
	id := &NullableID[int64]{}
	for _, c := range options {
		if c.Name == name {
			id.Value = copyOf(c.ID)
			break
		}
	}
	return DefaultsPatch{Category: &name, CategoryID: id}
}

// SelectShippingProfile builds the patch for picking a shipping profile by its display value
func SelectShippingProfile(options []ShippingProfile, display string) DefaultsPatch {
	id := &NullableID[string]{}
	for _, p := range options {
		if p.DisplayValue() == display {
			id.Value = copyOf(p.ID)
			break
		}
	}
	return DefaultsPatch{ShippingProfile: &display, ShippingProfileID: id}
}

// SelectReturnPolicy builds the patch for picking a return policy by its display value
func SelectReturnPolicy(options []ReturnPolicy, display string) DefaultsPatch {
	id := &NullableID[string]{}
	for _, p := range options {
		if p.DisplayValue() == display {
			id.Value = copyOf(p.ID)
			break
		}
	}
	return DefaultsPatch{ReturnPolicy: &display, ReturnPolicyID: id}
}

func (d ListingDefaults) clone() ListingDefaults {
	next := d
	next.CategoryID = copyPtr(d.CategoryID)
	next.ShippingProfileID = copyPtr(d.ShippingProfileID)
	next.ReturnPolicyID = copyPtr(d.ReturnPolicyID)
	return next
}

func setIfPresent[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setIDIfPresent[T any](dst **T, v *NullableID[T]) {
	if v != nil {
		*dst = copyPtr(v.Value)
	}
}

func copyOf[T any](v T) *T {
	return &v
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	return copyOf(*v)
}
