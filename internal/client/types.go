package client

import (
	"fmt"
	"strconv"

	"etsy/lister/internal/domain"
)

// DTOs mirror the Etsy Open API v3 JSON payloads

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

type meResponse struct {
	UserID int64 `json:"user_id"`
	ShopID int64 `json:"shop_id"`
}

type shopResponse struct {
	ShopID   int64  `json:"shop_id"`
	ShopName string `json:"shop_name"`
	URL      string `json:"url"`
}

type shippingProfileDTO struct {
	ShippingProfileID int64  `json:"shipping_profile_id"`
	Title             string `json:"title"`
	MinProcessingDays int    `json:"min_processing_days"`
	MaxProcessingDays int    `json:"max_processing_days"`
	OriginCountryISO  string `json:"origin_country_iso"`
}

type returnPolicyDTO struct {
	ReturnPolicyID   int64 `json:"return_policy_id"`
	ShopID           int64 `json:"shop_id"`
	AcceptsReturns   bool  `json:"accepts_returns"`
	AcceptsExchanges bool  `json:"accepts_exchanges"`
	ReturnDeadline   *int  `json:"return_deadline"`
}

type taxonomyNodeDTO struct {
	ID       int64             `json:"id"`
	Level    int               `json:"level"`
	Name     string            `json:"name"`
	ParentID *int64            `json:"parent_id"`
	Children []taxonomyNodeDTO `json:"children"`
}

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func (d shippingProfileDTO) toDomain() domain.ShippingProfile {
	return domain.ShippingProfile{
		ID:    strconv.FormatInt(d.ShippingProfileID, 10),
		Title: d.Title,
	}
}

// Etsy return policies carry no name, so the label is derived from the rules
func (d returnPolicyDTO) toDomain() domain.ReturnPolicy {
	var label string
	switch {
	case d.AcceptsReturns && d.ReturnDeadline != nil:
		label = fmt.Sprintf("Returns accepted within %d days", *d.ReturnDeadline)
	case d.AcceptsReturns:
		label = "Returns accepted"
	case d.AcceptsExchanges && d.ReturnDeadline != nil:
		label = fmt.Sprintf("Exchanges only within %d days", *d.ReturnDeadline)
	case d.AcceptsExchanges:
		label = "Exchanges only"
	default:
		label = "No returns or exchanges"
	}

	return domain.ReturnPolicy{
		ID:    strconv.FormatInt(d.ReturnPolicyID, 10),
		Label: label,
	}
}

func (d taxonomyNodeDTO) toDomain() domain.CategoryNode {
	node := domain.CategoryNode{ID: d.ID, Name: d.Name}
	if len(d.Children) > 0 {
		node.Children = make([]domain.CategoryNode, 0, len(d.Children))
		for _, child := range d.Children {
			node.Children = append(node.Children, child.toDomain())
		}
	}
	return node
}
