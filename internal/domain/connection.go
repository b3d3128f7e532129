package domain

import (
	"errors"
	"time"
)

var (
	ErrNotConnected     = errors.New("etsy account not connected")
	ErrUnknownAuthState = errors.New("unknown or expired authorization state")
)

// Connection is the stored OAuth grant of a user's Etsy shop
type Connection struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	ShopID       int64     `json:"shop_id"`
	ShopName     string    `json:"shop_name"`
	ConnectedAt  time.Time `json:"connected_at"`
}

// HasShop reports whether the connection is linked to a shop. A connection without one
// is treated as not connected everywhere.
func (c *Connection) HasShop() bool {
	return c != nil && c.ShopID != 0
}

// Expired reports whether the access token can no longer be used at now
func (c *Connection) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type ShopInfo struct {
	ShopID   int64  `json:"shop_id"`
	ShopName string `json:"shop_name"`
	IsValid  bool   `json:"is_valid"`
}

type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	Shop      *ShopInfo `json:"shop"`
}

// PendingAuth links an OAuth state parameter to the user and PKCE verifier that started it
type PendingAuth struct {
	UserID       string `json:"user_id"`
	CodeVerifier string `json:"code_verifier"`
}

// TokenGrant is the result of an OAuth code exchange or refresh
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
