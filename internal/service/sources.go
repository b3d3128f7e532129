package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"etsy/lister/internal/client"
	"etsy/lister/internal/domain"
	"etsy/lister/internal/state"
)

// userSources feeds a load cycle from one user's stored connection.
// Connected must be called first; it caches the connection used by the fetches.
type userSources struct {
	userID      string
	connections state.ConnectionStore
	client      client.EtsyClient
	now         func() time.Time

	conn *domain.Connection
}

func (s *userSources) Connected(ctx context.Context) (bool, error) {
	conn, err := s.connections.GetConnection(ctx, s.userID)
	if err != nil {
		return false, err
	}
	if !conn.HasShop() {
		return false, nil
	}

	if conn.Expired(s.now()) {
		if conn.RefreshToken == "" {
			log.Infof("Access token of user %s expired without refresh token", s.userID)
			return false, nil
		}

		conn, err = refreshConnection(ctx, s.connections, s.client, s.userID, conn)
		if err != nil {
			return false, err
		}
	}

	s.conn = conn
	return true, nil
}

func (s *userSources) ShippingProfiles(ctx context.Context) ([]domain.ShippingProfile, error) {
	if s.conn == nil {
		return nil, domain.ErrNotConnected
	}
	return s.client.GetShippingProfiles(ctx, s.conn.AccessToken, s.conn.ShopID)
}

func (s *userSources) Categories(ctx context.Context) ([]domain.CategoryNode, error) {
	return s.client.GetSellerTaxonomy(ctx)
}

func (s *userSources) ReturnPolicies(ctx context.Context) ([]domain.ReturnPolicy, error) {
	if s.conn == nil {
		return nil, domain.ErrNotConnected
	}
	return s.client.GetReturnPolicies(ctx, s.conn.AccessToken, s.conn.ShopID)
}

func refreshConnection(
	ctx context.Context,
	connections state.ConnectionStore,
	etsy client.EtsyClient,
	userID string,
	conn *domain.Connection,
) (*domain.Connection, error) {
	grant, err := etsy.RefreshToken(ctx, conn.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	refreshed := *conn
	refreshed.AccessToken = grant.AccessToken
	refreshed.ExpiresAt = grant.ExpiresAt
	if grant.RefreshToken != "" {
		refreshed.RefreshToken = grant.RefreshToken
	}

	if err := connections.SaveConnection(ctx, userID, &refreshed); err != nil {
		return nil, err
	}

	log.Infof("🔄 Refreshed Etsy access token for user %s", userID)
	return &refreshed, nil
}
