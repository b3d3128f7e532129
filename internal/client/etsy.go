package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"etsy/lister/internal/config"
	"etsy/lister/internal/domain"
	"etsy/lister/internal/proxy"
)

const (
	tokenPath            = "/v3/public/oauth/token"
	mePath               = "/v3/application/users/me"
	shopPath             = "/v3/application/shops/{shop_id}"
	shippingProfilesPath = "/v3/application/shops/{shop_id}/shipping-profiles"
	returnPoliciesPath   = "/v3/application/shops/{shop_id}/policies/return"
	sellerTaxonomyPath   = "/v3/application/seller-taxonomy/nodes"
)

type EtsyClient interface {
	AuthorizationURL(state, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.TokenGrant, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)
	GetUserShop(ctx context.Context, accessToken string) (*domain.ShopInfo, error)
	GetShippingProfiles(ctx context.Context, accessToken string, shopID int64) ([]domain.ShippingProfile, error)
	GetReturnPolicies(ctx context.Context, accessToken string, shopID int64) ([]domain.ReturnPolicy, error)
	GetSellerTaxonomy(ctx context.Context) ([]domain.CategoryNode, error)
}

type etsyClient struct {
	rl            ratelimit.Limiter
	config        config.EtsyConfig
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier
	now           func() time.Time

	// Circuit breaker for quota exceeded
	circuitBreakerMutex sync.RWMutex
	quotaExceededUntil  time.Time
	circuitBreakerDelay time.Duration
}

func NewEtsyClient(cfg config.EtsyConfig, proxySupplier proxy.ProxySupplier) EtsyClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIBaseURL, "/")).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("x-api-key", apiKeyHeader(cfg)).
		SetHeader("Accept", "application/json").
		SetTLSClientConfig(&tls.Config{MinVersion: tls.VersionTLS12})

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &etsyClient{
		rl:                  rl,
		config:              cfg,
		httpClient:          client,
		proxySupplier:       proxySupplier,
		now:                 time.Now,
		circuitBreakerDelay: time.Duration(cfg.QuotaCooldown) * time.Second,
	}
}

// Newer API keys must be sent together with the shared secret
func apiKeyHeader(cfg config.EtsyConfig) string {
	if cfg.SharedSecret == "" {
		return cfg.APIKey
	}
	return cfg.APIKey + ":" + cfg.SharedSecret
}

func (c *etsyClient) AuthorizationURL(state, codeChallenge string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.config.APIKey)
	q.Set("redirect_uri", c.config.RedirectURI)
	q.Set("scope", strings.Join(c.config.Scopes, " "))
	q.Set("state", state)
	q.Set("code_challenge", codeChallenge)
	q.Set("code_challenge_method", "S256")

	return c.config.AuthURL + "?" + q.Encode()
}

func (c *etsyClient) ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.TokenGrant, error) {
	return c.requestToken(ctx, map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     c.config.APIKey,
		"redirect_uri":  c.config.RedirectURI,
		"code":          code,
		"code_verifier": codeVerifier,
	})
}

func (c *etsyClient) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	return c.requestToken(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     c.config.APIKey,
		"refresh_token": refreshToken,
	})
}

func (c *etsyClient) requestToken(ctx context.Context, form map[string]string) (*domain.TokenGrant, error) {
	var token tokenResponse
	err := c.do(ctx, http.MethodPost, tokenPath, func(r *resty.Request) {
		r.SetFormData(form).SetResult(&token)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request %s token: %w", form["grant_type"], err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response without access token")
	}

	return &domain.TokenGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    c.now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}, nil
}

func (c *etsyClient) GetUserShop(ctx context.Context, accessToken string) (*domain.ShopInfo, error) {
	var me meResponse
	err := c.do(ctx, http.MethodGet, mePath, func(r *resty.Request) {
		r.SetAuthToken(accessToken).SetResult(&me)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	if me.ShopID == 0 {
		return nil, fmt.Errorf("user %d has no shop", me.UserID)
	}

	var shop shopResponse
	err = c.do(ctx, http.MethodGet, shopPath, func(r *resty.Request) {
		r.SetAuthToken(accessToken).
			SetPathParam("shop_id", strconv.FormatInt(me.ShopID, 10)).
			SetResult(&shop)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shop %d: %w", me.ShopID, err)
	}

	return &domain.ShopInfo{ShopID: shop.ShopID, ShopName: shop.ShopName, IsValid: true}, nil
}

func (c *etsyClient) GetShippingProfiles(ctx context.Context, accessToken string, shopID int64) ([]domain.ShippingProfile, error) {
	var resp listResponse[shippingProfileDTO]
	err := c.do(ctx, http.MethodGet, shippingProfilesPath, func(r *resty.Request) {
		r.SetAuthToken(accessToken).
			SetPathParam("shop_id", strconv.FormatInt(shopID, 10)).
			SetResult(&resp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shipping profiles: %w", err)
	}

	profiles := make([]domain.ShippingProfile, 0, len(resp.Results))
	for _, dto := range resp.Results {
		profiles = append(profiles, dto.toDomain())
	}

	log.Debugf("Fetched %d shipping profiles for shop %d", len(profiles), shopID)
	return profiles, nil
}

func (c *etsyClient) GetReturnPolicies(ctx context.Context, accessToken string, shopID int64) ([]domain.ReturnPolicy, error) {
	var resp listResponse[returnPolicyDTO]
	err := c.do(ctx, http.MethodGet, returnPoliciesPath, func(r *resty.Request) {
		r.SetAuthToken(accessToken).
			SetPathParam("shop_id", strconv.FormatInt(shopID, 10)).
			SetResult(&resp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch return policies: %w", err)
	}

	policies := make([]domain.ReturnPolicy, 0, len(resp.Results))
	for _, dto := range resp.Results {
		policies = append(policies, dto.toDomain())
	}

	log.Debugf("Fetched %d return policies for shop %d", len(policies), shopID)
	return policies, nil
}

func (c *etsyClient) GetSellerTaxonomy(ctx context.Context) ([]domain.CategoryNode, error) {
	var resp listResponse[taxonomyNodeDTO]
	err := c.do(ctx, http.MethodGet, sellerTaxonomyPath, func(r *resty.Request) {
		r.SetResult(&resp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seller taxonomy: %w", err)
	}

	nodes := make([]domain.CategoryNode, 0, len(resp.Results))
	for _, dto := range resp.Results {
		nodes = append(nodes, dto.toDomain())
	}

	log.Debugf("Fetched %d top-level taxonomy nodes", len(nodes))
	return nodes, nil
}

func (c *etsyClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := c.now()
	wasOpen := now.Before(c.quotaExceededUntil)
	wasTriggered := !c.quotaExceededUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		// Double-check after acquiring write lock
		if !c.quotaExceededUntil.IsZero() && !now.Before(c.quotaExceededUntil) {
			c.quotaExceededUntil = time.Time{}
			log.Infof("✅ Circuit breaker re-enabled - Etsy requests are allowed again")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *etsyClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.quotaExceededUntil = c.now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Etsy requests disabled until %v",
		c.quotaExceededUntil.Format("15:04:05"))
}

func (c *etsyClient) remainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := c.quotaExceededUntil.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// do sends one rate-limited request. On a quota error it retries once through the next
// proxy, then opens the circuit breaker.
func (c *etsyClient) do(ctx context.Context, method, path string, build func(*resty.Request)) error {
	if c.isCircuitBreakerOpen() {
		remaining := c.remainingCircuitBreakerTime().Round(time.Second)
		return fmt.Errorf("circuit breaker is open - requests disabled for %v more", remaining)
	}

	send := func() (*resty.Response, error) {
		c.rl.Take()
		req := c.httpClient.R().SetContext(ctx)
		build(req)
		return req.Execute(method, path)
	}

	resp, err := send()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to call %s: %w", path, err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		log.Warnf("🚫 Etsy quota exceeded for %s", path)

		if c.proxySupplier != nil {
			if newProxy := c.proxySupplier.Get(); newProxy != "" {
				log.Infof("🔄 Switching to new proxy: %s", newProxy)
				c.httpClient.SetProxy(newProxy)

				retryResp, retryErr := send()
				if retryErr == nil && retryResp.StatusCode() != http.StatusTooManyRequests {
					resp = retryResp
				}
			}
		}

		if resp.StatusCode() == http.StatusTooManyRequests {
			c.triggerCircuitBreaker()
			return fmt.Errorf("quota exceeded - circuit breaker activated for %v", c.circuitBreakerDelay)
		}
	}

	if resp.IsError() {
		return fmt.Errorf("HTTP error: %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	}

	return nil
}
