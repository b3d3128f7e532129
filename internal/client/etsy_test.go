package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etsy/lister/internal/config"
	"etsy/lister/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *etsyClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewEtsyClient(config.EtsyConfig{
		APIBaseURL:    server.URL,
		AuthURL:       "https://www.etsy.com/oauth/connect",
		APIKey:        "keystring",
		SharedSecret:  "secret",
		RedirectURI:   "http://localhost/callback",
		Scopes:        []string{"listings_r", "shops_r"},
		Timeout:       5,
		MaxRetries:    0,
		QuotaCooldown: 60,
	}, nil).(*etsyClient)

	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestAuthorizationURL(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	raw := c.AuthorizationURL("st4te", "chall")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "www.etsy.com", u.Host)
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "keystring", q.Get("client_id"))
	assert.Equal(t, "listings_r shops_r", q.Get("scope"))
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, "chall", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
}

func TestExchangeCode(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, tokenPath, r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "verifier", r.PostForm.Get("code_verifier"))
		writeJSON(w, http.StatusOK, `{"access_token":"12.abc","token_type":"Bearer","expires_in":3600,"refresh_token":"12.def"}`)
	}))
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	grant, err := c.ExchangeCode(context.Background(), "the-code", "verifier")
	require.NoError(t, err)

	assert.Equal(t, &domain.TokenGrant{
		AccessToken:  "12.abc",
		RefreshToken: "12.def",
		ExpiresAt:    now.Add(time.Hour),
	}, grant)
}

func TestGetUserShop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(mePath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer 12.abc", r.Header.Get("Authorization"))
		assert.Equal(t, "keystring:secret", r.Header.Get("x-api-key"))
		writeJSON(w, http.StatusOK, `{"user_id":12,"shop_id":34}`)
	})
	mux.HandleFunc("/v3/application/shops/34", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"shop_id":34,"shop_name":"PrintShop"}`)
	})
	c := newTestClient(t, mux)

	shop, err := c.GetUserShop(context.Background(), "12.abc")
	require.NoError(t, err)

	assert.Equal(t, &domain.ShopInfo{ShopID: 34, ShopName: "PrintShop", IsValid: true}, shop)
}

func TestGetShippingProfilesAndReturnPolicies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/application/shops/34/shipping-profiles", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"count":2,"results":[
			{"shipping_profile_id":111,"title":"Letter"},
			{"shipping_profile_id":222,"title":""}]}`)
	})
	mux.HandleFunc("/v3/application/shops/34/policies/return", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"count":3,"results":[
			{"return_policy_id":1,"accepts_returns":false,"accepts_exchanges":false,"return_deadline":null},
			{"return_policy_id":2,"accepts_returns":true,"accepts_exchanges":true,"return_deadline":30},
			{"return_policy_id":3,"accepts_returns":false,"accepts_exchanges":true,"return_deadline":14}]}`)
	})
	c := newTestClient(t, mux)

	profiles, err := c.GetShippingProfiles(context.Background(), "tok", 34)
	require.NoError(t, err)
	assert.Equal(t, []domain.ShippingProfile{{ID: "111", Title: "Letter"}, {ID: "222"}}, profiles)

	policies, err := c.GetReturnPolicies(context.Background(), "tok", 34)
	require.NoError(t, err)
	assert.Equal(t, []domain.ReturnPolicy{
		{ID: "1", Label: "No returns or exchanges"},
		{ID: "2", Label: "Returns accepted within 30 days"},
		{ID: "3", Label: "Exchanges only within 14 days"},
	}, policies)
}

func TestGetSellerTaxonomy(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sellerTaxonomyPath, r.URL.Path)
		writeJSON(w, http.StatusOK, `{"count":1,"results":[
			{"id":1,"level":0,"name":"Art","parent_id":null,"children":[
				{"id":2,"level":1,"name":"Prints","parent_id":1,"children":[]}]}]}`)
	}))

	nodes, err := c.GetSellerTaxonomy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.CategoryNode{
		{ID: 1, Name: "Art", Children: []domain.CategoryNode{{ID: 2, Name: "Prints"}}},
	}, nodes)
}

func TestHTTPErrorIsReturned(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid_token"}`)
	}))

	_, err := c.GetShippingProfiles(context.Background(), "expired", 34)
	assert.ErrorContains(t, err, "401")
}

func TestQuotaExceededOpensCircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, `{"error":"quota"}`)
	}))
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.GetSellerTaxonomy(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = c.GetSellerTaxonomy(context.Background())
	assert.ErrorContains(t, err, "circuit breaker is open")
	assert.EqualValues(t, 1, calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = c.GetSellerTaxonomy(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")
	assert.EqualValues(t, 2, calls.Load())
}
