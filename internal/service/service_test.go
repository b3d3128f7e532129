package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etsy/lister/internal/domain"
	"etsy/lister/internal/domain/task"
	"etsy/lister/internal/resolver"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc         *Service
	connections *memoryConnectionStore
	client      *fakeEtsyClient
	templates   *fakeTemplateRepo
	queue       *fakeQueue
}

func newFixture() *fixture {
	f := &fixture{
		connections: newMemoryConnectionStore(),
		client:      &fakeEtsyClient{},
		templates:   &fakeTemplateRepo{},
		queue:       &fakeQueue{},
	}
	f.svc = NewService(nil, f.templates, f.connections, f.client, f.queue, resolver.NewLoader())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) connect(userID string, conn domain.Connection) {
	_ = f.connections.SaveConnection(context.Background(), userID, &conn)
}

func (f *fixture) serveRemote() {
	f.client.getShippingProfilesFn = func(_ context.Context, token string, shopID int64) ([]domain.ShippingProfile, error) {
		return []domain.ShippingProfile{{ID: "111", Title: "Letter " + token}}, nil
	}
	f.client.getReturnPoliciesFn = func(context.Context, string, int64) ([]domain.ReturnPolicy, error) {
		return []domain.ReturnPolicy{{ID: "9", Label: "No returns or exchanges"}}, nil
	}
	f.client.getSellerTaxonomyFn = func(context.Context) ([]domain.CategoryNode, error) {
		return []domain.CategoryNode{{ID: 5, Name: "Home"}}, nil
	}
}

func TestLoadListingOptionsNotConnected(t *testing.T) {
	f := newFixture()

	opts := f.svc.LoadListingOptions(context.Background(), "u1")

	assert.False(t, opts.Connected)
	assert.Empty(t, opts.Advisory)
	assert.Equal(t, domain.FallbackCategories, opts.Options.Categories.Options)
	require.NotNil(t, opts.Defaults.CategoryID)
	assert.Equal(t, int64(2078), *opts.Defaults.CategoryID)
	assert.Equal(t, "digital", *opts.Defaults.ShippingProfileID)
	assert.Equal(t, "no_returns", *opts.Defaults.ReturnPolicyID)
	assert.Equal(t, 1, opts.Defaults.Quantity)
}

func TestLoadListingOptionsConnected(t *testing.T) {
	f := newFixture()
	f.connect("u1", domain.Connection{AccessToken: "tok", ShopID: 34, ExpiresAt: fixedNow.Add(time.Hour)})
	f.serveRemote()

	opts := f.svc.LoadListingOptions(context.Background(), "u1")

	assert.True(t, opts.Connected)
	assert.Equal(t, []domain.FlatCategory{{ID: 5, Name: "Home"}}, opts.Options.Categories.Options)
	assert.Equal(t, domain.Selection{ID: "111", Display: "Letter tok"}, opts.Options.ShippingProfiles.Default)
	assert.Equal(t, "No returns or exchanges", opts.Defaults.ReturnPolicy)
}

func TestLoadListingOptionsRefreshesExpiredToken(t *testing.T) {
	f := newFixture()
	f.connect("u1", domain.Connection{AccessToken: "old", RefreshToken: "r1", ShopID: 34, ExpiresAt: fixedNow.Add(-time.Minute)})
	f.serveRemote()
	f.client.refreshTokenFn = func(_ context.Context, refresh string) (*domain.TokenGrant, error) {
		assert.Equal(t, "r1", refresh)
		return &domain.TokenGrant{AccessToken: "new", RefreshToken: "r2", ExpiresAt: fixedNow.Add(time.Hour)}, nil
	}

	opts := f.svc.LoadListingOptions(context.Background(), "u1")

	assert.True(t, opts.Connected)
	assert.Equal(t, "Letter new", opts.Options.ShippingProfiles.Default.Display)

	stored, err := f.connections.GetConnection(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", stored.AccessToken)
	assert.Equal(t, "r2", stored.RefreshToken)
}

func TestLoadListingOptionsConnectivityFailure(t *testing.T) {
	f := newFixture()
	f.connections.getErr = errors.New("redis down")

	opts := f.svc.LoadListingOptions(context.Background(), "u1")

	assert.False(t, opts.Connected)
	assert.Equal(t, resolver.AdvisoryConnectivityFailed, opts.Advisory)
	assert.Equal(t, domain.SourceFallback, opts.Options.ShippingProfiles.Source)
}

func TestLoadListingOptionsCollapsesConcurrentLoads(t *testing.T) {
	f := newFixture()
	f.connect("u1", domain.Connection{AccessToken: "tok", ShopID: 34})
	f.serveRemote()

	var taxonomyCalls atomic.Int32
	release := make(chan struct{})
	f.client.getSellerTaxonomyFn = func(context.Context) ([]domain.CategoryNode, error) {
		taxonomyCalls.Add(1)
		<-release
		return []domain.CategoryNode{{ID: 5, Name: "Home"}}, nil
	}

	var wg sync.WaitGroup
	results := make([]ListingOptions, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.svc.LoadListingOptions(context.Background(), "u1")
		}()
	}

	require.Eventually(t, func() bool { return taxonomyCalls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, taxonomyCalls.Load(), int32(4))
	for _, r := range results {
		assert.Equal(t, domain.SourceRemote, r.Options.Categories.Source)
	}
}

func TestConnectAndCompleteConnect(t *testing.T) {
	f := newFixture()
	var gotState, gotChallenge string
	f.client.authorizationURLFn = func(state, challenge string) string {
		gotState, gotChallenge = state, challenge
		return "https://www.etsy.com/oauth/connect?state=" + state
	}
	f.client.exchangeCodeFn = func(_ context.Context, code, verifier string) (*domain.TokenGrant, error) {
		assert.Equal(t, "the-code", code)
		sum := sha256.Sum256([]byte(verifier))
		assert.Equal(t, gotChallenge, base64.RawURLEncoding.EncodeToString(sum[:]))
		return &domain.TokenGrant{AccessToken: "12.abc", RefreshToken: "12.def", ExpiresAt: fixedNow.Add(time.Hour)}, nil
	}
	f.client.getUserShopFn = func(_ context.Context, token string) (*domain.ShopInfo, error) {
		return &domain.ShopInfo{ShopID: 34, ShopName: "PrintShop", IsValid: true}, nil
	}

	authURL, err := f.svc.Connect(context.Background(), "u1")
	require.NoError(t, err)
	assert.Contains(t, authURL, gotState)

	userID, status, err := f.svc.CompleteConnect(context.Background(), gotState, "the-code")
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.True(t, status.Connected)

	status, err = f.svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionStatus{
		Connected: true,
		Shop:      &domain.ShopInfo{ShopID: 34, ShopName: "PrintShop", IsValid: true},
	}, status)

	_, _, err = f.svc.CompleteConnect(context.Background(), gotState, "the-code")
	assert.ErrorIs(t, err, domain.ErrUnknownAuthState)
}

func TestDisconnect(t *testing.T) {
	f := newFixture()
	f.connect("u1", domain.Connection{AccessToken: "tok", ShopID: 34})

	require.NoError(t, f.svc.Disconnect(context.Background(), "u1"))

	status, err := f.svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionStatus{Connected: false}, status)
}

func TestStatusAndLoadAgreeOnConnectionWithoutShop(t *testing.T) {
	f := newFixture()
	f.connect("u1", domain.Connection{AccessToken: "tok", RefreshToken: "r"})
	f.serveRemote()

	status, err := f.svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionStatus{Connected: false}, status)

	options := f.svc.LoadListingOptions(context.Background(), "u1")
	assert.False(t, options.Connected)
	assert.Empty(t, options.Advisory)
	assert.Equal(t, domain.SourceFallback, options.Options.ShippingProfiles.Source)
}

func TestStatusExpiredWithoutRefreshIsInvalid(t *testing.T) {
	f := newFixture()
	f.connect("u1", domain.Connection{AccessToken: "tok", ShopID: 34, ShopName: "S", ExpiresAt: fixedNow})

	status, err := f.svc.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, status.Shop.IsValid)
}

func TestConfirmDefaultsQueuesAndSavesTemplate(t *testing.T) {
	f := newFixture()
	defaults := domain.NewListingDefaults()
	defaults.SaveAsTemplate = true
	defaults.TemplateName = "Prints"

	id, err := f.svc.ConfirmDefaults(context.Background(), "u1", []string{"p1", "p2"}, defaults)
	require.NoError(t, err)
	assert.Equal(t, "1-0", id)

	require.Len(t, f.templates.saved, 1)
	assert.Equal(t, "Prints", f.templates.saved[0].Name)

	require.Len(t, f.queue.tasks, 1)
	queued := f.queue.tasks[0].(*task.ApplyDefaultsTask)
	assert.Equal(t, 2, queued.ProductCount)
	assert.Equal(t, fixedNow, queued.RequestedAt)
	assert.Equal(t, defaults, queued.Defaults)
}

func TestConfirmDefaultsRejectsInvalidInput(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ConfirmDefaults(context.Background(), "u1", nil, domain.NewListingDefaults())
	assert.ErrorIs(t, err, ErrNoProducts)

	bad := domain.NewListingDefaults()
	bad.Quantity = 0
	_, err = f.svc.ConfirmDefaults(context.Background(), "u1", []string{"p1"}, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidDefaults)

	assert.Empty(t, f.queue.tasks)
	assert.Empty(t, f.templates.saved)
}

func TestConfirmDefaultsTemplateFailureStopsQueueing(t *testing.T) {
	f := newFixture()
	f.templates.err = errors.New("db down")
	defaults := domain.NewListingDefaults()
	defaults.SaveAsTemplate = true
	defaults.TemplateName = "Prints"

	_, err := f.svc.ConfirmDefaults(context.Background(), "u1", []string{"p1"}, defaults)

	assert.Error(t, err)
	assert.Empty(t, f.queue.tasks)
}
