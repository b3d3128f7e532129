package service

import (
	"context"
	"errors"
	"sync"

	"etsy/lister/internal/domain"
	"etsy/lister/internal/domain/task"
)

var errUnexpected = errors.New("unexpected call")

type memoryConnectionStore struct {
	mu          sync.Mutex
	connections map[string]*domain.Connection
	pending     map[string]domain.PendingAuth
	getErr      error
}

func newMemoryConnectionStore() *memoryConnectionStore {
	return &memoryConnectionStore{
		connections: map[string]*domain.Connection{},
		pending:     map[string]domain.PendingAuth{},
	}
}

func (s *memoryConnectionStore) GetConnection(_ context.Context, userID string) (*domain.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	conn, ok := s.connections[userID]
	if !ok {
		return nil, nil
	}
	c := *conn
	return &c, nil
}

func (s *memoryConnectionStore) SaveConnection(_ context.Context, userID string, conn *domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *conn
	s.connections[userID] = &c
	return nil
}

func (s *memoryConnectionStore) DeleteConnection(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, userID)
	return nil
}

func (s *memoryConnectionStore) SavePendingAuth(_ context.Context, state string, pending domain.PendingAuth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[state] = pending
	return nil
}

func (s *memoryConnectionStore) TakePendingAuth(_ context.Context, state string) (*domain.PendingAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.pending[state]
	if !ok {
		return nil, domain.ErrUnknownAuthState
	}
	delete(s.pending, state)
	return &pending, nil
}

type fakeEtsyClient struct {
	authorizationURLFn    func(state, challenge string) string
	exchangeCodeFn        func(ctx context.Context, code, verifier string) (*domain.TokenGrant, error)
	refreshTokenFn        func(ctx context.Context, refresh string) (*domain.TokenGrant, error)
	getUserShopFn         func(ctx context.Context, token string) (*domain.ShopInfo, error)
	getShippingProfilesFn func(ctx context.Context, token string, shopID int64) ([]domain.ShippingProfile, error)
	getReturnPoliciesFn   func(ctx context.Context, token string, shopID int64) ([]domain.ReturnPolicy, error)
	getSellerTaxonomyFn   func(ctx context.Context) ([]domain.CategoryNode, error)
}

func (f *fakeEtsyClient) AuthorizationURL(state, challenge string) string {
	if f.authorizationURLFn == nil {
		return ""
	}
	return f.authorizationURLFn(state, challenge)
}

func (f *fakeEtsyClient) ExchangeCode(ctx context.Context, code, verifier string) (*domain.TokenGrant, error) {
	if f.exchangeCodeFn == nil {
		return nil, errUnexpected
	}
	return f.exchangeCodeFn(ctx, code, verifier)
}

func (f *fakeEtsyClient) RefreshToken(ctx context.Context, refresh string) (*domain.TokenGrant, error) {
	if f.refreshTokenFn == nil {
		return nil, errUnexpected
	}
	return f.refreshTokenFn(ctx, refresh)
}

func (f *fakeEtsyClient) GetUserShop(ctx context.Context, token string) (*domain.ShopInfo, error) {
	if f.getUserShopFn == nil {
		return nil, errUnexpected
	}
	return f.getUserShopFn(ctx, token)
}

func (f *fakeEtsyClient) GetShippingProfiles(ctx context.Context, token string, shopID int64) ([]domain.ShippingProfile, error) {
	if f.getShippingProfilesFn == nil {
		return nil, errUnexpected
	}
	return f.getShippingProfilesFn(ctx, token, shopID)
}

func (f *fakeEtsyClient) GetReturnPolicies(ctx context.Context, token string, shopID int64) ([]domain.ReturnPolicy, error) {
	if f.getReturnPoliciesFn == nil {
		return nil, errUnexpected
	}
	return f.getReturnPoliciesFn(ctx, token, shopID)
}

func (f *fakeEtsyClient) GetSellerTaxonomy(ctx context.Context) ([]domain.CategoryNode, error) {
	if f.getSellerTaxonomyFn == nil {
		return nil, errUnexpected
	}
	return f.getSellerTaxonomyFn(ctx)
}

type fakeTemplateRepo struct {
	saved []domain.Template
	err   error
}

func (f *fakeTemplateRepo) SaveTemplate(_ context.Context, _ string, template domain.Template) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, template)
	return nil
}

func (f *fakeTemplateRepo) ListTemplates(context.Context, string) ([]domain.Template, error) {
	return f.saved, f.err
}

type fakeQueue struct {
	tasks []task.Task
	err   error
}

func (f *fakeQueue) AddTask(_ context.Context, t task.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, t)
	return "1-0", nil
}
