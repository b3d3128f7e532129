package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"etsy/lister/internal/client"
	"etsy/lister/internal/domain"
	"etsy/lister/internal/domain/task"
	"etsy/lister/internal/queue"
	"etsy/lister/internal/repository"
	"etsy/lister/internal/resolver"
	"etsy/lister/internal/state"
)

var ErrNoProducts = errors.New("no products to process")

// ListingOptions is what the pre-upload form needs: selectable lists, defaults and the seeded record
type ListingOptions struct {
	resolver.Result
	Defaults domain.ListingDefaults `json:"defaults"`
}

type Service struct {
	settings    repository.SettingsRepository
	templates   repository.TemplateRepository
	connections state.ConnectionStore
	client      client.EtsyClient
	queue       queue.Queue
	loader      *resolver.Loader
	now         func() time.Time

	loads singleflight.Group
}

func NewService(
	settings repository.SettingsRepository,
	templates repository.TemplateRepository,
	connections state.ConnectionStore,
	client client.EtsyClient,
	queue queue.Queue,
	loader *resolver.Loader,
) *Service {
	return &Service{
		settings:    settings,
		templates:   templates,
		connections: connections,
		client:      client,
		queue:       queue,
		loader:      loader,
		now:         time.Now,
	}
}

func (s *Service) Status(ctx context.Context, userID string) (domain.ConnectionStatus, error) {
	conn, err := s.connections.GetConnection(ctx, userID)
	if err != nil {
		return domain.ConnectionStatus{}, err
	}
	if !conn.HasShop() {
		return domain.ConnectionStatus{Connected: false}, nil
	}

	return domain.ConnectionStatus{
		Connected: true,
		Shop: &domain.ShopInfo{
			ShopID:   conn.ShopID,
			ShopName: conn.ShopName,
			IsValid:  !conn.Expired(s.now()) || conn.RefreshToken != "",
		},
	}, nil
}

// Connect starts the OAuth handshake and returns the consent URL the user must visit
func (s *Service) Connect(ctx context.Context, userID string) (string, error) {
	stateValue, err := randomToken()
	if err != nil {
		return "", err
	}
	verifier, err := randomToken()
	if err != nil {
		return "", err
	}

	err = s.connections.SavePendingAuth(ctx, stateValue, domain.PendingAuth{
		UserID:       userID,
		CodeVerifier: verifier,
	})
	if err != nil {
		return "", err
	}

	log.Infof("🔗 Starting Etsy connection for user %s", userID)
	return s.client.AuthorizationURL(stateValue, codeChallenge(verifier)), nil
}

// CompleteConnect finishes the handshake started by Connect
func (s *Service) CompleteConnect(ctx context.Context, stateValue, code string) (string, domain.ConnectionStatus, error) {
	pending, err := s.connections.TakePendingAuth(ctx, stateValue)
	if err != nil {
		return "", domain.ConnectionStatus{}, err
	}

	grant, err := s.client.ExchangeCode(ctx, code, pending.CodeVerifier)
	if err != nil {
		return "", domain.ConnectionStatus{}, err
	}

	shop, err := s.client.GetUserShop(ctx, grant.AccessToken)
	if err != nil {
		return "", domain.ConnectionStatus{}, err
	}

	conn := &domain.Connection{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    grant.ExpiresAt,
		ShopID:       shop.ShopID,
		ShopName:     shop.ShopName,
		ConnectedAt:  s.now(),
	}
	if err := s.connections.SaveConnection(ctx, pending.UserID, conn); err != nil {
		return "", domain.ConnectionStatus{}, err
	}

	log.Infof("✅ User %s connected Etsy shop %s (%d)", pending.UserID, shop.ShopName, shop.ShopID)
	return pending.UserID, domain.ConnectionStatus{Connected: true, Shop: shop}, nil
}

func (s *Service) Disconnect(ctx context.Context, userID string) error {
	if err := s.connections.DeleteConnection(ctx, userID); err != nil {
		return err
	}

	log.Infof("🔌 User %s disconnected Etsy", userID)
	return nil
}

// LoadListingOptions runs one load cycle for the user. Concurrent calls for the same user
// share a single cycle and its result.
func (s *Service) LoadListingOptions(ctx context.Context, userID string) ListingOptions {
	v, _, shared := s.loads.Do(userID, func() (any, error) {
		src := &userSources{
			userID:      userID,
			connections: s.connections,
			client:      s.client,
			now:         s.now,
		}

		// Callers joining this cycle must not lose it when the first caller goes away
		result := s.loader.Load(context.WithoutCancel(ctx), src)

		return ListingOptions{
			Result:   result,
			Defaults: result.Options.Seed(domain.NewListingDefaults()),
		}, nil
	})

	if shared {
		log.Debugf("Listing options load for user %s shared with a concurrent request", userID)
	}

	return v.(ListingOptions)
}

// ConfirmDefaults queues the record for the upload workers, saving it as a template when asked to
func (s *Service) ConfirmDefaults(ctx context.Context, userID string, productIDs []string, defaults domain.ListingDefaults) (string, error) {
	if len(productIDs) == 0 {
		return "", ErrNoProducts
	}
	if err := defaults.Validate(); err != nil {
		return "", err
	}

	if defaults.SaveAsTemplate {
		err := s.templates.SaveTemplate(ctx, userID, domain.Template{
			Name:      defaults.TemplateName,
			Defaults:  defaults,
			CreatedAt: s.now(),
		})
		if err != nil {
			return "", err
		}
		log.Infof("💾 Saved template %q for user %s", defaults.TemplateName, userID)
	}

	messageID, err := s.queue.AddTask(ctx, &task.ApplyDefaultsTask{
		UserID:       userID,
		ProductIDs:   productIDs,
		ProductCount: len(productIDs),
		Defaults:     defaults,
		RequestedAt:  s.now(),
	})
	if err != nil {
		return "", err
	}

	log.Infof("📦 Queued defaults for %d products of user %s", len(productIDs), userID)
	return messageID, nil
}

func (s *Service) GetSettings(ctx context.Context, userID string) (domain.UserSettings, error) {
	return s.settings.GetSettings(ctx, userID)
}

func (s *Service) SaveSettings(ctx context.Context, userID string, patch domain.SettingsPatch) (domain.UserSettings, error) {
	return s.settings.SaveSettings(ctx, userID, patch)
}

func (s *Service) ListTemplates(ctx context.Context, userID string) ([]domain.Template, error) {
	return s.templates.ListTemplates(ctx, userID)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func codeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
