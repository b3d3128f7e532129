package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"etsy/lister/internal/domain"
)

type SettingsRepository interface {
	GetSettings(ctx context.Context, userID string) (domain.UserSettings, error)
	SaveSettings(ctx context.Context, userID string, patch domain.SettingsPatch) (domain.UserSettings, error)
}

type settingsRepository struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{
		db: db,
	}
}

// GetSettings returns the built-in defaults for users that never saved settings
func (r *settingsRepository) GetSettings(ctx context.Context, userID string) (domain.UserSettings, error) {
	query := `
	SELECT default_price, default_quantity, auto_renew
	FROM user_settings
	WHERE user_id = $1`

	var s domain.UserSettings
	err := r.db.QueryRow(ctx, query, userID).Scan(&s.DefaultPrice, &s.DefaultQuantity, &s.AutoRenew)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewUserSettings(), nil
		}
		return domain.UserSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	return s, nil
}

// SaveSettings only changes the keys present in patch; a first save starts from the defaults
func (r *settingsRepository) SaveSettings(ctx context.Context, userID string, patch domain.SettingsPatch) (domain.UserSettings, error) {
	query := `
	INSERT INTO user_settings (user_id, default_price, default_quantity, auto_renew)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id)
	DO UPDATE SET
		default_price    = COALESCE($5::double precision, user_settings.default_price),
		default_quantity = COALESCE($6::integer, user_settings.default_quantity),
		auto_renew       = COALESCE($7::boolean, user_settings.auto_renew),
		updated_at       = now()
	RETURNING default_price, default_quantity, auto_renew`

	initial := domain.NewUserSettings().Apply(patch)

	var s domain.UserSettings
	err := r.db.QueryRow(ctx, query,
		userID, initial.DefaultPrice, initial.DefaultQuantity, initial.AutoRenew,
		patch.DefaultPrice, patch.DefaultQuantity, patch.AutoRenew,
	).Scan(&s.DefaultPrice, &s.DefaultQuantity, &s.AutoRenew)
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	return s, nil
}
