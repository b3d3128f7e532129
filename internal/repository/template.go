package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"etsy/lister/internal/domain"
)

type TemplateRepository interface {
	SaveTemplate(ctx context.Context, userID string, template domain.Template) error
	ListTemplates(ctx context.Context, userID string) ([]domain.Template, error)
}

type templateRepository struct {
	db *pgxpool.Pool
}

func NewTemplateRepository(db *pgxpool.Pool) TemplateRepository {
	return &templateRepository{
		db: db,
	}
}

func (r *templateRepository) SaveTemplate(ctx context.Context, userID string, template domain.Template) error {
	query := `
	INSERT INTO listing_templates (user_id, name, data, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, name)
	DO UPDATE SET data = $3, created_at = $4`

	_, err := r.db.Exec(ctx, query, userID, template.Name, template.Defaults, template.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save template %q: %w", template.Name, err)
	}

	return nil
}

func (r *templateRepository) ListTemplates(ctx context.Context, userID string) ([]domain.Template, error) {
	query := `
	SELECT name, data, created_at
	FROM listing_templates
	WHERE user_id = $1
	ORDER BY created_at DESC, name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	templates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Template, error) {
		var t domain.Template
		err := row.Scan(&t.Name, &t.Defaults, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan templates: %w", err)
	}

	return templates, nil
}
