package task

import (
	"time"

	"etsy/lister/internal/domain"
)

const ApplyDefaultsTaskType = "ApplyDefaultsTask"

// ApplyDefaultsTask asks the upload workers to apply a confirmed settings record to a batch of products
type ApplyDefaultsTask struct {
	UserID       string                 `json:"user_id"`
	ProductIDs   []string               `json:"product_ids"`
	ProductCount int                    `json:"product_count"`
	Defaults     domain.ListingDefaults `json:"defaults"`
	RequestedAt  time.Time              `json:"requested_at"`
}

func (t *ApplyDefaultsTask) TaskType() string {
	return ApplyDefaultsTaskType
}

func (t *ApplyDefaultsTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
