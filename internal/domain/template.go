package domain

import "time"

// Template is a named ListingDefaults record saved for reuse
type Template struct {
	Name      string          `json:"name"`
	Defaults  ListingDefaults `json:"defaults"`
	CreatedAt time.Time       `json:"created_at"`
}
