// Package models defines the core domain entities: markets, users, comments,
// price snapshots, and leaderboard entries.
package models

import (
	"errors"
	"time"
)

// Resolution states a market can be in.
const (
	StatusOpen      = "open"
	StatusResolved  = "resolved"
	StatusCancelled = "cancelled"
)

// Market represents a single yes/no prediction market. Prices are
// probabilities in [0,1]; yes and no are tracked independently and are not
// required to sum to one.
type Market struct {
	ID               string     `json:"id"`
	Slug             string     `json:"slug"`
	Question         string     `json:"question"`
	Description      string     `json:"description,omitempty"`
	CategoryID       string     `json:"category_id,omitempty"`
	CreatorID        string     `json:"creator_id,omitempty"`
	YesPrice         float64    `json:"yes_price"`
	NoPrice          float64    `json:"no_price"`
	Volume           float64    `json:"volume"`
	Liquidity        float64    `json:"liquidity"`
	Participants     int        `json:"participants"`
	TradesCount      int        `json:"trades_count"`
	ResolutionStatus string     `json:"resolution_status"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Validate checks market field constraints.
func (m *Market) Validate() error {
	if m.ID == "" {
		return errors.New("market ID must not be empty")
	}
	if m.Slug == "" {
		return errors.New("market slug must not be empty")
	}
	if m.Question == "" {
		return errors.New("market question must not be empty")
	}
	if m.YesPrice < 0.0 || m.YesPrice > 1.0 {
		return errors.New("yes price must be between 0.0 and 1.0")
	}
	if m.NoPrice < 0.0 || m.NoPrice > 1.0 {
		return errors.New("no price must be between 0.0 and 1.0")
	}
	if m.Volume < 0 {
		return errors.New("volume must not be negative")
	}
	if m.Liquidity < 0 {
		return errors.New("liquidity must not be negative")
	}
	if m.Participants < 0 {
		return errors.New("participants must not be negative")
	}
	switch m.ResolutionStatus {
	case StatusOpen, StatusResolved, StatusCancelled:
	default:
		return errors.New("resolution status must be open, resolved, or cancelled")
	}
	if m.UpdatedAt.Before(m.CreatedAt) {
		return errors.New("updated at must be >= created at")
	}
	return nil
}

// Category groups markets for browsing.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	MarketCount int    `json:"market_count"`
}

// Validate checks category field constraints.
func (c *Category) Validate() error {
	if c.ID == "" {
		return errors.New("category ID must not be empty")
	}
	if c.Name == "" {
		return errors.New("category name must not be empty")
	}
	if c.Slug == "" {
		return errors.New("category slug must not be empty")
	}
	return nil
}
