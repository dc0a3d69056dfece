package models

import (
	"errors"
	"fmt"
	"time"
)

// PriceSnapshot is one recorded observation of a market's prices, produced by
// the recorder at irregular intervals and immutable once written. Prices may
// transiently fall outside [0,1] due to upstream rounding; the chart layer
// clamps rather than rejects, so Validate does not range-check them.
type PriceSnapshot struct {
	ID        string    `json:"id"`
	MarketID  string    `json:"market_id"`
	YesPrice  float64   `json:"yes_price"`
	NoPrice   float64   `json:"no_price"`
	Volume24h float64   `json:"volume_24h"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks snapshot field constraints.
func (s *PriceSnapshot) Validate() error {
	if s.ID == "" {
		return errors.New("snapshot ID must not be empty")
	}
	if s.MarketID == "" {
		return errors.New("snapshot market ID must not be empty")
	}
	if s.Timestamp.IsZero() {
		return errors.New("snapshot timestamp must not be zero")
	}
	return nil
}

// TimeWindow is a relative lower-bound filter on snapshot timestamps.
type TimeWindow string

const (
	Window24h TimeWindow = "24h"
	Window7d  TimeWindow = "7d"
	Window30d TimeWindow = "30d"
	WindowAll TimeWindow = "all"
)

// ParseWindow validates a window string from the API. Empty defaults to all.
func ParseWindow(s string) (TimeWindow, error) {
	switch TimeWindow(s) {
	case Window24h, Window7d, Window30d, WindowAll:
		return TimeWindow(s), nil
	case "":
		return WindowAll, nil
	default:
		return "", fmt.Errorf("invalid time window %q", s)
	}
}

// Duration returns the window length. ok is false for WindowAll, which has
// no lower bound.
func (w TimeWindow) Duration() (d time.Duration, ok bool) {
	switch w {
	case Window24h:
		return 24 * time.Hour, true
	case Window7d:
		return 7 * 24 * time.Hour, true
	case Window30d:
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
