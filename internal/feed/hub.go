// Package feed fans live price updates out to chart subscribers. The hub is
// plain observer plumbing: series building stays a pure function invoked by
// each subscriber, never entangled with the subscription mechanism.
package feed

import (
	"sync"
	"time"
)

// PriceUpdate is one live price observation pushed to subscribers.
type PriceUpdate struct {
	MarketID  string    `json:"market_id"`
	YesPrice  float64   `json:"yes_price"`
	NoPrice   float64   `json:"no_price"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub routes updates to per-market subscribers. Safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(PriceUpdate)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func(PriceUpdate))}
}

// Subscribe registers fn for a market's updates and returns the matching
// unsubscribe. fn runs on the publisher's goroutine: keep it cheap, hand off
// to a channel for slow work.
func (h *Hub) Subscribe(marketID string, fn func(PriceUpdate)) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[marketID] == nil {
		h.subs[marketID] = make(map[int]func(PriceUpdate))
	}
	h.subs[marketID][id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		if subs, ok := h.subs[marketID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.subs, marketID)
			}
		}
		h.mu.Unlock()
	}
}

// Publish delivers an update to every subscriber of its market.
func (h *Hub) Publish(u PriceUpdate) {
	h.mu.RLock()
	fns := make([]func(PriceUpdate), 0, len(h.subs[u.MarketID]))
	for _, fn := range h.subs[u.MarketID] {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(u)
	}
}

// Subscribers reports how many callbacks a market currently has.
func (h *Hub) Subscribers(marketID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[marketID])
}
