// Package leaderboard ranks user statistics into display-ready pages.
package leaderboard

import (
	"fmt"

	"github.com/solspark/marketboard/internal/models"
)

// DefaultPageSize matches the leaderboard page the UI renders.
const DefaultPageSize = 50

// Store supplies the backing collection, pre-sorted by total profit
// descending with ties broken by user ID ascending.
type Store interface {
	LeaderboardPage(limit, offset int) ([]*models.User, error)
	CountUsers() (int, error)
}

// PageResult is one leaderboard page plus the size of the full collection.
type PageResult struct {
	Entries []models.LeaderboardEntry `json:"entries"`
	Total   int                       `json:"total"`
}

// Ranker paginates the leaderboard and derives display scores.
type Ranker struct {
	store Store
}

// New creates a Ranker over store.
func New(store Store) *Ranker {
	return &Ranker{store: store}
}

// Page returns the 1-based page of the given size. Ranks are dense and
// continuous across pages: page 1 carries ranks 1..pageSize, page 2 picks up
// where it left off. A page beyond the collection yields empty entries with
// Total intact, since page controls may transiently request one during
// pagination races. Degenerate page/pageSize are clamped, not rejected.
func (r *Ranker) Page(page, pageSize int) (*PageResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total, err := r.store.CountUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to count leaderboard: %w", err)
	}

	offset := (page - 1) * pageSize
	if offset >= total {
		return &PageResult{Entries: []models.LeaderboardEntry{}, Total: total}, nil
	}

	users, err := r.store.LeaderboardPage(pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard page: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, makeEntry(u, offset+i+1))
	}
	return &PageResult{Entries: entries, Total: total}, nil
}

// makeEntry derives the display scores from stored stats. TotalScore is
// computed on every fetch, never cached; pages are small enough that this
// costs nothing.
func makeEntry(u *models.User, rank int) models.LeaderboardEntry {
	multiplier := 1.0
	if u.WinRate > 0 {
		multiplier = u.WinRate / 100
	}

	displayName := u.Username
	if displayName == "" {
		displayName = models.ShortAddress(u.WalletAddress)
	}

	return models.LeaderboardEntry{
		ID:            u.ID,
		Rank:          rank,
		DisplayName:   displayName,
		WalletAddress: u.WalletAddress,
		TotalProfit:   u.TotalProfit,
		ReferralScore: u.ReputationScore,
		TradeCount:    u.TotalTrades,
		WinRate:       u.WinRate,
		TotalScore:    u.TotalProfit + u.ReputationScore + float64(u.TotalTrades)*multiplier,
	}
}
