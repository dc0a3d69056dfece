package models

import (
	"errors"
	"time"
)

// User represents a wallet-identified account. WalletAddress is the natural
// key; Username is optional and defaults to a shortened address at signup.
type User struct {
	ID              string    `json:"id"`
	WalletAddress   string    `json:"wallet_address"`
	Username        string    `json:"username,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	TotalVolume     float64   `json:"total_volume"`
	TotalProfit     float64   `json:"total_profit"`
	WinRate         float64   `json:"win_rate"`
	ReputationScore float64   `json:"reputation_score"`
	TotalTrades     int       `json:"total_trades"`
	IsAdmin         bool      `json:"is_admin"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Validate checks user field constraints.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user ID must not be empty")
	}
	if u.WalletAddress == "" {
		return errors.New("wallet address must not be empty")
	}
	if u.WinRate < 0.0 || u.WinRate > 100.0 {
		return errors.New("win rate must be between 0 and 100")
	}
	if u.TotalTrades < 0 {
		return errors.New("total trades must not be negative")
	}
	if u.TotalVolume < 0 {
		return errors.New("total volume must not be negative")
	}
	return nil
}

// ShortAddress renders a wallet address as "abcd...wxyz" for display,
// matching the default username assigned at first login.
func ShortAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}

// LeaderboardEntry is a ranked, display-ready view of a user's stats.
// TotalScore is derived at read time and never persisted.
type LeaderboardEntry struct {
	ID            string  `json:"id"`
	Rank          int     `json:"rank"`
	DisplayName   string  `json:"display_name"`
	WalletAddress string  `json:"wallet_address"`
	TotalProfit   float64 `json:"total_profit"`
	ReferralScore float64 `json:"referral_score"`
	TradeCount    int     `json:"trade_count"`
	WinRate       float64 `json:"win_rate"`
	TotalScore    float64 `json:"total_score"`
}
