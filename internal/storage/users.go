package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solspark/marketboard/internal/models"
)

const userCols = `id, wallet_address, username, avatar_url, bio, total_volume,
	total_profit, win_rate, reputation_score, total_trades, is_admin, created_at, updated_at`

// UpsertUserByWallet returns the user owning walletAddress, creating a fresh
// account with zeroed stats and a shortened-address username on first login.
func (s *Storage) UpsertUserByWallet(walletAddress string) (*models.User, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("wallet address must not be empty")
	}

	existing, err := s.GetUserByWallet(walletAddress)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now()
	u := &models.User{
		ID:            uuid.New().String(),
		WalletAddress: walletAddress,
		Username:      models.ShortAddress(walletAddress),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	// ON CONFLICT covers the race where two logins for the same wallet
	// arrive between the lookup above and this insert.
	_, err = s.db.Exec(`
		INSERT INTO users
			(id, wallet_address, username, avatar_url, bio, total_volume,
			 total_profit, win_rate, reputation_score, total_trades, is_admin,
			 created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(wallet_address) DO UPDATE SET updated_at = excluded.updated_at`,
		u.ID, u.WalletAddress, u.Username, u.AvatarURL, u.Bio, u.TotalVolume,
		u.TotalProfit, u.WinRate, u.ReputationScore, u.TotalTrades, boolToInt(u.IsAdmin),
		u.CreatedAt.UnixNano(), u.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	created, err := s.GetUserByWallet(walletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user after upsert: %w", err)
	}
	return created, nil
}

// GetUser fetches a user by ID.
func (s *Storage) GetUser(id string) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByWallet fetches a user by wallet address. Returns sql.ErrNoRows
// unwrapped so callers can distinguish "not registered" from failure.
func (s *Storage) GetUserByWallet(walletAddress string) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE wallet_address = ?`, walletAddress)
	return scanUser(row.Scan)
}

// UpdateUser persists profile and stat changes.
func (s *Storage) UpdateUser(u *models.User) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	res, err := s.db.Exec(`
		UPDATE users SET
			username=?, avatar_url=?, bio=?, total_volume=?, total_profit=?,
			win_rate=?, reputation_score=?, total_trades=?, is_admin=?, updated_at=?
		WHERE id=?`,
		u.Username, u.AvatarURL, u.Bio, u.TotalVolume, u.TotalProfit,
		u.WinRate, u.ReputationScore, u.TotalTrades, boolToInt(u.IsAdmin),
		time.Now().UnixNano(), u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user not found: %s", u.ID)
	}
	return nil
}

// LeaderboardPage returns one page of users ordered by total profit
// descending, ties broken by ID ascending so pages are stable across calls.
func (s *Storage) LeaderboardPage(limit, offset int) ([]*models.User, error) {
	rows, err := s.db.Query(`
		SELECT `+userCols+` FROM users
		ORDER BY total_profit DESC, id ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the size of the full leaderboard collection.
func (s *Storage) CountUsers() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func scanUser(scan func(...any) error) (*models.User, error) {
	var u models.User
	var username, avatarURL, bio sql.NullString
	var isAdmin int
	var createdAtNano, updatedAtNano int64
	err := scan(
		&u.ID, &u.WalletAddress, &username, &avatarURL, &bio, &u.TotalVolume,
		&u.TotalProfit, &u.WinRate, &u.ReputationScore, &u.TotalTrades, &isAdmin,
		&createdAtNano, &updatedAtNano,
	)
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	u.AvatarURL = avatarURL.String
	u.Bio = bio.String
	u.IsAdmin = isAdmin != 0
	u.CreatedAt = time.Unix(0, createdAtNano)
	u.UpdatedAt = time.Unix(0, updatedAtNano)
	return &u, nil
}
