package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/solspark/marketboard/internal/models"
)

const marketCols = `id, slug, question, description, category_id, creator_id,
	yes_price, no_price, volume, liquidity, participants, trades_count,
	resolution_status, end_date, created_at, updated_at`

// Sort orders for ListMarkets.
const (
	SortNewest       = "created_at"
	SortVolume       = "volume"
	SortParticipants = "participants"
)

// MarketFilter narrows and orders a market listing. Zero values mean "no
// constraint"; Limit <= 0 disables paging.
type MarketFilter struct {
	CategorySlug string
	Status       string // open | resolved | closed (resolved or cancelled)
	Search       string // substring match on question and description
	SortBy       string
	Limit        int
	Offset       int
}

// AddMarket inserts a new market row.
func (s *Storage) AddMarket(m *models.Market) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid market: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO markets
			(id, slug, question, description, category_id, creator_id,
			 yes_price, no_price, volume, liquidity, participants, trades_count,
			 resolution_status, end_date, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.Slug, m.Question, m.Description, nullStr(m.CategoryID), nullStr(m.CreatorID),
		m.YesPrice, m.NoPrice, m.Volume, m.Liquidity, m.Participants, m.TradesCount,
		m.ResolutionStatus, nullTime(m.EndDate), m.CreatedAt.UnixNano(), m.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert market: %w", err)
	}
	return nil
}

// GetMarket fetches a market by ID.
func (s *Storage) GetMarket(id string) (*models.Market, error) {
	row := s.db.QueryRow(`SELECT `+marketCols+` FROM markets WHERE id = ?`, id)
	m, err := scanMarket(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("market not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return m, nil
}

// GetMarketBySlug fetches a market by its URL slug.
func (s *Storage) GetMarketBySlug(slug string) (*models.Market, error) {
	row := s.db.QueryRow(`SELECT `+marketCols+` FROM markets WHERE slug = ?`, slug)
	m, err := scanMarket(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("market not found: %s", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market by slug: %w", err)
	}
	return m, nil
}

// SlugExists reports whether a market already uses slug.
func (s *Storage) SlugExists(slug string) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM markets WHERE slug = ?`, slug).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

// UpdateMarket persists price, stat, and resolution changes.
func (s *Storage) UpdateMarket(m *models.Market) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid market: %w", err)
	}
	res, err := s.db.Exec(`
		UPDATE markets SET
			question=?, description=?, category_id=?, yes_price=?, no_price=?,
			volume=?, liquidity=?, participants=?, trades_count=?,
			resolution_status=?, end_date=?, updated_at=?
		WHERE id=?`,
		m.Question, m.Description, nullStr(m.CategoryID), m.YesPrice, m.NoPrice,
		m.Volume, m.Liquidity, m.Participants, m.TradesCount,
		m.ResolutionStatus, nullTime(m.EndDate), time.Now().UnixNano(),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update market: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("market not found: %s", m.ID)
	}
	return nil
}

// ListMarkets returns markets matching the filter.
func (s *Storage) ListMarkets(filter MarketFilter) ([]*models.Market, error) {
	where, args := marketWhere(filter)

	order := `created_at DESC`
	switch filter.SortBy {
	case SortVolume:
		order = `volume DESC`
	case SortParticipants:
		order = `participants DESC`
	}

	query := `SELECT ` + marketCols + ` FROM markets` + where + ` ORDER BY ` + order + `, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query markets: %w", err)
	}
	defer rows.Close()

	markets := []*models.Market{}
	for rows.Next() {
		m, err := scanMarket(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// CountMarkets returns how many markets match the filter, ignoring paging.
func (s *Storage) CountMarkets(filter MarketFilter) (int, error) {
	where, args := marketWhere(filter)
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM markets`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count markets: %w", err)
	}
	return n, nil
}

func marketWhere(filter MarketFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.CategorySlug != "" && filter.CategorySlug != "all" {
		clauses = append(clauses, `category_id IN (SELECT id FROM categories WHERE slug = ?)`)
		args = append(args, filter.CategorySlug)
	}
	switch filter.Status {
	case "open":
		clauses = append(clauses, `resolution_status = ?`)
		args = append(args, models.StatusOpen)
	case "resolved":
		clauses = append(clauses, `resolution_status = ?`)
		args = append(args, models.StatusResolved)
	case "closed":
		clauses = append(clauses, `resolution_status IN (?, ?)`)
		args = append(args, models.StatusResolved, models.StatusCancelled)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		clauses = append(clauses, `(question LIKE ? OR description LIKE ?)`)
		args = append(args, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(clauses, ` AND `), args
}

// AddCategory inserts a category row.
func (s *Storage) AddCategory(c *models.Category) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid category: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO categories (id, name, slug, description) VALUES (?,?,?,?)`,
		c.ID, c.Name, c.Slug, c.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// ListCategories returns all categories ordered by name, with live market
// counts computed at read time.
func (s *Storage) ListCategories() ([]*models.Category, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, COALESCE(c.description, ''),
		       (SELECT COUNT(*) FROM markets m WHERE m.category_id = c.id)
		FROM categories c ORDER BY c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.MarketCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

func scanMarket(scan func(...any) error) (*models.Market, error) {
	var m models.Market
	var description, categoryID, creatorID sql.NullString
	var endDate sql.NullInt64
	var createdAtNano, updatedAtNano int64
	err := scan(
		&m.ID, &m.Slug, &m.Question, &description, &categoryID, &creatorID,
		&m.YesPrice, &m.NoPrice, &m.Volume, &m.Liquidity, &m.Participants, &m.TradesCount,
		&m.ResolutionStatus, &endDate, &createdAtNano, &updatedAtNano,
	)
	if err != nil {
		return nil, err
	}
	m.Description = description.String
	m.CategoryID = categoryID.String
	m.CreatorID = creatorID.String
	if endDate.Valid {
		t := time.Unix(0, endDate.Int64)
		m.EndDate = &t
	}
	m.CreatedAt = time.Unix(0, createdAtNano)
	m.UpdatedAt = time.Unix(0, updatedAtNano)
	return &m, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
