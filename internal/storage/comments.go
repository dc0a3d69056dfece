package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/solspark/marketboard/internal/models"
)

// AddComment inserts a comment or reply.
func (s *Storage) AddComment(c *models.Comment) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid comment: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO comments (id, market_id, user_id, parent_id, content, is_deleted, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		c.ID, c.MarketID, c.UserID, nullStr(c.ParentID), c.Content,
		boolToInt(c.IsDeleted), c.CreatedAt.UnixNano(), c.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// GetMarketComments returns a market's comment tree: top-level comments
// newest first, replies nested oldest first, authors joined, like counts
// computed at read time.
func (s *Storage) GetMarketComments(marketID string) ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.market_id, c.user_id, COALESCE(c.parent_id, ''), c.content,
		       c.is_deleted, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM comment_likes l WHERE l.comment_id = c.id),
		       u.id, u.wallet_address, COALESCE(u.username, ''), COALESCE(u.avatar_url, '')
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.market_id = ? AND c.is_deleted = 0
		ORDER BY c.created_at ASC`, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var flat []models.Comment
	for rows.Next() {
		var c models.Comment
		var author models.User
		var isDeleted int
		var createdAtNano, updatedAtNano int64
		if err := rows.Scan(&c.ID, &c.MarketID, &c.UserID, &c.ParentID, &c.Content,
			&isDeleted, &createdAtNano, &updatedAtNano, &c.LikesCount,
			&author.ID, &author.WalletAddress, &author.Username, &author.AvatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.IsDeleted = isDeleted != 0
		c.CreatedAt = time.Unix(0, createdAtNano)
		c.UpdatedAt = time.Unix(0, updatedAtNano)
		c.Author = &author
		flat = append(flat, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nestComments(flat), nil
}

// nestComments attaches replies to their parents and returns top-level
// comments newest first. Replies stay in ascending creation order.
func nestComments(flat []models.Comment) []models.Comment {
	byID := make(map[string]int, len(flat))
	for i := range flat {
		byID[flat[i].ID] = i
	}

	var roots []int
	for i := range flat {
		if flat[i].ParentID == "" {
			roots = append(roots, i)
			continue
		}
		if pi, ok := byID[flat[i].ParentID]; ok {
			flat[pi].Replies = append(flat[pi].Replies, flat[i])
		} else {
			// Orphaned reply (parent deleted); surface it at top level.
			roots = append(roots, i)
		}
	}

	out := make([]models.Comment, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		out = append(out, flat[roots[i]])
	}
	return out
}

// ToggleCommentLike likes the comment for userID, or removes the like if one
// exists. Returns the new like count.
func (s *Storage) ToggleCommentLike(commentID, userID string) (int, error) {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM comment_likes WHERE comment_id = ? AND user_id = ?`,
		commentID, userID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check like: %w", err)
	}

	if exists > 0 {
		_, err = s.db.Exec(`DELETE FROM comment_likes WHERE comment_id = ? AND user_id = ?`,
			commentID, userID)
	} else {
		var commentExists int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE id = ?`, commentID).Scan(&commentExists); err != nil {
			return 0, fmt.Errorf("failed to check comment: %w", err)
		}
		if commentExists == 0 {
			return 0, sql.ErrNoRows
		}
		_, err = s.db.Exec(`INSERT INTO comment_likes (comment_id, user_id, created_at) VALUES (?,?,?)`,
			commentID, userID, time.Now().UnixNano())
	}
	if err != nil {
		return 0, fmt.Errorf("failed to toggle like: %w", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM comment_likes WHERE comment_id = ?`, commentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// DeleteComment soft-deletes a comment, keeping replies attached.
func (s *Storage) DeleteComment(commentID, userID string) error {
	res, err := s.db.Exec(`
		UPDATE comments SET is_deleted = 1, updated_at = ? WHERE id = ? AND user_id = ?`,
		time.Now().UnixNano(), commentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
