package models

import (
	"errors"
	"time"
)

const maxCommentLength = 4000

// Comment is a user comment on a market. Replies reference their parent
// through ParentID; top-level comments leave it empty.
type Comment struct {
	ID         string    `json:"id"`
	MarketID   string    `json:"market_id"`
	UserID     string    `json:"user_id"`
	ParentID   string    `json:"parent_id,omitempty"`
	Content    string    `json:"content"`
	LikesCount int       `json:"likes_count"`
	IsDeleted  bool      `json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Joined at read time, not persisted on the comment row.
	Author  *User     `json:"author,omitempty"`
	Replies []Comment `json:"replies,omitempty"`
}

// Validate checks comment field constraints.
func (c *Comment) Validate() error {
	if c.ID == "" {
		return errors.New("comment ID must not be empty")
	}
	if c.MarketID == "" {
		return errors.New("comment market ID must not be empty")
	}
	if c.UserID == "" {
		return errors.New("comment user ID must not be empty")
	}
	if c.Content == "" {
		return errors.New("comment content must not be empty")
	}
	if len(c.Content) > maxCommentLength {
		return errors.New("comment content too long")
	}
	return nil
}
