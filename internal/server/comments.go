package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solspark/marketboard/internal/logger"
	"github.com/solspark/marketboard/internal/models"
)

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	market, err := s.store.GetMarketBySlug(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}
	comments, err := s.store.GetMarketComments(market.ID)
	if err != nil {
		logger.Error("Failed to list comments for %s: %v", market.Slug, err)
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}
	market, err := s.store.GetMarketBySlug(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}

	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	comment := &models.Comment{
		ID:        uuid.New().String(),
		MarketID:  market.ID,
		UserID:    user.ID,
		ParentID:  req.ParentID,
		Content:   strings.TrimSpace(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := comment.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.AddComment(comment); err != nil {
		logger.Error("Failed to insert comment on %s: %v", market.Slug, err)
		writeError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}
	comment.Author = user
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleLikeComment(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}
	likes, err := s.store.ToggleCommentLike(r.PathValue("id"), user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		logger.Error("Failed to toggle comment like: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to like comment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"likes_count": likes})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}
	if err := s.store.DeleteComment(r.PathValue("id"), user.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		logger.Error("Failed to delete comment: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete comment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
