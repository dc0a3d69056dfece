package server

import (
	"net/http"
	"strconv"

	"github.com/solspark/marketboard/internal/logger"
	"github.com/solspark/marketboard/internal/models"
)

type leaderboardResponse struct {
	Entries    []models.LeaderboardEntry `json:"entries"`
	Total      int                       `json:"total"`
	Page       int                       `json:"page"`
	TotalPages int                       `json:"total_pages"`
	PageTokens []interface{}             `json:"page_tokens"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	result, err := s.ranker.Page(page, s.pageSize)
	if err != nil {
		logger.Error("Failed to build leaderboard page %d: %v", page, err)
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	totalPages := (result.Total + s.pageSize - 1) / s.pageSize
	writeJSON(w, http.StatusOK, leaderboardResponse{
		Entries:    result.Entries,
		Total:      result.Total,
		Page:       page,
		TotalPages: totalPages,
		PageTokens: pageTokens(page, totalPages),
	})
}
