package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solspark/marketboard/internal/chart"
	"github.com/solspark/marketboard/internal/logger"
	"github.com/solspark/marketboard/internal/models"
	"github.com/solspark/marketboard/internal/pager"
	"github.com/solspark/marketboard/internal/slug"
	"github.com/solspark/marketboard/internal/storage"
)

const (
	defaultBrowsePageSize = 20
	maxBrowsePageSize     = 100
)

type marketListResponse struct {
	Markets    []*models.Market `json:"markets"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	PageTokens []interface{}    `json:"page_tokens"`
}

// pageTokens renders the pager window for JSON: ints for page numbers and
// the string "..." for gaps.
func pageTokens(current, total int) []interface{} {
	window := pager.Window(current, total)
	tokens := make([]interface{}, 0, len(window))
	for _, t := range window {
		if t.IsEllipsis() {
			tokens = append(tokens, "...")
		} else {
			tokens = append(tokens, int(t))
		}
	}
	return tokens
}

func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("limit"))
	if pageSize < 1 {
		pageSize = defaultBrowsePageSize
	}
	if pageSize > maxBrowsePageSize {
		pageSize = maxBrowsePageSize
	}

	sortBy := storage.SortNewest
	switch q.Get("sort") {
	case "volume":
		sortBy = storage.SortVolume
	case "participants":
		sortBy = storage.SortParticipants
	}

	filter := storage.MarketFilter{
		CategorySlug: q.Get("category"),
		Status:       q.Get("status"),
		Search:       strings.TrimSpace(q.Get("search")),
		SortBy:       sortBy,
		Limit:        pageSize,
		Offset:       (page - 1) * pageSize,
	}

	total, err := s.store.CountMarkets(filter)
	if err != nil {
		logger.Error("Failed to count markets: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}
	markets, err := s.store.ListMarkets(filter)
	if err != nil {
		logger.Error("Failed to list markets: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	totalPages := (total + pageSize - 1) / pageSize
	writeJSON(w, http.StatusOK, marketListResponse{
		Markets:    markets,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		PageTokens: pageTokens(page, totalPages),
	})
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	market, err := s.store.GetMarketBySlug(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}
	writeJSON(w, http.StatusOK, market)
}

type createMarketRequest struct {
	Question    string  `json:"question"`
	Description string  `json:"description"`
	CategoryID  string  `json:"category_id"`
	EndDate     string  `json:"end_date"`
	YesPrice    float64 `json:"yes_price"`
	NoPrice     float64 `json:"no_price"`
}

func (s *Server) handleCreateMarket(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	var req createMarketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	var endDate *time.Time
	if req.EndDate != "" {
		t, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be RFC 3339")
			return
		}
		endDate = &t
	}

	base := slug.Make(req.Question)
	if base == "" {
		base = "market"
	}
	marketSlug, err := slug.GenerateUnique(r.Context(), base, func(_ context.Context, candidate string) (bool, error) {
		return s.store.SlugExists(candidate)
	})
	if err != nil {
		logger.Error("Failed to allocate slug for %q: %v", req.Question, err)
		writeError(w, http.StatusInternalServerError, "failed to create market")
		return
	}

	yes, no := req.YesPrice, req.NoPrice
	if yes == 0 && no == 0 {
		yes, no = 0.5, 0.5
	}

	now := time.Now()
	market := &models.Market{
		ID:               uuid.New().String(),
		Slug:             marketSlug,
		Question:         req.Question,
		Description:      strings.TrimSpace(req.Description),
		CategoryID:       req.CategoryID,
		CreatorID:        user.ID,
		YesPrice:         yes,
		NoPrice:          no,
		ResolutionStatus: models.StatusOpen,
		EndDate:          endDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := market.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.AddMarket(market); err != nil {
		logger.Error("Failed to insert market %s: %v", market.Slug, err)
		writeError(w, http.StatusInternalServerError, "failed to create market")
		return
	}

	if s.notifier != nil {
		go func() {
			if err := s.notifier.MarketCreated(market, displayName(user)); err != nil {
				logger.Warn("Market created notification failed: %v", err)
			}
		}()
	}

	writeJSON(w, http.StatusCreated, market)
}

type resolveMarketRequest struct {
	Outcome string `json:"outcome"` // yes | no | cancelled
}

func (s *Server) handleResolveMarket(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	market, err := s.store.GetMarketBySlug(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}
	if market.CreatorID != user.ID {
		writeError(w, http.StatusForbidden, "only the creator can resolve a market")
		return
	}
	if market.ResolutionStatus != models.StatusOpen {
		writeError(w, http.StatusConflict, "market is already resolved")
		return
	}

	var req resolveMarketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Outcome {
	case "yes":
		market.ResolutionStatus = models.StatusResolved
		market.YesPrice, market.NoPrice = 1, 0
	case "no":
		market.ResolutionStatus = models.StatusResolved
		market.YesPrice, market.NoPrice = 0, 1
	case "cancelled":
		market.ResolutionStatus = models.StatusCancelled
	default:
		writeError(w, http.StatusBadRequest, "outcome must be yes, no, or cancelled")
		return
	}
	market.UpdatedAt = time.Now()

	if err := s.store.UpdateMarket(market); err != nil {
		logger.Error("Failed to resolve market %s: %v", market.Slug, err)
		writeError(w, http.StatusInternalServerError, "failed to resolve market")
		return
	}

	if s.notifier != nil {
		go func() {
			if err := s.notifier.MarketResolved(market); err != nil {
				logger.Warn("Market resolved notification failed: %v", err)
			}
		}()
	}

	writeJSON(w, http.StatusOK, market)
}

func (s *Server) handleMarketHistory(w http.ResponseWriter, r *http.Request) {
	market, err := s.store.GetMarketBySlug(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}

	window, err := models.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	history, err := s.store.GetPriceHistory(market.ID, window, now)
	if err != nil {
		logger.Error("Failed to load history for %s: %v", market.Slug, err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	var live *chart.LivePrice
	if market.ResolutionStatus == models.StatusOpen {
		live = &chart.LivePrice{YesPrice: market.YesPrice, NoPrice: market.NoPrice, Now: now}
	}
	writeJSON(w, http.StatusOK, chart.Build(history, window, live))
}

func (s *Server) handleMarketHover(w http.ResponseWriter, r *http.Request) {
	market, err := s.store.GetMarketBySlug(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}

	q := r.URL.Query()
	hoverTime, err := strconv.ParseInt(q.Get("t"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "t must be a unix timestamp")
		return
	}
	window, err := models.ParseWindow(q.Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A widget that already knows the sample values under the pointer
	// reports them as percentages; they short-circuit the nearest lookup.
	var exact *chart.ExactValues
	if upStr, downStr := q.Get("up"), q.Get("down"); upStr != "" || downStr != "" {
		upVal, upErr := strconv.ParseFloat(upStr, 64)
		downVal, downErr := strconv.ParseFloat(downStr, 64)
		if upErr != nil || downErr != nil {
			writeError(w, http.StatusBadRequest, "up and down must both be numeric percentages")
			return
		}
		exact = &chart.ExactValues{Up: upVal, Down: downVal}
	}

	now := time.Now()
	history, err := s.store.GetPriceHistory(market.ID, window, now)
	if err != nil {
		logger.Error("Failed to load history for %s: %v", market.Slug, err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	var live *chart.LivePrice
	if market.ResolutionStatus == models.StatusOpen {
		live = &chart.LivePrice{YesPrice: market.YesPrice, NoPrice: market.NoPrice, Now: now}
	}
	series := chart.Build(history, window, live)
	writeJSON(w, http.StatusOK, chart.Resolve(hoverTime, exact, series.Up, series.Down))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories()
	if err != nil {
		logger.Error("Failed to list categories: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

func displayName(u *models.User) string {
	if u.Username != "" {
		return u.Username
	}
	return models.ShortAddress(u.WalletAddress)
}
