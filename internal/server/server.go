// Package server exposes the JSON HTTP API and the live price websocket.
package server

import (
	"net/http"

	"github.com/solspark/marketboard/internal/auth"
	"github.com/solspark/marketboard/internal/feed"
	"github.com/solspark/marketboard/internal/leaderboard"
	"github.com/solspark/marketboard/internal/models"
	"github.com/solspark/marketboard/internal/storage"
)

// Notifier receives market lifecycle events. Implementations must tolerate
// being called from request goroutines.
type Notifier interface {
	MarketCreated(m *models.Market, creatorName string) error
	MarketResolved(m *models.Market) error
}

// Options tune optional server behavior.
type Options struct {
	// LeaderboardPageSize is the page size for /api/leaderboard.
	// Zero falls back to leaderboard.DefaultPageSize.
	LeaderboardPageSize int
	// Notifier is pinged on market creation and resolution. May be nil.
	Notifier Notifier
}

// Server wires storage, auth, ranking, and the feed hub into HTTP handlers.
type Server struct {
	store    *storage.Storage
	auth     *auth.Manager
	ranker   *leaderboard.Ranker
	hub      *feed.Hub
	notifier Notifier
	pageSize int
	mux      *http.ServeMux
}

// New creates a Server and registers its routes.
func New(store *storage.Storage, authMgr *auth.Manager, hub *feed.Hub, opts Options) *Server {
	pageSize := opts.LeaderboardPageSize
	if pageSize < 1 {
		pageSize = leaderboard.DefaultPageSize
	}
	s := &Server{
		store:    store,
		auth:     authMgr,
		ranker:   leaderboard.New(store),
		hub:      hub,
		notifier: opts.Notifier,
		pageSize: pageSize,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/auth/me", s.handleMe)

	s.mux.HandleFunc("GET /api/categories", s.handleListCategories)

	s.mux.HandleFunc("GET /api/markets", s.handleListMarkets)
	s.mux.HandleFunc("POST /api/markets", s.handleCreateMarket)
	s.mux.HandleFunc("GET /api/markets/{slug}", s.handleGetMarket)
	s.mux.HandleFunc("POST /api/markets/{slug}/resolve", s.handleResolveMarket)
	s.mux.HandleFunc("GET /api/markets/{slug}/history", s.handleMarketHistory)
	s.mux.HandleFunc("GET /api/markets/{slug}/hover", s.handleMarketHover)
	s.mux.HandleFunc("GET /api/markets/{slug}/comments", s.handleListComments)
	s.mux.HandleFunc("POST /api/markets/{slug}/comments", s.handleCreateComment)

	s.mux.HandleFunc("POST /api/comments/{id}/like", s.handleLikeComment)
	s.mux.HandleFunc("DELETE /api/comments/{id}", s.handleDeleteComment)

	s.mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)

	s.mux.HandleFunc("GET /ws/markets/{slug}", s.handleMarketStream)
}

// Handler returns the root handler for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMarketStream(w http.ResponseWriter, r *http.Request) {
	market, err := s.store.GetMarketBySlug(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}
	s.hub.ServeWS(w, r, market.ID)
}
