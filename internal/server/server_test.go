package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/solspark/marketboard/internal/auth"
	"github.com/solspark/marketboard/internal/feed"
	"github.com/solspark/marketboard/internal/models"
	"github.com/solspark/marketboard/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Storage) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := auth.NewManager(store, time.Hour)
	srv := New(store, mgr, feed.NewHub(), Options{LeaderboardPageSize: 10})
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func loginAs(t *testing.T, srv *Server, wallet string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", loginRequest{WalletAddress: wallet})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	decodeBody(t, rec, &resp)
	if resp.Session == nil || resp.Session.Token == "" {
		t.Fatal("login returned no session token")
	}
	return resp.Session.Token
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

func TestCreateMarketRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/markets", "", createMarketRequest{Question: "Will it rain?"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateAndGetMarket(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")

	rec := doJSON(t, srv, http.MethodPost, "/api/markets", token, createMarketRequest{
		Question:    "Will ETH pass $4K this year?",
		Description: "Resolves on the first daily close above 4000.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created models.Market
	decodeBody(t, rec, &created)
	if created.Slug != "will-eth-pass-4k-this-year" {
		t.Errorf("slug = %q", created.Slug)
	}
	if created.YesPrice != 0.5 || created.NoPrice != 0.5 {
		t.Errorf("default prices = %v/%v, want 0.5/0.5", created.YesPrice, created.NoPrice)
	}
	if created.ResolutionStatus != models.StatusOpen {
		t.Errorf("status = %q, want open", created.ResolutionStatus)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/markets/"+created.Slug, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var fetched models.Market
	decodeBody(t, rec, &fetched)
	if fetched.ID != created.ID {
		t.Errorf("fetched id = %q, want %q", fetched.ID, created.ID)
	}
}

func TestCreateMarketDuplicateQuestionGetsSuffixedSlug(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")

	req := createMarketRequest{Question: "Will it rain tomorrow?"}
	rec := doJSON(t, srv, http.MethodPost, "/api/markets", token, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/markets", token, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second create status = %d", rec.Code)
	}
	var second models.Market
	decodeBody(t, rec, &second)
	if second.Slug != "will-it-rain-tomorrow-1" {
		t.Errorf("second slug = %q, want will-it-rain-tomorrow-1", second.Slug)
	}
}

func TestListMarketsPaging(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")

	for i := 0; i < 25; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/markets", token, createMarketRequest{
			Question: fmt.Sprintf("Market number %d?", i),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d status = %d", i, rec.Code)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/markets?page=2&limit=10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var resp marketListResponse
	decodeBody(t, rec, &resp)
	if resp.Total != 25 {
		t.Errorf("total = %d, want 25", resp.Total)
	}
	if resp.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", resp.TotalPages)
	}
	if len(resp.Markets) != 10 {
		t.Errorf("page size = %d, want 10", len(resp.Markets))
	}
	// 3 pages fit the pager window without ellipses.
	if len(resp.PageTokens) != 3 {
		t.Errorf("page tokens = %v, want [1 2 3]", resp.PageTokens)
	}
}

func TestResolveMarket(t *testing.T) {
	srv, _ := newTestServer(t)
	creator := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")
	other := loginAs(t, srv, "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd")

	rec := doJSON(t, srv, http.MethodPost, "/api/markets", creator, createMarketRequest{Question: "Resolve me?"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var market models.Market
	decodeBody(t, rec, &market)

	rec = doJSON(t, srv, http.MethodPost, "/api/markets/"+market.Slug+"/resolve", other, resolveMarketRequest{Outcome: "yes"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-creator resolve status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/markets/"+market.Slug+"/resolve", creator, resolveMarketRequest{Outcome: "yes"})
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resolved models.Market
	decodeBody(t, rec, &resolved)
	if resolved.ResolutionStatus != models.StatusResolved {
		t.Errorf("status = %q, want resolved", resolved.ResolutionStatus)
	}
	if resolved.YesPrice != 1 || resolved.NoPrice != 0 {
		t.Errorf("resolved prices = %v/%v, want 1/0", resolved.YesPrice, resolved.NoPrice)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/markets/"+market.Slug+"/resolve", creator, resolveMarketRequest{Outcome: "no"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double resolve status = %d, want 409", rec.Code)
	}
}

func TestMarketHistoryIncludesLivePoint(t *testing.T) {
	srv, store := newTestServer(t)
	token := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")

	rec := doJSON(t, srv, http.MethodPost, "/api/markets", token, createMarketRequest{
		Question: "History market?",
		YesPrice: 0.6,
		NoPrice:  0.4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var market models.Market
	decodeBody(t, rec, &market)

	snap := &models.PriceSnapshot{
		ID:        uuid.New().String(),
		MarketID:  market.ID,
		YesPrice:  0.3,
		NoPrice:   0.7,
		Timestamp: time.Now().Add(-time.Hour),
	}
	if err := store.AddSnapshot(snap); err != nil {
		t.Fatalf("AddSnapshot: %v", err)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/markets/"+market.Slug+"/history?window=24h", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d, body %s", rec.Code, rec.Body.String())
	}
	var series struct {
		Up   []struct{ Time int64; Value float64 } `json:"up"`
		Down []struct{ Time int64; Value float64 } `json:"down"`
	}
	decodeBody(t, rec, &series)
	if len(series.Up) != 2 {
		t.Fatalf("up points = %d, want 2 (snapshot + live)", len(series.Up))
	}
	if series.Up[0].Value != 30 {
		t.Errorf("snapshot value = %v, want 30", series.Up[0].Value)
	}
	if series.Up[1].Value != 60 {
		t.Errorf("live value = %v, want 60", series.Up[1].Value)
	}
}

func TestMarketHistoryRejectsBadWindow(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")
	rec := doJSON(t, srv, http.MethodPost, "/api/markets", token, createMarketRequest{Question: "Window market?"})
	var market models.Market
	decodeBody(t, rec, &market)

	rec = doJSON(t, srv, http.MethodGet, "/api/markets/"+market.Slug+"/history?window=90d", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMarketHover(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")
	rec := doJSON(t, srv, http.MethodPost, "/api/markets", token, createMarketRequest{
		Question: "Hover market?",
		YesPrice: 0.42,
		NoPrice:  0.58,
	})
	var market models.Market
	decodeBody(t, rec, &market)

	// Hover at the live point's timestamp resolves to the live price.
	target := time.Now().Unix()
	rec = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/markets/%s/hover?t=%d", market.Slug, target), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("hover status = %d, body %s", rec.Code, rec.Body.String())
	}
	var hover struct {
		YesPrice float64 `json:"yes_price"`
		YesFound bool    `json:"yes_found"`
	}
	decodeBody(t, rec, &hover)
	if !hover.YesFound {
		t.Fatal("expected yes side to resolve")
	}
	if hover.YesPrice != 0.42 {
		t.Errorf("yes price = %v, want 0.42", hover.YesPrice)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/markets/"+market.Slug+"/hover?t=abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad t status = %d, want 400", rec.Code)
	}
}

func TestMarketHoverExactValues(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")
	rec := doJSON(t, srv, http.MethodPost, "/api/markets", token, createMarketRequest{
		Question: "Exact hover market?",
		YesPrice: 0.42,
		NoPrice:  0.58,
	})
	var market models.Market
	decodeBody(t, rec, &market)

	// Widget-reported percentages win over nearest-sample lookup.
	rec = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/markets/%s/hover?t=%d&up=62.5&down=37.5", market.Slug, time.Now().Unix()), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("hover status = %d, body %s", rec.Code, rec.Body.String())
	}
	var hover struct {
		YesPrice float64 `json:"yes_price"`
		NoPrice  float64 `json:"no_price"`
		YesFound bool    `json:"yes_found"`
		NoFound  bool    `json:"no_found"`
	}
	decodeBody(t, rec, &hover)
	if !hover.YesFound || !hover.NoFound {
		t.Fatal("exact values must mark both sides found")
	}
	if hover.YesPrice != 0.625 || hover.NoPrice != 0.375 {
		t.Errorf("hover prices = %v/%v, want 0.625/0.375", hover.YesPrice, hover.NoPrice)
	}

	rec = doJSON(t, srv, http.MethodGet,
		fmt.Sprintf("/api/markets/%s/hover?t=%d&up=62.5", market.Slug, time.Now().Unix()), "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("half-supplied exact values status = %d, want 400", rec.Code)
	}
}

func TestCommentLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	author := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")
	liker := loginAs(t, srv, "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd")

	rec := doJSON(t, srv, http.MethodPost, "/api/markets", author, createMarketRequest{Question: "Comment market?"})
	var market models.Market
	decodeBody(t, rec, &market)

	rec = doJSON(t, srv, http.MethodPost, "/api/markets/"+market.Slug+"/comments", author,
		createCommentRequest{Content: "I like the odds here."})
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment status = %d, body %s", rec.Code, rec.Body.String())
	}
	var comment models.Comment
	decodeBody(t, rec, &comment)

	rec = doJSON(t, srv, http.MethodPost, "/api/comments/"+comment.ID+"/like", liker, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("like status = %d, body %s", rec.Code, rec.Body.String())
	}
	var likes map[string]int
	decodeBody(t, rec, &likes)
	if likes["likes_count"] != 1 {
		t.Errorf("likes = %d, want 1", likes["likes_count"])
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/comments/missing/like", liker, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing comment like status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/comments/"+comment.ID, liker, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("non-author delete status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, "/api/comments/"+comment.ID, author, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/markets/"+market.Slug+"/comments", "", nil)
	var listed struct {
		Comments []models.Comment `json:"comments"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Comments) != 0 {
		t.Errorf("deleted comment still listed: %+v", listed.Comments)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	for i := 0; i < 15; i++ {
		u, err := store.UpsertUserByWallet(fmt.Sprintf("0x%040d", i))
		if err != nil {
			t.Fatalf("UpsertUserByWallet: %v", err)
		}
		u.TotalProfit = float64(100 - i)
		if err := store.UpdateUser(u); err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/leaderboard?page=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp leaderboardResponse
	decodeBody(t, rec, &resp)
	if resp.Total != 15 {
		t.Errorf("total = %d, want 15", resp.Total)
	}
	if len(resp.Entries) != 5 {
		t.Errorf("page 2 entries = %d, want 5", len(resp.Entries))
	}
	if len(resp.Entries) > 0 && resp.Entries[0].Rank != 11 {
		t.Errorf("first rank on page 2 = %d, want 11", resp.Entries[0].Rank)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginAs(t, srv, "0x1234567890abcdef1234567890abcdef12345678")

	rec := doJSON(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d, want 401", rec.Code)
	}
}
