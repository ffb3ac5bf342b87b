// Package api provides the HTTP API for the city.
// GET endpoints are public (read-only observation).
// Player POST endpoints go through the same validator as the mayor.
// Admin POST endpoints require a bearer token.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/engine"
	"github.com/talgya/cityforge/internal/llm"
	"github.com/talgya/cityforge/internal/mayor"
	"github.com/talgya/cityforge/internal/persistence"
	"github.com/talgya/cityforge/internal/sim"
)

// Server serves the city state over HTTP.
type Server struct {
	City *sim.City
	Eng  *engine.Engine
	LLM  *llm.Client
	DB   *persistence.DB
	Hub  *Hub

	Port        int
	AdminKey    string // Bearer token for admin endpoints. Empty = disabled.
	SnapshotDir string

	// Cached news issue (regenerated at most once per sim-week).
	newsMu      sync.Mutex
	cachedNews  *mayor.NewsIssue
	lastNewsDay uint64
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	newsLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/grid", s.handleGrid)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/goal", s.handleGoal)
	mux.HandleFunc("/api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("/api/v1/news", RateLimitMiddleware(newsLimiter, s.handleNews))

	// WebSocket tick stream.
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Player endpoints (POST, validated by the simulation).
	mux.HandleFunc("/api/v1/action", s.handleAction)
	mux.HandleFunc("/api/v1/tax", s.handleTax)
	mux.HandleFunc("/api/v1/loan", s.handleLoan)
	mux.HandleFunc("/api/v1/shares", s.handleShares)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-ID")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no CITYFORGE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// sessionID returns the caller's session identifier, minting one for
// first-time callers. The ID tags placed tiles, nothing more.
func sessionID(r *http.Request) string {
	if id := r.Header.Get("X-Session-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// actionStatus maps a validation failure to an HTTP status. Rule
// violations are 422 (the request was well-formed, the move is illegal);
// malformed requests are 400.
func actionStatus(err error) int {
	switch {
	case errors.Is(err, sim.ErrOutOfBounds),
		errors.Is(err, sim.ErrUnknownType),
		errors.Is(err, sim.ErrInvalidAmount),
		errors.Is(err, sim.ErrInvalidTaxRate):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	_, stats := s.City.Snapshot()
	writeJSON(w, map[string]any{
		"tick":       s.Eng.Tick(),
		"sim_date":   engine.SimDate(s.Eng.Tick()),
		"speed":      s.Eng.Speed(),
		"running":    s.Eng.Running(),
		"day":        stats.Day,
		"money":      stats.Money,
		"population": stats.Demographics.Total(),
		"happiness":  stats.Happiness,
		"pollution":  stats.PollutionLevel,
	})
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	g, stats := s.City.Snapshot()

	type tileEntry struct {
		X          int     `json:"x"`
		Y          int     `json:"y"`
		Building   int     `json:"building"`
		Pollution  float64 `json:"pollution,omitempty"`
		RoadAccess bool    `json:"road_access,omitempty"`
	}

	tiles := make([]tileEntry, 0, g.W*g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			t := &g.Tiles[y][x]
			tiles = append(tiles, tileEntry{
				X:          x,
				Y:          y,
				Building:   int(t.Building),
				Pollution:  t.Pollution,
				RoadAccess: t.HasRoadAccess,
			})
		}
	}

	writeJSON(w, map[string]any{
		"width":    g.W,
		"height":   g.H,
		"tiles":    tiles,
		"unlocked": g.UnlockedRect(stats.Demographics.Total()),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	_, stats := s.City.Snapshot()
	writeJSON(w, stats)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	writeJSON(w, s.City.RecentEvents(limit))
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	goal := s.City.CurrentGoal()
	if goal == nil {
		writeJSON(w, map[string]any{"goal": nil})
		return
	}
	writeJSON(w, map[string]any{"goal": goal})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID         int     `json:"id"`
		Name       string  `json:"name"`
		Cost       int     `json:"cost"`
		Income     int     `json:"income"`
		Housing    int     `json:"housing"`
		Jobs       int     `json:"jobs"`
		Crime      float64 `json:"crime"`
		Pollution  float64 `json:"pollution"`
		Upkeep     int     `json:"upkeep"`
		MaxAllowed int     `json:"max_allowed,omitempty"`
	}
	var out []entry
	for _, b := range catalog.All() {
		cfg := catalog.Lookup(b)
		out = append(out, entry{
			ID:         int(b),
			Name:       cfg.Name,
			Cost:       cfg.Cost,
			Income:     cfg.Income,
			Housing:    cfg.Housing,
			Jobs:       cfg.Jobs,
			Crime:      cfg.Crime,
			Pollution:  cfg.Pollution,
			Upkeep:     cfg.Upkeep,
			MaxAllowed: cfg.MaxAllowed,
		})
	}
	writeJSON(w, out)
}

// handleNews serves the weekly news digest, regenerating it at most once
// per sim-week.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	s.newsMu.Lock()
	defer s.newsMu.Unlock()

	_, stats := s.City.Snapshot()
	week := stats.Day / engine.TicksPerWeek
	if s.cachedNews == nil || s.lastNewsDay/engine.TicksPerWeek != week {
		s.cachedNews = mayor.GenerateNews(s.LLM, stats, s.City.RecentEvents(30))
		s.lastNewsDay = stats.Day
	}
	writeJSON(w, s.cachedNews)
}

// actionRequest is the body for POST /api/v1/action.
type actionRequest struct {
	Demolish bool   `json:"demolish,omitempty"`
	Building string `json:"building,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}

	a := sim.Action{Demolish: req.Demolish, X: req.X, Y: req.Y}
	if !req.Demolish {
		b, ok := catalog.FromName(strings.ToLower(req.Building))
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", sim.ErrUnknownType, req.Building))
			return
		}
		a.Building = b
	}

	cost, err := s.City.Apply(a, sessionID(r), s.Eng.Tick())
	if err != nil {
		writeError(w, actionStatus(err), err)
		return
	}

	_, stats := s.City.Snapshot()
	writeJSON(w, map[string]any{"ok": true, "cost": cost, "money": stats.Money})
}

func (s *Server) handleTax(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}
	if err := s.City.SetTaxRate(req.Rate); err != nil {
		writeError(w, actionStatus(err), err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "rate": req.Rate})
}

func (s *Server) handleLoan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Op     string `json:"op"` // "take" | "repay"
		Amount int    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}

	var err error
	switch req.Op {
	case "take":
		err = s.City.TakeLoan(req.Amount)
	case "repay":
		err = s.City.RepayLoan(req.Amount)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown loan op %q", req.Op))
		return
	}
	if err != nil {
		writeError(w, actionStatus(err), err)
		return
	}

	_, stats := s.City.Snapshot()
	writeJSON(w, map[string]any{"ok": true, "money": stats.Money, "principal": stats.LoanPrincipal})
}

func (s *Server) handleShares(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Op    string `json:"op"` // "buy" | "sell"
		Count int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}

	var err error
	switch req.Op {
	case "buy":
		err = s.City.BuyShares(req.Count)
	case "sell":
		err = s.City.SellShares(req.Count)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown share op %q", req.Op))
		return
	}
	if err != nil {
		writeError(w, actionStatus(err), err)
		return
	}

	_, stats := s.City.Snapshot()
	writeJSON(w, map[string]any{"ok": true, "money": stats.Money, "shares": stats.Shares})
}

// handleSpeed adjusts the simulation speed (admin).
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}
	if req.Speed < 0 || req.Speed > 10 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("speed must be between 0 and 10"))
		return
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, map[string]any{"ok": true, "speed": req.Speed})
}

// handleSnapshot exports a compressed snapshot file (admin).
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dir := s.SnapshotDir
	if dir == "" {
		dir = "data"
	}
	path := fmt.Sprintf("%s/city-%d.json.zst", dir, s.Eng.Tick())
	if err := persistence.WriteSnapshot(path, s.City, s.Eng.Tick()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	slog.Info("snapshot written", "path", path)
	writeJSON(w, map[string]any{"ok": true, "path": path})
}

// tickPayload is the per-tick frame pushed to websocket clients.
func (s *Server) tickPayload() map[string]any {
	g, stats := s.City.Snapshot()

	// Compact parallel arrays keep the frame small enough to send every
	// second.
	buildings := make([]int, 0, g.W*g.H)
	pollution := make([]float64, 0, g.W*g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			t := &g.Tiles[y][x]
			buildings = append(buildings, int(t.Building))
			pollution = append(pollution, t.Pollution)
		}
	}

	return map[string]any{
		"tick":      s.Eng.Tick(),
		"sim_date":  engine.SimDate(s.Eng.Tick()),
		"stats":     stats,
		"width":     g.W,
		"height":    g.H,
		"buildings": buildings,
		"pollution": pollution,
		"unlocked":  g.UnlockedRect(stats.Demographics.Total()),
		"events":    s.City.RecentEvents(5),
	}
}

// BroadcastTick pushes the current frame to all stream clients. Wired to
// the engine's OnTick.
func (s *Server) BroadcastTick() {
	s.Hub.Broadcast(s.tickPayload())
}
