// Package api provides the HTTP API for inspecting and steering a running
// simulation. GET endpoints are public (read-only observation). POST
// endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/menger/internal/actor"
	"github.com/talgya/menger/internal/engine"
	"github.com/talgya/menger/internal/persistence"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Routes builds the HTTP handler. Exposed separately from Start so tests can
// drive it through httptest.
func (s *Server) Routes() http.Handler {
	// Admin mutations share one limiter; a runaway client should not be
	// able to spin the simulation arbitrarily fast.
	adminLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only — anyone can check in on the world).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/actors", s.handleActors)
	mux.HandleFunc("/api/v1/actor/", s.handleActorRoutes(adminLimiter))
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/tick", s.adminOnly(RateLimitMiddleware(adminLimiter, s.handleTick)))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Routes()
	go func() {
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
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
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
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no ACTORSIM_ADMIN_KEY set)", http.StatusForbidden)
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

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Sim.StatsSnapshot()
	speed := 0.0
	running := false
	if s.Eng != nil {
		speed = s.Eng.Speed
		running = s.Eng.Running
	}
	writeJSON(w, map[string]any{
		"name":         "menger",
		"tick":         s.Sim.CurrentTick(),
		"speed":        speed,
		"running":      running,
		"actors":       stats.Actors,
		"active_goals": stats.ActiveGoals,
		"items_held":   stats.ItemsHeld,
		"trades":       stats.Trades,
	})
}

func (s *Server) handleActors(w http.ResponseWriter, r *http.Request) {
	type actorSummary struct {
		ID          string                 `json:"id"`
		Name        string                 `json:"name"`
		Phase       string                 `json:"phase"`
		CurrentGoal actor.GoalType         `json:"current_goal,omitempty"`
		ActiveGoals []actor.GoalType       `json:"active_goals"`
		Items       map[actor.ItemType]int `json:"items"`
		LastOutcome string                 `json:"last_outcome"`
	}

	snaps := s.Sim.Snapshots()
	result := make([]actorSummary, 0, len(snaps))
	for _, snap := range snaps {
		items := make(map[actor.ItemType]int)
		for _, it := range snap.Items {
			items[it.Type]++
		}
		var active []actor.GoalType
		for _, g := range snap.Goals {
			if g.Active() {
				active = append(active, g.Type)
			}
		}
		result = append(result, actorSummary{
			ID:          snap.ID,
			Name:        snap.Name,
			Phase:       snap.State.Phase.String(),
			CurrentGoal: snap.State.Goal,
			ActiveGoals: active,
			Items:       items,
			LastOutcome: snap.Outcome.Kind.String(),
		})
	}
	writeJSON(w, result)
}

// handleActorRoutes dispatches /api/v1/actor/:id and its subresources:
// /preferences, /compare, /goals (POST), /items (POST).
func (s *Server) handleActorRoutes(limiter *RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		// /api/v1/actor/:id[/sub] → [0]="" [1]="api" [2]="v1" [3]="actor" [4]=id [5]=sub
		if len(parts) < 5 || parts[4] == "" {
			http.Error(w, "missing actor id", http.StatusBadRequest)
			return
		}
		id := parts[4]
		if _, ok := s.Sim.ActorSnapshot(id); !ok {
			http.Error(w, "actor not found", http.StatusNotFound)
			return
		}

		sub := ""
		if len(parts) >= 6 {
			sub = parts[5]
		}
		switch sub {
		case "":
			snap, _ := s.Sim.ActorSnapshot(id)
			writeJSON(w, snap)
		case "preferences":
			s.handleActorPreferences(w, r, id)
		case "compare":
			s.handleActorCompare(w, r, id)
		case "goals":
			s.adminOnly(RateLimitMiddleware(limiter, func(w http.ResponseWriter, r *http.Request) {
				s.handleActorGoals(w, r, id)
			}))(w, r)
		case "items":
			s.adminOnly(RateLimitMiddleware(limiter, func(w http.ResponseWriter, r *http.Request) {
				s.handleActorItems(w, r, id)
			}))(w, r)
		default:
			http.Error(w, "unknown actor resource", http.StatusNotFound)
		}
	}
}

// handleActorPreferences returns, for each item type the actor knows, the
// registered goal types it can serve in rank order plus its current best use.
func (s *Server) handleActorPreferences(w http.ResponseWriter, r *http.Request, id string) {
	a := s.Sim.Actor(id)
	if a == nil {
		http.Error(w, "actor not found", http.StatusNotFound)
		return
	}

	type prefEntry struct {
		ItemType actor.ItemType   `json:"item_type"`
		Goals    []actor.GoalType `json:"goals"`
		BestUse  actor.GoalType   `json:"best_use,omitempty"`
		Value    *int             `json:"value,omitempty"`
	}

	var result []prefEntry
	for _, t := range a.Prefs.Types() {
		entry := prefEntry{ItemType: t, Goals: a.Prefs.GoalsFor(t)}
		if best, err := a.BestUse(t); err == nil {
			entry.BestUse = best
			if v, err := a.ValueOf(t); err == nil {
				entry.Value = &v
			}
		}
		result = append(result, entry)
	}
	writeJSON(w, result)
}

// handleActorCompare reports the actor's ordering of two item types:
// GET /api/v1/actor/:id/compare?a=bread&b=plank
func (s *Server) handleActorCompare(w http.ResponseWriter, r *http.Request, id string) {
	ta := actor.ItemType(r.URL.Query().Get("a"))
	tb := actor.ItemType(r.URL.Query().Get("b"))
	if ta == "" || tb == "" {
		http.Error(w, "usage: ?a=<item type>&b=<item type>", http.StatusBadRequest)
		return
	}

	c, err := s.Sim.CompareItems(id, ta, tb)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	ordering := "equal"
	if c < 0 {
		ordering = "greater" // a is more valuable
	} else if c > 0 {
		ordering = "less"
	}
	writeJSON(w, map[string]any{"a": ta, "b": tb, "ordering": ordering})
}

// handleActorGoals registers or removes a goal on the actor.
// POST {"type": "food", "units": 2, "recurrence_ticks": 10}
// POST {"type": "leisure", "remove": true}
func (s *Server) handleActorGoals(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Type            actor.GoalType `json:"type"`
		Units           int            `json:"units"`
		RecurrenceTicks uint64         `json:"recurrence_ticks"`
		Remove          bool           `json:"remove"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		http.Error(w, "missing goal type", http.StatusBadRequest)
		return
	}

	if req.Remove {
		removed, err := s.Sim.RemoveGoal(id, req.Type)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"removed": removed})
		return
	}

	if err := s.Sim.RegisterGoal(id, req.Type, req.Units, req.RecurrenceTicks); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"registered": req.Type})
}

// handleActorItems mints an item into the actor's inventory.
// POST {"type": "bread"}
func (s *Server) handleActorItems(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Type actor.ItemType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		http.Error(w, "missing item type", http.StatusBadRequest)
		return
	}

	item, err := s.Sim.GiveItem(id, req.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, item)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.RecentEvents(limit)

	// Optional category filter.
	if cat := r.URL.Query().Get("category"); cat != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == cat {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	writeJSON(w, events)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.StatsSnapshot())
}

// handleTick advances the simulation by hand. POST {"count": 5}
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count := 1
	var req struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Count > 0 {
		if req.Count > 1000 {
			http.Error(w, "count must be 1-1000", http.StatusBadRequest)
			return
		}
		count = req.Count
	}

	tick := s.Sim.StepN(count)
	slog.Info("manual tick", "count", count, "tick", tick)
	writeJSON(w, map[string]any{"tick": tick})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not running", http.StatusServiceUnavailable)
		return
	}

	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.Speed = req.Speed
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed})
}

// handleSnapshot saves the full simulation state to the database.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveSimulation(s.Sim); err != nil {
		slog.Error("snapshot failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved_tick": s.Sim.CurrentTick()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
