package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/engine"
	"github.com/talgya/cityforge/internal/grid"
	"github.com/talgya/cityforge/internal/sim"
)

func newTestServer() *Server {
	g := grid.New(10, 10)
	c := sim.NewCity(g, 1)
	c.Tuning.EventChance = 0
	c.Tuning.DisasterChance = 0
	c.Tuning.WeirdChance = 0
	c.Tuning.WindChangeChance = 0
	return &Server{City: c, Eng: engine.NewEngine()}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	s.handleStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body["money"].(float64) != 2000 {
		t.Fatalf("money = %v", body["money"])
	}
}

func TestHandleActionBuild(t *testing.T) {
	s := newTestServer()

	w := postJSON(t, s.handleAction, "/api/v1/action", `{"building": "road", "x": 5, "y": 5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("build road: %d %s", w.Code, w.Body.String())
	}
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["cost"].(float64) != 20 || body["money"].(float64) != 1980 {
		t.Fatalf("body = %v", body)
	}
}

func TestHandleActionErrors(t *testing.T) {
	s := newTestServer()
	s.City.Grid.Tiles[5][5].Building = catalog.Road

	cases := []struct {
		name string
		body string
		code int
	}{
		{"out of bounds", `{"building": "road", "x": 99, "y": 99}`, http.StatusBadRequest},
		{"unknown building", `{"building": "casino", "x": 5, "y": 5}`, http.StatusBadRequest},
		{"occupied", `{"building": "park", "x": 5, "y": 5}`, http.StatusUnprocessableEntity},
		{"locked", `{"building": "park", "x": 0, "y": 0}`, http.StatusUnprocessableEntity},
		{"malformed body", `{"building":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := postJSON(t, s.handleAction, "/api/v1/action", tc.body)
		if w.Code != tc.code {
			t.Errorf("%s: status = %d, want %d (%s)", tc.name, w.Code, tc.code, w.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/action", nil)
	w := httptest.NewRecorder()
	s.handleAction(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET action: status = %d", w.Code)
	}
}

func TestHandleActionDemolish(t *testing.T) {
	s := newTestServer()
	s.City.Grid.Tiles[5][5].Building = catalog.Road

	w := postJSON(t, s.handleAction, "/api/v1/action", `{"demolish": true, "x": 5, "y": 5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("demolish: %d %s", w.Code, w.Body.String())
	}
}

func TestHandleTax(t *testing.T) {
	s := newTestServer()

	if w := postJSON(t, s.handleTax, "/api/v1/tax", `{"rate": 0.2}`); w.Code != http.StatusOK {
		t.Fatalf("set tax: %d", w.Code)
	}
	if w := postJSON(t, s.handleTax, "/api/v1/tax", `{"rate": 0.9}`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid rate: %d", w.Code)
	}
}

func TestHandleLoan(t *testing.T) {
	s := newTestServer()

	w := postJSON(t, s.handleLoan, "/api/v1/loan", `{"op": "take", "amount": 500}`)
	if w.Code != http.StatusOK {
		t.Fatalf("take loan: %d %s", w.Code, w.Body.String())
	}
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["principal"].(float64) != 500 {
		t.Fatalf("principal = %v", body["principal"])
	}

	if w := postJSON(t, s.handleLoan, "/api/v1/loan", `{"op": "refinance", "amount": 1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown op: %d", w.Code)
	}
	if w := postJSON(t, s.handleLoan, "/api/v1/loan", `{"op": "take", "amount": 0}`); w.Code != http.StatusBadRequest {
		t.Fatalf("zero amount: %d", w.Code)
	}
}

func TestHandleShares(t *testing.T) {
	s := newTestServer()

	if w := postJSON(t, s.handleShares, "/api/v1/shares", `{"op": "buy", "count": 3}`); w.Code != http.StatusOK {
		t.Fatalf("buy: %d", w.Code)
	}
	if w := postJSON(t, s.handleShares, "/api/v1/shares", `{"op": "sell", "count": 99}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("oversell: %d", w.Code)
	}
}

func TestAdminOnly(t *testing.T) {
	s := newTestServer()
	handler := s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// No key configured: admin surface disabled.
	w := postJSON(t, handler, "/api/v1/speed", `{}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("no key: %d", w.Code)
	}

	s.AdminKey = "sekrit"
	w = postJSON(t, handler, "/api/v1/speed", `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer sekrit")
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: %d", rec.Code)
	}
}

func TestHandleSpeed(t *testing.T) {
	s := newTestServer()

	if w := postJSON(t, s.handleSpeed, "/api/v1/speed", `{"speed": 5}`); w.Code != http.StatusOK {
		t.Fatalf("set speed: %d", w.Code)
	}
	if s.Eng.Speed() != 5 {
		t.Fatalf("engine speed = %v", s.Eng.Speed())
	}
	if w := postJSON(t, s.handleSpeed, "/api/v1/speed", `{"speed": 50}`); w.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range speed: %d", w.Code)
	}
}

func TestHandleCatalog(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	w := httptest.NewRecorder()
	s.handleCatalog(w, req)

	var entries []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("catalog has %d entries", len(entries))
	}
}

func TestSessionID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Session-ID", "player-7")
	if got := sessionID(req); got != "player-7" {
		t.Fatalf("sessionID = %q", got)
	}

	anon := httptest.NewRequest(http.MethodPost, "/", nil)
	if got := sessionID(anon); got == "" {
		t.Fatal("anonymous callers should get a minted id")
	}
}
