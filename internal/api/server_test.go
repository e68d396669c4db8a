package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/menger/internal/actor"
	"github.com/talgya/menger/internal/engine"
	"github.com/talgya/menger/internal/scenario"
)

func newTestServer(t *testing.T, adminKey string) (*Server, http.Handler) {
	t.Helper()
	sc := scenario.Default()
	actors, err := sc.Build()
	require.NoError(t, err)
	sim := engine.NewSimulation(sc.Catalog, actors)
	srv := &Server{Sim: sim, AdminKey: adminKey}
	return srv, srv.Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	_, h := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Name   string `json:"name"`
		Tick   uint64 `json:"tick"`
		Actors int    `json:"actors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "menger", status.Name)
	assert.Zero(t, status.Tick)
	assert.Equal(t, 2, status.Actors)
}

func TestActorsEndpoint(t *testing.T) {
	_, h := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodGet, "/api/v1/actors", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []struct {
		ID          string           `json:"id"`
		ActiveGoals []actor.GoalType `json:"active_goals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "actor-baker", list[0].ID)
	assert.NotEmpty(t, list[0].ActiveGoals)
}

func TestActorSnapshot(t *testing.T) {
	_, h := newTestServer(t, "")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/actor/actor-baker", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap actor.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "actor-baker", snap.ID)
	assert.Len(t, snap.Items, 5)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/actor/nobody", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActorPreferences(t *testing.T) {
	_, h := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodGet, "/api/v1/actor/actor-baker/preferences", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var prefs []struct {
		ItemType actor.ItemType   `json:"item_type"`
		Goals    []actor.GoalType `json:"goals"`
		BestUse  actor.GoalType   `json:"best_use"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))

	byType := make(map[actor.ItemType]actor.GoalType)
	for _, p := range prefs {
		byType[p.ItemType] = p.BestUse
	}
	assert.Equal(t, actor.GoalType("food"), byType["bread"])
	assert.Equal(t, actor.GoalType("shelter"), byType["bedroll"], "shelter outranks rest in the default ranking")
}

func TestActorCompare(t *testing.T) {
	_, h := newTestServer(t, "")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/actor/actor-baker/compare?a=bread&b=trinket", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cmp struct {
		Ordering string `json:"ordering"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	assert.Equal(t, "greater", cmp.Ordering, "bread feeds, trinkets only amuse")

	rec = doJSON(t, h, http.MethodGet, "/api/v1/actor/actor-baker/compare?a=bread", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	_, h := newTestServer(t, "secret")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/tick", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/tick", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/tick", "secret", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Tick uint64 `json:"tick"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.Tick)
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	_, h := newTestServer(t, "")
	rec := doJSON(t, h, http.MethodPost, "/api/v1/tick", "anything", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTickCountBounds(t *testing.T) {
	srv, h := newTestServer(t, "secret")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/tick", "secret", `{"count": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(5), srv.Sim.CurrentTick())

	rec = doJSON(t, h, http.MethodPost, "/api/v1/tick", "secret", `{"count": 5000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminGiveItem(t *testing.T) {
	srv, h := newTestServer(t, "secret")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/actor/actor-baker/items", "secret", `{"type": "fish"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var item actor.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, actor.ItemType("fish"), item.Type)
	assert.Equal(t, 1, srv.Sim.Actor("actor-baker").Inventory.CountByType()["fish"])

	rec = doJSON(t, h, http.MethodPost, "/api/v1/actor/actor-baker/items", "secret", `{"type": "gold"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "items must come from the catalog")
}

func TestAdminGoals(t *testing.T) {
	srv, h := newTestServer(t, "secret")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/actor/actor-baker/goals", "secret",
		`{"type": "leisure", "units": 6, "recurrence_ticks": 20}`)
	require.Equal(t, http.StatusOK, rec.Code)
	g := srv.Sim.Actor("actor-baker").Registry.Lookup("leisure")
	require.NotNil(t, g)
	assert.Equal(t, 6, g.UnitsRemaining)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/actor/actor-baker/goals", "secret",
		`{"type": "leisure", "remove": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, srv.Sim.Actor("actor-baker").Registry.Lookup("leisure"))

	rec = doJSON(t, h, http.MethodPost, "/api/v1/actor/actor-baker/goals", "secret",
		`{"type": "fame", "units": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unranked goal types rejected")
}

func TestEventsFilter(t *testing.T) {
	srv, h := newTestServer(t, "")
	srv.Sim.StepN(10)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/events?limit=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []engine.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.LessOrEqual(t, len(events), 5)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/events?category=use", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	events = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	for _, e := range events {
		assert.Equal(t, "use", e.Category)
	}
}

func TestSpeedWithoutEngine(t *testing.T) {
	_, h := newTestServer(t, "secret")
	rec := doJSON(t, h, http.MethodPost, "/api/v1/speed", "secret", `{"speed": 2}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
