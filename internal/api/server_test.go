package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/secretforest/secretforest/internal/core"
	"github.com/secretforest/secretforest/internal/logging"
	"github.com/secretforest/secretforest/internal/storage"
	"github.com/secretforest/secretforest/internal/world"
)

// testServer creates a test server with in-memory database
func testServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()

	db, err := storage.Open(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	srv := &Server{
		engine: world.NewEngine(db, nil),
		wsHub:  NewWebSocketHub(),
		log:    logging.WithField("component", "api"),
	}

	return srv, db
}

func createTestAgent(t *testing.T, db *storage.DB, name string, mood core.Mood) *core.Agent {
	t.Helper()

	agent := &core.Agent{
		Name:      name,
		Mood:      mood,
		MoodValue: mood.Value(),
	}
	if err := storage.NewAgentStore(db).Create(agent); err != nil {
		t.Fatalf("failed to create agent %s: %v", name, err)
	}
	return agent
}

// --- Health ---

func TestAPI_Health(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	rr := httptest.NewRecorder()

	srv.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if resp["ok"] != true {
		t.Errorf("expected ok=true, got %v", resp["ok"])
	}
	if resp["service"] != "secret-forest-backend" {
		t.Errorf("unexpected service name: %v", resp["service"])
	}
}

// --- Agents ---

func TestAPI_ListAgents_Empty(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/agents", nil)
	rr := httptest.NewRecorder()

	srv.handleListAgents(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("expected empty array, got %q", body)
	}
}

func TestAPI_CreateAgent(t *testing.T) {
	srv, _ := testServer(t)

	body := bytes.NewBufferString(`{"name": "Мо", "mood": "happy", "avatar_emoji": "🐼"}`)
	req := httptest.NewRequest("POST", "/api/agents", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	srv.handleCreateAgent(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var agent core.Agent
	json.Unmarshal(rr.Body.Bytes(), &agent)

	if agent.Name != "Мо" {
		t.Errorf("expected name Мо, got %q", agent.Name)
	}
	if agent.Mood != core.MoodHappy {
		t.Errorf("expected mood happy, got %q", agent.Mood)
	}
	if agent.ID == 0 {
		t.Error("expected assigned id")
	}
}

func TestAPI_CreateAgent_InvalidJSON(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("POST", "/api/agents", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()

	srv.handleCreateAgent(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestAPI_CreateAgent_EmptyName(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("POST", "/api/agents", bytes.NewBufferString(`{"name": "  "}`))
	rr := httptest.NewRecorder()

	srv.handleCreateAgent(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestAPI_CreateAgent_BadMood(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("POST", "/api/agents", bytes.NewBufferString(`{"name": "Лея", "mood": "ecstatic"}`))
	rr := httptest.NewRecorder()

	srv.handleCreateAgent(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestAPI_GetAgent_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	r := chi.NewRouter()
	r.Get("/api/agents/{agentID}", srv.handleGetAgent)

	req := httptest.NewRequest("GET", "/api/agents/999", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestAPI_GetAgent_InvalidID(t *testing.T) {
	srv, _ := testServer(t)

	r := chi.NewRouter()
	r.Get("/api/agents/{agentID}", srv.handleGetAgent)

	req := httptest.NewRequest("GET", "/api/agents/abc", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestAPI_GetAgent_Detail(t *testing.T) {
	srv, db := testServer(t)

	agent := createTestAgent(t, db, "Фыр", core.MoodAngry)

	r := chi.NewRouter()
	r.Get("/api/agents/{agentID}", srv.handleGetAgent)

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/agents/%d", agent.ID), nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var detail core.AgentDetail
	json.Unmarshal(rr.Body.Bytes(), &detail)

	if detail.Name != "Фыр" {
		t.Errorf("expected name Фыр, got %q", detail.Name)
	}
	if detail.Memories == nil {
		t.Error("expected memories array, got null")
	}
	if detail.Goals == nil {
		t.Error("expected goals array, got null")
	}
}

// --- Mood ---

func TestAPI_SetMood(t *testing.T) {
	srv, db := testServer(t)

	agent := createTestAgent(t, db, "Роки", core.MoodSad)

	r := chi.NewRouter()
	r.Patch("/api/agents/{agentID}/mood", srv.handleSetMood)

	body := bytes.NewBufferString(`{"mood": "happy"}`)
	req := httptest.NewRequest("PATCH", fmt.Sprintf("/api/agents/%d/mood", agent.ID), body)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if resp["mood"] != "happy" {
		t.Errorf("expected mood happy, got %v", resp["mood"])
	}
	if resp["name"] != "Роки" {
		t.Errorf("expected name Роки, got %v", resp["name"])
	}
}

func TestAPI_SetMood_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	r := chi.NewRouter()
	r.Patch("/api/agents/{agentID}/mood", srv.handleSetMood)

	req := httptest.NewRequest("PATCH", "/api/agents/42/mood", bytes.NewBufferString(`{"mood": "happy"}`))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestAPI_SetMood_Invalid(t *testing.T) {
	srv, db := testServer(t)

	agent := createTestAgent(t, db, "Лея", core.MoodNeutral)

	r := chi.NewRouter()
	r.Patch("/api/agents/{agentID}/mood", srv.handleSetMood)

	req := httptest.NewRequest("PATCH", fmt.Sprintf("/api/agents/%d/mood", agent.ID), bytes.NewBufferString(`{"mood": "grumpy"}`))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

// --- Events ---

func TestAPI_RecordEvent(t *testing.T) {
	srv, db := testServer(t)

	actor := createTestAgent(t, db, "Мо", core.MoodNeutral)
	target := createTestAgent(t, db, "Роки", core.MoodNeutral)

	payload := fmt.Sprintf(`{
		"content": "Мо делится мёдом с Роки.",
		"actorId": %d,
		"targetId": %d,
		"moodAfter": "happy",
		"relationType": "friendship",
		"relationDelta": 10
	}`, actor.ID, target.ID)

	req := httptest.NewRequest("POST", "/api/events", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	srv.handleRecordEvent(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var event core.Event
	json.Unmarshal(rr.Body.Bytes(), &event)

	if event.ID == 0 {
		t.Error("expected assigned event id")
	}
	if event.ActorName == nil || *event.ActorName != "Мо" {
		t.Errorf("expected actor name Мо, got %v", event.ActorName)
	}
	if event.TargetName == nil || *event.TargetName != "Роки" {
		t.Errorf("expected target name Роки, got %v", event.TargetName)
	}
}

func TestAPI_RecordEvent_EmptyContent(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("POST", "/api/events", bytes.NewBufferString(`{"content": "   "}`))
	rr := httptest.NewRecorder()

	srv.handleRecordEvent(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestAPI_RecordEvent_InvalidJSON(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("POST", "/api/events", bytes.NewBufferString("{broken"))
	rr := httptest.NewRecorder()

	srv.handleRecordEvent(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestAPI_ListEvents(t *testing.T) {
	srv, db := testServer(t)

	actor := createTestAgent(t, db, "Феликс", core.MoodScared)
	for i := 0; i < 3; i++ {
		_, err := srv.engine.RecordEvent(world.EventInput{
			Content: fmt.Sprintf("Феликс смотрит на звёзды (%d).", i),
			ActorID: &actor.ID,
		})
		if err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
	}

	req := httptest.NewRequest("GET", "/api/events?limit=2", nil)
	rr := httptest.NewRecorder()

	srv.handleListEvents(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var events []core.Event
	json.Unmarshal(rr.Body.Bytes(), &events)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID < events[1].ID {
		t.Error("expected most recent event first")
	}
}

func TestAPI_ListEvents_BadLimit(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/events?limit=abc", nil)
	rr := httptest.NewRecorder()

	srv.handleListEvents(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

// --- Relationships ---

func TestAPI_ListRelationships(t *testing.T) {
	srv, db := testServer(t)

	from := createTestAgent(t, db, "Мо", core.MoodHappy)
	to := createTestAgent(t, db, "Роки", core.MoodSad)

	err := storage.NewRelationshipStore(db).Create(&core.Relationship{
		AgentFromID:  from.ID,
		AgentToID:    to.ID,
		RelationType: core.RelationFriendship,
		Strength:     50,
	})
	if err != nil {
		t.Fatalf("failed to create relationship: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/relationships", nil)
	rr := httptest.NewRecorder()

	srv.handleListRelationships(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var rels []core.Relationship
	json.Unmarshal(rr.Body.Bytes(), &rels)

	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	// happy +10, sad -8, mean 1, friendship adds
	if rels[0].DisplayStrength != 51 {
		t.Errorf("expected display strength 51, got %d", rels[0].DisplayStrength)
	}
	if rels[0].FromName != "Мо" || rels[0].ToName != "Роки" {
		t.Errorf("unexpected endpoint names: %q -> %q", rels[0].FromName, rels[0].ToName)
	}
}

// --- WebSocket ---

func TestAPI_Publish_Broadcasts(t *testing.T) {
	srv, _ := testServer(t)
	go srv.wsHub.Run()

	// No clients connected: broadcast must be absorbed without blocking.
	srv.Publish(world.NotifyMoodUpdate, world.MoodUpdate{
		AgentID:   1,
		Mood:      core.MoodHappy,
		MoodValue: core.MoodHappy.Value(),
	})

	time.Sleep(50 * time.Millisecond)
}

func TestWebSocketHub_CloseStopsRun(t *testing.T) {
	hub := NewWebSocketHub()

	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()

	hub.Close()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	// A closed hub discards broadcasts instead of blocking, and Close
	// is safe to call again.
	for i := 0; i < 100; i++ {
		hub.Broadcast(WebSocketMessage{Type: string(world.NotifyEvent)})
	}
	hub.Close()
}

func TestWebSocketMessage_Shape(t *testing.T) {
	msg := WebSocketMessage{
		Type:      string(world.NotifyEvent),
		Data:      map[string]string{"content": "тест"},
		Timestamp: time.Now(),
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal message: %v", err)
	}

	var decoded map[string]interface{}
	json.Unmarshal(raw, &decoded)

	if decoded["type"] != "event" {
		t.Errorf("expected type event, got %v", decoded["type"])
	}
	if _, ok := decoded["data"]; !ok {
		t.Error("expected data field")
	}
	if _, ok := decoded["timestamp"]; !ok {
		t.Error("expected timestamp field")
	}
}
