// Package api provides the HTTP API server for Secret Forest.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/secretforest/secretforest/internal/core"
	"github.com/secretforest/secretforest/internal/logging"
	"github.com/secretforest/secretforest/internal/world"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	engine *world.Engine
	wsHub  *WebSocketHub
	log    *logging.Logger
}

// Config for the server
type Config struct {
	Host   string
	Port   int
	Engine *world.Engine
}

// New creates a new API server. The returned server implements
// world.Publisher, so it is usually wired as the engine's publisher.
func New(cfg Config) *Server {
	s := &Server{
		engine: cfg.Engine,
		wsHub:  NewWebSocketHub(),
		log:    logging.WithField("component", "api"),
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Publish implements world.Publisher: every committed mutation becomes
// one websocket broadcast.
func (s *Server) Publish(kind world.NotificationKind, data any) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      string(kind),
		Data:      data,
		Timestamp: time.Now(),
	})
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/agents", s.handleListAgents)
		r.Post("/agents", s.handleCreateAgent)
		r.Get("/agents/{agentID}", s.handleGetAgent)
		r.Patch("/agents/{agentID}/mood", s.handleSetMood)

		r.Get("/relationships", s.handleListRelationships)

		r.Get("/events", s.handleListEvents)
		r.Post("/events", s.handleRecordEvent)
	})

	// WebSocket
	r.Get("/ws", s.wsHub.handleWebSocket)

	s.router = r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.log.Info("API server starting on http://%s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server and shuts the websocket hub down.
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Close()
	return s.httpServer.Shutdown(ctx)
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps engine errors onto HTTP status codes.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyContent),
		errors.Is(err, core.ErrInvalidMood),
		errors.Is(err, core.ErrInvalidRelationKind),
		errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrDuplicateAgent):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrAgentNotFound),
		errors.Is(err, core.ErrEventNotFound),
		errors.Is(err, core.ErrRelationshipNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("Internal error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func agentIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "agentID"), 10, 64)
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "secret-forest-backend",
	})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.engine.ListAgents()
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if agents == nil {
		agents = []*core.Agent{}
	}
	s.respondJSON(w, http.StatusOK, agents)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id, err := agentIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	detail, err := s.engine.GetAgentDetail(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name             string `json:"name"`
		Mood             string `json:"mood"`
		PersonalityType  string `json:"personality_type"`
		PersonalityTitle string `json:"personality_title"`
		Description      string `json:"description"`
		Background       string `json:"background"`
		AvatarEmoji      string `json:"avatar_emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	mood := core.MoodNeutral
	if input.Mood != "" {
		var err error
		mood, err = core.ParseMood(input.Mood)
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
	}

	agent, err := s.engine.CreateAgent(&core.Agent{
		Name:             input.Name,
		Mood:             mood,
		PersonalityType:  input.PersonalityType,
		PersonalityTitle: input.PersonalityTitle,
		Description:      input.Description,
		Background:       input.Background,
		AvatarEmoji:      input.AvatarEmoji,
	})
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, agent)
}

func (s *Server) handleSetMood(w http.ResponseWriter, r *http.Request) {
	id, err := agentIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	var input struct {
		Mood string `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	agent, err := s.engine.SetMood(id, input.Mood)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"id":   agent.ID,
		"name": agent.Name,
		"mood": agent.Mood,
	})
}

func (s *Server) handleListRelationships(w http.ResponseWriter, r *http.Request) {
	rels, err := s.engine.ListRelationships()
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if rels == nil {
		rels = []*core.Relationship{}
	}
	s.respondJSON(w, http.StatusOK, rels)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	events, err := s.engine.ListRecentEvents(limit)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if events == nil {
		events = []*core.Event{}
	}
	s.respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Content       string `json:"content"`
		ActorID       *int64 `json:"actorId"`
		TargetID      *int64 `json:"targetId"`
		MoodAfter     string `json:"moodAfter"`
		RelationType  string `json:"relationType"`
		RelationDelta int    `json:"relationDelta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	event, err := s.engine.RecordEvent(world.EventInput{
		Content:       input.Content,
		ActorID:       input.ActorID,
		TargetID:      input.TargetID,
		MoodAfter:     input.MoodAfter,
		RelationType:  input.RelationType,
		RelationDelta: input.RelationDelta,
	})
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, event)
}
