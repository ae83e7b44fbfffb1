package world

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/secretforest/secretforest/internal/core"
	"github.com/secretforest/secretforest/internal/logging"
	"github.com/secretforest/secretforest/internal/storage"
)

// defaultStrength is the base strength a relationship starts from when
// an event first creates it.
const defaultStrength = 50

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
)

// Engine is the single writer of world state. Every mutation runs as one
// atomic transaction against the store; observers are notified only
// after the transaction commits.
type Engine struct {
	db *storage.DB

	agents        *storage.AgentStore
	relationships *storage.RelationshipStore
	events        *storage.EventStore
	memories      *storage.MemoryStore
	goals         *storage.GoalStore

	publisher Publisher
	log       *logging.Logger
}

// NewEngine creates the world engine. publisher may be nil, in which
// case committed mutations go unannounced.
func NewEngine(db *storage.DB, publisher Publisher) *Engine {
	return &Engine{
		db:            db,
		agents:        storage.NewAgentStore(db),
		relationships: storage.NewRelationshipStore(db),
		events:        storage.NewEventStore(db),
		memories:      storage.NewMemoryStore(db),
		goals:         storage.NewGoalStore(db),
		publisher:     publisher,
		log:           logging.WithField("component", "world"),
	}
}

// SetPublisher replaces the engine's publisher. Used at startup when
// the publisher (the API server) is constructed after the engine.
func (e *Engine) SetPublisher(p Publisher) {
	e.publisher = p
}

// EventInput is the raw ingestion request for RecordEvent. Mood and
// relation labels are validated and case-normalized here, not by the
// caller.
type EventInput struct {
	Content       string
	ActorID       *int64
	TargetID      *int64
	MoodAfter     string
	RelationType  string
	RelationDelta int
}

// RecordEvent validates input, then atomically persists the event,
// updates the actor's mood (when given) and applies the relation delta
// to the actor->target edge (when both ends and a non-zero delta are
// given). Either everything commits or nothing does.
//
// An actor or target id that resolves to no agent does not fail the
// call: the event is still recorded with the dangling reference dropped,
// and the dependent mood/relationship steps are skipped.
func (e *Engine) RecordEvent(in EventInput) (*core.Event, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, core.ErrEmptyContent
	}

	var moodAfter *core.Mood
	if in.MoodAfter != "" {
		m, err := core.ParseMood(in.MoodAfter)
		if err != nil {
			return nil, err
		}
		moodAfter = &m
	}

	relType, err := core.ParseRelationKind(in.RelationType)
	if err != nil {
		return nil, err
	}

	var (
		eventID    int64
		moodChange *MoodUpdate
		relChange  *RelationUpdate
	)

	err = e.db.Transaction(func(tx *sql.Tx) error {
		actorID, err := resolveAgent(tx, in.ActorID)
		if err != nil {
			return err
		}
		if in.ActorID != nil && actorID == nil {
			e.log.Warn("Event references unknown actor %d, side effects skipped", *in.ActorID)
		}

		targetID, err := resolveAgent(tx, in.TargetID)
		if err != nil {
			return err
		}
		if in.TargetID != nil && targetID == nil {
			e.log.Warn("Event references unknown target %d, side effects skipped", *in.TargetID)
		}

		res, err := tx.Exec(`
			INSERT INTO events (content, actor_id, target_id, mood_after, relation_type, relation_delta)
			VALUES (?, ?, ?, ?, ?, ?)
		`, content, nullableID(actorID), nullableID(targetID), nullableMood(moodAfter), relType, in.RelationDelta)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		eventID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		if actorID != nil && moodAfter != nil {
			_, err := tx.Exec(
				"UPDATE agents SET mood = ?, mood_value = ? WHERE id = ?",
				*moodAfter, moodAfter.Value(), *actorID,
			)
			if err != nil {
				return fmt.Errorf("update actor mood: %w", err)
			}
			moodChange = &MoodUpdate{
				AgentID:   *actorID,
				Mood:      *moodAfter,
				MoodValue: moodAfter.Value(),
			}
		}

		if actorID != nil && targetID != nil && in.RelationDelta != 0 {
			strength := defaultStrength
			err := tx.QueryRow(
				"SELECT strength FROM relationships WHERE agent_from_id = ? AND agent_to_id = ?",
				*actorID, *targetID,
			).Scan(&strength)
			if err != nil && err != sql.ErrNoRows {
				return fmt.Errorf("read relationship strength: %w", err)
			}

			next := core.ClampStrength(strength + in.RelationDelta)
			_, err = tx.Exec(`
				INSERT INTO relationships (agent_from_id, agent_to_id, relation_type, strength, updated_at)
				VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(agent_from_id, agent_to_id) DO UPDATE SET
					relation_type = excluded.relation_type,
					strength = excluded.strength,
					updated_at = CURRENT_TIMESTAMP
			`, *actorID, *targetID, relType, next)
			if err != nil {
				return fmt.Errorf("upsert relationship: %w", err)
			}
			relChange = &RelationUpdate{
				AgentFromID:  *actorID,
				AgentToID:    *targetID,
				RelationType: relType,
				Strength:     next,
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	event, err := e.events.GetByID(eventID)
	if err != nil {
		return nil, fmt.Errorf("load recorded event: %w", err)
	}

	e.publish(NotifyEvent, event)
	if moodChange != nil {
		e.publish(NotifyMoodUpdate, moodChange)
	}
	if relChange != nil {
		e.publish(NotifyRelationUpdate, relChange)
	}

	return event, nil
}

// SetMood directly overrides an agent's mood. Unlike RecordEvent this is
// not logged as an event; it is a single-row update.
func (e *Engine) SetMood(agentID int64, mood string) (*core.Agent, error) {
	m, err := core.ParseMood(mood)
	if err != nil {
		return nil, err
	}

	if err := e.agents.SetMood(agentID, m); err != nil {
		return nil, err
	}

	agent, err := e.agents.GetByID(agentID)
	if err != nil {
		return nil, err
	}

	e.publish(NotifyMoodUpdate, &MoodUpdate{
		AgentID:   agent.ID,
		Mood:      agent.Mood,
		MoodValue: agent.MoodValue,
	})

	return agent, nil
}

// CreateAgent adds a character to the world. Seed/admin operation.
func (e *Engine) CreateAgent(a *core.Agent) (*core.Agent, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return nil, core.ErrInvalidInput
	}
	if a.Mood == "" {
		a.Mood = core.MoodNeutral
	}
	if !a.Mood.Valid() {
		return nil, core.ErrInvalidMood
	}
	if a.AvatarEmoji == "" {
		a.AvatarEmoji = "🐾"
	}
	a.MoodValue = a.Mood.Value()

	if err := e.agents.Create(a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAgents returns all agents in creation order.
func (e *Engine) ListAgents() ([]*core.Agent, error) {
	return e.agents.GetAll()
}

// GetAgentDetail returns one agent with its recent memories and active
// goals.
func (e *Engine) GetAgentDetail(agentID int64) (*core.AgentDetail, error) {
	agent, err := e.agents.GetByID(agentID)
	if err != nil {
		return nil, err
	}

	memories, err := e.memories.GetRecent(agentID, 10)
	if err != nil {
		return nil, err
	}

	goals, err := e.goals.GetActive(agentID)
	if err != nil {
		return nil, err
	}

	return &core.AgentDetail{Agent: *agent, Memories: memories, Goals: goals}, nil
}

// ListRelationships returns all edges annotated with display strength
// derived from the endpoints' moods at query time.
func (e *Engine) ListRelationships() ([]*core.Relationship, error) {
	rels, err := e.relationships.GetAll()
	if err != nil {
		return nil, err
	}

	for _, r := range rels {
		r.DisplayStrength = DisplayStrength(r.Strength, r.FromMood, r.ToMood, r.RelationType)
	}
	return rels, nil
}

// ListRecentEvents returns up to limit events, most recent first. A
// non-positive limit falls back to the default; anything above the cap
// is silently truncated to it.
func (e *Engine) ListRecentEvents(limit int) ([]*core.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	return e.events.GetRecent(limit)
}

func (e *Engine) publish(kind NotificationKind, data any) {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(kind, data)
}

// resolveAgent checks an optional agent reference inside the ingestion
// transaction. A nil id stays nil; an id with no matching agent also
// resolves to nil, which is what lets ingestion soft-skip stale
// references instead of failing.
func resolveAgent(tx *sql.Tx, id *int64) (*int64, error) {
	if id == nil {
		return nil, nil
	}

	var one int
	err := tx.QueryRow("SELECT 1 FROM agents WHERE id = ?", *id).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve agent %d: %w", *id, err)
	}
	return id, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableMood(m *core.Mood) any {
	if m == nil {
		return nil
	}
	return string(*m)
}
