package storage

import (
	"database/sql"

	"github.com/secretforest/secretforest/internal/core"
)

// EventStore handles event persistence. Events are append-only: there is
// deliberately no update or delete here.
type EventStore struct {
	db *DB
}

// NewEventStore creates a new event store
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `
	e.id, e.content, e.actor_id, e.target_id, e.mood_after,
	e.relation_type, e.relation_delta, e.created_at,
	af.name AS actor_name, at.name AS target_name`

const eventJoins = `
	FROM events e
	LEFT JOIN agents af ON af.id = e.actor_id
	LEFT JOIN agents at ON at.id = e.target_id`

// GetByID returns a single event enriched with actor/target names.
func (s *EventStore) GetByID(id int64) (*core.Event, error) {
	row := s.db.conn.QueryRow(
		"SELECT"+eventColumns+eventJoins+" WHERE e.id = ?", id,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrEventNotFound
	}
	return e, err
}

// GetRecent returns up to limit events, most recent first, enriched with
// actor/target names resolved at query time.
func (s *EventStore) GetRecent(limit int) ([]*core.Event, error) {
	rows, err := s.db.conn.Query(
		"SELECT"+eventColumns+eventJoins+" ORDER BY e.id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*core.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// Count returns total event count
func (s *EventStore) Count() (int, error) {
	var count int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	return count, err
}

func scanEvent(row rowScanner) (*core.Event, error) {
	e := &core.Event{}
	var actorID, targetID sql.NullInt64
	var moodAfter, actorName, targetName sql.NullString

	err := row.Scan(
		&e.ID, &e.Content, &actorID, &targetID, &moodAfter,
		&e.RelationType, &e.RelationDelta, &e.CreatedAt,
		&actorName, &targetName,
	)
	if err != nil {
		return nil, err
	}

	if actorID.Valid {
		e.ActorID = &actorID.Int64
	}
	if targetID.Valid {
		e.TargetID = &targetID.Int64
	}
	if moodAfter.Valid {
		m := core.Mood(moodAfter.String)
		e.MoodAfter = &m
	}
	if actorName.Valid {
		e.ActorName = &actorName.String
	}
	if targetName.Valid {
		e.TargetName = &targetName.String
	}

	return e, nil
}
