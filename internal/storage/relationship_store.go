package storage

import (
	"database/sql"

	"github.com/secretforest/secretforest/internal/core"
)

// RelationshipStore handles relationship persistence
type RelationshipStore struct {
	db *DB
}

// NewRelationshipStore creates a new relationship store
func NewRelationshipStore(db *DB) *RelationshipStore {
	return &RelationshipStore{db: db}
}

// Create inserts a directed edge. At most one edge per (from, to) pair
// exists; a second insert for the same pair fails on the unique index.
func (s *RelationshipStore) Create(r *core.Relationship) error {
	res, err := s.db.conn.Exec(`
		INSERT INTO relationships (agent_from_id, agent_to_id, relation_type, strength)
		VALUES (?, ?, ?, ?)
	`, r.AgentFromID, r.AgentToID, r.RelationType, core.ClampStrength(r.Strength))
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// Get returns the edge for an ordered (from, to) pair.
func (s *RelationshipStore) Get(fromID, toID int64) (*core.Relationship, error) {
	r := &core.Relationship{}
	err := s.db.conn.QueryRow(`
		SELECT id, agent_from_id, agent_to_id, relation_type, strength, updated_at
		FROM relationships
		WHERE agent_from_id = ? AND agent_to_id = ?
	`, fromID, toID).Scan(
		&r.ID, &r.AgentFromID, &r.AgentToID, &r.RelationType, &r.Strength, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrRelationshipNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetAll returns all edges in creation order, annotated with the names
// and current moods of their endpoints. Display strength is left for the
// caller to derive from the moods.
func (s *RelationshipStore) GetAll() ([]*core.Relationship, error) {
	rows, err := s.db.conn.Query(`
		SELECT r.id, r.agent_from_id, r.agent_to_id, r.relation_type, r.strength,
		       r.updated_at,
		       af.name, af.mood, at.name, at.mood
		FROM relationships r
		JOIN agents af ON af.id = r.agent_from_id
		JOIN agents at ON at.id = r.agent_to_id
		ORDER BY r.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []*core.Relationship
	for rows.Next() {
		r := &core.Relationship{}
		err := rows.Scan(
			&r.ID, &r.AgentFromID, &r.AgentToID, &r.RelationType, &r.Strength,
			&r.UpdatedAt,
			&r.FromName, &r.FromMood, &r.ToName, &r.ToMood,
		)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}

	return rels, rows.Err()
}

// Count returns total relationship count
func (s *RelationshipStore) Count() (int, error) {
	var count int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM relationships").Scan(&count)
	return count, err
}
