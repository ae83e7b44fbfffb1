package storage

import (
	"github.com/secretforest/secretforest/internal/core"
)

// MemoryStore handles agent memory persistence
type MemoryStore struct {
	db *DB
}

// NewMemoryStore creates a new memory store
func NewMemoryStore(db *DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// Create inserts a memory for an agent.
func (s *MemoryStore) Create(m *core.Memory) error {
	res, err := s.db.conn.Exec(`
		INSERT INTO memories (agent_id, content, is_key) VALUES (?, ?, ?)
	`, m.AgentID, m.Content, m.IsKey)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// GetRecent returns up to limit memories for an agent, newest first.
func (s *MemoryStore) GetRecent(agentID int64, limit int) ([]*core.Memory, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, agent_id, content, is_key, timestamp
		FROM memories
		WHERE agent_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memories := []*core.Memory{}
	for rows.Next() {
		m := &core.Memory{}
		if err := rows.Scan(&m.ID, &m.AgentID, &m.Content, &m.IsKey, &m.Timestamp); err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}

	return memories, rows.Err()
}
