package storage

import (
	"github.com/secretforest/secretforest/internal/core"
)

// GoalStore handles agent goal persistence
type GoalStore struct {
	db *DB
}

// NewGoalStore creates a new goal store
func NewGoalStore(db *DB) *GoalStore {
	return &GoalStore{db: db}
}

// Create inserts a goal for an agent.
func (s *GoalStore) Create(g *core.Goal) error {
	if g.Status == "" {
		g.Status = core.GoalActive
	}

	res, err := s.db.conn.Exec(`
		INSERT INTO goals (agent_id, goal, status) VALUES (?, ?, ?)
	`, g.AgentID, g.Goal, g.Status)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

// GetActive returns an agent's active goals, newest first.
func (s *GoalStore) GetActive(agentID int64) ([]*core.Goal, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, agent_id, goal, status, created_at
		FROM goals
		WHERE agent_id = ? AND status = 'active'
		ORDER BY created_at DESC, id DESC
	`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []*core.Goal{}
	for rows.Next() {
		g := &core.Goal{}
		if err := rows.Scan(&g.ID, &g.AgentID, &g.Goal, &g.Status, &g.CreatedAt); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}
