package storage

import (
	"database/sql"

	"github.com/secretforest/secretforest/internal/core"
)

// AgentStore handles agent persistence
type AgentStore struct {
	db *DB
}

// NewAgentStore creates a new agent store
func NewAgentStore(db *DB) *AgentStore {
	return &AgentStore{db: db}
}

// Create inserts a new agent and returns it with its assigned ID.
func (s *AgentStore) Create(a *core.Agent) error {
	res, err := s.db.conn.Exec(`
		INSERT INTO agents (name, mood, personality_type, personality_title,
		                    description, background, avatar_emoji, mood_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.Name, a.Mood, a.PersonalityType, a.PersonalityTitle,
		nullableString(a.Description), nullableString(a.Background),
		a.AvatarEmoji, a.MoodValue)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateAgent
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id

	return s.db.conn.QueryRow(
		"SELECT created_at FROM agents WHERE id = ?", id,
	).Scan(&a.CreatedAt)
}

// GetByID returns an agent by ID
func (s *AgentStore) GetByID(id int64) (*core.Agent, error) {
	row := s.db.conn.QueryRow(`
		SELECT id, name, mood, personality_type, personality_title,
		       description, background, avatar_emoji, mood_value, created_at
		FROM agents WHERE id = ?
	`, id)
	return scanAgent(row)
}

// GetAll returns all agents in creation order
func (s *AgentStore) GetAll() ([]*core.Agent, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, name, mood, personality_type, personality_title,
		       description, background, avatar_emoji, mood_value, created_at
		FROM agents
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*core.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	return agents, rows.Err()
}

// SetMood updates an agent's mood and derived mood value.
// Returns core.ErrAgentNotFound if no row was changed.
func (s *AgentStore) SetMood(id int64, mood core.Mood) error {
	res, err := s.db.conn.Exec(
		"UPDATE agents SET mood = ?, mood_value = ? WHERE id = ?",
		mood, mood.Value(), id,
	)
	if err != nil {
		return err
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if changed == 0 {
		return core.ErrAgentNotFound
	}
	return nil
}

// Exists reports whether an agent with the given ID exists.
func (s *AgentStore) Exists(id int64) (bool, error) {
	var one int
	err := s.db.conn.QueryRow("SELECT 1 FROM agents WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns total agent count
func (s *AgentStore) Count() (int, error) {
	var count int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM agents").Scan(&count)
	return count, err
}

// Delete removes an agent. Relationships, memories and goals cascade;
// events keep their rows with the reference nulled.
func (s *AgentStore) Delete(id int64) error {
	res, err := s.db.conn.Exec("DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return err
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if changed == 0 {
		return core.ErrAgentNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*core.Agent, error) {
	a := &core.Agent{}
	var description, background sql.NullString

	err := row.Scan(
		&a.ID, &a.Name, &a.Mood, &a.PersonalityType, &a.PersonalityTitle,
		&description, &background, &a.AvatarEmoji, &a.MoodValue, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}

	a.Description = description.String
	a.Background = background.String
	return a, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
