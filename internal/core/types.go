// Package core defines the fundamental types for Secret Forest.
// Agents, relationships and events are the DNA of the whole world.
package core

import (
	"strings"
	"time"
)

// -----------------------------------------------------------------------------
// MOOD - The closed emotional vocabulary
// -----------------------------------------------------------------------------

// Mood is one of the five fixed emotional states an agent can be in.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodAngry   Mood = "angry"
	MoodNeutral Mood = "neutral"
	MoodScared  Mood = "scared"
)

// moodImpacts maps each mood to its signed impact on displayed
// relationship strength.
var moodImpacts = map[Mood]int{
	MoodHappy:   10,
	MoodNeutral: 0,
	MoodSad:     -8,
	MoodAngry:   -16,
	MoodScared:  -10,
}

// moodValues maps each mood to a point on the [-100,100] emotional scale.
// These are the values the original world seeds agents with.
var moodValues = map[Mood]int{
	MoodHappy:   60,
	MoodNeutral: 0,
	MoodSad:     -30,
	MoodAngry:   -50,
	MoodScared:  -40,
}

// ParseMood normalizes s to lowercase and validates it against the
// closed mood set.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := moodImpacts[m]; !ok {
		return "", ErrInvalidMood
	}
	return m, nil
}

// Impact returns the mood's signed strength impact. Unknown moods act
// as neutral rather than failing.
func (m Mood) Impact() int {
	return moodImpacts[m]
}

// Value returns the mood's point on the [-100,100] emotional scale.
// Unknown moods act as neutral.
func (m Mood) Value() int {
	return moodValues[m]
}

// Valid reports whether the mood is one of the five fixed labels.
func (m Mood) Valid() bool {
	_, ok := moodImpacts[m]
	return ok
}

// -----------------------------------------------------------------------------
// RELATION KIND - The closed relationship vocabulary
// -----------------------------------------------------------------------------

// RelationKind labels a directed edge between two agents.
type RelationKind string

const (
	RelationFriendship RelationKind = "friendship"
	RelationTension    RelationKind = "tension"
	RelationCare       RelationKind = "care"
	RelationRespect    RelationKind = "respect"
	RelationNeutral    RelationKind = "neutral"
)

var relationKinds = map[RelationKind]bool{
	RelationFriendship: true,
	RelationTension:    true,
	RelationCare:       true,
	RelationRespect:    true,
	RelationNeutral:    true,
}

// ParseRelationKind normalizes s to lowercase and validates it against
// the closed relation set. Empty input defaults to RelationNeutral.
func ParseRelationKind(s string) (RelationKind, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return RelationNeutral, nil
	}
	k := RelationKind(trimmed)
	if !relationKinds[k] {
		return "", ErrInvalidRelationKind
	}
	return k, nil
}

// Valid reports whether the kind is one of the five fixed labels.
func (k RelationKind) Valid() bool {
	return relationKinds[k]
}

// -----------------------------------------------------------------------------
// AGENT - A character of the forest
// -----------------------------------------------------------------------------

// Agent is a simulated character with identity, a current mood and a
// personality descriptor. Names are unique and immutable.
type Agent struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Mood             Mood      `json:"mood"`
	PersonalityType  string    `json:"personality_type"`
	PersonalityTitle string    `json:"personality_title"`
	Description      string    `json:"description,omitempty"`
	Background       string    `json:"background,omitempty"`
	AvatarEmoji      string    `json:"avatar_emoji"`
	MoodValue        int       `json:"mood_value"`
	CreatedAt        time.Time `json:"created_at"`
}

// AgentDetail is an Agent together with its recent memories and active
// goals, as returned by the detail projection.
type AgentDetail struct {
	Agent
	Memories []*Memory `json:"memories"`
	Goals    []*Goal   `json:"goals"`
}

// -----------------------------------------------------------------------------
// RELATIONSHIP - A directed, labeled edge between two agents
// -----------------------------------------------------------------------------

// Relationship is a directed edge from one agent to another. At most one
// edge exists per ordered (from, to) pair; strength is always in [0,100].
// Edges are not symmetric: A->B and B->A are independent.
type Relationship struct {
	ID           int64        `json:"id"`
	AgentFromID  int64        `json:"agent_from_id"`
	AgentToID    int64        `json:"agent_to_id"`
	RelationType RelationKind `json:"relation_type"`
	Strength     int          `json:"strength"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Annotations resolved at query time
	FromName        string `json:"from_name,omitempty"`
	ToName          string `json:"to_name,omitempty"`
	FromMood        Mood   `json:"-"`
	ToMood          Mood   `json:"-"`
	DisplayStrength int    `json:"display_strength"`
}

// -----------------------------------------------------------------------------
// EVENT - An immutable record of something that happened
// -----------------------------------------------------------------------------

// Event is an append-only record. Once written it is never mutated;
// removing an agent nulls the reference instead of deleting the event.
type Event struct {
	ID            int64        `json:"id"`
	Content       string       `json:"content"`
	ActorID       *int64       `json:"actor_id,omitempty"`
	TargetID      *int64       `json:"target_id,omitempty"`
	MoodAfter     *Mood        `json:"mood_after,omitempty"`
	RelationType  RelationKind `json:"relation_type"`
	RelationDelta int          `json:"relation_delta"`
	CreatedAt     time.Time    `json:"created_at"`

	// Names resolved at query time; null if the agent no longer exists.
	ActorName  *string `json:"actor_name"`
	TargetName *string `json:"target_name"`
}

// -----------------------------------------------------------------------------
// MEMORY & GOAL - Per-agent narrative state
// -----------------------------------------------------------------------------

// Memory is one remembered episode of an agent's life.
type Memory struct {
	ID        int64     `json:"id"`
	AgentID   int64     `json:"agent_id"`
	Content   string    `json:"content"`
	IsKey     bool      `json:"is_key"`
	Timestamp time.Time `json:"timestamp"`
}

// GoalStatus tracks the lifecycle of an agent goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

// Goal is something an agent wants.
type Goal struct {
	ID        int64      `json:"id"`
	AgentID   int64      `json:"agent_id"`
	Goal      string     `json:"goal"`
	Status    GoalStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// ClampStrength clamps a relationship strength into [0,100].
func ClampStrength(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
