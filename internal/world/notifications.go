package world

import "github.com/secretforest/secretforest/internal/core"

// NotificationKind is the kind of change notification pushed to observers.
type NotificationKind string

const (
	NotifyEvent          NotificationKind = "event"
	NotifyMoodUpdate     NotificationKind = "mood_update"
	NotifyRelationUpdate NotificationKind = "relation_update"
)

// Publisher receives a change notification after each committed
// mutation. Publish is called synchronously, in commit order, and must
// never fail the mutation: delivery problems are the publisher's to
// swallow.
type Publisher interface {
	Publish(kind NotificationKind, data any)
}

// MoodUpdate is the payload of a mood_update notification: just enough
// for an observer to patch its local view of one agent.
type MoodUpdate struct {
	AgentID   int64     `json:"agent_id"`
	Mood      core.Mood `json:"mood"`
	MoodValue int       `json:"mood_value"`
}

// RelationUpdate is the payload of a relation_update notification. It
// is a hint: observers re-query the relationship projection for display
// strengths.
type RelationUpdate struct {
	AgentFromID  int64             `json:"agent_from_id"`
	AgentToID    int64             `json:"agent_to_id"`
	RelationType core.RelationKind `json:"relation_type"`
	Strength     int               `json:"strength"`
}
