package core

import "errors"

// Core errors that can occur across the system
var (
	// Validation errors
	ErrInvalidInput        = errors.New("invalid input")
	ErrEmptyContent        = errors.New("event content cannot be empty")
	ErrInvalidMood         = errors.New("invalid mood")
	ErrInvalidRelationKind = errors.New("invalid relation kind")

	// Lookup errors
	ErrAgentNotFound        = errors.New("agent not found")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrEventNotFound        = errors.New("event not found")

	// Storage errors
	ErrDuplicateAgent = errors.New("agent name already exists")
)
