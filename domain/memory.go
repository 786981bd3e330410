package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("memory not found")
	ErrInvalid  = errors.New("invalid request")
)

type Memory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult is a Memory plus its relevance to the query, in (0, 1].
type SearchResult struct {
	Memory
	Score float64 `json:"score"`
}

type HistoryEntry struct {
	MemoryID   string    `json:"memory_id"`
	Event      EventKind `json:"event"`
	Content    string    `json:"content"`
	RecordedAt time.Time `json:"recorded_at"`
}

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event is one entry of the change feed the store emits.
type Event struct {
	Kind   EventKind `json:"kind"`
	Memory Memory    `json:"memory"`
	At     time.Time `json:"at"`
}
