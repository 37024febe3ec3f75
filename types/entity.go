// Package types provides common types used across postings entities.
package types

import "time"

// Entity is the base type for all postings entities with timestamps.
// Embed it in domain types to get consistent timestamp handling.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity stamped with the current time.
func NewEntity() Entity {
	return NewEntityAt(time.Now())
}

// NewEntityAt creates a new Entity stamped with t, normalized by Timestamp.
func NewEntityAt(t time.Time) Entity {
	ts := Timestamp(t)
	return Entity{
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// Touch updates the UpdatedAt timestamp to t.
func (e *Entity) Touch(t time.Time) {
	e.UpdatedAt = Timestamp(t)
}

// Timestamp normalizes t to UTC at microsecond precision, the finest
// resolution every backend stores losslessly. All effective, record and
// value times pass through it before they are hashed or persisted.
func Timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Microsecond)
}
