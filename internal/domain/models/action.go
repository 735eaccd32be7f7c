package models

import "time"

// ActionRecord is the append-only history of actually published actions.
// Records are appended only after the poster confirms success, so the
// scheduler's rate-limit and dedup checks can trust them.
type ActionRecord struct {
	TriggeredAt time.Time
	Mood        Mood
	Fingerprint string // deterministic hash of the semantic content
	Channel     string
	Trigger     string // what tripped the act gate (transition, heartbeat, ...)
}

// CommentaryRequest carries everything the completion collaborator needs
// to phrase a market update. Only the semantic fingerprint of the result
// matters to the core.
type CommentaryRequest struct {
	Mood    Mood
	State   CorrelationState
	Trigger string
}
