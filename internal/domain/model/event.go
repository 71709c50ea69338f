package model

import "time"

// EventReason classifies what triggered a rating change.
type EventReason string

// Rating event reasons.
const (
	ReasonMatch EventReason = "match"
	ReasonIdle  EventReason = "idle"
	ReasonMVP   EventReason = "mvp"
)

// RatingEvent is an immutable audit record of one rating change. Events are
// append-only; reconstructing a player's state before a cutoff means reading
// the most recent event prior to it.
type RatingEvent struct {
	EventID     string
	PlayerID    int64
	MuBefore    float64
	MuAfter     float64
	SigmaBefore float64
	SigmaAfter  float64
	Reason      EventReason
	Meta        map[string]any
	CreatedAt   time.Time
}
