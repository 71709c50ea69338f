package model

// WriteBatch is the unit of persistence for a rating operation: the new
// player states plus the audit events explaining them. A repository must
// apply the whole batch atomically or not at all.
type WriteBatch struct {
	Players []PlayerRating
	Events  []RatingEvent
}

// Empty reports whether the batch carries no writes.
func (b WriteBatch) Empty() bool {
	return len(b.Players) == 0 && len(b.Events) == 0
}
