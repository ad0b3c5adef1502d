package domain

import "time"

// ConversationTurn is a single message in a thread between a user and a
// synthetic profile.
type ConversationTurn struct {
	ThreadID  string
	Role      string
	Text      string
	Automated bool
	CreatedAt time.Time
}

// ThreadMeta stores aggregate thread state.
type ThreadMeta struct {
	ThreadID      string
	LastInboundAt *time.Time
	LastActivity  time.Time
	Turns         int
}

// ResponderProfile is the subset of a profile the responder needs.
type ResponderProfile struct {
	ID          string
	Name        string
	Age         int
	Bio         string
	Personality *Personality
	Synthetic   bool
}
