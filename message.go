package coach

import "time"

// Message is one entry of a session transcript. User messages never change
// after creation. Assistant message content grows while its turn is
// streaming and is frozen once the turn finishes.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}
