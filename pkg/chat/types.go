package chat

import (
	"time"
)

// Mode identifies one of the two isolated conversation contexts.
type Mode string

const (
	// ModeCustomer is the customer-facing conversation context.
	ModeCustomer Mode = "customer"
	// ModeInternal is the staff-only conversation context.
	ModeInternal Mode = "internal"
)

// Modes lists every conversation mode the manager maintains.
var Modes = []Mode{ModeCustomer, ModeInternal}

// Valid reports whether m names a known conversation mode.
func (m Mode) Valid() bool {
	return m == ModeCustomer || m == ModeInternal
}

// Role defines the sender of a timeline message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Citation is a cited excerpt attached to an assistant answer.
// It is populated from the gateway response and never mutated afterwards.
type Citation struct {
	Source   string  `json:"source"`
	Excerpt  string  `json:"excerpt"`
	Score    float64 `json:"score"`    // relevance in [0,1]
	Internal bool    `json:"internal"` // restricted provenance
}

// Message is a single entry in a mode's timeline. Content may be empty while
// Pending is set; once finalized a message is immutable.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
	Pending   bool       `json:"pending,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
