package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Timeline is the ordered message log for a single conversation mode.
// It is owned by the Manager, which serializes access; the Timeline itself
// only enforces its append/resolve rules.
type Timeline struct {
	messages  []Message
	pendingID string // ID of the in-flight placeholder, empty if none
}

// NewTimeline returns a timeline seeded with a system greeting.
func NewTimeline(greeting string) *Timeline {
	t := &Timeline{}
	t.Reset(greeting)
	return t
}

// Append adds a finalized message with the given role and content and returns
// its ID.
func (t *Timeline) Append(role Role, content string) string {
	id := uuid.New().String()
	t.messages = append(t.messages, Message{
		ID:        id,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	return id
}

// AppendPending adds an assistant placeholder carrying the typing flag.
// Only one placeholder may exist at a time.
func (t *Timeline) AppendPending() (string, error) {
	if t.pendingID != "" {
		return "", fmt.Errorf("placeholder %s already pending", t.pendingID)
	}
	id := uuid.New().String()
	t.messages = append(t.messages, Message{
		ID:        id,
		Role:      RoleAssistant,
		Pending:   true,
		CreatedAt: time.Now(),
	})
	t.pendingID = id
	return id, nil
}

// Resolve finalizes the placeholder with the given ID in place, keeping its
// position and identifier. It reports false if no such placeholder exists,
// which happens when the timeline was reset while the call was outstanding;
// the caller must drop the update in that case.
func (t *Timeline) Resolve(id, content string, citations []Citation) bool {
	if id == "" || id != t.pendingID {
		return false
	}
	for i := range t.messages {
		if t.messages[i].ID == id {
			t.messages[i].Content = content
			t.messages[i].Citations = citations
			t.messages[i].Pending = false
			t.pendingID = ""
			return true
		}
	}
	// pendingID without a matching message would be a bookkeeping bug
	t.pendingID = ""
	return false
}

// Reset replaces the entire log with a single system greeting. Any pending
// placeholder is discarded; a late Resolve for it will report false.
func (t *Timeline) Reset(greeting string) {
	t.messages = []Message{{
		ID:        uuid.New().String(),
		Role:      RoleSystem,
		Content:   greeting,
		CreatedAt: time.Now(),
	}}
	t.pendingID = ""
}

// Messages returns a copy of the log in append order.
func (t *Timeline) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages in the log.
func (t *Timeline) Len() int { return len(t.messages) }

// HasPending reports whether an unresolved placeholder exists.
func (t *Timeline) HasPending() bool { return t.pendingID != "" }
