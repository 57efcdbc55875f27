// Package chat holds the client side conversation state: the project list,
// the active project's transcript and the in-flight reply.
package chat

import (
	"strings"

	"github.com/diogo/researchcopilot/internal/models"
)

// Transcript is an append-only message log plus a separate accumulator for
// the assistant reply that is still streaming. Readers never see the
// accumulator directly; Publish folds it into a snapshot.
type Transcript struct {
	log  []models.Message
	acc  strings.Builder
	open bool
}

// NewTranscript creates a transcript seeded with history
func NewTranscript(history []models.Message) *Transcript {
	t := &Transcript{}
	t.Reset(history)
	return t
}

// Reset replaces the log and discards any open reply
func (t *Transcript) Reset(history []models.Message) {
	t.log = append([]models.Message(nil), history...)
	t.acc.Reset()
	t.open = false
}

// Add appends a finished message to the log
func (t *Transcript) Add(m models.Message) {
	t.log = append(t.log, m)
}

// Open starts a new assistant reply. Opening while a reply is already open
// keeps the current accumulator.
func (t *Transcript) Open() {
	if t.open {
		return
	}
	t.acc.Reset()
	t.open = true
}

// Append grows the open reply by one fragment. It is a no-op when no reply
// is open.
func (t *Transcript) Append(fragment string) {
	if !t.open {
		return
	}
	t.acc.WriteString(fragment)
}

// Close commits the open reply to the log and returns it. An empty reply is
// discarded, matching what the backend stores.
func (t *Transcript) Close() (models.Message, bool) {
	if !t.open {
		return models.Message{}, false
	}
	t.open = false
	reply := models.Message{Role: models.RoleAssistant, Content: t.acc.String()}
	t.acc.Reset()
	if reply.Content == "" {
		return reply, false
	}
	t.log = append(t.log, reply)
	return reply, true
}

// IsOpen reports whether a reply is streaming
func (t *Transcript) IsOpen() bool {
	return t.open
}

// Reply returns the text accumulated so far for the open reply
func (t *Transcript) Reply() string {
	return t.acc.String()
}

// Len returns the number of messages a Publish snapshot would contain
func (t *Transcript) Len() int {
	if t.open {
		return len(t.log) + 1
	}
	return len(t.log)
}

// Messages returns a copy of the committed log, without the open reply
func (t *Transcript) Messages() []models.Message {
	return append([]models.Message(nil), t.log...)
}

// Publish returns a snapshot of the conversation. While a reply is open its
// last element is the assistant message holding the full text so far.
func (t *Transcript) Publish() []models.Message {
	out := make([]models.Message, len(t.log), t.Len())
	copy(out, t.log)
	if t.open {
		out = append(out, models.Message{Role: models.RoleAssistant, Content: t.acc.String()})
	}
	return out
}
