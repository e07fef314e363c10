package domain

import "time"

// Phase is the conversational phase of a session.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAwaitingAnswer       Phase = "awaiting_answer"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
)

// AwaitingState records that the next utterance answers Slot.
type AwaitingState struct {
	Slot string `json:"slot"`

	// OriginatingIntent is the intent that receives the answer. Empty means none.
	OriginatingIntent string `json:"originating_intent,omitempty"`
}

// PendingAction is a fully resolved action waiting for a yes/no answer.
// The handler itself is not stored: intents are re-resolved against the
// registry, which is immutable after startup.
type PendingAction struct {
	Intent      string         `json:"intent"`
	Entities    map[string]any `json:"entities,omitempty"`
	Description string         `json:"description,omitempty"`
	Since       time.Time      `json:"since"`
}

// Session is the mutable per-session record.
// At most one of Awaiting and Pending is set at any time.
type Session struct {
	ID        string         `json:"id"`
	Awaiting  *AwaitingState `json:"awaiting,omitempty"`
	Pending   *PendingAction `json:"pending,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Sealed holds an encrypted copy of the session when persisted through
	// an encrypting store. It is empty in memory.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates an idle session.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Phase returns the current conversational phase.
func (s *Session) Phase() Phase {
	switch {
	case s.Pending != nil:
		return PhaseAwaitingConfirmation
	case s.Awaiting != nil:
		return PhaseAwaitingAnswer
	default:
		return PhaseIdle
	}
}

// SetAwaiting marks the session as waiting for an answer and drops any pending action.
func (s *Session) SetAwaiting(slot, originatingIntent string) {
	s.Awaiting = &AwaitingState{Slot: slot, OriginatingIntent: originatingIntent}
	s.Pending = nil
	s.touch()
}

// SetPending parks an action for confirmation and drops any awaiting marker.
func (s *Session) SetPending(p PendingAction) {
	p.Entities = CopyEntities(p.Entities)
	s.Pending = &p
	s.Awaiting = nil
	s.touch()
}

// ClearAwaiting removes the awaiting marker.
func (s *Session) ClearAwaiting() {
	s.Awaiting = nil
	s.touch()
}

// ClearPending removes the pending action.
func (s *Session) ClearPending() {
	s.Pending = nil
	s.touch()
}

// Snapshot returns a deep copy that can be read without holding the session lock.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Awaiting != nil {
		a := *s.Awaiting
		out.Awaiting = &a
	}
	if s.Pending != nil {
		p := *s.Pending
		p.Entities = CopyEntities(s.Pending.Entities)
		out.Pending = &p
	}
	return &out
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// CopyEntities deep-copies nested maps and slices of an entity map.
func CopyEntities(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CopyEntities(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = copyValue(item)
		}
		return cp
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
