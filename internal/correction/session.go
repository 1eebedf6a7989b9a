package correction

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aysualkaya/assistant/internal/validate"
)

// State is the position of a session in the correction loop.
type State int

const (
	StateNormalizing State = iota
	StateValidating
	StateRegenerating
	StateAccepted
	StateExhausted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNormalizing:
		return "normalizing"
	case StateValidating:
		return "validating"
	case StateRegenerating:
		return "regenerating"
	case StateAccepted:
		return "accepted"
	case StateExhausted:
		return "exhausted"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for cand := StateNormalizing; cand <= StateCancelled; cand++ {
		if cand.String() == name {
			*s = cand
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", name)
}

// Attempt records one pass through normalize and validate.
type Attempt struct {
	// Number counts from 1.
	Number int `json:"number"`

	// Candidate is the raw SQL that entered the attempt.
	Candidate string `json:"candidate"`

	// Normalized is the candidate after normalization.
	Normalized string `json:"normalized"`

	// Notes are the normalization rewrites applied this attempt.
	Notes []string `json:"notes,omitempty"`

	// Findings holds every validation error, in validator order.
	Findings validate.Result `json:"findings"`

	// Repaired marks a candidate produced by the auto-repair pass rather
	// than by the regenerator.
	Repaired bool `json:"repaired,omitempty"`
}

// Session is the complete history of one correction run. It is returned on
// every outcome so failures stay diagnosable; a failed session must never
// have its last candidate executed.
type Session struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	State     State     `json:"state"`
	Attempts  []Attempt `json:"attempts"`
	StartedAt time.Time `json:"started_at"`
}

func newSession(question string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Question:  question,
		StartedAt: time.Now().UTC(),
	}
}

// last returns the most recent attempt, or nil before the first.
func (s *Session) last() *Attempt {
	if len(s.Attempts) == 0 {
		return nil
	}
	return &s.Attempts[len(s.Attempts)-1]
}

// FinalQuery is the accepted outcome of a session.
type FinalQuery struct {
	// Text is the validated, dialect-correct SQL.
	Text string `json:"text"`

	// NormalizationNotes lists the rewrites applied to the accepted
	// candidate, in application order.
	NormalizationNotes []string `json:"normalization_notes,omitempty"`
}
