package decision

import (
	"errors"
	"fmt"

	"github.com/panelvault/coverid/internal/models"
)

// State of a scan session.
type State string

const (
	StateIdle               State = "idle"
	StateScoring            State = "scoring"
	StateAutoAccepted       State = "auto_accepted"
	StateAwaitingUserChoice State = "awaiting_user_choice"
	StateNoConfidentMatch   State = "no_confident_match"
	StateSelected           State = "selected"
	StateManualSearch       State = "manual_search"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	switch s {
	case StateAutoAccepted, StateSelected, StateManualSearch:
		return true
	}
	return false
}

var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrUnknownCandidate  = errors.New("candidate not among the offered choices")
)

// Session walks one scan from scoring to the user's answer. It is not safe for
// concurrent use; callers serialize access.
type Session struct {
	policy   Policy
	state    State
	outcome  Outcome
	selected *models.ScoredCandidate
}

// NewSession starts an idle session.
func NewSession(p Policy) *Session {
	return &Session{policy: p.normalized(), state: StateIdle}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Policy returns the normalized policy in effect.
func (s *Session) Policy() Policy { return s.policy }

// Outcome returns the last decision. It is zero while idle or scoring.
func (s *Session) Outcome() Outcome { return s.outcome }

// Selected returns the confirmed or auto-accepted candidate.
func (s *Session) Selected() (models.ScoredCandidate, bool) {
	if s.selected == nil {
		return models.ScoredCandidate{}, false
	}
	return *s.selected, true
}

func (s *Session) transition(to State, allowed ...State) error {
	for _, from := range allowed {
		if s.state == from {
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
}

// Begin moves an idle session into scoring.
func (s *Session) Begin() error {
	return s.transition(StateScoring, StateIdle)
}

// Resolve applies the policy to a ranked list and settles the scoring state.
func (s *Session) Resolve(ranked []models.ScoredCandidate) (Outcome, error) {
	if s.state != StateScoring {
		return Outcome{}, fmt.Errorf("%w: resolve from %s", ErrInvalidTransition, s.state)
	}

	out := s.policy.Decide(ranked)
	s.outcome = out

	switch {
	case out.IsNoMatch():
		s.state = StateNoConfidentMatch
	case out.AutoAcceptable:
		top := out.Choices[0]
		s.selected = &top
		s.state = StateAutoAccepted
	default:
		s.state = StateAwaitingUserChoice
	}
	return out, nil
}

// Abort returns a scoring session to idle, for when the candidates could not
// be fetched.
func (s *Session) Abort() error {
	return s.transition(StateIdle, StateScoring)
}

// Select confirms one of the offered choices.
func (s *Session) Select(id int64) error {
	if s.state != StateAwaitingUserChoice {
		return fmt.Errorf("%w: select from %s", ErrInvalidTransition, s.state)
	}
	for _, c := range s.outcome.Choices {
		if c.ID == id {
			chosen := c
			s.selected = &chosen
			s.state = StateSelected
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownCandidate, id)
}

// RequestManualSearch discards the ranked output.
func (s *Session) RequestManualSearch() error {
	if err := s.transition(StateManualSearch, StateAwaitingUserChoice, StateNoConfidentMatch); err != nil {
		return err
	}
	s.outcome = Outcome{Kind: KindNoMatch}
	return nil
}

// Rescan returns the session to idle so a new scan can be scored.
func (s *Session) Rescan() error {
	if err := s.transition(StateIdle, StateAwaitingUserChoice, StateNoConfidentMatch); err != nil {
		return err
	}
	s.outcome = Outcome{}
	s.selected = nil
	return nil
}

// View is the serializable state of a session.
type View struct {
	State          State             `json:"state"`
	Choices        []models.TopMatch `json:"choices,omitempty"`
	Selected       *models.TopMatch  `json:"selected,omitempty"`
	AutoAcceptable bool              `json:"auto_acceptable,omitempty"`
}

// View renders the session for a client.
func (s *Session) View() View {
	v := View{
		State:          s.state,
		Choices:        s.policy.TopMatches(s.outcome.Choices),
		AutoAcceptable: s.outcome.AutoAcceptable,
	}
	if s.selected != nil {
		tm := s.policy.TopMatch(*s.selected)
		v.Selected = &tm
	}
	return v
}
