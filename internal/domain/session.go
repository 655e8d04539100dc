package domain

import (
	"fmt"
	"time"
)

// Turn is one entry of a session's bounded history: what the user asked
// for and which agent handled it.
type Turn struct {
	Summary string
	Agent   string
	At      Timestamp
}

// Session is the durable per-user conversation state. One per user.
//
// ActiveFlow and Stage are set together or not at all: a session either
// belongs to a guided flow (and the flow owns every turn until it ends)
// or it is free for capability negotiation.
type Session struct {
	UserID     UserID
	ActiveFlow FlowName
	Stage      Stage
	Draft      Draft

	// Location holds the user's last shared coordinates. It survives
	// flow resets and idle expiry so later searches can reuse it.
	Location *Location

	LastActivityAt Timestamp
	History        []Turn
}

// NewSession creates an empty session for a user.
func NewSession(userID UserID, now time.Time) *Session {
	return &Session{
		UserID:         userID,
		LastActivityAt: now,
	}
}

// FlowActive reports whether a guided flow currently owns this session.
func (s *Session) FlowActive() bool {
	return s.ActiveFlow != ""
}

// Expired reports whether the session sat idle longer than timeout.
// Expired sessions are treated as fresh on next access: the flow is
// discarded, the user identity and saved location persist.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.LastActivityAt) > timeout
}

// ResetFlow clears the active flow, stage and draft. Saved location and
// history are kept.
func (s *Session) ResetFlow() {
	s.ActiveFlow = ""
	s.Stage = ""
	s.Draft = Draft{}
}

// RecordTurn appends a history entry, evicting the oldest once the
// history exceeds limit.
func (s *Session) RecordTurn(t Turn, limit int) {
	s.History = append(s.History, t)
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// Validate checks the session invariants: a stage is set iff a flow is
// active, and the draft holds a value for every stage strictly before
// the current one.
func (s *Session) Validate() error {
	if (s.ActiveFlow == "") != (s.Stage == "") {
		return fmt.Errorf("session %s: active_flow %q and stage %q must be set together", s.UserID, s.ActiveFlow, s.Stage)
	}
	if s.Stage == "" {
		return nil
	}
	for _, st := range SubmissionStages() {
		if !st.Before(s.Stage) {
			break
		}
		if !s.Draft.Filled(st) {
			return fmt.Errorf("session %s: stage %q reached without a value for %q", s.UserID, s.Stage, st)
		}
	}
	return nil
}

// Clone returns a deep copy. Agents work on copies so a failed turn
// never leaks partial mutations into the committed session.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Draft = *s.Draft.Clone()
	if s.Location != nil {
		loc := *s.Location
		cp.Location = &loc
	}
	cp.History = make([]Turn, len(s.History))
	copy(cp.History, s.History)
	return &cp
}
