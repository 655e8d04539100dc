// Package agents defines the capability-agent contract and the
// providers that claim and process inbound turns.
package agents

import (
	"context"
	"strings"
	"unicode"

	"github.com/placepilot/placepilot/internal/domain"
)

// Agent is a capability provider. CanHandle must be a pure function of
// (request, session) - no side effects, no collaborator calls - so the
// router may probe every registered agent without committing to any.
// Process may mutate only the session copy it is given, and expresses
// the mutation it wants committed through the response's SessionPatch.
type Agent interface {
	Name() string
	CanHandle(req *domain.Request, sess *domain.Session) float64
	Process(ctx context.Context, req *domain.Request, sess *domain.Session) (domain.AgentResponse, error)
}

// FlowOwner is implemented by agents that own a guided flow. While the
// flow is active the router sends every turn to the owner, bypassing
// capability negotiation.
type FlowOwner interface {
	Flow() domain.FlowName
}

// Confidence bands. Scores are not guaranteed distinct across agents;
// the router's tie-break policy resolves collisions deterministically.
const (
	confidenceNone     = 0.0
	confidenceWeak     = 0.4
	confidenceKeyword  = 0.6
	confidenceModerate = 0.65
	confidenceStrong   = 0.75
	confidenceOwner    = 1.0
)

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// containsPhrase matches keywords on word boundaries, so "add" never
// fires inside "address". Multi-word keywords match as a phrase.
func containsPhrase(text string, keywords []string) bool {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	joined := " " + strings.Join(words, " ") + " "
	for _, k := range keywords {
		if strings.Contains(joined, " "+k+" ") {
			return true
		}
	}
	return false
}
