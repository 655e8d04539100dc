package agents

import (
	"context"

	"github.com/placepilot/placepilot/internal/app/flow"
	"github.com/placepilot/placepilot/internal/domain"
)

// contributionKeywords start the guided submission flow. They are
// matched on word boundaries; an initiating phrase has to stand on its
// own, not sit inside a word like "address" or "registered".
var contributionKeywords = []string{
	"add a place", "add place", "new place", "contribute", "submit", "register",
}

// DataManagementAgent owns the place-submission flow. It claims every
// turn of an active flow deterministically and claims initiating
// intents with moderate confidence when no flow is running.
type DataManagementAgent struct {
	machine *flow.Machine
}

func NewDataManagementAgent(machine *flow.Machine) *DataManagementAgent {
	return &DataManagementAgent{machine: machine}
}

func (a *DataManagementAgent) Name() string { return "data_management" }

func (a *DataManagementAgent) Flow() domain.FlowName { return domain.FlowPlaceSubmission }

func (a *DataManagementAgent) CanHandle(req *domain.Request, sess *domain.Session) float64 {
	if sess.ActiveFlow == domain.FlowPlaceSubmission {
		return confidenceOwner
	}
	if sess.FlowActive() {
		return confidenceNone
	}
	// The welcome message offers a one-tap entry into the flow.
	if req.Callback == "start_contribution" {
		return confidenceOwner
	}
	score := confidenceNone
	if req.Intent != nil && req.Intent.Name == domain.IntentContribute {
		score = confidenceStrong * req.Intent.Confidence
	}
	if containsPhrase(req.NormalizedText(), contributionKeywords) {
		score = max(score, confidenceModerate)
	}
	return score
}

func (a *DataManagementAgent) Process(ctx context.Context, req *domain.Request, sess *domain.Session) (domain.AgentResponse, error) {
	if sess.ActiveFlow == domain.FlowPlaceSubmission {
		return a.machine.Step(ctx, req, sess), nil
	}
	return a.machine.Start(sess), nil
}
