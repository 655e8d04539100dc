package agents

import (
	"context"

	"github.com/placepilot/placepilot/internal/domain"
)

var greetingKeywords = []string{"start", "/start", "hello", "hi", "hey"}

const welcomeText = `Welcome to PlacePilot!

I'm your location companion. I can help you:
- Find places: "Show me pizza places nearby"
- Get recommendations: "I'm craving sushi, what's good?"
- Add places: "I want to add a new restaurant"

Share your location or tell me what you're looking for to get started.`

const helpText = `PlacePilot help

- Find places: "Find coffee shops within 500 meters"
- Recommendations: "What are the best burger joints open now?"
- Add a place: "I want to add my favorite local restaurant"

Just talk to me naturally. Type "cancel" at any time to abandon a guided flow.`

const aboutText = `PlacePilot is a location companion backed by the Foursquare places database. It only uses your location to find relevant places nearby.`

// ConciergeAgent answers greetings, help and about requests directly.
// It claims with low confidence so any concrete capability outranks it.
type ConciergeAgent struct{}

func NewConciergeAgent() *ConciergeAgent { return &ConciergeAgent{} }

func (a *ConciergeAgent) Name() string { return "concierge" }

func (a *ConciergeAgent) CanHandle(req *domain.Request, sess *domain.Session) float64 {
	if sess.FlowActive() {
		return confidenceNone
	}
	text := req.NormalizedText()
	if text == "help" || text == "/help" {
		return confidenceKeyword
	}
	if req.Intent != nil && req.Intent.Name == domain.IntentHelp {
		return confidenceKeyword * req.Intent.Confidence
	}
	for _, k := range greetingKeywords {
		if text == k {
			return confidenceWeak
		}
	}
	if text == "about" || text == "info" {
		return confidenceWeak
	}
	return confidenceNone
}

func (a *ConciergeAgent) Process(_ context.Context, req *domain.Request, _ *domain.Session) (domain.AgentResponse, error) {
	switch text := req.NormalizedText(); {
	case text == "help" || text == "/help":
		return domain.AgentResponse{Text: helpText, Patch: &domain.SessionPatch{Note: "help"}}, nil
	case text == "about" || text == "info":
		return domain.AgentResponse{Text: aboutText, Patch: &domain.SessionPatch{Note: "about"}}, nil
	default:
		return domain.AgentResponse{
			Text: welcomeText,
			Attachments: []domain.Attachment{
				{Kind: domain.AttachmentLocationRequest},
			},
			QuickReplies: []domain.QuickReply{
				{Label: "Add a new place", Data: "start_contribution"},
			},
			Patch: &domain.SessionPatch{Note: "welcome"},
		}, nil
	}
}
