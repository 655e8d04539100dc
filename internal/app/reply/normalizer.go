// Package reply converts agent results into the transport-neutral
// reply contract.
package reply

import (
	"strings"

	"github.com/placepilot/placepilot/internal/domain"
)

// Normalize maps an AgentResponse onto the reply contract: trimmed
// text, structured attachments, quick-reply affordances. Pure and
// idempotent: the same response always yields the same reply, and the
// reply never aliases the agent's slices.
func Normalize(resp domain.AgentResponse) domain.Reply {
	out := domain.Reply{
		Text: strings.TrimSpace(resp.Text),
	}

	for _, a := range resp.Attachments {
		if a.Kind == "" {
			continue
		}
		if a.Place != nil {
			place := *a.Place
			place.Categories = append([]string(nil), place.Categories...)
			a.Place = &place
		}
		out.Attachments = append(out.Attachments, a)
	}

	for _, q := range resp.QuickReplies {
		q.Label = strings.TrimSpace(q.Label)
		if q.Label == "" {
			continue
		}
		out.QuickReplies = append(out.QuickReplies, q)
	}

	return out
}

// Fallback is the reply for turns no agent claimed.
func Fallback() domain.Reply {
	return Normalize(domain.AgentResponse{
		Text: `I'm not sure what you're looking for. I can find places nearby, recommend something, or add a new place. Try "find Italian restaurants nearby", or say "help".`,
	})
}

// Transient is the reply for turns aborted by an infrastructure or
// collaborator failure.
func Transient() domain.Reply {
	return Normalize(domain.AgentResponse{
		Text: "Something went wrong on my side. Your message wasn't lost - please try again in a moment.",
	})
}
