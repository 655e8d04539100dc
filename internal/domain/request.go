package domain

import "strings"

// Intent is the NLU collaborator's reading of a message.
type Intent struct {
	Name       string
	Confidence float64
	Slots      map[string]string
}

const (
	IntentSearch     = "search"
	IntentRecommend  = "recommend"
	IntentContribute = "contribute"
	IntentHelp       = "help"
	IntentNone       = "none"
)

// Request is a single inbound turn. Ephemeral, never persisted.
type Request struct {
	UserID   UserID
	Text     string
	Location *Location
	PhotoIDs []string
	// Callback carries a quick-reply token such as "chain_yes" or
	// "confirm_yes".
	Callback string

	// Intent is attached by the router before capability negotiation,
	// so CanHandle implementations stay pure. Nil when classification
	// was skipped or degraded.
	Intent *Intent
}

// Summary is a short history-friendly description of the turn.
func (r *Request) Summary() string {
	switch {
	case r.Text != "":
		if len(r.Text) > 80 {
			return r.Text[:80]
		}
		return r.Text
	case r.Callback != "":
		return "callback:" + r.Callback
	case len(r.PhotoIDs) > 0:
		return "photo"
	case r.Location != nil:
		return "location"
	default:
		return "empty"
	}
}

// NormalizedText returns the trimmed, lowercased message text.
func (r *Request) NormalizedText() string {
	return strings.ToLower(strings.TrimSpace(r.Text))
}
