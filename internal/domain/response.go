package domain

// AttachmentKind discriminates structured reply attachments.
type AttachmentKind string

const (
	AttachmentPhoto           AttachmentKind = "photo"
	AttachmentPlaceCard       AttachmentKind = "place_card"
	AttachmentLocationRequest AttachmentKind = "location_request"
)

// Attachment is a structured piece of a reply: a photo URL, a place
// card, or a prompt for the transport to request the user's location.
type Attachment struct {
	Kind  AttachmentKind
	URL   string
	Place *Place
}

// QuickReply is a one-tap affordance. Data is the callback token the
// transport echoes back when the user taps it.
type QuickReply struct {
	Label string
	Data  string
}

// SessionPatch is the mutation an agent wants committed. Agents never
// write to the store themselves; the router applies the patch once,
// right before the single commit of the turn.
type SessionPatch struct {
	// StartFlow enters the named flow.
	StartFlow FlowName
	// Stage moves the active flow to this stage. Empty leaves the
	// stage unchanged.
	Stage Stage
	// Draft replaces the session draft.
	Draft *Draft
	// EndFlow clears flow, stage and draft. Used for completion and
	// cancellation.
	EndFlow bool
	// SaveLocation remembers coordinates on the session, outside any
	// flow state.
	SaveLocation *Location
	// Note is the history summary for this turn.
	Note string
}

// AgentResponse is what an agent hands back to the router for a turn.
type AgentResponse struct {
	Text         string
	Attachments  []Attachment
	QuickReplies []QuickReply
	Patch        *SessionPatch
}

// Reply is the transport-neutral normalized reply handed to the
// inbound transport collaborator.
type Reply struct {
	Text         string
	Attachments  []Attachment
	QuickReplies []QuickReply
}
