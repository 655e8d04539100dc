// Package flow implements the guided place-submission state machine:
// an explicit stage enum plus a transition table, so every transition
// is independently testable.
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/placepilot/placepilot/internal/domain"
	"github.com/placepilot/placepilot/internal/observability"
)

// Machine drives a draft through the canonical stage order. It holds no
// per-user state: the session carries the stage and draft, the machine
// carries only collaborators.
type Machine struct {
	parser    domain.SlotParser
	submitter domain.PlaceSubmitter
	timeout   time.Duration
}

func NewMachine(parser domain.SlotParser, submitter domain.PlaceSubmitter, timeout time.Duration) *Machine {
	return &Machine{
		parser:    parser,
		submitter: submitter,
		timeout:   timeout,
	}
}

type stageHandler func(m *Machine, ctx context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse

// transitions is the stage x input table. Each handler either advances
// (valid input), stays with a re-prompt (invalid input), stays with a
// draft mutation (ATTRIBUTES, partial PHOTOS), or ends the flow
// (CONFIRM, cancel).
var transitions = map[domain.Stage]stageHandler{
	domain.StageLocation:    (*Machine).handleLocation,
	domain.StageName:        (*Machine).handleName,
	domain.StageCategory:    (*Machine).handleCategory,
	domain.StageAddress:     (*Machine).handleAddress,
	domain.StageContact:     (*Machine).handleContact,
	domain.StageHours:       (*Machine).handleHours,
	domain.StageChainStatus: (*Machine).handleChainStatus,
	domain.StageAttributes:  (*Machine).handleAttributes,
	domain.StagePhotos:      (*Machine).handlePhotos,
	domain.StageConfirm:     (*Machine).handleConfirm,
}

// Start opens a fresh submission flow at the LOCATION stage.
func (m *Machine) Start(sess *domain.Session) domain.AgentResponse {
	return domain.AgentResponse{
		Text: introPrompt,
		Attachments: []domain.Attachment{
			{Kind: domain.AttachmentLocationRequest},
		},
		Patch: &domain.SessionPatch{
			StartFlow: domain.FlowPlaceSubmission,
			Stage:     domain.StageLocation,
			Draft:     &domain.Draft{},
			Note:      "started place submission",
		},
	}
}

// Step processes one turn of an active flow. The cancel command wins in
// every stage.
func (m *Machine) Step(ctx context.Context, req *domain.Request, sess *domain.Session) domain.AgentResponse {
	if isCancel(req) {
		return domain.AgentResponse{
			Text: cancelledText,
			Patch: &domain.SessionPatch{
				EndFlow: true,
				Note:    "cancelled place submission",
			},
		}
	}

	handler, ok := transitions[sess.Stage]
	if !ok {
		// Unknown stage means corrupted state; reset rather than trap
		// the user in an unanswerable prompt.
		observability.LoggerFromContext(ctx).Error("unknown submission stage, resetting flow",
			"user_id", sess.UserID, "stage", sess.Stage)
		return domain.AgentResponse{
			Text:  cancelledText,
			Patch: &domain.SessionPatch{EndFlow: true, Note: "reset corrupted flow"},
		}
	}

	draft := sess.Draft.Clone()
	return handler(m, ctx, req, draft)
}

func isCancel(req *domain.Request) bool {
	n := req.NormalizedText()
	return n == "cancel" || n == "/cancel" || req.Callback == "cancel"
}

// advance moves the flow to the stage after from, carrying the mutated
// draft and the next stage's prompt.
func advance(from domain.Stage, draft *domain.Draft, text string, quick []domain.QuickReply) domain.AgentResponse {
	next, ok := from.Next()
	if !ok {
		// Only CONFIRM has no successor, and it never calls advance.
		panic(fmt.Sprintf("flow: no stage after %q", from))
	}
	return domain.AgentResponse{
		Text:         text,
		QuickReplies: quick,
		Patch: &domain.SessionPatch{
			Stage: next,
			Draft: draft,
		},
	}
}

// reprompt surfaces a validation failure: stage and draft unchanged.
func reprompt(text string) domain.AgentResponse {
	return domain.AgentResponse{Text: text}
}

func (m *Machine) handleLocation(_ context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	if req.Location != nil {
		loc := *req.Location
		draft.Location = &loc
		resp := advance(domain.StageLocation, draft, namePrompt, nil)
		// Remember the coordinates outside the flow too, for later searches.
		resp.Patch.SaveLocation = &loc
		return resp
	}
	switch req.NormalizedText() {
	case "skip", "manual", "/skip":
		draft.ManualAddress = true
		return advance(domain.StageLocation, draft, namePrompt, nil)
	}
	return reprompt(locationReprompt)
}

func (m *Machine) handleName(_ context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	name := strings.TrimSpace(req.Text)
	if len(name) < 2 {
		return reprompt(nameReprompt)
	}
	draft.Name = name
	return advance(domain.StageName, draft, categoryPrompt, categoryChoices)
}

func (m *Machine) handleCategory(_ context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	category := strings.TrimSpace(req.Text)
	if v, ok := strings.CutPrefix(req.Callback, "category:"); ok {
		category = v
	}
	if category == "" {
		return reprompt(categoryPrompt)
	}
	draft.Category = strings.ToLower(category)
	return advance(domain.StageCategory, draft, addressPrompt, nil)
}

func (m *Machine) handleAddress(_ context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	address := strings.TrimSpace(req.Text)
	if len(address) < 10 {
		return reprompt(addressReprompt)
	}
	draft.Address = address
	return advance(domain.StageAddress, draft, contactPrompt, nil)
}

func (m *Machine) handleContact(ctx context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	if n := req.NormalizedText(); n == "skip" || n == "/skip" {
		draft.ContactSkipped = true
		return advance(domain.StageContact, draft, hoursPrompt, hoursChoices())
	}
	if strings.TrimSpace(req.Text) == "" {
		return reprompt(contactPrompt)
	}

	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	contact, valid, err := m.parser.ParseContact(pctx, req.Text)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("contact parsing failed",
			"user_id", req.UserID, "error", err)
		return reprompt(contactTransient)
	}
	if !valid {
		return reprompt(contactReprompt)
	}
	draft.Contact = &contact
	return advance(domain.StageContact, draft, hoursPrompt, hoursChoices())
}

func hoursChoices() []domain.QuickReply {
	return []domain.QuickReply{{Label: "Open 24/7", Data: "hours_24_7"}}
}

func (m *Machine) handleHours(ctx context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	n := req.NormalizedText()
	if req.Callback == "hours_24_7" || n == "24/7" || n == "open 24/7" || n == "24 hours" || n == "always open" {
		draft.Hours = "24/7"
		draft.Open24x7 = true
		return advance(domain.StageHours, draft, chainPrompt, yesNoChain)
	}
	if strings.TrimSpace(req.Text) == "" {
		return reprompt(hoursReprompt)
	}

	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	normalized, valid, err := m.parser.ParseHours(pctx, req.Text)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("hours parsing failed",
			"user_id", req.UserID, "error", err)
		return reprompt(hoursTransient)
	}
	if !valid {
		return reprompt(hoursReprompt)
	}
	draft.Hours = normalized
	return advance(domain.StageHours, draft, chainPrompt, yesNoChain)
}

func (m *Machine) handleChainStatus(_ context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	var chain bool
	switch {
	case req.Callback == "chain_yes" || req.NormalizedText() == "yes":
		chain = true
	case req.Callback == "chain_no" || req.NormalizedText() == "no":
		chain = false
	default:
		return reprompt(chainReprompt)
	}
	draft.Chain = &chain
	return advance(domain.StageChainStatus, draft, attributesPrompt, attributeChoices)
}

// handleAttributes is the one stage where multiple turns happen without
// advancing: each turn adds or removes tags until an explicit "done".
// Additions are idempotent (set semantics).
func (m *Machine) handleAttributes(_ context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	n := req.NormalizedText()
	if tag, ok := strings.CutPrefix(req.Callback, "attr:"); ok {
		n = "add " + tag
	}
	if req.Callback == "attrs_done" || n == "done" || n == "continue" || n == "/done" {
		return advance(domain.StageAttributes, draft, photosPrompt, photoChoices())
	}

	var text string
	switch {
	case strings.HasPrefix(n, "remove "):
		tag := strings.TrimPrefix(n, "remove ")
		if draft.RemoveAttribute(tag) {
			text = fmt.Sprintf("Removed %q.", tag)
		} else {
			text = fmt.Sprintf("%q wasn't on the list.", tag)
		}
	case strings.HasPrefix(n, "add "):
		n = strings.TrimPrefix(n, "add ")
		fallthrough
	default:
		// A bare "add" or "remove" names no tag; ask again.
		if n == "" || n == "add" || n == "remove" {
			return reprompt(attributesReprompt)
		}
		draft.AddAttribute(n)
		text = fmt.Sprintf("Added %q.", n)
	}

	current := "none yet"
	if len(draft.Attributes) > 0 {
		current = strings.Join(draft.Attributes, ", ")
	}
	return domain.AgentResponse{
		Text:         fmt.Sprintf("%s Current features: %s.\n\nAdd more or type \"done\".", text, current),
		QuickReplies: attributeChoices,
		Patch:        &domain.SessionPatch{Draft: draft},
	}
}

func photoChoices() []domain.QuickReply {
	return []domain.QuickReply{{Label: "Skip photos", Data: "photos_skip"}}
}

func (m *Machine) handlePhotos(_ context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	if len(req.PhotoIDs) > 0 {
		for _, id := range req.PhotoIDs {
			if len(draft.PhotoIDs) >= domain.MaxDraftPhotos {
				break
			}
			draft.PhotoIDs = append(draft.PhotoIDs, id)
		}
		if len(draft.PhotoIDs) >= domain.MaxDraftPhotos {
			return advance(domain.StagePhotos, draft, summary(draft), confirmChoices)
		}
		return domain.AgentResponse{
			Text:  fmt.Sprintf("Photo %d received! Send another or type \"done\".", len(draft.PhotoIDs)),
			Patch: &domain.SessionPatch{Draft: draft},
		}
	}

	switch n := req.NormalizedText(); {
	case req.Callback == "photos_skip" || n == "skip" || n == "done" || n == "/skip" || n == "/done" || n == "no photos":
		return advance(domain.StagePhotos, draft, summary(draft), confirmChoices)
	}
	return reprompt(photosReprompt)
}

func (m *Machine) handleConfirm(ctx context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	n := req.NormalizedText()
	switch {
	case req.Callback == "confirm_yes" || n == "yes" || n == "confirm" || n == "submit" || n == "ok":
		return m.submit(ctx, req, draft)
	case req.Callback == "confirm_no" || n == "no" || n == "edit":
		return domain.AgentResponse{
			Text:  discardedText,
			Patch: &domain.SessionPatch{EndFlow: true, Note: "discarded place submission"},
		}
	}
	return reprompt(confirmReprompt)
}

// submit hands the completed draft to the place-data collaborator. On
// failure the flow stays at CONFIRM; the write is never silently
// retried and the flow never advances to DONE on a failed write.
func (m *Machine) submit(ctx context.Context, req *domain.Request, draft *domain.Draft) domain.AgentResponse {
	log := observability.LoggerFromContext(ctx).With("user_id", req.UserID, "place_name", draft.Name)

	sctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	id, err := m.submitter.Submit(sctx, *draft)
	if err != nil {
		log.Error("place submission failed", "error", err)
		return domain.AgentResponse{
			Text:         submitFailedText,
			QuickReplies: confirmChoices,
		}
	}

	log.Info("place submission saved", "place_id", id)
	return domain.AgentResponse{
		Text: fmt.Sprintf("Thank you for adding %s! Your contribution (ref %s) will be reviewed and made available soon.", draft.Name, id),
		Patch: &domain.SessionPatch{
			EndFlow: true,
			Note:    "completed place submission: " + draft.Name,
		},
	}
}
