package agents

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/placepilot/placepilot/internal/domain"
	"github.com/placepilot/placepilot/internal/observability"
)

// searchKeywords mark plain discovery queries.
var searchKeywords = []string{
	"find", "search", "where", "show me", "locate",
	"near", "nearby", "around", "close",
}

const defaultResultLimit = 10

// SearchAgent handles free-text and location queries when no guided
// flow is active, delegating to the search collaborator.
type SearchAgent struct {
	searcher domain.PlaceSearcher
	timeout  time.Duration
}

func NewSearchAgent(searcher domain.PlaceSearcher, timeout time.Duration) *SearchAgent {
	return &SearchAgent{searcher: searcher, timeout: timeout}
}

func (a *SearchAgent) Name() string { return "search" }

func (a *SearchAgent) CanHandle(req *domain.Request, sess *domain.Session) float64 {
	if sess.FlowActive() {
		return confidenceNone
	}
	score := confidenceNone
	if req.Intent != nil && req.Intent.Name == domain.IntentSearch {
		score = confidenceStrong * req.Intent.Confidence
	}
	text := req.NormalizedText()
	if containsAny(text, searchKeywords) {
		score = max(score, confidenceKeyword)
	}
	// A bare location share is an implicit "what's around here".
	if req.Location != nil && text == "" {
		score = max(score, confidenceWeak)
	}
	return score
}

func (a *SearchAgent) Process(ctx context.Context, req *domain.Request, sess *domain.Session) (domain.AgentResponse, error) {
	log := observability.LoggerFromContext(ctx).With("agent", a.Name(), "user_id", req.UserID)

	loc := pickLocation(req, sess)
	if loc == nil {
		return requestLocationResponse(), nil
	}

	params := buildSearchParams(req, loc)
	places, err := a.search(ctx, params)
	if err != nil {
		log.Error("search failed", "query", params.Query, "error", err)
		return transientSearchResponse(), nil
	}

	log.Info("search completed", "query", params.Query, "results", len(places))
	header := "Here's what's around you:"
	if params.Query != "" {
		header = fmt.Sprintf("Here's what I found for %q:", params.Query)
	}
	resp := placesResponse(places, header)
	resp.Patch = rememberLocation(req, "search: "+params.Query)
	return resp, nil
}

func (a *SearchAgent) search(ctx context.Context, params domain.SearchParams) ([]domain.Place, error) {
	var places []domain.Place
	err := withRetry(ctx, 3, 100*time.Millisecond, func(ctx context.Context) error {
		sctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		var err error
		places, err = a.searcher.Search(sctx, params)
		return err
	})
	return places, err
}

// pickLocation prefers coordinates attached to the message, falling
// back to the session's saved location.
func pickLocation(req *domain.Request, sess *domain.Session) *domain.Location {
	if req.Location != nil {
		return req.Location
	}
	return sess.Location
}

// buildSearchParams merges classifier slots into the raw message text.
func buildSearchParams(req *domain.Request, loc *domain.Location) domain.SearchParams {
	params := domain.SearchParams{
		Query:    strings.TrimSpace(req.Text),
		Location: loc,
		Limit:    defaultResultLimit,
	}
	if req.Intent == nil {
		return params
	}
	slots := req.Intent.Slots
	if q := slots["query"]; q != "" {
		params.Query = q
	}
	if slots["open_now"] == "true" {
		params.OpenNow = true
	}
	if r, err := strconv.Atoi(slots["radius"]); err == nil && r > 0 {
		params.Radius = r
	}
	if p, err := strconv.Atoi(slots["min_price"]); err == nil && p >= 1 && p <= 4 {
		params.MinPrice = p
	}
	if p, err := strconv.Atoi(slots["max_price"]); err == nil && p >= 1 && p <= 4 {
		params.MaxPrice = p
	}
	return params
}

// rememberLocation patches freshly shared coordinates onto the session.
func rememberLocation(req *domain.Request, note string) *domain.SessionPatch {
	patch := &domain.SessionPatch{Note: note}
	if req.Location != nil {
		loc := *req.Location
		patch.SaveLocation = &loc
	}
	return patch
}

func requestLocationResponse() domain.AgentResponse {
	return domain.AgentResponse{
		Text: "I need your location to look around. Share it and I'll take it from there!",
		Attachments: []domain.Attachment{
			{Kind: domain.AttachmentLocationRequest},
		},
	}
}

func transientSearchResponse() domain.AgentResponse {
	return domain.AgentResponse{
		Text: "I'm having trouble reaching the places database right now. Please try again in a moment.",
	}
}

// placesResponse renders an ordered, non-nil result list as text plus
// one place card per result.
func placesResponse(places []domain.Place, header string) domain.AgentResponse {
	if len(places) == 0 {
		return domain.AgentResponse{
			Text: "I couldn't find anything matching that nearby. Try a different query or a wider area.",
		}
	}

	var b strings.Builder
	b.WriteString(header)
	attachments := make([]domain.Attachment, 0, len(places))
	for i, p := range places {
		fmt.Fprintf(&b, "\n%d. %s", i+1, p.Name)
		if p.Rating > 0 {
			fmt.Fprintf(&b, " - %.1f/10", p.Rating)
		}
		if p.Distance > 0 {
			fmt.Fprintf(&b, " (%dm)", p.Distance)
		}
		place := p
		attachments = append(attachments, domain.Attachment{
			Kind:  domain.AttachmentPlaceCard,
			URL:   p.ImageURL,
			Place: &place,
		})
	}
	return domain.AgentResponse{
		Text:        b.String(),
		Attachments: attachments,
	}
}
