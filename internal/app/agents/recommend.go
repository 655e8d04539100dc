package agents

import (
	"context"
	"sort"
	"time"

	"github.com/placepilot/placepilot/internal/domain"
	"github.com/placepilot/placepilot/internal/observability"
)

// preferenceKeywords mark queries phrased as taste or preference rather
// than plain discovery. They overlap with search's space on purpose;
// the preference signal is what pushes this agent's confidence higher.
var preferenceKeywords = []string{
	"recommend", "suggest", "best", "good", "great", "top",
	"craving", "want", "looking for", "in the mood for",
	"favorite", "popular", "highly rated", "what should i",
	"where should i", "advice",
	"cheap", "expensive", "fancy", "casual", "romantic",
	"quiet", "lively", "vegetarian", "vegan", "authentic", "local",
}

// RecommendationAgent handles preference-phrased queries and returns
// suggestions re-ranked by rating.
type RecommendationAgent struct {
	searcher domain.PlaceSearcher
	timeout  time.Duration
}

func NewRecommendationAgent(searcher domain.PlaceSearcher, timeout time.Duration) *RecommendationAgent {
	return &RecommendationAgent{searcher: searcher, timeout: timeout}
}

func (a *RecommendationAgent) Name() string { return "recommendation" }

func (a *RecommendationAgent) CanHandle(req *domain.Request, sess *domain.Session) float64 {
	if sess.FlowActive() {
		return confidenceNone
	}
	score := confidenceNone
	if req.Intent != nil && req.Intent.Name == domain.IntentRecommend {
		score = confidenceOwner * req.Intent.Confidence
	}
	if containsAny(req.NormalizedText(), preferenceKeywords) {
		// Above the search agent's keyword band: preference language
		// wins when both claim the query.
		score = max(score, confidenceStrong)
	}
	return score
}

func (a *RecommendationAgent) Process(ctx context.Context, req *domain.Request, sess *domain.Session) (domain.AgentResponse, error) {
	log := observability.LoggerFromContext(ctx).With("agent", a.Name(), "user_id", req.UserID)

	loc := pickLocation(req, sess)
	if loc == nil {
		return requestLocationResponse(), nil
	}

	params := buildSearchParams(req, loc)
	var places []domain.Place
	err := withRetry(ctx, 3, 100*time.Millisecond, func(ctx context.Context) error {
		sctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		var err error
		places, err = a.searcher.Search(sctx, params)
		return err
	})
	if err != nil {
		log.Error("recommendation search failed", "query", params.Query, "error", err)
		return transientSearchResponse(), nil
	}

	// Re-rank by rating; the collaborator's order is relevance-based.
	sort.SliceStable(places, func(i, j int) bool {
		return places[i].Rating > places[j].Rating
	})

	log.Info("recommendations generated", "query", params.Query, "results", len(places))
	resp := placesResponse(places, "Based on what you're after, I'd recommend:")
	resp.Patch = rememberLocation(req, "recommend: "+params.Query)
	return resp, nil
}
