package agents_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/placepilot/placepilot/internal/app/agents"
	"github.com/placepilot/placepilot/internal/app/flow"
	"github.com/placepilot/placepilot/internal/domain"
)

type fakeSearcher struct {
	calls   int
	failN   int // fail the first N calls with a retryable error
	permErr error
	places  []domain.Place
	last    domain.SearchParams
}

func (s *fakeSearcher) Search(_ context.Context, params domain.SearchParams) ([]domain.Place, error) {
	s.calls++
	s.last = params
	if s.permErr != nil {
		return nil, s.permErr
	}
	if s.calls <= s.failN {
		return nil, domain.NewCollaboratorError("search", true, errors.New("upstream 503"))
	}
	return s.places, nil
}

type nopSubmitter struct{}

func (nopSubmitter) Submit(context.Context, domain.Draft) (string, error) { return "id", nil }

type nopParser struct{}

func (nopParser) ParseContact(context.Context, string) (domain.Contact, bool, error) {
	return domain.Contact{}, true, nil
}
func (nopParser) ParseHours(context.Context, string) (string, bool, error) {
	return "", true, nil
}

func freshSession() *domain.Session {
	return domain.NewSession("u1", time.Now())
}

func activeFlowSession() *domain.Session {
	sess := freshSession()
	sess.ActiveFlow = domain.FlowPlaceSubmission
	sess.Stage = domain.StageLocation
	return sess
}

func TestSearchConfidence(t *testing.T) {
	a := agents.NewSearchAgent(&fakeSearcher{}, time.Second)

	require.Greater(t, a.CanHandle(&domain.Request{Text: "find pizza near me"}, freshSession()), 0.0)
	require.Zero(t, a.CanHandle(&domain.Request{Text: "find pizza near me"}, activeFlowSession()),
		"no claim while a flow owns the session")
	require.Greater(t, a.CanHandle(&domain.Request{Location: &domain.Location{Latitude: 1}}, freshSession()), 0.0,
		"a bare location share is an implicit search")
	require.Zero(t, a.CanHandle(&domain.Request{Text: "good morning to you"}, freshSession()))
}

func TestRecommendationOutranksSearchOnPreferenceLanguage(t *testing.T) {
	search := agents.NewSearchAgent(&fakeSearcher{}, time.Second)
	recommend := agents.NewRecommendationAgent(&fakeSearcher{}, time.Second)
	sess := freshSession()

	req := &domain.Request{Text: "I'm craving sushi near downtown"}
	require.Greater(t, recommend.CanHandle(req, sess), search.CanHandle(req, sess))
}

func TestDataManagementOwnsActiveFlowRegardlessOfText(t *testing.T) {
	machine := flow.NewMachine(nopParser{}, nopSubmitter{}, time.Second)
	a := agents.NewDataManagementAgent(machine)
	sess := activeFlowSession()

	require.Equal(t, 1.0, a.CanHandle(&domain.Request{Text: "find pizza near me"}, sess))
	require.Equal(t, 1.0, a.CanHandle(&domain.Request{Text: "anything at all"}, sess))

	require.Greater(t, a.CanHandle(&domain.Request{Text: "add a new place"}, freshSession()), 0.0)
}

func TestDataManagementIgnoresKeywordFragmentsInsideWords(t *testing.T) {
	machine := flow.NewMachine(nopParser{}, nopSubmitter{}, time.Second)
	a := agents.NewDataManagementAgent(machine)
	sess := freshSession()

	// Informational questions must not open the guided flow.
	require.Zero(t, a.CanHandle(&domain.Request{Text: "what is the address of the Eiffel Tower?"}, sess))
	require.Zero(t, a.CanHandle(&domain.Request{Text: "who created this listing?"}, sess))
	require.Zero(t, a.CanHandle(&domain.Request{Text: "is it registered as a landmark?"}, sess))

	// Initiating phrases still claim.
	require.Greater(t, a.CanHandle(&domain.Request{Text: "I'd like to add a place"}, sess), 0.0)
	require.Greater(t, a.CanHandle(&domain.Request{Text: "submit a new cafe"}, sess), 0.0)
}

func TestSearchProcessWithoutLocationAsksForIt(t *testing.T) {
	a := agents.NewSearchAgent(&fakeSearcher{}, time.Second)

	resp, err := a.Process(context.Background(), &domain.Request{UserID: "u1", Text: "find pizza"}, freshSession())
	require.NoError(t, err)
	require.Len(t, resp.Attachments, 1)
	require.Equal(t, domain.AttachmentLocationRequest, resp.Attachments[0].Kind)
	require.Nil(t, resp.Patch)
}

func TestSearchProcessUsesSavedLocation(t *testing.T) {
	searcher := &fakeSearcher{places: []domain.Place{{Name: "Slice House", Rating: 8.7}}}
	a := agents.NewSearchAgent(searcher, time.Second)

	sess := freshSession()
	sess.Location = &domain.Location{Latitude: 47.6, Longitude: -122.3}

	resp, err := a.Process(context.Background(), &domain.Request{UserID: "u1", Text: "find pizza"}, sess)
	require.NoError(t, err)
	require.Contains(t, resp.Text, "Slice House")
	require.NotNil(t, searcher.last.Location)
	require.Equal(t, 47.6, searcher.last.Location.Latitude)
	require.Len(t, resp.Attachments, 1)
	require.Equal(t, domain.AttachmentPlaceCard, resp.Attachments[0].Kind)
}

func TestSearchProcessMergesIntentSlots(t *testing.T) {
	searcher := &fakeSearcher{}
	a := agents.NewSearchAgent(searcher, time.Second)

	req := &domain.Request{
		UserID:   "u1",
		Text:     "find me a cheap burger open now",
		Location: &domain.Location{Latitude: 1, Longitude: 2},
		Intent: &domain.Intent{
			Name:       domain.IntentSearch,
			Confidence: 0.9,
			Slots: map[string]string{
				"query":     "burger",
				"open_now":  "true",
				"max_price": "2",
			},
		},
	}
	_, err := a.Process(context.Background(), req, freshSession())
	require.NoError(t, err)
	require.Equal(t, "burger", searcher.last.Query)
	require.True(t, searcher.last.OpenNow)
	require.Equal(t, 2, searcher.last.MaxPrice)
}

func TestSearchRetriesRetryableFailures(t *testing.T) {
	searcher := &fakeSearcher{failN: 2, places: []domain.Place{{Name: "Cafe Uno"}}}
	a := agents.NewSearchAgent(searcher, time.Second)
	sess := freshSession()
	sess.Location = &domain.Location{Latitude: 1}

	resp, err := a.Process(context.Background(), &domain.Request{UserID: "u1", Text: "find cafe"}, sess)
	require.NoError(t, err)
	require.Equal(t, 3, searcher.calls)
	require.Contains(t, resp.Text, "Cafe Uno")
}

func TestSearchSurfacesExhaustedFailureAsTransientReply(t *testing.T) {
	searcher := &fakeSearcher{failN: 99}
	a := agents.NewSearchAgent(searcher, time.Second)
	sess := freshSession()
	sess.Location = &domain.Location{Latitude: 1}

	resp, err := a.Process(context.Background(), &domain.Request{UserID: "u1", Text: "find cafe"}, sess)
	require.NoError(t, err, "collaborator errors never leak past the agent")
	require.Contains(t, resp.Text, "try again")
	require.Equal(t, 3, searcher.calls, "bounded retries")
}

func TestSearchPermanentFailureIsNotRetried(t *testing.T) {
	searcher := &fakeSearcher{permErr: domain.NewCollaboratorError("search", false, errors.New("bad key"))}
	a := agents.NewSearchAgent(searcher, time.Second)
	sess := freshSession()
	sess.Location = &domain.Location{Latitude: 1}

	_, err := a.Process(context.Background(), &domain.Request{UserID: "u1", Text: "find cafe"}, sess)
	require.NoError(t, err)
	require.Equal(t, 1, searcher.calls)
}

func TestRecommendationRanksByRating(t *testing.T) {
	searcher := &fakeSearcher{places: []domain.Place{
		{Name: "Okay Diner", Rating: 6.1},
		{Name: "Great Diner", Rating: 9.2},
		{Name: "Fine Diner", Rating: 7.5},
	}}
	a := agents.NewRecommendationAgent(searcher, time.Second)
	sess := freshSession()
	sess.Location = &domain.Location{Latitude: 1}

	resp, err := a.Process(context.Background(), &domain.Request{UserID: "u1", Text: "best diner"}, sess)
	require.NoError(t, err)
	require.Len(t, resp.Attachments, 3)
	require.Equal(t, "Great Diner", resp.Attachments[0].Place.Name)
	require.Equal(t, "Fine Diner", resp.Attachments[1].Place.Name)
	require.Equal(t, "Okay Diner", resp.Attachments[2].Place.Name)
}

func TestSearchEmptyResultsStillReply(t *testing.T) {
	a := agents.NewSearchAgent(&fakeSearcher{}, time.Second)
	sess := freshSession()
	sess.Location = &domain.Location{Latitude: 1}

	resp, err := a.Process(context.Background(), &domain.Request{UserID: "u1", Text: "find unicorn rides"}, sess)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Text)
	require.Empty(t, resp.Attachments)
}

func TestSearchBareLocationShareUsesNeutralHeader(t *testing.T) {
	searcher := &fakeSearcher{places: []domain.Place{{Name: "Slice House", Rating: 8.7}}}
	a := agents.NewSearchAgent(searcher, time.Second)

	req := &domain.Request{UserID: "u1", Location: &domain.Location{Latitude: 47.6, Longitude: -122.3}}
	resp, err := a.Process(context.Background(), req, freshSession())
	require.NoError(t, err)
	require.Contains(t, resp.Text, "around you")
	require.NotContains(t, resp.Text, `""`)
}

func TestConciergeHandlesGreetingAndHelp(t *testing.T) {
	a := agents.NewConciergeAgent()
	sess := freshSession()

	require.Greater(t, a.CanHandle(&domain.Request{Text: "hello"}, sess), 0.0)
	require.Zero(t, a.CanHandle(&domain.Request{Text: "find pizza"}, sess))

	resp, err := a.Process(context.Background(), &domain.Request{Text: "help"}, sess)
	require.NoError(t, err)
	require.Contains(t, resp.Text, "PlacePilot")
}
