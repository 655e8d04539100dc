package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placepilot/placepilot/internal/adapters/foursquare"
	httpadapter "github.com/placepilot/placepilot/internal/adapters/http"
	"github.com/placepilot/placepilot/internal/adapters/llm"
	"github.com/placepilot/placepilot/internal/adapters/storage/memory"
	"github.com/placepilot/placepilot/internal/app/agents"
	"github.com/placepilot/placepilot/internal/app/flow"
	"github.com/placepilot/placepilot/internal/app/router"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	nlu := llm.NewMock()
	places := foursquare.NewMock()
	store := memory.New(30 * time.Minute)
	machine := flow.NewMachine(nlu, places, 5*time.Second)

	registry := []agents.Agent{
		agents.NewSearchAgent(places, 5*time.Second),
		agents.NewRecommendationAgent(places, 5*time.Second),
		agents.NewDataManagementAgent(machine),
		agents.NewConciergeAgent(),
	}

	rt := router.New(store, nlu, registry)
	return httpadapter.NewServer(rt)
}

func postMessage(t *testing.T, srv http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

type replyBody struct {
	Text        string `json:"text"`
	Attachments []struct {
		Kind  string `json:"kind"`
		Place *struct {
			Name string `json:"name"`
		} `json:"place"`
	} `json:"attachments"`
	QuickReplies []struct {
		Label string `json:"label"`
		Data  string `json:"data"`
	} `json:"quick_replies"`
}

func decodeReply(t *testing.T, w *httptest.ResponseRecorder) replyBody {
	t.Helper()
	var out replyBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestMessageRequiresUserID(t *testing.T) {
	srv := newTestServer(t)
	w := postMessage(t, srv, `{"text":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessageRequiresContent(t *testing.T) {
	srv := newTestServer(t)
	w := postMessage(t, srv, `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchTurnReturnsPlaces(t *testing.T) {
	srv := newTestServer(t)

	w := postMessage(t, srv, `{"user_id":"u1","text":"find tacos near me","location":{"latitude":40.4,"longitude":-3.7}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rep := decodeReply(t, w)
	assert.Contains(t, rep.Text, "Taqueria El Sol")
	require.NotEmpty(t, rep.Attachments)
	assert.Equal(t, "place_card", rep.Attachments[0].Kind)
}

func TestSearchWithoutLocationAsksForOne(t *testing.T) {
	srv := newTestServer(t)

	w := postMessage(t, srv, `{"user_id":"u2","text":"find tacos near me"}`)
	require.Equal(t, http.StatusOK, w.Code)

	rep := decodeReply(t, w)
	require.NotEmpty(t, rep.Attachments)
	assert.Equal(t, "location_request", rep.Attachments[0].Kind)
}

func TestSubmissionFlowAcrossRequests(t *testing.T) {
	srv := newTestServer(t)

	// Start the guided flow.
	w := postMessage(t, srv, `{"user_id":"u3","text":"I want to add a place"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Share a location; the flow must still own the next turn.
	w = postMessage(t, srv, `{"user_id":"u3","location":{"latitude":40.4,"longitude":-3.7}}`)
	require.Equal(t, http.StatusOK, w.Code)
	rep := decodeReply(t, w)
	assert.Contains(t, rep.Text, "name")

	// Even search-looking text stays inside the flow.
	w = postMessage(t, srv, `{"user_id":"u3","text":"Find Me Tacos Bar"}`)
	require.Equal(t, http.StatusOK, w.Code)
	rep = decodeReply(t, w)
	assert.Contains(t, rep.Text, "category")
	require.NotEmpty(t, rep.QuickReplies)
}

func TestUnknownMessageGetsFallback(t *testing.T) {
	srv := newTestServer(t)
	w := postMessage(t, srv, `{"user_id":"u4","text":"blorp"}`)
	require.Equal(t, http.StatusOK, w.Code)

	rep := decodeReply(t, w)
	assert.NotEmpty(t, rep.Text)
}
