package foursquare

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/placepilot/placepilot/internal/domain"
)

var errSubmitDisabled = errors.New("submissions disabled")

// Mock is an in-memory stand-in for the Places API, used in local
// development and tests.
type Mock struct {
	mu         sync.Mutex
	places     []domain.Place
	submitted  map[string]domain.Draft
	failSubmit bool
}

func NewMock() *Mock {
	return &Mock{
		places:    samplePlaces,
		submitted: make(map[string]domain.Draft),
	}
}

var samplePlaces = []domain.Place{
	{ID: "mock-1", Name: "Taqueria El Sol", Rating: 8.9, Price: 1, OpenNow: true, Distance: 240, Address: "12 Sun St", Categories: []string{"taco restaurant"}},
	{ID: "mock-2", Name: "Cafe Aurora", Rating: 9.2, Price: 2, OpenNow: true, Distance: 410, Address: "3 Dawn Ave", Categories: []string{"coffee shop"}},
	{ID: "mock-3", Name: "Ramen Okami", Rating: 8.1, Price: 2, OpenNow: false, Distance: 650, Address: "77 Noodle Ln", Categories: []string{"ramen restaurant"}},
	{ID: "mock-4", Name: "Green Fork", Rating: 7.4, Price: 3, OpenNow: true, Distance: 900, Address: "5 Garden Rd", Categories: []string{"vegan restaurant"}},
}

// Search filters the sample set by query substring and the price and
// open-now constraints. Results come back nearest first, like the real
// API.
func (m *Mock) Search(_ context.Context, params domain.SearchParams) ([]domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query := strings.ToLower(params.Query)
	var out []domain.Place
	for _, p := range m.places {
		if query != "" && !matches(p, query) {
			continue
		}
		if params.OpenNow && !p.OpenNow {
			continue
		}
		if params.MinPrice >= 1 && p.Price < params.MinPrice {
			continue
		}
		if params.MaxPrice >= 1 && p.Price > params.MaxPrice {
			continue
		}
		if params.Radius > 0 && p.Distance > params.Radius {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

// matches checks each query word against name and categories, with a
// crude plural fold so "tacos" still finds the taco place.
func matches(p domain.Place, query string) bool {
	haystack := strings.ToLower(p.Name)
	for _, c := range p.Categories {
		haystack += " " + strings.ToLower(c)
	}
	for _, word := range strings.Fields(query) {
		if strings.Contains(haystack, strings.TrimSuffix(word, "s")) {
			return true
		}
	}
	return false
}

// Submit records the draft and returns a generated id.
func (m *Mock) Submit(_ context.Context, draft domain.Draft) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSubmit {
		return "", domain.NewCollaboratorError("submit_place", false, errSubmitDisabled)
	}
	id := uuid.NewString()
	m.submitted[id] = *draft.Clone()
	return id, nil
}

// FailSubmissions toggles submit failures for tests.
func (m *Mock) FailSubmissions(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSubmit = fail
}

// Submitted returns a submitted draft by id.
func (m *Mock) Submitted(id string) (domain.Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.submitted[id]
	return d, ok
}
