// Package foursquare adapts the Foursquare Places API to the search
// and place-submission ports.
package foursquare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/placepilot/placepilot/internal/domain"
	"github.com/placepilot/placepilot/internal/observability"
)

const (
	defaultSearchBase = "https://places-api.foursquare.com"
	apiVersion        = "2025-02-05"
	searchFields      = "fsq_place_id,name,distance,hours,price,rating,categories,location,photos"
	defaultLimit      = 10
)

// Client talks to the Foursquare Places API.
type Client struct {
	apiKey     string
	searchBase string
	submitURL  string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base, used by tests and for the
// proposed-places endpoint in non-production environments.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.searchBase = base }
}

func WithSubmitURL(u string) Option {
	return func(c *Client) { c.submitURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("foursquare API key is required")
	}
	c := &Client{
		apiKey:     apiKey,
		searchBase: defaultSearchBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.submitURL == "" {
		c.submitURL = c.searchBase + "/places/proposed"
	}
	return c, nil
}

func (c *Client) headers(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Places-Api-Version", apiVersion)
}

// searchResponse mirrors the Places API search payload, limited to the
// fields we request.
type searchResponse struct {
	Results []placeResult `json:"results"`
}

type placeResult struct {
	FsqPlaceID string  `json:"fsq_place_id"`
	Name       string  `json:"name"`
	Distance   int     `json:"distance"`
	Price      int     `json:"price"`
	Rating     float64 `json:"rating"`
	Hours      struct {
		OpenNow bool `json:"open_now"`
	} `json:"hours"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Location struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
	Photos []struct {
		Prefix string `json:"prefix"`
		Suffix string `json:"suffix"`
	} `json:"photos"`
}

// Search implements domain.PlaceSearcher.
func (c *Client) Search(ctx context.Context, params domain.SearchParams) ([]domain.Place, error) {
	if params.Location == nil {
		return nil, domain.NewCollaboratorError("search", false, fmt.Errorf("search requires a location"))
	}

	q := url.Values{}
	q.Set("ll", fmt.Sprintf("%f,%f", params.Location.Latitude, params.Location.Longitude))
	q.Set("fields", searchFields)
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	if params.Query != "" {
		q.Set("query", params.Query)
	}
	if params.Radius > 0 {
		q.Set("radius", strconv.Itoa(params.Radius))
	}
	if params.OpenNow {
		q.Set("open_now", "true")
	}
	if params.MinPrice >= 1 {
		q.Set("min_price", strconv.Itoa(params.MinPrice))
	}
	if params.MaxPrice >= 1 {
		q.Set("max_price", strconv.Itoa(params.MaxPrice))
	}

	reqURL := c.searchBase + "/places/search?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, domain.NewCollaboratorError("search", false, err)
	}
	c.headers(req)

	observability.LoggerFromContext(ctx).Info("searching places",
		"query", params.Query, "radius", params.Radius, "limit", limit)

	res, err := c.httpClient.Do(req)
	if err != nil {
		// Network failures are worth a retry.
		return nil, domain.NewCollaboratorError("search", true, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, statusError("search", res)
	}

	var payload searchResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, domain.NewCollaboratorError("search", false, fmt.Errorf("decoding search response: %w", err))
	}

	places := make([]domain.Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		places = append(places, toPlace(r))
	}
	return places, nil
}

func toPlace(r placeResult) domain.Place {
	p := domain.Place{
		ID:       r.FsqPlaceID,
		Name:     r.Name,
		Rating:   r.Rating,
		Price:    r.Price,
		OpenNow:  r.Hours.OpenNow,
		Distance: r.Distance,
		Address:  r.Location.FormattedAddress,
	}
	for _, cat := range r.Categories {
		p.Categories = append(p.Categories, cat.Name)
	}
	if len(r.Photos) > 0 {
		p.ImageURL = photoURL(r.Photos[0].Prefix, r.Photos[0].Suffix, 300, 225)
	}
	return p
}

// photoURL assembles a sized photo URL from the API's prefix/suffix
// pair.
func photoURL(prefix, suffix string, width, height int) string {
	if prefix == "" || suffix == "" {
		return ""
	}
	return fmt.Sprintf("%s%dx%d%s", prefix, width, height, suffix)
}

type submitPayload struct {
	Name       string   `json:"name"`
	Latitude   float64  `json:"latitude,omitempty"`
	Longitude  float64  `json:"longitude,omitempty"`
	Category   string   `json:"category"`
	Address    string   `json:"address"`
	Phone      string   `json:"phone,omitempty"`
	Website    string   `json:"website,omitempty"`
	Email      string   `json:"email,omitempty"`
	Hours      string   `json:"hours,omitempty"`
	Open24x7   bool     `json:"open_24x7,omitempty"`
	Chain      *bool    `json:"chain,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
	PhotoIDs   []string `json:"photo_ids,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

// Submit implements domain.PlaceSubmitter. Submissions are writes and
// are never retried here; a failure surfaces to the caller as-is.
func (c *Client) Submit(ctx context.Context, draft domain.Draft) (string, error) {
	payload := submitPayload{
		Name:       draft.Name,
		Category:   draft.Category,
		Address:    draft.Address,
		Hours:      draft.Hours,
		Open24x7:   draft.Open24x7,
		Chain:      draft.Chain,
		Attributes: draft.Attributes,
		PhotoIDs:   draft.PhotoIDs,
	}
	if draft.Location != nil {
		payload.Latitude = draft.Location.Latitude
		payload.Longitude = draft.Location.Longitude
	}
	if draft.Contact != nil {
		payload.Phone = draft.Contact.Phone
		payload.Website = draft.Contact.Website
		payload.Email = draft.Contact.Email
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", domain.NewCollaboratorError("submit_place", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, bytes.NewReader(body))
	if err != nil {
		return "", domain.NewCollaboratorError("submit_place", false, err)
	}
	c.headers(req)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.NewCollaboratorError("submit_place", false, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return "", statusError("submit_place", res)
	}

	var out submitResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", domain.NewCollaboratorError("submit_place", false, fmt.Errorf("decoding submit response: %w", err))
	}
	if out.ID == "" {
		return "", domain.NewCollaboratorError("submit_place", false, fmt.Errorf("submit response carried no id"))
	}
	return out.ID, nil
}

// statusError maps an HTTP failure to a collaborator error. Rate
// limiting and server faults are retryable; everything else in the 4xx
// range is a permanent caller error.
func statusError(op string, res *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
	retryable := res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500
	return domain.NewCollaboratorError(op, retryable,
		fmt.Errorf("foursquare returned %d: %s", res.StatusCode, snippet))
}
