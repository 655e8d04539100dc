// Package httpadapter exposes the conversation core over HTTP.
package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/placepilot/placepilot/internal/app/router"
	"github.com/placepilot/placepilot/internal/domain"
)

type Server struct {
	router *router.Router
}

func NewServer(rt *router.Router) http.Handler {
	s := &Server{router: rt}

	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/v1/messages", s.handleMessage)

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type locationDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type messageRequest struct {
	UserID   string       `json:"user_id"`
	Text     string       `json:"text,omitempty"`
	Location *locationDTO `json:"location,omitempty"`
	PhotoIDs []string     `json:"photo_ids,omitempty"`
	Callback string       `json:"callback,omitempty"`
}

type placeDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Rating     float64  `json:"rating,omitempty"`
	Price      int      `json:"price,omitempty"`
	OpenNow    bool     `json:"open_now"`
	Distance   int      `json:"distance,omitempty"`
	ImageURL   string   `json:"image_url,omitempty"`
	Address    string   `json:"address,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

type attachmentDTO struct {
	Kind  string    `json:"kind"`
	URL   string    `json:"url,omitempty"`
	Place *placeDTO `json:"place,omitempty"`
}

type quickReplyDTO struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

type messageResponse struct {
	Text         string          `json:"text"`
	Attachments  []attachmentDTO `json:"attachments,omitempty"`
	QuickReplies []quickReplyDTO `json:"quick_replies,omitempty"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" && req.Location == nil && len(req.PhotoIDs) == 0 && req.Callback == "" {
		badRequest(w, "message carries no content")
		return
	}

	dreq := &domain.Request{
		UserID:   domain.UserID(req.UserID),
		Text:     req.Text,
		PhotoIDs: req.PhotoIDs,
		Callback: req.Callback,
	}
	if req.Location != nil {
		dreq.Location = &domain.Location{
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		}
	}

	reply, err := s.router.Route(r.Context(), dreq)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			// The reply is the user-facing transient message; carry it
			// through even on 503 so clients can show it.
			writeJSON(w, http.StatusServiceUnavailable, toMessageResponse(reply))
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(reply))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Mapping helpers
// ─────────────────────────────────────────────

func toMessageResponse(rep domain.Reply) messageResponse {
	out := messageResponse{Text: rep.Text}
	for _, a := range rep.Attachments {
		dto := attachmentDTO{Kind: string(a.Kind), URL: a.URL}
		if a.Place != nil {
			dto.Place = &placeDTO{
				ID:         a.Place.ID,
				Name:       a.Place.Name,
				Rating:     a.Place.Rating,
				Price:      a.Place.Price,
				OpenNow:    a.Place.OpenNow,
				Distance:   a.Place.Distance,
				ImageURL:   a.Place.ImageURL,
				Address:    a.Place.Address,
				Categories: a.Place.Categories,
			}
		}
		out.Attachments = append(out.Attachments, dto)
	}
	for _, q := range rep.QuickReplies {
		out.QuickReplies = append(out.QuickReplies, quickReplyDTO{Label: q.Label, Data: q.Data})
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
