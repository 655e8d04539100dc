package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/placepilot/placepilot/internal/domain"
)

// VertexClient implements intent classification and slot parsing on
// Vertex AI (Gemini).
type VertexClient struct {
	client    *genai.Client
	modelName string
}

// NewVertexClient creates the Vertex AI client for the given project,
// location and model.
func NewVertexClient(ctx context.Context, projectID, location, modelName string) (*VertexClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("GCP project and location must be set for the Vertex client")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// generate runs one low-temperature completion with the given system
// instruction. Collaborator failures are tagged retryable so callers
// can apply their read-retry policy.
func (v *VertexClient) generate(ctx context.Context, op, system, user string) (string, error) {
	temp := float32(0.1)
	topP := float32(0.9)
	outputTokens := int32(512)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   outputTokens,
	}

	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", domain.NewCollaboratorError(op, true, err)
	}

	text := res.Text()
	if text == "" {
		return "", domain.NewCollaboratorError(op, true, fmt.Errorf("vertex returned empty text"))
	}
	return text, nil
}

type intentPayload struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Slots      map[string]string `json:"slots"`
}

// Classify implements domain.IntentClassifier.
func (v *VertexClient) Classify(ctx context.Context, text string) (domain.Intent, error) {
	raw, err := v.generate(ctx, "classify_intent", intentSystemPrompt, buildIntentUserContent(text))
	if err != nil {
		return domain.Intent{}, err
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return domain.Intent{}, domain.NewCollaboratorError("classify_intent", false,
			fmt.Errorf("decoding intent payload: %w", err))
	}

	switch payload.Intent {
	case domain.IntentSearch, domain.IntentRecommend, domain.IntentContribute, domain.IntentHelp, domain.IntentNone:
	default:
		payload.Intent = domain.IntentNone
	}
	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 1 {
		payload.Confidence = 1
	}

	return domain.Intent{
		Name:       payload.Intent,
		Confidence: payload.Confidence,
		Slots:      payload.Slots,
	}, nil
}

type contactPayload struct {
	Valid   bool   `json:"valid"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Email   string `json:"email"`
}

// ParseContact implements domain.SlotParser.
func (v *VertexClient) ParseContact(ctx context.Context, text string) (domain.Contact, bool, error) {
	raw, err := v.generate(ctx, "parse_contact", contactSystemPrompt, text)
	if err != nil {
		return domain.Contact{}, false, err
	}

	var payload contactPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return domain.Contact{}, false, domain.NewCollaboratorError("parse_contact", false,
			fmt.Errorf("decoding contact payload: %w", err))
	}
	if !payload.Valid {
		return domain.Contact{}, false, nil
	}
	contact := domain.Contact{
		Phone:   payload.Phone,
		Website: payload.Website,
		Email:   payload.Email,
	}
	if contact == (domain.Contact{}) {
		return domain.Contact{}, false, nil
	}
	return contact, true, nil
}

type hoursPayload struct {
	Valid bool   `json:"valid"`
	Hours string `json:"hours"`
}

// ParseHours implements domain.SlotParser.
func (v *VertexClient) ParseHours(ctx context.Context, text string) (string, bool, error) {
	raw, err := v.generate(ctx, "parse_hours", hoursSystemPrompt, text)
	if err != nil {
		return "", false, err
	}

	var payload hoursPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return "", false, domain.NewCollaboratorError("parse_hours", false,
			fmt.Errorf("decoding hours payload: %w", err))
	}
	if !payload.Valid || payload.Hours == "" {
		return "", false, nil
	}
	return payload.Hours, true, nil
}
