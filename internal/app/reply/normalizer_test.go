package reply_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/placepilot/placepilot/internal/app/reply"
	"github.com/placepilot/placepilot/internal/domain"
)

func TestNormalizeIsIdempotent(t *testing.T) {
	resp := domain.AgentResponse{
		Text: "  Here you go \n",
		Attachments: []domain.Attachment{
			{Kind: domain.AttachmentPlaceCard, Place: &domain.Place{Name: "Cafe", Categories: []string{"coffee"}}},
			{Kind: ""}, // dropped
		},
		QuickReplies: []domain.QuickReply{
			{Label: " Yes ", Data: "yes"},
			{Label: "", Data: "ignored"},
		},
	}

	first := reply.Normalize(resp)
	second := reply.Normalize(resp)
	require.Equal(t, first, second)

	require.Equal(t, "Here you go", first.Text)
	require.Len(t, first.Attachments, 1)
	require.Len(t, first.QuickReplies, 1)
	require.Equal(t, "Yes", first.QuickReplies[0].Label)
}

func TestNormalizeDoesNotAliasAgentData(t *testing.T) {
	place := &domain.Place{Name: "Cafe", Categories: []string{"coffee"}}
	resp := domain.AgentResponse{
		Text:        "hi",
		Attachments: []domain.Attachment{{Kind: domain.AttachmentPlaceCard, Place: place}},
	}

	out := reply.Normalize(resp)
	place.Name = "changed"
	place.Categories[0] = "changed"

	require.Equal(t, "Cafe", out.Attachments[0].Place.Name)
	require.Equal(t, "coffee", out.Attachments[0].Place.Categories[0])
}
