package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placepilot/placepilot/internal/domain"
)

func TestMockClassifyKeywordRouting(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	cases := []struct {
		text string
		want string
	}{
		{"find sushi near me", domain.IntentSearch},
		{"can you recommend somewhere for dinner?", domain.IntentRecommend},
		{"I want to add a place that's not on the map", domain.IntentContribute},
		{"help", domain.IntentHelp},
		{"blue", domain.IntentNone},
	}
	for _, tc := range cases {
		intent, err := m.Classify(ctx, tc.text)
		require.NoError(t, err)
		assert.Equal(t, tc.want, intent.Name, "text %q", tc.text)
	}
}

func TestMockClassifyExtractsSearchSlots(t *testing.T) {
	m := NewMock()
	intent, err := m.Classify(context.Background(), "find cheap tacos open now")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentSearch, intent.Name)
	assert.Equal(t, "true", intent.Slots["open_now"])
	assert.Equal(t, "2", intent.Slots["max_price"])
}

func TestMockParseContact(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	contact, valid, err := m.ParseContact(ctx, "call +34 612 345 678 or mail hi@cafe.example.com")
	require.NoError(t, err)
	require.True(t, valid)
	assert.NotEmpty(t, contact.Phone)
	assert.Equal(t, "hi@cafe.example.com", contact.Email)

	_, valid, err = m.ParseContact(ctx, "no idea honestly")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestMockParseHours(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	hours, valid, err := m.ParseHours(ctx, "Mon-Fri 9:00-18:00")
	require.NoError(t, err)
	require.True(t, valid)
	assert.Equal(t, "Mon-Fri 9:00-18:00", hours)

	_, valid, err = m.ParseHours(ctx, "whenever we feel like it")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"intent":"search"}`, stripCodeFence("```json\n{\"intent\":\"search\"}\n```"))
	assert.Equal(t, `{"intent":"search"}`, stripCodeFence(`{"intent":"search"}`))
}
