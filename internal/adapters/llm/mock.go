package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/placepilot/placepilot/internal/domain"
)

// Mock is a deterministic, rule-based stand-in for the Vertex client.
// Used in local development and tests.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

var (
	searchWords     = []string{"find", "search", "where", "near me", "nearby", "open now"}
	recommendWords  = []string{"recommend", "suggest", "best", "craving", "should i"}
	contributeWords = []string{"add a place", "add place", "submit", "new place", "contribute", "not listed"}
	helpWords       = []string{"help", "what can you do", "how do i"}
)

// Classify implements domain.IntentClassifier with keyword rules.
func (m *Mock) Classify(_ context.Context, text string) (domain.Intent, error) {
	lower := strings.ToLower(text)
	match := func(words []string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case match(contributeWords):
		return domain.Intent{Name: domain.IntentContribute, Confidence: 0.9}, nil
	case match(recommendWords):
		return domain.Intent{Name: domain.IntentRecommend, Confidence: 0.85}, nil
	case match(searchWords):
		slots := map[string]string{}
		if strings.Contains(lower, "open now") {
			slots["open_now"] = "true"
		}
		if strings.Contains(lower, "cheap") {
			slots["max_price"] = "2"
		}
		if q := extractQuery(lower); q != "" {
			slots["query"] = q
		}
		return domain.Intent{Name: domain.IntentSearch, Confidence: 0.85, Slots: slots}, nil
	case match(helpWords):
		return domain.Intent{Name: domain.IntentHelp, Confidence: 0.8}, nil
	default:
		return domain.Intent{Name: domain.IntentNone, Confidence: 0.3}, nil
	}
}

// search phrasing that is not part of the thing being searched for.
var queryStopwords = map[string]bool{
	"find": true, "search": true, "for": true, "where": true, "is": true,
	"a": true, "an": true, "the": true, "me": true, "some": true,
	"near": true, "nearby": true, "now": true, "open": true, "cheap": true,
	"please": true, "can": true, "you": true, "i": true, "want": true,
}

// extractQuery keeps the content words of a search message.
func extractQuery(lower string) string {
	var kept []string
	for _, w := range strings.Fields(lower) {
		if !queryStopwords[strings.Trim(w, ".,!?")] {
			kept = append(kept, strings.Trim(w, ".,!?"))
		}
	}
	return strings.Join(kept, " ")
}

var (
	phoneRe = regexp.MustCompile(`\+?[\d][\d\s\-()]{6,}`)
	emailRe = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`)
	urlRe   = regexp.MustCompile(`(https?://\S+|www\.\S+|\S+\.(com|net|org|io|es)\S*)`)
)

// ParseContact implements domain.SlotParser with regex extraction.
func (m *Mock) ParseContact(_ context.Context, text string) (domain.Contact, bool, error) {
	contact := domain.Contact{
		Phone:   strings.TrimSpace(phoneRe.FindString(text)),
		Email:   emailRe.FindString(text),
		Website: urlRe.FindString(text),
	}
	// An email also matches the URL pattern; prefer the email reading.
	if contact.Website == contact.Email {
		contact.Website = ""
	}
	if contact == (domain.Contact{}) {
		return domain.Contact{}, false, nil
	}
	return contact, true, nil
}

var hoursRe = regexp.MustCompile(`\d{1,2}([:.]\d{2})?\s*(am|pm)?\s*(-|to|–)\s*\d{1,2}([:.]\d{2})?\s*(am|pm)?`)

// ParseHours implements domain.SlotParser. It accepts anything that
// contains a recognizable time range and echoes the trimmed text.
func (m *Mock) ParseHours(_ context.Context, text string) (string, bool, error) {
	trimmed := strings.TrimSpace(text)
	if !hoursRe.MatchString(strings.ToLower(trimmed)) {
		return "", false, nil
	}
	return trimmed, true, nil
}
