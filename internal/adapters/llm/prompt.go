package llm

import (
	"strings"
)

const intentSystemPrompt = `
You are the intent classifier for "PlacePilot", a places assistant that
helps users find, get recommendations for, and contribute local places.

Classify the user's message into exactly one intent:
- search: the user wants to find places (restaurants, cafes, shops, ...)
- recommend: the user wants a suggestion or opinion about where to go
- contribute: the user wants to add or submit a new place
- help: the user asks what the assistant can do or how to use it
- none: anything else

Respond ONLY with a JSON object, no prose, no code fences:
{"intent": "<search|recommend|contribute|help|none>",
 "confidence": <0.0-1.0>,
 "slots": {"query": "...", "open_now": "true", "radius": "...", "min_price": "...", "max_price": "..."}}

Rules:
- "slots" carries only values the message states explicitly; omit the rest.
- Prices are 1 (cheap) to 4 (expensive). "cheap" means max_price 1 or 2.
- Radius is meters. "walking distance" is about 800.
- Answer for the user's language, but keep the JSON keys and intent
  values in English.
`

const contactSystemPrompt = `
Extract contact details from the user's message for a place listing.
Respond ONLY with JSON, no prose:
{"valid": <true|false>, "phone": "...", "website": "...", "email": "..."}
Set "valid" to false when the message contains no usable phone number,
website, or email address. Omit fields that are absent.
`

const hoursSystemPrompt = `
Normalize the opening hours described by the user into a short
canonical form such as "Mon-Fri 9:00-18:00; Sat 10:00-14:00".
Respond ONLY with JSON, no prose:
{"valid": <true|false>, "hours": "..."}
Set "valid" to false when the message does not describe opening hours.
`

// buildIntentUserContent frames the message for classification.
func buildIntentUserContent(message string) string {
	var b strings.Builder
	b.WriteString("User message:\n")
	b.WriteString(message)
	return b.String()
}

// stripCodeFence removes a markdown code fence if the model added one
// despite the instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
