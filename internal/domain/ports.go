package domain

import "context"

// SessionStore is the durable per-user session boundary.
//
// Get acquires an exclusive per-user lock before returning: while one
// turn for a user is in flight, a second Get for the same user blocks
// until the first turn's Commit. Turns for different users proceed in
// parallel. Get creates a fresh session when none exists and discards
// the flow of an idle-expired session.
//
// Every successful Get must be paired with exactly one Commit, which
// atomically replaces the session and releases the lock (the lock is
// released even when the write fails). A failed Get releases the lock
// itself. Backend failures surface as ErrStoreUnavailable.
type SessionStore interface {
	Get(ctx context.Context, userID UserID) (*Session, error)
	Commit(ctx context.Context, userID UserID, session *Session) error
}

// IntentClassifier is the NLU collaborator. Failures must degrade to a
// no-opinion intent at the call site, never reach the router's caller.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// SlotParser extracts structured values from free-form stage input.
type SlotParser interface {
	// ParseContact extracts phone/website/email. valid is false when
	// the text does not look like contact details at all.
	ParseContact(ctx context.Context, text string) (contact Contact, valid bool, err error)
	// ParseHours normalizes opening hours phrasing.
	ParseHours(ctx context.Context, text string) (normalized string, valid bool, err error)
}

// PlaceSearcher is the search collaborator. An empty result is not an
// error; errors are retryable collaborator failures.
type PlaceSearcher interface {
	Search(ctx context.Context, params SearchParams) ([]Place, error)
}

// PlaceSubmitter is the place-data write collaborator, invoked only
// from the CONFIRM stage. Writes are never silently retried.
type PlaceSubmitter interface {
	Submit(ctx context.Context, draft Draft) (id string, err error)
}
