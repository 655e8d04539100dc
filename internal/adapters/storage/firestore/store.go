package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/placepilot/placepilot/internal/adapters/storage/keylock"
	"github.com/placepilot/placepilot/internal/domain"
	"github.com/placepilot/placepilot/internal/observability"
)

// Store persists sessions in Firestore, one document per user.
// Per-user exclusivity is enforced in-process with a keyed lock;
// Firestore only provides durability.
type Store struct {
	client      *firestore.Client
	locks       *keylock.Locker
	idleTimeout time.Duration
	now         func() time.Time
}

// NewStore creates a Firestore store.
// Uses the project passed (PILOT_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string, idleTimeout time.Duration) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{
		client:      client,
		locks:       keylock.New(),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionDocRef(id domain.UserID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	UserID         string       `firestore:"user_id"`
	ActiveFlow     string       `firestore:"active_flow"`
	Stage          string       `firestore:"stage"`
	Draft          draftDoc     `firestore:"draft"`
	Location       *locationDoc `firestore:"location"`
	History        []turnDoc    `firestore:"history"`
	LastActivityAt time.Time    `firestore:"last_activity_at"`
	UpdatedAt      time.Time    `firestore:"updated_at"`
}

type draftDoc struct {
	Location       *locationDoc `firestore:"location"`
	ManualAddress  bool         `firestore:"manual_address"`
	Name           string       `firestore:"name"`
	Category       string       `firestore:"category"`
	Address        string       `firestore:"address"`
	Contact        *contactDoc  `firestore:"contact"`
	ContactSkipped bool         `firestore:"contact_skipped"`
	Hours          string       `firestore:"hours"`
	Open24x7       bool         `firestore:"open_24x7"`
	Chain          *bool        `firestore:"chain"`
	Attributes     []string     `firestore:"attributes"`
	PhotoIDs       []string     `firestore:"photo_ids"`
}

type contactDoc struct {
	Phone   string `firestore:"phone"`
	Website string `firestore:"website"`
	Email   string `firestore:"email"`
}

type locationDoc struct {
	Latitude  float64 `firestore:"latitude"`
	Longitude float64 `firestore:"longitude"`
}

type turnDoc struct {
	Summary string    `firestore:"summary"`
	Agent   string    `firestore:"agent"`
	At      time.Time `firestore:"at"`
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

// Get acquires the user's lock and loads their session. A missing
// document means first contact and yields a fresh session.
func (s *Store) Get(ctx context.Context, userID domain.UserID) (*domain.Session, error) {
	if err := s.locks.Acquire(ctx, string(userID)); err != nil {
		return nil, err
	}

	now := s.now()
	snap, err := s.sessionDocRef(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.NewSession(userID, now), nil
		}
		s.locks.Release(string(userID))
		return nil, fmt.Errorf("%w: firestore Get: %v", domain.ErrStoreUnavailable, err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		s.locks.Release(string(userID))
		return nil, fmt.Errorf("%w: firestore Get decode: %v", domain.ErrStoreUnavailable, err)
	}

	sess := fromDoc(userID, &doc)
	if sess.Expired(now, s.idleTimeout) && sess.FlowActive() {
		observability.LoggerFromContext(ctx).Info("expiring idle flow",
			"user_id", userID, "flow", sess.ActiveFlow)
		sess.ResetFlow()
	}
	return sess, nil
}

// Commit writes the session and releases the user's lock whether or
// not the write succeeds.
func (s *Store) Commit(ctx context.Context, userID domain.UserID, sess *domain.Session) error {
	defer s.locks.Release(string(userID))

	doc := toDoc(sess, s.now())
	if _, err := s.sessionDocRef(userID).Set(ctx, doc); err != nil {
		return fmt.Errorf("%w: firestore Commit: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Mapping
// ─────────────────────────────────────────

func toDoc(sess *domain.Session, now time.Time) sessionDoc {
	doc := sessionDoc{
		UserID:         string(sess.UserID),
		ActiveFlow:     string(sess.ActiveFlow),
		Stage:          string(sess.Stage),
		Draft:          toDraftDoc(&sess.Draft),
		Location:       toLocationDoc(sess.Location),
		LastActivityAt: sess.LastActivityAt,
		UpdatedAt:      now,
	}
	for _, t := range sess.History {
		doc.History = append(doc.History, turnDoc{Summary: t.Summary, Agent: t.Agent, At: t.At})
	}
	return doc
}

func fromDoc(userID domain.UserID, doc *sessionDoc) *domain.Session {
	sess := &domain.Session{
		UserID:         userID,
		ActiveFlow:     domain.FlowName(doc.ActiveFlow),
		Stage:          domain.Stage(doc.Stage),
		Draft:          fromDraftDoc(&doc.Draft),
		Location:       fromLocationDoc(doc.Location),
		LastActivityAt: doc.LastActivityAt,
	}
	for _, t := range doc.History {
		sess.History = append(sess.History, domain.Turn{Summary: t.Summary, Agent: t.Agent, At: t.At})
	}
	return sess
}

func toDraftDoc(d *domain.Draft) draftDoc {
	var contact *contactDoc
	if d.Contact != nil {
		contact = &contactDoc{Phone: d.Contact.Phone, Website: d.Contact.Website, Email: d.Contact.Email}
	}
	return draftDoc{
		Location:       toLocationDoc(d.Location),
		ManualAddress:  d.ManualAddress,
		Name:           d.Name,
		Category:       d.Category,
		Address:        d.Address,
		Contact:        contact,
		ContactSkipped: d.ContactSkipped,
		Hours:          d.Hours,
		Open24x7:       d.Open24x7,
		Chain:          d.Chain,
		Attributes:     append([]string(nil), d.Attributes...),
		PhotoIDs:       append([]string(nil), d.PhotoIDs...),
	}
}

func fromDraftDoc(doc *draftDoc) domain.Draft {
	var contact *domain.Contact
	if doc.Contact != nil {
		contact = &domain.Contact{Phone: doc.Contact.Phone, Website: doc.Contact.Website, Email: doc.Contact.Email}
	}
	return domain.Draft{
		Location:       fromLocationDoc(doc.Location),
		ManualAddress:  doc.ManualAddress,
		Name:           doc.Name,
		Category:       doc.Category,
		Address:        doc.Address,
		Contact:        contact,
		ContactSkipped: doc.ContactSkipped,
		Hours:          doc.Hours,
		Open24x7:       doc.Open24x7,
		Chain:          doc.Chain,
		Attributes:     append([]string(nil), doc.Attributes...),
		PhotoIDs:       append([]string(nil), doc.PhotoIDs...),
	}
}

func toLocationDoc(l *domain.Location) *locationDoc {
	if l == nil {
		return nil
	}
	return &locationDoc{Latitude: l.Latitude, Longitude: l.Longitude}
}

func fromLocationDoc(doc *locationDoc) *domain.Location {
	if doc == nil {
		return nil
	}
	return &domain.Location{Latitude: doc.Latitude, Longitude: doc.Longitude}
}
