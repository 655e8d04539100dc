// Package router implements the supervisor: it matches each inbound
// request to exactly one capability agent per turn and owns the single
// session commit of that turn.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/placepilot/placepilot/internal/app/agents"
	"github.com/placepilot/placepilot/internal/app/reply"
	"github.com/placepilot/placepilot/internal/domain"
	"github.com/placepilot/placepilot/internal/observability"
)

// TieBreak resolves equal confidence scores deterministically. Scores
// from an LLM-backed classifier are not guaranteed distinct, so the
// policy is explicit rather than an accident of iteration order.
type TieBreak int

const (
	// TieBreakFirstRegistered picks the earliest registered agent
	// among those sharing the top score (the default).
	TieBreakFirstRegistered TieBreak = iota
	// TieBreakLastRegistered picks the latest registered one.
	TieBreakLastRegistered
)

// Option customizes a Router.
type Option func(*Router)

func WithTieBreak(tb TieBreak) Option {
	return func(r *Router) { r.tieBreak = tb }
}

func WithHistoryLimit(n int) Option {
	return func(r *Router) { r.historyLimit = n }
}

func WithClassifierTimeout(d time.Duration) Option {
	return func(r *Router) { r.classifierTimeout = d }
}

func withClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// Router dispatches inbound requests. The agent registry is fixed at
// construction and never mutated afterwards, so it needs no locking.
type Router struct {
	store      domain.SessionStore
	classifier domain.IntentClassifier
	agents     []agents.Agent
	owners     map[domain.FlowName]agents.Agent

	tieBreak          TieBreak
	historyLimit      int
	classifierTimeout time.Duration
	now               func() time.Time
}

// New builds a Router over an ordered agent registry. Registration
// order is significant: it is the tie-break order.
func New(store domain.SessionStore, classifier domain.IntentClassifier, registry []agents.Agent, opts ...Option) *Router {
	r := &Router{
		store:             store,
		classifier:        classifier,
		agents:            registry,
		owners:            make(map[domain.FlowName]agents.Agent),
		historyLimit:      20,
		classifierTimeout: 10 * time.Second,
		now:               time.Now,
	}
	for _, a := range registry {
		if owner, ok := a.(agents.FlowOwner); ok {
			r.owners[owner.Flow()] = a
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route processes one inbound turn: load session, pick exactly one
// agent, run it, apply its patch, commit once, normalize the reply.
//
// The returned error is non-nil only for session-store failures; the
// reply is always usable, so the transport can still answer the user.
func (r *Router) Route(ctx context.Context, req *domain.Request) (domain.Reply, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", req.UserID)

	sess, err := r.store.Get(ctx, req.UserID)
	if err != nil {
		log.Error("session load failed", "error", err)
		return reply.Transient(), fmt.Errorf("loading session for %s: %w", req.UserID, err)
	}
	// From here on the per-user lock is held; exactly one Commit
	// releases it on every path.

	agent := r.selectAgent(ctx, req, sess)
	if agent == nil {
		log.Info("no agent matched", "summary", req.Summary())
		return reply.Fallback(), r.commit(ctx, req.UserID, sess)
	}

	start := r.now()
	log.Info("agent selected", "agent", agent.Name(), "summary", req.Summary())

	resp, err := agent.Process(ctx, req, sess.Clone())
	if err != nil {
		// Agents are expected to convert collaborator failures into
		// replies themselves; anything that escapes aborts the turn
		// without touching the session.
		log.Error("agent failed", "agent", agent.Name(), "error", err)
		return reply.Transient(), r.commit(ctx, req.UserID, sess)
	}
	log.Info("agent done", "agent", agent.Name(), "elapsed_ms", r.now().Sub(start).Milliseconds())

	r.apply(ctx, sess, req, resp.Patch, agent.Name())
	if err := r.commit(ctx, req.UserID, sess); err != nil {
		return reply.Transient(), err
	}
	return reply.Normalize(resp), nil
}

// selectAgent picks the turn's agent. An active flow has absolute
// priority: its owner gets the turn without capability negotiation, so
// no stray query can pre-empt an in-progress submission.
func (r *Router) selectAgent(ctx context.Context, req *domain.Request, sess *domain.Session) agents.Agent {
	log := observability.LoggerFromContext(ctx)

	if sess.FlowActive() {
		if owner, ok := r.owners[sess.ActiveFlow]; ok {
			return owner
		}
		// An orphaned flow tag would trap the user; clear it and fall
		// through to negotiation.
		log.Error("no owner registered for active flow, resetting", "flow", sess.ActiveFlow)
		sess.ResetFlow()
	}

	r.classify(ctx, req)

	best, bestScore := agents.Agent(nil), 0.0
	for _, a := range r.agents {
		score := a.CanHandle(req, sess)
		if score <= 0 {
			continue
		}
		better := score > bestScore
		if score == bestScore && r.tieBreak == TieBreakLastRegistered {
			better = true
		}
		if better {
			best, bestScore = a, score
		}
	}
	return best
}

// classify consults the NLU collaborator once per turn and attaches
// the result to the request. Failures degrade to no opinion and never
// propagate.
func (r *Router) classify(ctx context.Context, req *domain.Request) {
	if r.classifier == nil || req.Text == "" {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, r.classifierTimeout)
	defer cancel()

	intent, err := r.classifier.Classify(cctx, req.Text)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("intent classification failed", "error", err)
		return
	}
	req.Intent = &intent
}

// apply folds an agent's patch into the session. This is the only
// place session state changes; agents never write to the store.
func (r *Router) apply(ctx context.Context, sess *domain.Session, req *domain.Request, patch *domain.SessionPatch, agentName string) {
	now := r.now()

	if patch != nil {
		if patch.StartFlow != "" {
			sess.ActiveFlow = patch.StartFlow
		}
		if patch.Stage != "" {
			sess.Stage = patch.Stage
		}
		if patch.Draft != nil {
			sess.Draft = *patch.Draft.Clone()
		}
		if patch.SaveLocation != nil {
			loc := *patch.SaveLocation
			sess.Location = &loc
		}
		if patch.EndFlow {
			sess.ResetFlow()
		}
	}

	summary := req.Summary()
	if patch != nil && patch.Note != "" {
		summary = patch.Note
	}
	sess.RecordTurn(domain.Turn{Summary: summary, Agent: agentName, At: now}, r.historyLimit)
	sess.LastActivityAt = now

	if err := sess.Validate(); err != nil {
		// A patch that breaks the invariants is a bug in the agent;
		// reset the flow rather than persist corrupted state.
		observability.LoggerFromContext(ctx).Error("patch violated session invariants, resetting flow",
			"agent", agentName, "error", err)
		sess.ResetFlow()
	}
}

func (r *Router) commit(ctx context.Context, userID domain.UserID, sess *domain.Session) error {
	if err := r.store.Commit(ctx, userID, sess); err != nil {
		observability.LoggerFromContext(ctx).Error("session commit failed", "user_id", userID, "error", err)
		return fmt.Errorf("committing session for %s: %w", userID, err)
	}
	return nil
}
