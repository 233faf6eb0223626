// Package flow implements the dialogue orchestration engine: intent routing,
// the slot-filling quote flow, confirmation, and the non-quote handlers. One
// turn is one synchronous pass: load state, route, handle, save.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quotepilot/quotepilot/internal/genai"
	"github.com/quotepilot/quotepilot/internal/models"
	"github.com/quotepilot/quotepilot/internal/store"
	"github.com/quotepilot/quotepilot/internal/tools"
)

// Handler processes one turn for a routed intent and returns the reply text.
type Handler func(ctx context.Context, state *models.ConversationState, message string) (string, error)

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	State *models.ConversationState
	Reply string
}

// EngineOpts holds engine tuning.
type EngineOpts struct {
	ConfidenceThreshold float64
}

// EngineOption configures the engine.
type EngineOption func(*EngineOpts)

// WithConfidenceThreshold overrides the classification gating threshold.
func WithConfidenceThreshold(t float64) EngineOption {
	return func(o *EngineOpts) { o.ConfidenceThreshold = t }
}

// Engine drives the conversation. All collaborators are explicit
// dependencies so tests can substitute each one.
type Engine struct {
	store     store.Store
	gateway   genai.Client
	tools     *tools.Dispatcher
	composer  *Composer
	router    *Router
	threshold float64
	handlers  map[models.Intent]Handler

	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// NewEngine wires the engine with its collaborators.
func NewEngine(st store.Store, gateway genai.Client, dispatcher *tools.Dispatcher, opts ...EngineOption) *Engine {
	cfg := EngineOpts{ConfidenceThreshold: DefaultConfidenceThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Engine{
		store:        st,
		gateway:      gateway,
		tools:        dispatcher,
		composer:     NewComposer(gateway),
		router:       NewRouter(gateway),
		threshold:    cfg.ConfidenceThreshold,
		sessionLocks: make(map[string]*sync.Mutex),
	}
	e.handlers = map[models.Intent]Handler{
		models.IntentQuote:             e.handleQuote,
		models.IntentPolicyExplanation: e.handlePolicy,
		models.IntentClaimsGuidance:    e.handleClaims,
		models.IntentHumanHandoff:      e.handleHandoff,
	}
	return e
}

// CreateSession allocates a fresh session.
func (e *Engine) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	return e.store.CreateSession(ctx, userID)
}

// GetState returns the stored state for a session, or nil when none exists.
func (e *Engine) GetState(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	return e.store.LoadState(ctx, sessionID)
}

// lockSession returns the per-session mutex, creating it on first use.
// Concurrent turns on the same session serialize; independent sessions never
// contend. Entries are kept for the process lifetime: only the store knows
// when a session is retired, and each entry costs one mutex. Revisit if a
// deployment churns through unbounded session counts between restarts.
func (e *Engine) lockSession(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, found := e.sessionLocks[sessionID]
	if !found {
		l = &sync.Mutex{}
		e.sessionLocks[sessionID] = l
	}
	return l
}

// Turn processes one (session, message) pair to completion: load state,
// route the intent, run the handler, persist. A persistence failure is fatal
// for the turn only; the caller may resend the same message.
func (e *Engine) Turn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	if message == "" {
		return nil, models.ErrEmptyMessage
	}

	lock := e.lockSession(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := e.store.LoadState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if state == nil {
		userID := ""
		if sess, sessErr := e.store.GetSession(ctx, sessionID); sessErr == nil && sess != nil {
			userID = sess.UserID
		}
		state = models.NewConversationState(sessionID, userID)
		slog.Debug("Engine.Turn: fresh state", "sessionID", sessionID)
	}

	state.AppendMessage(models.RoleUser, message)
	reply := e.processTurn(ctx, state, message)
	state.AppendMessage(models.RoleAssistant, reply)
	state.UpdatedAt = time.Now().UTC()

	if err := e.store.SaveState(ctx, state); err != nil {
		slog.Error("Engine.Turn: save failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to save state: %w", err)
	}
	return &TurnResult{State: state, Reply: reply}, nil
}

// processTurn routes and handles one message against loaded state.
func (e *Engine) processTurn(ctx context.Context, state *models.ConversationState, message string) string {
	if state.RequiresHuman {
		// terminal: automated routing never advances a handed-off session
		return "This conversation has been passed to a human agent. Someone will be with you shortly."
	}

	// a repeated affirmation after pricing must not price again
	if state.ConfirmationReceived && state.QuoteData != nil && IsAffirmative(message) {
		return e.composer.FormatQuote(state.QuoteData)
	}

	intent, confidence, classified := e.router.Route(ctx, state, message)

	if classified && confidence < e.threshold {
		slog.Info("Engine.processTurn: low-confidence classification, escalating",
			"sessionID", state.SessionID, "intent", intent, "confidence", confidence)
		state.CurrentIntent = models.IntentHumanHandoff
		state.ConfidenceScore = confidence
		state.HandoffReason = "low_confidence"
		state.RequiresHuman = true
		ticket := e.tools.CreateHandoff(ctx, state.UserID, state.HandoffReason, message)
		return e.composer.HandoffNotice(ticket.TicketID)
	}

	if IsRestart(message) && state.CurrentIntent == models.IntentQuote {
		state.ResetQuoteProgress()
		slog.Debug("Engine.processTurn: quote flow restarted", "sessionID", state.SessionID)
	}

	state.CurrentIntent = intent
	if classified {
		state.ConfidenceScore = confidence
	}

	handler, found := e.handlers[intent]
	if !found {
		handler = e.handleHandoff
	}
	reply, err := handler(ctx, state, message)
	if err != nil {
		slog.Error("Engine.processTurn: handler failed", "error", err, "sessionID", state.SessionID, "intent", intent)
		return e.composer.DegradedReply()
	}
	return reply
}
