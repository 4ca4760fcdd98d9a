package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"mindfulchat-backend/internal/config"
	"mindfulchat-backend/internal/llm"
	db_models "mindfulchat-backend/internal/models"
	"mindfulchat-backend/internal/moderation"
	"mindfulchat-backend/internal/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Turn outcomes reported to the observer.
const (
	OutcomeOK           = "ok"
	OutcomeRejected     = "rejected"
	OutcomeTooLong      = "too_long"
	OutcomeBackendError = "backend_error"
	OutcomeStorageError = "storage_error"
)

// Moderator screens a message before it reaches a backend.
type Moderator interface {
	Check(text string) moderation.Verdict
}

// BackendResolver maps a backend choice onto an implementation.
type BackendResolver interface {
	Get(name string) (llm.Backend, error)
}

// TurnObserver receives per-turn telemetry. Implemented by observability.Metrics.
type TurnObserver interface {
	ObserveTurn(actor, backend, outcome string)
	ObserveBackendLatency(backend string, d time.Duration)
	ObserveModerationRejection(actor string)
}

type noopObserver struct{}

func (noopObserver) ObserveTurn(string, string, string)          {}
func (noopObserver) ObserveBackendLatency(string, time.Duration) {}
func (noopObserver) ObserveModerationRejection(string)           {}

// ConversationPolicy holds the tunables of a turn.
type ConversationPolicy struct {
	UserContextTurns  int
	GuestContextTurns int
	MaxMessageLength  int
	BackendTimeout    time.Duration
}

// PolicyFromConfig copies the conversation settings out of cfg.
func PolicyFromConfig(cfg *config.Config) ConversationPolicy {
	return ConversationPolicy{
		UserContextTurns:  cfg.UserContextTurns,
		GuestContextTurns: cfg.GuestContextTurns,
		MaxMessageLength:  cfg.MaxMessageLength,
		BackendTimeout:    cfg.BackendTimeout,
	}
}

// TurnProcessor runs one conversation turn end to end: moderation, context
// retrieval, backend dispatch and persistence of the exchange.
// It keeps no per-request state and is safe for concurrent use.
type TurnProcessor struct {
	moderator    Moderator
	backends     BackendResolver
	turns        store.TurnStore
	policy       ConversationPolicy
	observer     TurnObserver
	systemPrompt string
}

// NewTurnProcessor creates a TurnProcessor. observer may be nil.
func NewTurnProcessor(m Moderator, backends BackendResolver, turns store.TurnStore, policy ConversationPolicy, observer TurnObserver) *TurnProcessor {
	if observer == nil {
		observer = noopObserver{}
	}
	return &TurnProcessor{
		moderator:    m,
		backends:     backends,
		turns:        turns,
		policy:       policy,
		observer:     observer,
		systemPrompt: SystemPrompt,
	}
}

// Process answers message on behalf of actor using the backend named by backendChoice.
// The user and assistant turns are persisted only when the backend succeeds.
func (p *TurnProcessor) Process(ctx context.Context, actor db_models.Actor, message, backendChoice string) (string, error) {
	backendChoice = strings.TrimSpace(backendChoice)
	if strings.TrimSpace(message) == "" {
		return "", invalid("message", "Message is required")
	}
	if backendChoice == "" {
		return "", invalid("model", "Model is required")
	}
	limit, err := p.contextTurns(actor)
	if err != nil {
		return "", err
	}
	backend, err := p.backends.Get(backendChoice)
	if err != nil {
		return "", invalid("model", fmt.Sprintf("Unsupported model %q", backendChoice))
	}
	kind := string(actor.Kind)

	if verdict := p.moderator.Check(message); verdict.Rejected {
		log.WithFields(log.Fields{
			"actor":   actor.String(),
			"text":    message,
			"pattern": verdict.Pattern,
		}).Warn("[TurnProcessor] Manipulation attempt rejected")
		p.observer.ObserveModerationRejection(kind)
		p.observer.ObserveTurn(kind, backend.Name(), OutcomeRejected)
		return "", ErrModerationRejected
	}

	if utf8.RuneCountInString(message) > p.policy.MaxMessageLength {
		p.observer.ObserveTurn(kind, backend.Name(), OutcomeTooLong)
		return "", ErrMessageTooLong
	}

	recent, err := p.turns.FetchRecentTurns(ctx, actor, limit)
	if err != nil {
		log.Printf("[TurnProcessor] Error fetching recent turns for %s: %v", actor, err)
		p.observer.ObserveTurn(kind, backend.Name(), OutcomeStorageError)
		return "", fmt.Errorf("%w: fetch recent turns: %w", ErrStorage, err)
	}

	reply, err := p.dispatch(ctx, backend, p.buildMessages(recent, message))
	if err != nil {
		log.WithFields(log.Fields{
			"actor":   actor.String(),
			"backend": backend.Name(),
		}).Errorf("[TurnProcessor] Backend call failed: %v", err)
		p.observer.ObserveTurn(kind, backend.Name(), OutcomeBackendError)
		return "", fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	err = p.turns.AppendTurns(ctx, actor, []store.NewTurn{
		{Role: db_models.RoleUser, Content: message},
		{Role: db_models.RoleAssistant, Content: reply},
	})
	if err != nil {
		log.Printf("[TurnProcessor] Error appending turns for %s: %v", actor, err)
		p.observer.ObserveTurn(kind, backend.Name(), OutcomeStorageError)
		return "", fmt.Errorf("%w: append turns: %w", ErrStorage, err)
	}

	p.observer.ObserveTurn(kind, backend.Name(), OutcomeOK)
	return reply, nil
}

// History lists stored turns for actor, newest first. limit <= 0 selects the default page size.
func (p *TurnProcessor) History(ctx context.Context, actor db_models.Actor, limit int) ([]db_models.ConversationTurn, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	turns, err := p.turns.FetchRecentTurns(ctx, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch history: %w", ErrStorage, err)
	}
	return turns, nil
}

func (p *TurnProcessor) contextTurns(actor db_models.Actor) (int, error) {
	if actor.ID == uuid.Nil {
		return 0, invalid("actor", "Actor id is required")
	}
	switch actor.Kind {
	case db_models.ActorUser:
		return p.policy.UserContextTurns, nil
	case db_models.ActorGuest:
		return p.policy.GuestContextTurns, nil
	default:
		return 0, invalid("actor", fmt.Sprintf("Unknown actor kind %q", actor.Kind))
	}
}

// buildMessages orders the window oldest to newest between the system prompt and the new message.
func (p *TurnProcessor) buildMessages(newestFirst []db_models.ConversationTurn, message string) []llm.Message {
	messages := make([]llm.Message, 0, len(newestFirst)+2)
	messages = append(messages, llm.Message{Role: db_models.RoleSystem, Content: p.systemPrompt})
	for i := len(newestFirst) - 1; i >= 0; i-- {
		t := newestFirst[i]
		if t.Role != db_models.RoleUser && t.Role != db_models.RoleAssistant {
			continue
		}
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	return append(messages, llm.Message{Role: db_models.RoleUser, Content: message})
}

func (p *TurnProcessor) dispatch(ctx context.Context, backend llm.Backend, messages []llm.Message) (string, error) {
	callCtx := ctx
	if p.policy.BackendTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.policy.BackendTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := backend.Complete(callCtx, messages)
	p.observer.ObserveBackendLatency(backend.Name(), time.Since(start))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", llm.ErrEmptyReply
	}
	return reply, nil
}
