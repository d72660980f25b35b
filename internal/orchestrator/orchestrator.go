// Package orchestrator drives one conversation: it owns the conversation
// store, the tool registry, and the backend set, and walks the degradation
// ladder when a backend fails.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brainstem-ai/brainstem/internal/backend"
	"github.com/brainstem-ai/brainstem/internal/conversation"
	"github.com/brainstem-ai/brainstem/internal/degrade"
	"github.com/brainstem-ai/brainstem/internal/logging"
	"github.com/brainstem-ai/brainstem/internal/runtime"
	"github.com/brainstem-ai/brainstem/internal/session"
	"github.com/brainstem-ai/brainstem/internal/tools"
)

const defaultMaxToolIterations = 8

// ErrRecursionLimit reports that the model kept requesting tools past the
// per-turn iteration cap.
var ErrRecursionLimit = errors.New("tool recursion limit exceeded")

// TurnResult is the terminal value of one successful orchestrator pass.
type TurnResult struct {
	Text  string
	Usage backend.Usage
	// Tier is the capability tier that produced the final text.
	Tier degrade.Tier
}

// Orchestrator serves one conversation. Turns run strictly sequentially; the
// dispatcher guarantees no concurrent calls into RunTurn.
type Orchestrator struct {
	backends      map[string]backend.Backend
	registry      *tools.Registry
	ladder        degrade.Ladder
	store         *conversation.Store
	sessions      *session.Store
	maxRecent     int
	maxIterations int

	historyLoaded bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSessionStore enables conversation persistence.
func WithSessionStore(s *session.Store) Option {
	return func(o *Orchestrator) { o.sessions = s }
}

// WithMaxToolIterations overrides the recursion bound.
func WithMaxToolIterations(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// New creates a conversation-scoped orchestrator.
func New(backends map[string]backend.Backend, registry *tools.Registry, ladder degrade.Ladder, systemPrompt string, maxRecent int, opts ...Option) (*Orchestrator, error) {
	if len(backends) == 0 {
		return nil, errors.New("at least one backend is required")
	}
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if len(ladder) == 0 {
		return nil, errors.New("degradation ladder is required")
	}
	for _, tier := range ladder {
		if _, ok := backends[tier.Backend]; !ok {
			return nil, fmt.Errorf("ladder tier %q references unknown backend %q", tier.Label, tier.Backend)
		}
	}
	if maxRecent <= 0 {
		return nil, errors.New("maxRecent must be positive")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}

	o := &Orchestrator{
		backends:      backends,
		registry:      registry,
		ladder:        ladder,
		store:         conversation.New(systemPrompt),
		maxRecent:     maxRecent,
		maxIterations: defaultMaxToolIterations,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RunTurn processes one user message to a terminal result. Messages produced
// during the turn are staged and only committed to the conversation store
// (and the session log) when the turn succeeds: a failed or cancelled turn
// leaves the visible conversation at its pre-turn state.
func (o *Orchestrator) RunTurn(ctx context.Context, text string) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("user message is empty")
	}
	if err := o.ensureHistoryLoaded(ctx); err != nil {
		return nil, err
	}

	// Degradation state is per-turn: every user message starts back at the
	// most capable tier.
	ctrl, err := degrade.NewController(o.ladder)
	if err != nil {
		return nil, err
	}

	staged := []backend.Message{{Role: backend.RoleUser, Content: text}}
	totalUsage := backend.Usage{}
	iterations := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tier := ctrl.Current()
		active := o.backends[tier.Backend]
		window := o.store.Window(o.maxRecent, staged...)
		defs := o.registry.DefinitionsFor(tier.ToolSubset())

		logging.Logger().Info(
			"backend request",
			"tier", tier.Label,
			"backend", tier.Backend,
			"iteration", iterations+1,
			"window_size", len(window),
			"tool_count", len(defs),
		)

		resp, err := active.Send(ctx, backend.Request{
			Messages: window,
			Tools:    defs,
			// Resends after tool execution carry accumulated reasoning.
			Complex: iterations > 0,
		})
		if err != nil {
			if ctx.Err() != nil {
				// A cancelled turn is discarded atomically.
				return nil, ctx.Err()
			}
			kind := backend.KindOf(err)
			logging.Logger().Warn(
				"backend failed; walking degradation ladder",
				"tier", tier.Label,
				"backend", tier.Backend,
				"kind", kind,
				"err", err,
			)
			if _, nextErr := ctrl.Next(); nextErr != nil {
				return nil, fmt.Errorf("turn failed after %d tiers (last failure %s): %w", ctrl.Attempted(), kind, nextErr)
			}
			continue
		}

		totalUsage.InputTokens += resp.Usage.InputTokens
		totalUsage.OutputTokens += resp.Usage.OutputTokens
		totalUsage.TotalTokens += resp.Usage.TotalTokens

		if len(resp.ToolCalls) == 0 {
			staged = append(staged, backend.Message{
				Role:    backend.RoleAssistant,
				Content: resp.Content,
			})
			o.commit(ctx, staged)
			return &TurnResult{Text: resp.Content, Usage: totalUsage, Tier: tier}, nil
		}

		iterations++
		if iterations > o.maxIterations {
			return nil, fmt.Errorf("%w (%d iterations)", ErrRecursionLimit, o.maxIterations)
		}

		staged = append(staged, backend.Message{
			Role:      backend.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		results := o.executeToolCalls(ctx, resp.ToolCalls)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		staged = append(staged, results...)
	}
}

// commit appends the turn's staged messages to the store and persists them.
// A persistence failure is logged but does not fail the completed turn; the
// in-memory conversation stays authoritative.
func (o *Orchestrator) commit(ctx context.Context, staged []backend.Message) {
	o.store.Append(staged...)
	if o.sessions == nil {
		return
	}
	if err := o.sessions.Append(ctx, staged); err != nil {
		logging.Logger().Warn("failed to persist turn", "err", err)
	}
}

// Reset clears the conversation and its persisted log.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.store.Reset()
	o.historyLoaded = true
	if o.sessions == nil {
		return nil
	}
	return o.sessions.Reset(ctx)
}

// History exposes the committed conversation, excluding the system message.
func (o *Orchestrator) History() []backend.Message {
	return o.store.Messages()
}

func (o *Orchestrator) ensureHistoryLoaded(ctx context.Context) error {
	if o.historyLoaded || o.sessions == nil {
		o.historyLoaded = true
		return nil
	}
	history, err := o.sessions.Load(ctx)
	if err != nil {
		return err
	}
	o.store.Replace(history)
	o.historyLoaded = true
	return nil
}

// HandleMessage implements runtime.Handler so channel transports drive turns
// through the dispatcher.
func (o *Orchestrator) HandleMessage(ctx context.Context, w runtime.ResponseWriter, msg *runtime.Message) error {
	if w == nil {
		return errors.New("response writer is required")
	}
	if msg == nil {
		return errors.New("message is required")
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	if isResetCommand(text) {
		if err := o.Reset(ctx); err != nil {
			return err
		}
		return w.WriteMessage(ctx, "Started a fresh conversation.")
	}

	started := time.Now()
	result, err := o.RunTurn(ctx, text)
	if err != nil {
		return err
	}

	logging.Logger().Info(
		"turn complete",
		"tier", result.Tier.Label,
		"duration_ms", time.Since(started).Milliseconds(),
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
	)
	return w.WriteMessage(ctx, result.Text)
}

func isResetCommand(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	return normalized == "/new" || normalized == "/reset"
}
