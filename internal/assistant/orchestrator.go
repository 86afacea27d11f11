// Package assistant sequences the suggestion pipeline: validate, build
// the prompt, call the model, parse the response, record usage. The
// orchestrator owns no persistent state; every entity lives in the
// storage collaborator and is passed by value through each invocation.
package assistant

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"replyassist/internal/gemini"
	"replyassist/internal/parser"
	"replyassist/internal/persona"
	"replyassist/internal/prompt"
	"replyassist/internal/storage"
	"replyassist/internal/types"
	"replyassist/internal/usage"
)

// ModelClient is the outbound call the pipeline depends on.
type ModelClient interface {
	Generate(ctx context.Context, apiKey, prompt string) (*gemini.Response, error)
}

// Options tune orchestrator behaviour.
type Options struct {
	// PadSuggestions enables best-effort cosmetic padding of a partial
	// parse result up to four entries.
	PadSuggestions bool
	// PadSeed supplies the seed for the padding rand source. Defaults
	// to the wall clock; tests inject a fixed value.
	PadSeed func() int64
}

// Orchestrator runs the generation pipeline and the persona/settings
// operations the extension UI calls.
type Orchestrator struct {
	store    storage.Store
	client   ModelClient
	personas *persona.Manager
	tracker  *usage.Tracker
	logger   *zap.Logger
	opts     Options
}

// New wires an Orchestrator. A nil logger disables logging.
func New(store storage.Store, client ModelClient, logger *zap.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PadSeed == nil {
		opts.PadSeed = func() int64 { return time.Now().UnixNano() }
	}
	return &Orchestrator{
		store:    store,
		client:   client,
		personas: persona.NewManager(store),
		tracker:  usage.NewTracker(store),
		logger:   logger,
		opts:     opts,
	}
}

// Generate runs the linear pipeline
// Validating → Prompting → Calling → Parsing → Recording → Done.
// All preconditions are checked before any network cost is incurred, and
// a usage-tracking failure never masks a successful generation.
func (o *Orchestrator) Generate(ctx context.Context, messages []types.Message) ([]string, error) {
	// Validating.
	if len(messages) == 0 {
		return nil, types.Validationf("no conversation to analyze")
	}

	var apiKey string
	if _, err := storage.GetInto(ctx, o.store, types.KeyAPIKey, &apiKey); err != nil {
		return nil, err
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, types.Validationf("API key not configured; add it in the extension options")
	}

	active, err := o.personas.Active(ctx)
	if err != nil {
		return nil, err
	}

	settings := types.DefaultSettings()
	if _, err := storage.GetInto(ctx, o.store, types.KeySettings, &settings); err != nil {
		return nil, err
	}
	if settings.MaxMessages <= 0 {
		settings.MaxMessages = types.DefaultSettings().MaxMessages
	}

	// Prompting.
	text, err := prompt.Build(messages, active, settings)
	if err != nil {
		return nil, err
	}

	// Calling.
	started := time.Now()
	payload, err := o.client.Generate(ctx, apiKey, text)
	if err != nil {
		o.logger.Warn("model call failed",
			zap.String("persona_id", active.ID),
			zap.String("kind", types.ErrorKind(err)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return nil, err
	}

	// Parsing.
	suggestions, err := parser.Parse(payload)
	if err != nil {
		o.logger.Warn("response unusable",
			zap.String("persona_id", active.ID),
			zap.String("kind", types.ErrorKind(err)),
			zap.Error(err))
		return nil, err
	}
	if o.opts.PadSuggestions && len(suggestions) < parser.MaxSuggestions {
		suggestions = parser.Pad(suggestions, rand.New(rand.NewSource(o.opts.PadSeed())))
	}

	// Recording. Non-fatal: log and continue.
	if err := o.tracker.Record(ctx, active.ID); err != nil {
		o.logger.Warn("usage tracking failed",
			zap.String("persona_id", active.ID),
			zap.Error(err))
	}

	o.logger.Info("generation complete",
		zap.String("persona_id", active.ID),
		zap.Int("suggestions", len(suggestions)),
		zap.Duration("elapsed", time.Since(started)))
	return suggestions, nil
}

// SavePersona creates or updates a persona.
func (o *Orchestrator) SavePersona(ctx context.Context, id, name, promptText string) (types.Persona, error) {
	return o.personas.Save(ctx, id, name, promptText)
}

// DeletePersona removes a persona, reassigning the active pointer when
// needed.
func (o *Orchestrator) DeletePersona(ctx context.Context, id string) (persona.DeleteResult, error) {
	return o.personas.Delete(ctx, id)
}

// SetActivePersona switches the active persona.
func (o *Orchestrator) SetActivePersona(ctx context.Context, id string) (types.Persona, error) {
	return o.personas.SetActive(ctx, id)
}

// GetSettings returns the stored values for the requested keys (all keys
// when none are given).
func (o *Orchestrator) GetSettings(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	return o.store.Get(ctx, keys)
}

// SaveSettings merges the given values into storage.
func (o *Orchestrator) SaveSettings(ctx context.Context, values map[string]interface{}) error {
	return o.store.Set(ctx, values)
}
