// Package engine walks users through staged fairytale generation: it builds
// a story outline with one completion, then produces the story one stage at a
// time while keeping each user's profile consistent.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/fairytale-engine/internal/resources"
	"github.com/jwebster45206/fairytale-engine/internal/services"
	"github.com/jwebster45206/fairytale-engine/internal/storage"
	"github.com/jwebster45206/fairytale-engine/internal/token"
	"github.com/jwebster45206/fairytale-engine/pkg/profile"
	"github.com/jwebster45206/fairytale-engine/pkg/story"
)

const (
	DefaultStructureMaxTokens = 1000
	DefaultCompletionTimeout  = 90 * time.Second
	DefaultContextWindow      = 16385
)

const (
	GuidanceMessage = "The topic, moral or author are not set. " +
		"Use /randomize to generate them. " +
		"Or set them manually using /set_topic, /set_moral, /set_author"
	CompleteMessage = "The story is already complete. Use /begin or /randomize to start over."
)

// Config is fixed at construction.
type Config struct {
	StructureMaxTokens int
	CompletionTimeout  time.Duration
	// ContextWindow bounds prompt plus reply tokens. Zero disables the check.
	ContextWindow int
	Tiers         profile.TierTable
}

// DefaultConfig returns the built-in tiers and limits.
func DefaultConfig() Config {
	return Config{
		StructureMaxTokens: DefaultStructureMaxTokens,
		CompletionTimeout:  DefaultCompletionTimeout,
		ContextWindow:      DefaultContextWindow,
		Tiers:              profile.DefaultTiers(),
	}
}

// TokenCounter measures prompt size.
type TokenCounter interface {
	Count(text string) int
}

// TextFilter rewrites generated text before it is stored or shown.
type TextFilter interface {
	Clean(text string) string
}

type Engine struct {
	cfg      Config
	defaults profile.TierSettings
	store    storage.ProfileStore
	locker   storage.Locker
	llm      services.CompletionService
	res      *resources.Resources
	counter  TokenCounter
	filter   TextFilter
	logger   *slog.Logger
}

// New validates cfg and builds an engine.
func New(cfg Config, store storage.ProfileStore, locker storage.Locker, llm services.CompletionService, res *resources.Resources, logger *slog.Logger) (*Engine, error) {
	if store == nil || locker == nil || llm == nil || res == nil {
		return nil, errors.New("engine requires a store, locker, completion service and resources")
	}
	if cfg.StructureMaxTokens <= 0 {
		return nil, fmt.Errorf("structure max tokens must be positive, got %d", cfg.StructureMaxTokens)
	}
	if cfg.CompletionTimeout <= 0 {
		return nil, fmt.Errorf("completion timeout must be positive, got %s", cfg.CompletionTimeout)
	}
	defaults, ok := cfg.Tiers.Settings(profile.TierDefault)
	if !ok {
		return nil, fmt.Errorf("tier table has no %s tier", profile.TierDefault)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cfg:      cfg,
		defaults: defaults,
		store:    store,
		locker:   locker,
		llm:      llm,
		res:      res,
		logger:   logger,
	}, nil
}

// WithTokenCounter enables prompt size logging and context window warnings.
func (e *Engine) WithTokenCounter(c TokenCounter) *Engine {
	e.counter = c
	return e
}

// WithTextFilter cleans every generated stage with f.
func (e *Engine) WithTextFilter(f TextFilter) *Engine {
	e.filter = f
	return e
}

// update runs fn on a private copy of the user's profile while holding the
// user's lock. The copy is saved when fn asks for it, even if fn also
// returns an error.
func (e *Engine) update(ctx context.Context, user string, fn func(p *profile.UserProfile) (save bool, err error)) (*profile.UserProfile, error) {
	if user == "" {
		return nil, errors.New("user id is required")
	}

	unlock, err := e.locker.Lock(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to lock profile: %w", err)
	}
	defer unlock()

	p, err := e.store.GetOrCreate(ctx, user, e.defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	p = p.Clone()

	save, fnErr := fn(p)
	if save {
		if err := e.store.Save(ctx, p); err != nil {
			return nil, errors.Join(fnErr, fmt.Errorf("failed to save profile: %w", err))
		}
	}
	return p, fnErr
}

// complete calls the provider under the configured timeout.
func (e *Engine) complete(ctx context.Context, op, user, prompt, model string, maxTokens int) (string, error) {
	if e.counter != nil {
		n := e.counter.Count(prompt)
		e.logger.Debug("prompt size", "user_id", user, "op", op, "prompt_tokens", n, "max_tokens", maxTokens)
		if token.Exceeds(n, maxTokens, e.cfg.ContextWindow) {
			e.logger.Warn("prompt and reply budget exceed the context window",
				"user_id", user,
				"op", op,
				"prompt_tokens", n,
				"max_tokens", maxTokens,
				"context_window", e.cfg.ContextWindow)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.CompletionTimeout)
	defer cancel()

	start := time.Now()
	text, err := e.llm.Complete(ctx, services.CompletionRequest{
		Prompt:    prompt,
		Model:     model,
		MaxTokens: maxTokens,
	})
	if err != nil {
		e.logger.Error("completion failed",
			"user_id", user,
			"op", op,
			"model", model,
			"provider", e.llm.Provider(),
			"duration", time.Since(start),
			"error", err)
		return "", &CompletionError{Op: op, Model: model, Err: err}
	}

	e.logger.Debug("completion finished", "user_id", user, "op", op, "model", model, "duration", time.Since(start))
	return text, nil
}

// buildStructure generates and parses an outline for p's parameters.
func (e *Engine) buildStructure(ctx context.Context, p *profile.UserProfile) (*story.Structure, []string, error) {
	if !p.Params.Complete() {
		return nil, nil, ErrMissingParameters
	}

	prompt := story.StructurePrompt(p.Params.Topic, p.Params.Moral, p.Params.Author)
	raw, err := e.complete(ctx, "structure", p.ID, prompt, p.Settings.ModelName, e.cfg.StructureMaxTokens)
	if err != nil {
		return nil, nil, err
	}

	s, warnings, err := story.ParseStructure(raw)
	if err != nil {
		e.logger.Error("failed to parse story structure", "user_id", p.ID, "error", err)
		return nil, nil, fmt.Errorf("failed to parse story structure: %w", err)
	}
	for _, w := range warnings {
		e.logger.Warn(w, "user_id", p.ID)
	}
	return s, warnings, nil
}

// StructureResult describes a freshly generated outline.
type StructureResult struct {
	Structure *story.Structure
	Warnings  []string
	// Archived is set when a story in progress was archived to make room.
	Archived bool
}

// GenerateStructure asks the model for an outline and stores it with the
// cursor rewound to the first stage. Stages already generated for the old
// outline are archived.
func (e *Engine) GenerateStructure(ctx context.Context, user string) (StructureResult, error) {
	var res StructureResult
	_, err := e.update(ctx, user, func(p *profile.UserProfile) (bool, error) {
		s, warnings, err := e.buildStructure(ctx, p)
		if err != nil {
			return false, err
		}
		archived := p.ArchiveCurrentStory()
		p.SetStructure(s)
		res = StructureResult{Structure: s.Clone(), Warnings: warnings, Archived: archived}
		return true, nil
	})
	if err != nil {
		return StructureResult{}, err
	}

	e.logger.Info("story structure generated", "user_id", user, "stages", res.Structure.Len())
	return res, nil
}

// AdvanceResult is the outcome of one Advance call. Exactly one of Guidance,
// Complete or a generated Stage applies.
type AdvanceResult struct {
	Text string
	// Stage is the 1-based number of the generated stage.
	Stage int
	Total int
	// Guidance is set when parameters are missing and nothing was generated.
	Guidance bool
	// Complete is set when every stage was already generated.
	Complete bool
	// Structured is set when the outline was generated as part of this call.
	Structured bool
	Warnings   []string
}

// Advance generates the next stage of the user's story. The stage outline and
// running summary are read before the completion call and the new stage is
// appended afterwards; nothing is saved when the call fails.
func (e *Engine) Advance(ctx context.Context, user string) (AdvanceResult, error) {
	var res AdvanceResult
	_, err := e.update(ctx, user, func(p *profile.UserProfile) (bool, error) {
		cursor := p.StageCursor
		if cursor == 0 {
			if !p.Params.Complete() {
				res = AdvanceResult{Text: GuidanceMessage, Guidance: true}
				return false, nil
			}
			if p.Structure == nil {
				s, warnings, err := e.buildStructure(ctx, p)
				if err != nil {
					return false, err
				}
				p.SetStructure(s)
				res.Structured = true
				res.Warnings = warnings
			}
		} else if p.Structure == nil {
			e.logger.Error("stage cursor set without a structure", "user_id", user, "stage_cursor", cursor)
			return false, fmt.Errorf("%w: stage cursor %d", ErrCorruptProfile, cursor)
		} else if cursor >= p.TotalStages() {
			res = AdvanceResult{Text: CompleteMessage, Complete: true, Stage: cursor, Total: p.TotalStages()}
			return false, nil
		}

		summary, err := story.Summarize(p.CurrentStory, p.Settings.CompressionMode)
		if err != nil {
			return false, err
		}
		prompt := story.StagePrompt(p.Structure.Raw, summary, p.Structure.AllParts[cursor])

		text, err := e.complete(ctx, "stage", user, prompt, p.Settings.ModelName, p.Settings.MaxTokens)
		if err != nil {
			return false, err
		}

		if e.filter != nil {
			text = e.filter.Clean(text)
		}
		p.AppendStage(text)
		p.RecordUsage()

		res.Text = text
		if cursor == 0 {
			res.Text = story.Banner + text
		}
		res.Stage = p.StageCursor
		res.Total = p.TotalStages()
		return true, nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}

	if !res.Guidance && !res.Complete {
		e.logger.Info("story stage generated", "user_id", user, "stage", res.Stage, "total", res.Total)
	}
	return res, nil
}

// Reset archives the current story when it has any stages and clears the
// story parameters and progress.
func (e *Engine) Reset(ctx context.Context, user string) (bool, error) {
	var archived bool
	_, err := e.update(ctx, user, func(p *profile.UserProfile) (bool, error) {
		archived = p.Reset()
		return true, nil
	})
	if err != nil {
		return false, err
	}
	e.logger.Info("story reset", "user_id", user, "archived", archived)
	return archived, nil
}

// RandomizeResult reports the parameters chosen by Randomize.
type RandomizeResult struct {
	Params   profile.StoryParams
	Archived bool
	Warnings []string
}

// Randomize picks a random moral, topic and author, then generates a new
// outline for them. Any story in progress is reset first. The chosen
// parameters are kept even when outline generation fails.
func (e *Engine) Randomize(ctx context.Context, user string) (RandomizeResult, error) {
	var res RandomizeResult
	_, err := e.update(ctx, user, func(p *profile.UserProfile) (bool, error) {
		if p.Structure != nil || len(p.CurrentStory) > 0 {
			res.Archived = p.Reset()
		}
		p.Params = profile.StoryParams{
			Moral:  e.res.RandomMoral(),
			Topic:  e.res.RandomTopic(),
			Author: e.res.RandomAuthor(false),
		}
		res.Params = p.Params

		s, warnings, err := e.buildStructure(ctx, p)
		if err != nil {
			return true, err
		}
		p.SetStructure(s)
		res.Warnings = warnings
		return true, nil
	})
	if err != nil {
		return res, err
	}

	e.logger.Info("story randomized", "user_id", user, "archived", res.Archived)
	return res, nil
}

// Lookup returns the stored profile without creating it or taking the user's
// lock, so it never waits on a generation in flight. Unknown users yield
// storage.ErrProfileNotFound.
func (e *Engine) Lookup(ctx context.Context, user string) (*profile.UserProfile, error) {
	if user == "" {
		return nil, errors.New("user id is required")
	}
	return e.store.Get(ctx, user)
}

// Profile returns a copy of the user's profile, creating it if needed.
func (e *Engine) Profile(ctx context.Context, user string) (*profile.UserProfile, error) {
	return e.update(ctx, user, func(p *profile.UserProfile) (bool, error) {
		return false, nil
	})
}
