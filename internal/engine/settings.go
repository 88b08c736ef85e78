package engine

import (
	"context"
	"fmt"

	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

// Field identifies one of the user-editable story parameters.
type Field string

const (
	FieldTopic  Field = "topic"
	FieldMoral  Field = "moral"
	FieldAuthor Field = "author"
)

func (f Field) normalize(text string) (string, error) {
	switch f {
	case FieldTopic:
		return profile.NormalizeTopic(text)
	case FieldMoral:
		return profile.NormalizeMoral(text)
	case FieldAuthor:
		return profile.NormalizeAuthor(text)
	}
	return "", fmt.Errorf("unknown field %q", string(f))
}

func (f Field) target(p *profile.StoryParams) *string {
	switch f {
	case FieldTopic:
		return &p.Topic
	case FieldMoral:
		return &p.Moral
	case FieldAuthor:
		return &p.Author
	}
	return nil
}

// SetParam validates and stores one story parameter. It returns the
// normalized value. Validation failures are *profile.ValidationError.
func (e *Engine) SetParam(ctx context.Context, user string, field Field, text string) (string, error) {
	value, err := field.normalize(text)
	if err != nil {
		return "", err
	}
	if err := e.setParam(ctx, user, field, value); err != nil {
		return "", err
	}
	return value, nil
}

// SetRandomParam stores a random value for field. Random values come from
// the resource lists and skip length validation.
func (e *Engine) SetRandomParam(ctx context.Context, user string, field Field) (string, error) {
	var value string
	switch field {
	case FieldTopic:
		value = e.res.RandomTopic()
	case FieldMoral:
		value = e.res.RandomMoral()
	case FieldAuthor:
		value = e.res.RandomAuthor(false)
	default:
		return "", fmt.Errorf("unknown field %q", string(field))
	}
	if err := e.setParam(ctx, user, field, value); err != nil {
		return "", err
	}
	return value, nil
}

func (e *Engine) setParam(ctx context.Context, user string, field Field, value string) error {
	_, err := e.update(ctx, user, func(p *profile.UserProfile) (bool, error) {
		*field.target(&p.Params) = value
		return true, nil
	})
	if err == nil {
		e.logger.Debug("story parameter set", "user_id", user, "field", string(field))
	}
	return err
}

// Param returns the current value of field, empty when unset.
func (e *Engine) Param(ctx context.Context, user string, field Field) (string, error) {
	p, err := e.Profile(ctx, user)
	if err != nil {
		return "", err
	}
	target := field.target(&p.Params)
	if target == nil {
		return "", fmt.Errorf("unknown field %q", string(field))
	}
	return *target, nil
}

func (e *Engine) SetTopic(ctx context.Context, user, text string) (string, error) {
	return e.SetParam(ctx, user, FieldTopic, text)
}

func (e *Engine) SetMoral(ctx context.Context, user, text string) (string, error) {
	return e.SetParam(ctx, user, FieldMoral, text)
}

func (e *Engine) SetAuthor(ctx context.Context, user, text string) (string, error) {
	return e.SetParam(ctx, user, FieldAuthor, text)
}

func (e *Engine) Topic(ctx context.Context, user string) (string, error) {
	return e.Param(ctx, user, FieldTopic)
}

func (e *Engine) Moral(ctx context.Context, user string) (string, error) {
	return e.Param(ctx, user, FieldMoral)
}

func (e *Engine) Author(ctx context.Context, user string) (string, error) {
	return e.Param(ctx, user, FieldAuthor)
}

// ApplyTier replaces the user's token budget, compression mode, model and
// usage limit with the tier's settings in one save.
func (e *Engine) ApplyTier(ctx context.Context, user string, tier profile.Tier) (profile.TierSettings, error) {
	settings, ok := e.cfg.Tiers.Settings(tier)
	if !ok {
		return profile.TierSettings{}, fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}
	_, err := e.update(ctx, user, func(p *profile.UserProfile) (bool, error) {
		p.ApplyTier(settings)
		return true, nil
	})
	if err != nil {
		return profile.TierSettings{}, err
	}
	e.logger.Info("tier applied", "user_id", user, "tier", tier.String(), "model", settings.ModelName)
	return settings, nil
}

func (e *Engine) SetUsageLimit(ctx context.Context, user string, limit int) error {
	if limit < 0 {
		return ErrInvalidUsageValue
	}
	_, err := e.update(ctx, user, func(p *profile.UserProfile) (bool, error) {
		p.Settings.UsageLimit = limit
		return true, nil
	})
	return err
}

func (e *Engine) SetUsageCount(ctx context.Context, user string, count int) error {
	if count < 0 {
		return ErrInvalidUsageValue
	}
	_, err := e.update(ctx, user, func(p *profile.UserProfile) (bool, error) {
		p.UsageCount = count
		return true, nil
	})
	return err
}

func (e *Engine) UsageLimit(ctx context.Context, user string) (int, error) {
	p, err := e.Profile(ctx, user)
	if err != nil {
		return 0, err
	}
	return p.Settings.UsageLimit, nil
}

func (e *Engine) UsageCount(ctx context.Context, user string) (int, error) {
	p, err := e.Profile(ctx, user)
	if err != nil {
		return 0, err
	}
	return p.UsageCount, nil
}

// Archive lists the user's archived stories, oldest first.
func (e *Engine) Archive(ctx context.Context, user string) ([]profile.ArchivedStory, error) {
	p, err := e.Profile(ctx, user)
	if err != nil {
		return nil, err
	}
	return p.Archive, nil
}

// ArchivedStory returns the n-th archived story, counting from 1.
func (e *Engine) ArchivedStory(ctx context.Context, user string, n int) (profile.ArchivedStory, error) {
	archive, err := e.Archive(ctx, user)
	if err != nil {
		return profile.ArchivedStory{}, err
	}
	if n < 1 || n > len(archive) {
		return profile.ArchivedStory{}, fmt.Errorf("%w: %d of %d", ErrArchiveIndex, n, len(archive))
	}
	return archive[n-1], nil
}
