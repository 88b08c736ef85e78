package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

func TestSetParams(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()

	topic, err := f.engine.SetTopic(ctx, "alice", "  a dragon who hoards books  ")
	require.NoError(t, err)
	assert.Equal(t, "a dragon who hoards books", topic)

	_, err = f.engine.SetMoral(ctx, "alice", "read widely")
	require.NoError(t, err)

	got, err := f.engine.Topic(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a dragon who hoards books", got)

	moral, err := f.engine.Moral(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "read widely", moral, "topic and moral are stored separately")

	author, err := f.engine.Author(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, author)
}

func TestSetParams_Validation(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		field Field
		text  string
	}{
		{FieldTopic, strings.Repeat("t", profile.TopicMaxLength+1)},
		{FieldMoral, strings.Repeat("m", profile.MoralMaxLength+1)},
		{FieldAuthor, strings.Repeat("a", profile.AuthorMaxLength+1)},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			_, err := f.engine.SetParam(ctx, "alice", tt.field, tt.text)
			var verr *profile.ValidationError
			require.ErrorAs(t, err, &verr)

			value, err := f.engine.Param(ctx, "alice", tt.field)
			require.NoError(t, err)
			assert.Empty(t, value)
		})
	}
}

func TestSetRandomParam(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()

	for _, field := range []Field{FieldTopic, FieldMoral, FieldAuthor} {
		value, err := f.engine.SetRandomParam(ctx, "alice", field)
		require.NoError(t, err)
		assert.NotEmpty(t, value)

		stored, err := f.engine.Param(ctx, "alice", field)
		require.NoError(t, err)
		assert.Equal(t, value, stored)
	}

	_, err := f.engine.SetRandomParam(ctx, "alice", Field("plot"))
	assert.Error(t, err)
}

func TestUsageSettings(t *testing.T) {
	f := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, f.engine.SetUsageLimit(ctx, "alice", 3))
	require.NoError(t, f.engine.SetUsageCount(ctx, "alice", 2))

	limit, err := f.engine.UsageLimit(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, limit)

	count, err := f.engine.UsageCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.ErrorIs(t, f.engine.SetUsageLimit(ctx, "alice", -1), ErrInvalidUsageValue)
	assert.ErrorIs(t, f.engine.SetUsageCount(ctx, "alice", -1), ErrInvalidUsageValue)
}

func TestApplyTier_Unknown(t *testing.T) {
	f := newTestEngine(t)
	_, err := f.engine.ApplyTier(context.Background(), "alice", profile.Tier{Value: "gold"})
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestArchivedStory(t *testing.T) {
	f := newTestEngine(t, testStructure, "One.", "Two.")
	ctx := context.Background()
	setParams(t, f.engine, "alice")
	_, err := f.engine.Advance(ctx, "alice")
	require.NoError(t, err)
	_, err = f.engine.Advance(ctx, "alice")
	require.NoError(t, err)
	_, err = f.engine.Reset(ctx, "alice")
	require.NoError(t, err)

	archived, err := f.engine.ArchivedStory(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, "One.\n\nTwo.", archived.Text())

	for _, n := range []int{0, 2, -1} {
		_, err := f.engine.ArchivedStory(ctx, "alice", n)
		assert.ErrorIs(t, err, ErrArchiveIndex)
	}
}

func TestEmptyUserRejected(t *testing.T) {
	f := newTestEngine(t)
	_, err := f.engine.Advance(context.Background(), "")
	assert.Error(t, err)
}
