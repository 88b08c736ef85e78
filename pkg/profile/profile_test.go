package profile

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/fairytale-engine/pkg/story"
)

func newStructure(t *testing.T, parts int) *story.Structure {
	t.Helper()
	var b strings.Builder
	for i := 0; i < parts; i++ {
		b.WriteString("- stage\n")
	}
	s, _, err := story.ParseStructure(b.String())
	require.NoError(t, err)
	return s
}

func TestUserProfile_State(t *testing.T) {
	p := New("alice", DefaultTiers()[TierDefault])
	assert.Equal(t, StateUninitialized, p.State())

	p.SetStructure(newStructure(t, 2))
	assert.Equal(t, StateStructured, p.State())

	p.AppendStage("one")
	assert.Equal(t, StateInProgress, p.State())
	assert.Equal(t, 1, p.StageCursor)
	assert.Len(t, p.CurrentStory, 1)

	p.AppendStage("two")
	assert.Equal(t, StateComplete, p.State())
}

func TestUserProfile_Reset(t *testing.T) {
	t.Run("archives a started story", func(t *testing.T) {
		p := New("alice", DefaultTiers()[TierPremium])
		p.Params = StoryParams{Topic: "a fox", Moral: "be honest", Author: "Aesop"}
		p.UsageCount = 4
		p.SetStructure(newStructure(t, 3))
		p.AppendStage("Once upon a time.")

		archived := p.Reset()

		assert.True(t, archived)
		require.Len(t, p.Archive, 1)
		entry := p.Archive[0]
		assert.Equal(t, "a fox", entry.Topic)
		assert.Equal(t, 1, entry.StageCursor)
		assert.Equal(t, []string{"Once upon a time."}, entry.Story)
		assert.Equal(t, 3, entry.Structure.Len())

		assert.Equal(t, StoryParams{}, p.Params)
		assert.Nil(t, p.Structure)
		assert.Equal(t, 0, p.StageCursor)
		assert.Empty(t, p.CurrentStory)
		assert.Equal(t, 4, p.UsageCount)
		assert.Equal(t, TierPremium, p.Settings.Tier)
	})

	t.Run("skips archive when nothing was generated", func(t *testing.T) {
		p := New("bob", DefaultTiers()[TierDefault])
		p.Params = StoryParams{Topic: "a fox"}
		p.SetStructure(newStructure(t, 3))

		assert.False(t, p.Reset())
		assert.Empty(t, p.Archive)
		assert.Nil(t, p.Structure)
	})
}

func TestUserProfile_Clone(t *testing.T) {
	p := New("alice", DefaultTiers()[TierDefault])
	p.SetStructure(newStructure(t, 3))
	p.AppendStage("one")
	p.Reset()
	p.SetStructure(newStructure(t, 3))
	p.AppendStage("two")

	c := p.Clone()
	c.CurrentStory[0] = "changed"
	c.Archive[0].Story[0] = "changed"
	c.Structure.AllParts[0] = "changed"

	assert.Equal(t, "two", p.CurrentStory[0])
	assert.Equal(t, "one", p.Archive[0].Story[0])
	assert.Equal(t, "- stage", p.Structure.AllParts[0])
}

func TestUserProfile_Usage(t *testing.T) {
	settings := DefaultTiers()[TierDefault]
	p := New("alice", settings)
	for i := 0; i < settings.UsageLimit-1; i++ {
		p.RecordUsage()
	}
	assert.False(t, p.LimitReached())
	p.RecordUsage()
	assert.True(t, p.LimitReached())
}

func TestArchivedStory_Text(t *testing.T) {
	a := ArchivedStory{Story: []string{"one", "two"}}
	assert.Equal(t, "one\n\ntwo", a.Text())
}

func TestDefaultTiers(t *testing.T) {
	tiers := DefaultTiers()

	def := tiers[TierDefault]
	assert.Equal(t, TierDefault, def.Tier)
	assert.Equal(t, 200, def.MaxTokens)
	assert.Equal(t, story.CompressionFewLines, def.CompressionMode)
	assert.Equal(t, "gpt-3.5-turbo", def.ModelName)
	assert.Equal(t, 10, def.UsageLimit)

	prem := tiers[TierPremium]
	assert.Equal(t, 1000, prem.MaxTokens)
	assert.Equal(t, story.CompressionComplete, prem.CompressionMode)
	assert.Equal(t, "gpt-4", prem.ModelName)
	assert.Equal(t, 100, prem.UsageLimit)
}

func TestParseTiers(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid with default compression",
			yaml: "default: {max_tokens: 10, model_name: m}\npremium: {max_tokens: 20, model_name: n, compression_mode: last_only}",
		},
		{
			name:    "unknown tier",
			yaml:    "gold: {max_tokens: 10, model_name: m}",
			wantErr: "unknown tier",
		},
		{
			name:    "missing tier",
			yaml:    "default: {max_tokens: 10, model_name: m}",
			wantErr: "tier premium is missing",
		},
		{
			name:    "bad compression mode",
			yaml:    "default: {max_tokens: 10, model_name: m, compression_mode: zip}\npremium: {max_tokens: 20, model_name: n}",
			wantErr: "invalid compression mode",
		},
		{
			name:    "missing model",
			yaml:    "default: {max_tokens: 10}\npremium: {max_tokens: 20, model_name: n}",
			wantErr: "model_name is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseTiers([]byte(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, story.CompressionFewLines, table[TierDefault].CompressionMode)
			assert.Equal(t, story.CompressionLastOnly, table[TierPremium].CompressionMode)
		})
	}
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("Premium")
	require.NoError(t, err)
	assert.Equal(t, TierPremium, tier)

	_, err = ParseTier("gold")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	topic, err := NormalizeTopic("  a dragon  ")
	require.NoError(t, err)
	assert.Equal(t, "a dragon", topic)

	// decomposed e + combining acute composes to a single rune
	author, err := NormalizeAuthor(strings.Repeat("e\u0301", AuthorMaxLength))
	require.NoError(t, err)
	assert.Equal(t, AuthorMaxLength, len([]rune(author)))

	_, err = NormalizeMoral(strings.Repeat("x", MoralMaxLength+1))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "moral", verr.Field)
	assert.Equal(t, MoralMaxLength, verr.Max)
	assert.Equal(t, "Text is too long. Are you sure it's a moral for a fairytale?", verr.UserMessage())

	_, err = NormalizeAuthor(strings.Repeat("x", AuthorMaxLength+1))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Text is too long. Are you sure it's an author for a fairytale?", verr.UserMessage())
}
