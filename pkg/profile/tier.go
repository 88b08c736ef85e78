package profile

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/orsinium-labs/enum"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/fairytale-engine/pkg/story"
)

// Tier is a named bundle of generation limits.
type Tier enum.Member[string]

var (
	TierDefault = Tier{"default"}
	TierPremium = Tier{"premium"}

	Tiers = enum.New(TierDefault, TierPremium)
)

func (t Tier) String() string {
	return t.Value
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.Value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier resolves a tier by name.
func ParseTier(s string) (Tier, error) {
	t := Tiers.Parse(strings.TrimSpace(strings.ToLower(s)))
	if t == nil {
		return Tier{}, fmt.Errorf("unknown tier %q", s)
	}
	return *t, nil
}

// TierSettings are the per-user generation limits derived from a tier.
type TierSettings struct {
	Tier            Tier                  `json:"tier" yaml:"-"`
	MaxTokens       int                   `json:"max_tokens" yaml:"max_tokens"`
	CompressionMode story.CompressionMode `json:"compression_mode" yaml:"compression_mode"`
	ModelName       string                `json:"model_name" yaml:"model_name"`
	UsageLimit      int                   `json:"usage_limit" yaml:"usage_limit"`
}

// TierTable maps every tier to its settings.
type TierTable map[Tier]TierSettings

//go:embed tiers.yaml
var defaultTiersYAML []byte

// DefaultTiers returns the built-in tier table.
func DefaultTiers() TierTable {
	table, err := ParseTiers(defaultTiersYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded tiers.yaml is invalid: %v", err))
	}
	return table
}

// LoadTiers reads a tier table from a YAML file.
func LoadTiers(path string) (TierTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tiers file: %w", err)
	}
	return ParseTiers(data)
}

// ParseTiers decodes a YAML document keyed by tier name. Every known tier
// must be present.
func ParseTiers(data []byte) (TierTable, error) {
	var raw map[string]TierSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tiers: %w", err)
	}

	table := make(TierTable, len(raw))
	for name, settings := range raw {
		tier, err := ParseTier(name)
		if err != nil {
			return nil, err
		}
		if settings.CompressionMode == (story.CompressionMode{}) {
			settings.CompressionMode = story.DefaultCompression
		}
		if settings.MaxTokens <= 0 {
			return nil, fmt.Errorf("tier %s: max_tokens must be positive", tier)
		}
		if settings.ModelName == "" {
			return nil, fmt.Errorf("tier %s: model_name is required", tier)
		}
		settings.Tier = tier
		table[tier] = settings
	}

	for _, tier := range Tiers.Members() {
		if _, ok := table[tier]; !ok {
			return nil, fmt.Errorf("tier %s is missing", tier)
		}
	}
	return table, nil
}

// Settings returns the settings for a tier.
func (t TierTable) Settings(tier Tier) (TierSettings, bool) {
	s, ok := t[tier]
	return s, ok
}
