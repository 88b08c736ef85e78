package profile

import (
	"strings"
	"time"

	"github.com/jwebster45206/fairytale-engine/pkg/story"
)

// State is the position of a profile in the staged generation lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateStructured    State = "structured"
	StateInProgress    State = "in_progress"
	StateComplete      State = "complete"
)

// StoryParams are the user-chosen inputs of a story. Empty means unset.
type StoryParams struct {
	Topic  string `json:"topic,omitempty"`
	Moral  string `json:"moral,omitempty"`
	Author string `json:"author,omitempty"`
}

// Complete reports whether topic, moral and author are all set.
func (p StoryParams) Complete() bool {
	return p.Topic != "" && p.Moral != "" && p.Author != ""
}

// ArchivedStory is a snapshot of a story taken when the user resets.
type ArchivedStory struct {
	StoryParams
	Structure   *story.Structure `json:"structure,omitempty"`
	StageCursor int              `json:"stage_cursor"`
	Story       []string         `json:"story"`
	ArchivedAt  time.Time        `json:"archived_at"`
}

// Text joins the archived stages into one document.
func (a ArchivedStory) Text() string {
	return strings.Join(a.Story, "\n\n")
}

// UserProfile is everything the engine tracks for one chat participant.
type UserProfile struct {
	ID           string           `json:"id"`
	Params       StoryParams      `json:"params"`
	Settings     TierSettings     `json:"settings"`
	UsageCount   int              `json:"usage_count"`
	Structure    *story.Structure `json:"structure,omitempty"`
	StageCursor  int              `json:"stage_cursor"`
	CurrentStory []string         `json:"current_story"`
	Archive      []ArchivedStory  `json:"archive"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// New creates a profile with the given tier defaults.
func New(id string, settings TierSettings) *UserProfile {
	now := time.Now()
	return &UserProfile{
		ID:           id,
		Settings:     settings,
		CurrentStory: make([]string, 0),
		Archive:      make([]ArchivedStory, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// State derives the lifecycle state from the cursor and structure.
func (p *UserProfile) State() State {
	switch {
	case p.Structure == nil:
		return StateUninitialized
	case p.StageCursor >= p.Structure.Len():
		return StateComplete
	case p.StageCursor > 0:
		return StateInProgress
	default:
		return StateStructured
	}
}

// TotalStages returns the number of stages in the current structure.
func (p *UserProfile) TotalStages() int {
	return p.Structure.Len()
}

// SetStructure installs a fresh outline and rewinds the story.
func (p *UserProfile) SetStructure(s *story.Structure) {
	p.Structure = s
	p.StageCursor = 0
	p.CurrentStory = make([]string, 0)
}

// AppendStage records a generated stage and moves the cursor forward by one.
func (p *UserProfile) AppendStage(text string) {
	p.CurrentStory = append(p.CurrentStory, text)
	p.StageCursor++
}

// ApplyTier replaces all tier-derived settings at once.
func (p *UserProfile) ApplyTier(settings TierSettings) {
	p.Settings = settings
}

// RecordUsage counts one generation against the usage limit.
func (p *UserProfile) RecordUsage() {
	p.UsageCount++
}

// LimitReached reports whether the usage counter hit the tier limit.
func (p *UserProfile) LimitReached() bool {
	return p.UsageCount >= p.Settings.UsageLimit
}

// ArchiveCurrentStory snapshots the current story when it has any stages.
// Progress is left in place.
func (p *UserProfile) ArchiveCurrentStory() bool {
	if len(p.CurrentStory) == 0 {
		return false
	}
	p.Archive = append(p.Archive, ArchivedStory{
		StoryParams: p.Params,
		Structure:   p.Structure.Clone(),
		StageCursor: p.StageCursor,
		Story:       append([]string(nil), p.CurrentStory...),
		ArchivedAt:  time.Now(),
	})
	return true
}

// Reset clears the story parameters and progress. The story is archived when
// at least one stage was generated. Usage and tier settings are kept.
func (p *UserProfile) Reset() bool {
	archived := p.ArchiveCurrentStory()
	p.Params = StoryParams{}
	p.Structure = nil
	p.StageCursor = 0
	p.CurrentStory = make([]string, 0)
	return archived
}

// Clone returns a deep copy of the profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Structure = p.Structure.Clone()
	c.CurrentStory = append(make([]string, 0, len(p.CurrentStory)), p.CurrentStory...)
	c.Archive = make([]ArchivedStory, len(p.Archive))
	for i, a := range p.Archive {
		a.Structure = a.Structure.Clone()
		a.Story = append([]string(nil), a.Story...)
		c.Archive[i] = a
	}
	return &c
}
