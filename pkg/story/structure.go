package story

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Section names a part of the classic three-act fairytale outline.
type Section string

const (
	Exposition Section = "exposition"
	Climax     Section = "climax"
	Resolution Section = "resolution"
)

// Sections lists the outline sections in canonical order.
var Sections = []Section{Exposition, Climax, Resolution}

// MinRecommendedParts is the stage count below which a structure is accepted
// but reported with a warning.
const MinRecommendedParts = 3

const bulletMarker = "-"

// ErrEmptyStructure is returned when a completion contains no bullet lines.
var ErrEmptyStructure = errors.New("story structure is empty")

// headerSplitter splits on any occurrence of a section keyword. The match is
// a plain substring match, so a keyword used inside stage text also splits.
var headerSplitter = regexp.MustCompile(string(Exposition) + "|" + string(Climax) + "|" + string(Resolution))

// Structure is a parsed story outline. AllParts is the flattened, ordered
// list of stages the engine walks through.
type Structure struct {
	Raw      string               `json:"raw"`
	Sections map[Section][]string `json:"sections"`
	AllParts []string             `json:"all_parts"`
}

// Len returns the number of stages.
func (s *Structure) Len() int {
	if s == nil {
		return 0
	}
	return len(s.AllParts)
}

// Clone returns a deep copy so callers never alias another profile's outline.
func (s *Structure) Clone() *Structure {
	if s == nil {
		return nil
	}
	c := &Structure{
		Raw:      s.Raw,
		Sections: make(map[Section][]string, len(s.Sections)),
		AllParts: append([]string(nil), s.AllParts...),
	}
	for k, v := range s.Sections {
		c.Sections[k] = append([]string(nil), v...)
	}
	return c
}

// ExtractBullets returns every line of text whose trimmed content starts with
// a dash, trimmed of surrounding whitespace.
func ExtractBullets(text string) []string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, bulletMarker) {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// ParseStructure turns a raw completion into a validated Structure.
//
// When all three section keywords appear in raw, the text is split on them and
// the fragments after the first keyword are assigned to the sections in
// canonical order. Otherwise every bullet line goes straight into AllParts
// and the sections stay empty.
//
// The returned warnings are non-fatal findings about the outline.
func ParseStructure(raw string) (*Structure, []string, error) {
	s := &Structure{
		Raw:      raw,
		Sections: make(map[Section][]string, len(Sections)),
		AllParts: make([]string, 0),
	}
	for _, sec := range Sections {
		s.Sections[sec] = []string{}
	}

	if hasAllHeaders(raw) {
		fragments := headerSplitter.Split(raw, -1)[1:]
		for i, sec := range Sections {
			if i >= len(fragments) {
				break
			}
			bullets := ExtractBullets(fragments[i])
			if bullets == nil {
				bullets = []string{}
			}
			s.Sections[sec] = bullets
			s.AllParts = append(s.AllParts, bullets...)
		}
	} else {
		s.AllParts = append(s.AllParts, ExtractBullets(raw)...)
	}

	warnings, err := validate(s)
	if err != nil {
		return nil, nil, err
	}
	return s, warnings, nil
}

func hasAllHeaders(raw string) bool {
	for _, sec := range Sections {
		if !strings.Contains(raw, string(sec)) {
			return false
		}
	}
	return true
}

func validate(s *Structure) ([]string, error) {
	if len(s.AllParts) == 0 {
		return nil, ErrEmptyStructure
	}
	var warnings []string
	if len(s.AllParts) < MinRecommendedParts {
		warnings = append(warnings, fmt.Sprintf("story structure has only %d parts", len(s.AllParts)))
	}
	return warnings, nil
}
