package story

import (
	"errors"
	"fmt"
	"strings"

	"github.com/orsinium-labs/enum"
)

// CompressionMode controls how much of the story so far is fed back into the
// next stage prompt.
type CompressionMode enum.Member[string]

var (
	// CompressionComplete keeps every stage verbatim.
	CompressionComplete = CompressionMode{"complete"}
	// CompressionFewLines keeps the first sentences of older stages and the
	// latest stage in full.
	CompressionFewLines = CompressionMode{"few_lines_per_part"}
	// CompressionLastOnly keeps only the latest stage.
	CompressionLastOnly = CompressionMode{"last_only"}

	CompressionModes = enum.New(CompressionComplete, CompressionFewLines, CompressionLastOnly)
)

// DefaultCompression is used when a tier does not name a mode.
var DefaultCompression = CompressionFewLines

// sentencesPerPart is how many sentences of an older stage survive compression.
const sentencesPerPart = 3

// ErrInvalidCompressionMode is returned for a mode outside CompressionModes.
var ErrInvalidCompressionMode = errors.New("invalid compression mode")

func (m CompressionMode) String() string {
	return m.Value
}

// MarshalText implements encoding.TextMarshaler.
func (m CompressionMode) MarshalText() ([]byte, error) {
	return []byte(m.Value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CompressionMode) UnmarshalText(text []byte) error {
	parsed, err := ParseCompressionMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseCompressionMode resolves a mode by name.
func ParseCompressionMode(s string) (CompressionMode, error) {
	m := CompressionModes.Parse(strings.TrimSpace(strings.ToLower(s)))
	if m == nil {
		return CompressionMode{}, fmt.Errorf("%w: %q", ErrInvalidCompressionMode, s)
	}
	return *m, nil
}

// Summarize compresses the generated stages into a prompt fragment.
// An empty story yields an empty summary regardless of mode.
func Summarize(parts []string, mode CompressionMode) (string, error) {
	if len(parts) == 0 {
		return "", nil
	}
	last := parts[len(parts)-1]

	switch mode {
	case CompressionComplete:
		return strings.Join(parts, "\n"), nil
	case CompressionFewLines:
		var b strings.Builder
		for _, part := range parts[:len(parts)-1] {
			sentences := strings.Split(part, ".")
			if len(sentences) > sentencesPerPart {
				sentences = sentences[:sentencesPerPart]
			}
			b.WriteString(strings.Join(sentences, ". "))
			b.WriteString("...\n")
		}
		b.WriteString(last)
		return b.String(), nil
	case CompressionLastOnly:
		return last, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCompressionMode, mode.Value)
}
