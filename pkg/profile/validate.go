package profile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	TopicMaxLength  = 500
	MoralMaxLength  = 100
	AuthorMaxLength = 20
)

// ValidationError reports a story parameter that is too long.
type ValidationError struct {
	Field  string
	Length int
	Max    int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is too long (%d > %d characters)", e.Field, e.Length, e.Max)
}

// UserMessage is the conversational explanation shown to the user.
func (e *ValidationError) UserMessage() string {
	article := "a"
	if strings.HasPrefix(e.Field, "a") {
		article = "an"
	}
	return fmt.Sprintf("Text is too long. Are you sure it's %s %s for a fairytale?", article, e.Field)
}

// NormalizeTopic, NormalizeMoral and NormalizeAuthor return the NFC form of
// the trimmed input, or a *ValidationError when it exceeds the field limit.
func NormalizeTopic(s string) (string, error) {
	return normalize("topic", s, TopicMaxLength)
}

func NormalizeMoral(s string) (string, error) {
	return normalize("moral", s, MoralMaxLength)
}

func NormalizeAuthor(s string) (string, error) {
	return normalize("author", s, AuthorMaxLength)
}

func normalize(field, s string, maxLen int) (string, error) {
	s = norm.NFC.String(strings.TrimSpace(s))
	if n := utf8.RuneCountInString(s); n > maxLen {
		return "", &ValidationError{Field: field, Length: n, Max: maxLen}
	}
	return s, nil
}
