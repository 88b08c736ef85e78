// Package token counts prompt tokens so requests can be checked against a
// model's context window before they are sent.
package token

import (
	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Counter wraps a tiktoken encoder. A nil *Counter counts nothing.
type Counter struct {
	encoder  *tiktoken.Tiktoken
	encoding string
}

// NewCounter creates a counter with the given encoding, falling back to
// cl100k_base when the encoding is unknown.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}

	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		encoder, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, err
		}
		encoding = defaultEncoding
	}

	return &Counter{encoder: encoder, encoding: encoding}, nil
}

// Encoding returns the current encoding name.
func (c *Counter) Encoding() string {
	if c == nil {
		return ""
	}
	return c.encoding
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if c == nil || c.encoder == nil || text == "" {
		return 0
	}
	return len(c.encoder.Encode(text, nil, nil))
}

// Exceeds reports whether a prompt of promptTokens plus a reply budget of
// maxTokens overflows window. A non-positive window is unlimited.
func Exceeds(promptTokens, maxTokens, window int) bool {
	if window <= 0 {
		return false
	}
	return promptTokens+maxTokens > window
}
