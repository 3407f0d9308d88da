package coach

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidateContent checks a user turn and returns it trimmed of surrounding
// whitespace.
func ValidateContent(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("message is empty: %w", ErrValidation)
	}
	if !utf8.ValidString(trimmed) {
		return "", fmt.Errorf("message is not valid UTF-8: %w", ErrValidation)
	}
	return trimmed, nil
}
