package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds one utterance in bytes.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "PARLEY_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput prepares raw user text for classification using the
// environment or default size limit. See SanitizeInputWithLimit.
func SanitizeInput(input string) (string, error) {
	return SanitizeInputWithLimit(input, MaxInputSize())
}

// SanitizeInputWithLimit rejects input over limit bytes or with invalid UTF-8,
// removes terminal escape sequences and other control characters, and turns
// CR and CRLF line endings into LF. Tabs and newlines survive.
// A non-positive limit falls back to MaxInputSize.
func SanitizeInputWithLimit(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = MaxInputSize()
	}
	// Rejected, never truncated: a cut-off utterance could classify differently.
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if !needsCleaning(input) {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])
		switch {
		case r == '\x1b':
			i += escapeLen(input[i:])
			continue
		case r == '\r':
			b.WriteByte('\n')
			if strings.HasPrefix(input[i+size:], "\n") {
				size++
			}
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
		i += size
	}
	return b.String(), nil
}

func needsCleaning(s string) bool {
	for _, r := range s {
		if r == '\r' || (unicode.IsControl(r) && r != '\n' && r != '\t') {
			return true
		}
	}
	return false
}

// escapeLen returns the byte length of the escape sequence at the start of s
// (which begins with ESC). CSI sequences ("ESC [ ... final") are consumed
// whole; any other ESC drops only itself and the next byte.
func escapeLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	if s[1] != '[' {
		return 2
	}
	for i := 2; i < len(s); i++ {
		if c := s[i]; c >= 0x40 && c <= 0x7e {
			return i + 1
		}
	}
	return len(s)
}

// MaxInputSize returns the limit from EnvMaxInputSize, or DefaultMaxInputSize.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
