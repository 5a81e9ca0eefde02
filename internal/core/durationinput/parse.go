// Package durationinput parses the custom countdown length typed by a user.
//
// Accepted forms are <digits><unit?> where unit is "s" (seconds), "m"
// (minutes) or absent (seconds). Full-width digits and letters are folded to
// their ASCII forms before matching.
package durationinput

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"meetingtimer/internal/core/model"
)

var (
	ErrEmpty       = errors.New("enter a duration")
	ErrFormat      = errors.New("invalid format, use 30s, 1m or 90")
	ErrNotPositive = errors.New("duration must be greater than zero")
	ErrTooLong     = errors.New("duration cannot exceed 24 hours")
)

var inputPattern = regexp.MustCompile(`^(\d+)([sm]?)$`)

// Parse returns the number of seconds described by input.
func Parse(input string) (int, error) {
	normalized := strings.ToLower(strings.TrimSpace(norm.NFKC.String(input)))
	if normalized == "" {
		return 0, ErrEmpty
	}

	match := inputPattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrFormat, input)
	}

	value, err := strconv.Atoi(match[1])
	if err != nil {
		// Only overflow can fail here; the pattern guarantees digits.
		return 0, ErrTooLong
	}
	if value <= 0 {
		return 0, ErrNotPositive
	}
	if value > model.MaxSeconds {
		return 0, ErrTooLong
	}

	seconds := value
	if match[2] == "m" {
		seconds = value * 60
	}
	if seconds > model.MaxSeconds {
		return 0, ErrTooLong
	}
	return seconds, nil
}

// Message returns the user-facing text for a Parse error.
func Message(err error) string {
	for _, known := range []error{ErrEmpty, ErrFormat, ErrNotPositive, ErrTooLong} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
