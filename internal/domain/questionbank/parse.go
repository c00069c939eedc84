package questionbank

import (
	"errors"
	"strings"
)

var ErrMalformedQuestion = errors.New("malformed question text")

// Question is the parsed form of a raw question key. The raw string encodes
// "<number>. <text>\n<option>\n<option>...".
type Question struct {
	Text    string
	Options []string
}

// Parse splits a raw question key into its text and options: everything
// after the first ". " is split on newlines, trimmed, blanks dropped. The
// first line is the question text, the rest are the answer options.
func Parse(raw string) (Question, error) {
	_, rest, found := strings.Cut(raw, ". ")
	if !found {
		return Question{}, ErrMalformedQuestion
	}

	var lines []string
	for _, line := range strings.Split(rest, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return Question{}, ErrMalformedQuestion
	}

	return Question{Text: lines[0], Options: lines[1:]}, nil
}
