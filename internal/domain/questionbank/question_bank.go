package questionbank

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
)

var (
	ErrEmptyBank      = errors.New("question bank is empty")
	ErrNotEnough      = errors.New("not enough questions in the bank")
	ErrUnknownKey     = errors.New("question not found in bank")
	ErrInvalidRequest = errors.New("requested question count must be at least 1")
)

// Entry holds the grading data for one question. The question itself is
// the map key: a raw string encoding number, text and options.
type Entry struct {
	Answer      string `json:"answer"`      // one or more letter codes, comma-separated ("a" or "A, C")
	Explanation string `json:"explanation"` // free text shown after grading
}

// CorrectLetters returns the canonical correct-answer set: split on commas,
// trimmed, lowercased, sorted.
func (e Entry) CorrectLetters() []string {
	parts := strings.Split(e.Answer, ",")
	letters := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			letters = append(letters, p)
		}
	}
	sort.Strings(letters)
	return letters
}

// Bank is an immutable mapping from raw question key to Entry, loaded once
// at startup.
type Bank struct {
	entries map[string]Entry
	keys    []string
}

// New builds a Bank from already-decoded entries.
func New(entries map[string]Entry) (*Bank, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBank
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Bank{entries: entries, keys: keys}, nil
}

// LoadFile reads a question bank from a JSON file shaped as
// {"<section>": {"<raw question>": {"answer": ..., "explanation": ...}}}.
func LoadFile(path, section string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var sections map[string]map[string]Entry
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	entries, ok := sections[section]
	if !ok {
		return nil, fmt.Errorf("question bank has no section %q", section)
	}

	return New(entries)
}

// Size returns the number of questions in the bank.
func (b *Bank) Size() int {
	return len(b.keys)
}

// Entry looks up the grading data for a raw question key.
func (b *Bank) Entry(key string) (Entry, error) {
	e, ok := b.entries[key]
	if !ok {
		return Entry{}, ErrUnknownKey
	}
	return e, nil
}

// Sample draws n distinct question keys without replacement.
func (b *Bank) Sample(n int) ([]string, error) {
	if n < 1 {
		return nil, ErrInvalidRequest
	}
	if n > len(b.keys) {
		return nil, ErrNotEnough
	}

	keys := make([]string, 0, n)
	for _, i := range rand.Perm(len(b.keys))[:n] {
		keys = append(keys, b.keys[i])
	}
	return keys, nil
}
