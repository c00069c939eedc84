package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/tsmith4014/ccp-quizbot/internal/domain/questionbank"
	"github.com/tsmith4014/ccp-quizbot/internal/domain/quizsession"
	"github.com/tsmith4014/ccp-quizbot/internal/store"
)

var (
	ErrNoSelection  = errors.New("no answers selected")
	ErrBadSelection = errors.New("selected answer is out of range")
)

// Prompt is a question ready to be shown to the user.
type Prompt struct {
	Number  int // 1-based display number
	Text    string
	Options []string
}

// SubmitResult is the outcome of grading one submission.
type SubmitResult struct {
	Correct        bool
	CorrectAnswers []string // canonical letters, sorted, uppercase
	Explanation    string
	Score          int
	Total          int
	Next           *Prompt // nil once the quiz is completed
}

// Completed reports whether this submission finished the quiz.
func (r *SubmitResult) Completed() bool {
	return r.Next == nil
}

// QuizService orchestrates session creation, answer grading, progression
// and completion against the question bank and the session store.
type QuizService struct {
	bank   *questionbank.Bank
	store  store.Store
	logger *slog.Logger
}

func NewQuizService(bank *questionbank.Bank, s store.Store, logger *slog.Logger) *QuizService {
	return &QuizService{
		bank:   bank,
		store:  s,
		logger: logger,
	}
}

// Start samples n distinct questions, creates (or replaces) the user's
// session, and returns the first prompt.
func (q *QuizService) Start(ctx context.Context, userID string, n int) (*Prompt, error) {
	keys, err := q.bank.Sample(n)
	if err != nil {
		return nil, err
	}

	sess := quizsession.New(keys)
	prompt, err := currentPrompt(sess)
	if err != nil {
		return nil, err
	}

	if err := q.store.Save(ctx, userID, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	q.logger.Info("quiz started", "user_id", userID, "questions", n)
	return prompt, nil
}

// RecordSelection stores the pending checkbox selection on the user's
// session. The values are the 1-based option indices as strings.
func (q *QuizService) RecordSelection(ctx context.Context, userID string, values []string) error {
	_, err := q.store.Update(ctx, userID, func(s *quizsession.Session) error {
		s.SetSelection(values)
		return nil
	})
	return err
}

// Submit grades the pending selection against the current question,
// advances the session, and returns the result together with the next
// prompt. The session is removed once the last question is submitted.
func (q *QuizService) Submit(ctx context.Context, userID string) (*SubmitResult, error) {
	var result *SubmitResult

	_, err := q.store.Update(ctx, userID, func(s *quizsession.Session) error {
		if len(s.SelectedAnswers) == 0 {
			return ErrNoSelection
		}

		key, ok := s.CurrentKey()
		if !ok {
			return store.ErrNotFound
		}

		entry, err := q.bank.Entry(key)
		if err != nil {
			return err
		}

		selected, err := lettersFromValues(s.SelectedAnswers)
		if err != nil {
			return err
		}

		correctLetters := entry.CorrectLetters()
		correct := slices.Equal(selected, correctLetters)
		s.Advance(correct)

		result = &SubmitResult{
			Correct:        correct,
			CorrectAnswers: upper(correctLetters),
			Explanation:    entry.Explanation,
			Score:          s.Score,
			Total:          s.NumQuestions,
		}

		if !s.Finished() {
			next, err := currentPrompt(s)
			if err != nil {
				return err
			}
			result.Next = next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	q.logger.Info("answer submitted",
		"user_id", userID,
		"correct", result.Correct,
		"score", result.Score,
		"completed", result.Completed(),
	)
	return result, nil
}

// currentPrompt parses the session's current question and caches its
// options on the session.
func currentPrompt(s *quizsession.Session) (*Prompt, error) {
	key, ok := s.CurrentKey()
	if !ok {
		return nil, store.ErrNotFound
	}

	parsed, err := questionbank.Parse(key)
	if err != nil {
		return nil, err
	}

	s.Options = parsed.Options
	return &Prompt{
		Number:  s.QuestionNumber(),
		Text:    parsed.Text,
		Options: parsed.Options,
	}, nil
}

// lettersFromValues maps 1-based option indices ("1", "2", ...) to letter
// codes (a, b, ...), deduplicated and sorted.
func lettersFromValues(values []string) ([]string, error) {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || i < 1 || i > 26 {
			return nil, ErrBadSelection
		}
		set[string(rune('a'+i-1))] = struct{}{}
	}

	letters := make([]string, 0, len(set))
	for l := range set {
		letters = append(letters, l)
	}
	slices.Sort(letters)
	return letters, nil
}

func upper(letters []string) []string {
	out := make([]string, len(letters))
	for i, l := range letters {
		out[i] = strings.ToUpper(l)
	}
	return out
}
