package quizsession

// Session is the per-user quiz state. One session per user id, created on
// quiz start, mutated on each selection/submission, deleted on completion.
//
// Invariants: 0 <= CurrentQuestion <= NumQuestions, Score <= CurrentQuestion,
// and SelectedAnswers is cleared after every submission.
type Session struct {
	Questions       []string `json:"questions"`        // raw question keys, fixed at creation
	CurrentQuestion int      `json:"current_question"` // index into Questions
	Score           int      `json:"score"`
	NumQuestions    int      `json:"num_questions"`
	SelectedAnswers []string `json:"selected_answers"` // pending checkbox values ("1", "2", ...)
	Options         []string `json:"options"`          // parsed options of the current question
}

// New creates a session over the given question keys.
func New(keys []string) *Session {
	return &Session{
		Questions:       keys,
		CurrentQuestion: 0,
		Score:           0,
		NumQuestions:    len(keys),
		SelectedAnswers: []string{},
	}
}

// CurrentKey returns the raw key of the question the user is on.
// The second return is false once the session has finished.
func (s *Session) CurrentKey() (string, bool) {
	if s.Finished() {
		return "", false
	}
	return s.Questions[s.CurrentQuestion], true
}

// QuestionNumber is the 1-based display number of the current question.
func (s *Session) QuestionNumber() int {
	return s.CurrentQuestion + 1
}

// SetSelection replaces the pending checkbox selection.
func (s *Session) SetSelection(values []string) {
	s.SelectedAnswers = values
}

// Advance records the result of a submission: bumps the score when the
// answer was correct, moves to the next question, and clears the pending
// selection.
func (s *Session) Advance(correct bool) {
	if correct {
		s.Score++
	}
	s.CurrentQuestion++
	s.SelectedAnswers = []string{}
	s.Options = nil
}

// Finished reports whether every question has been submitted.
func (s *Session) Finished() bool {
	return s.CurrentQuestion >= s.NumQuestions
}

// Clone returns a deep copy, so stores can hand out sessions without
// sharing slices with their own records.
func (s *Session) Clone() *Session {
	c := *s
	c.Questions = append([]string(nil), s.Questions...)
	c.SelectedAnswers = append([]string(nil), s.SelectedAnswers...)
	c.Options = append([]string(nil), s.Options...)
	return &c
}
