package quizsession_test

import (
	"testing"

	"github.com/tsmith4014/ccp-quizbot/internal/domain/quizsession"
)

func TestNew(t *testing.T) {
	s := quizsession.New([]string{"q1", "q2", "q3"})

	if s.NumQuestions != 3 {
		t.Errorf("expected 3 questions, got %d", s.NumQuestions)
	}
	if s.CurrentQuestion != 0 {
		t.Errorf("expected current question 0, got %d", s.CurrentQuestion)
	}
	if s.Score != 0 {
		t.Errorf("expected score 0, got %d", s.Score)
	}
	if len(s.SelectedAnswers) != 0 {
		t.Errorf("expected no selected answers, got %v", s.SelectedAnswers)
	}
}

func TestAdvance(t *testing.T) {
	s := quizsession.New([]string{"q1", "q2"})
	s.SetSelection([]string{"1"})

	s.Advance(true)

	if s.Score != 1 {
		t.Errorf("expected score 1, got %d", s.Score)
	}
	if s.CurrentQuestion != 1 {
		t.Errorf("expected current question 1, got %d", s.CurrentQuestion)
	}
	if len(s.SelectedAnswers) != 0 {
		t.Errorf("expected selection cleared, got %v", s.SelectedAnswers)
	}
	if s.Finished() {
		t.Error("session should not be finished after one of two questions")
	}

	s.Advance(false)

	if s.Score != 1 {
		t.Errorf("expected score to stay at 1, got %d", s.Score)
	}
	if !s.Finished() {
		t.Error("session should be finished after both questions")
	}
}

func TestAdvance_Invariants(t *testing.T) {
	s := quizsession.New([]string{"q1", "q2", "q3"})

	for !s.Finished() {
		s.Advance(true)

		if s.CurrentQuestion > s.NumQuestions {
			t.Fatalf("current question %d exceeds total %d", s.CurrentQuestion, s.NumQuestions)
		}
		if s.Score > s.CurrentQuestion {
			t.Fatalf("score %d exceeds current question %d", s.Score, s.CurrentQuestion)
		}
	}
}

func TestCurrentKey(t *testing.T) {
	s := quizsession.New([]string{"q1", "q2"})

	key, ok := s.CurrentKey()
	if !ok || key != "q1" {
		t.Errorf("expected (q1, true), got (%q, %v)", key, ok)
	}

	s.Advance(false)
	key, ok = s.CurrentKey()
	if !ok || key != "q2" {
		t.Errorf("expected (q2, true), got (%q, %v)", key, ok)
	}

	s.Advance(false)
	if _, ok := s.CurrentKey(); ok {
		t.Error("expected no current key once finished")
	}
}

func TestClone_Independent(t *testing.T) {
	s := quizsession.New([]string{"q1", "q2"})
	s.SetSelection([]string{"1", "2"})

	c := s.Clone()
	c.SetSelection([]string{"3"})
	c.Advance(true)

	if s.CurrentQuestion != 0 || s.Score != 0 {
		t.Error("mutating the clone changed the original")
	}
	if len(s.SelectedAnswers) != 2 {
		t.Errorf("expected original selection untouched, got %v", s.SelectedAnswers)
	}
}
