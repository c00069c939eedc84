package slack_test

import (
	"reflect"
	"testing"

	"github.com/tsmith4014/ccp-quizbot/internal/slack"
)

func TestParseInteraction(t *testing.T) {
	raw := `{
		"user": {"id": "U123"},
		"response_url": "https://hooks.slack.test/abc",
		"actions": [{
			"action_id": "select_answer_a1b2c3d4",
			"selected_options": [{"value": "1"}, {"value": "3"}]
		}]
	}`

	p, err := slack.ParseInteraction(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.User.ID != "U123" {
		t.Errorf("expected user U123, got %q", p.User.ID)
	}
	if p.ResponseURL != "https://hooks.slack.test/abc" {
		t.Errorf("unexpected response_url %q", p.ResponseURL)
	}

	values := p.Actions[0].SelectedValues()
	if !reflect.DeepEqual(values, []string{"1", "3"}) {
		t.Errorf("expected values [1 3], got %v", values)
	}
}

func TestParseInteraction_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{"},
		{"no user", `{"actions": [{"action_id": "submit_answer"}]}`},
		{"no actions", `{"user": {"id": "U123"}, "actions": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := slack.ParseInteraction(tt.raw); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
