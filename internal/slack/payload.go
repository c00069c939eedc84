package slack

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrEmptyPayload = errors.New("interaction payload has no actions")

// Interaction is the decoded form of the "payload" field Slack posts when
// a user clicks a checkbox or button.
type Interaction struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Actions     []Action `json:"actions"`
	ResponseURL string   `json:"response_url"`
}

// Action describes a single user interaction with a message element.
type Action struct {
	ActionID        string `json:"action_id"`
	SelectedOptions []struct {
		Value string `json:"value"`
	} `json:"selected_options"`
}

// SelectedValues extracts the checkbox values ("1", "2", ...) of an action.
func (a Action) SelectedValues() []string {
	values := make([]string, 0, len(a.SelectedOptions))
	for _, opt := range a.SelectedOptions {
		values = append(values, opt.Value)
	}
	return values
}

// ParseInteraction decodes a raw interaction payload and checks it carries
// a user and at least one action.
func ParseInteraction(raw string) (*Interaction, error) {
	var p Interaction
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("parse interaction payload: %w", err)
	}
	if p.User.ID == "" || len(p.Actions) == 0 {
		return nil, ErrEmptyPayload
	}
	return &p, nil
}
