package slack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsmith4014/ccp-quizbot/internal/id"
)

// Action IDs wired into interactive messages. Checkbox action IDs carry a
// random suffix because Slack requires element IDs to be unique, while the
// submit button keeps a fixed ID the event handler can match exactly.
const (
	ActionSubmit       = "submit_answer"
	actionSelectPrefix = "select_answer"
	blockIDPrefix      = "answer_block"
)

// IsSelectAction reports whether an incoming action id belongs to an
// answer checkbox group.
func IsSelectAction(actionID string) bool {
	return strings.HasPrefix(actionID, actionSelectPrefix)
}

// Message is an outbound response_url payload.
type Message struct {
	ResponseType    string  `json:"response_type,omitempty"` // "in_channel" for the first question
	ReplaceOriginal bool    `json:"replace_original,omitempty"`
	Text            string  `json:"text"` // plain-text fallback
	Blocks          []Block `json:"blocks,omitempty"`
}

// Block is a Block Kit layout block ("section" or "actions").
type Block struct {
	Type     string    `json:"type"`
	BlockID  string    `json:"block_id,omitempty"`
	Text     *Text     `json:"text,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// Text is a Block Kit text object ("mrkdwn" or "plain_text").
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Element is an interactive element inside an actions block.
type Element struct {
	Type     string   `json:"type"` // "checkboxes" or "button"
	ActionID string   `json:"action_id"`
	Options  []Option `json:"options,omitempty"`
	Text     *Text    `json:"text,omitempty"`
	Value    string   `json:"value,omitempty"`
}

// Option is one selectable checkbox entry; Value carries the 1-based
// option index back in the interaction payload.
type Option struct {
	Text  Text   `json:"text"`
	Value string `json:"value"`
}

func mrkdwn(s string) *Text {
	return &Text{Type: "mrkdwn", Text: s}
}

func plain(s string) *Text {
	return &Text{Type: "plain_text", Text: s, Emoji: true}
}

// checkboxBlock builds the actions block with one checkbox per answer
// option and a submit button.
func checkboxBlock(options []string) Block {
	opts := make([]Option, len(options))
	for i, option := range options {
		opts[i] = Option{
			Text:  *plain(option),
			Value: strconv.Itoa(i + 1),
		}
	}

	return Block{
		Type:    "actions",
		BlockID: blockIDPrefix + "_" + id.Suffix(),
		Elements: []Element{
			{
				Type:     "checkboxes",
				ActionID: actionSelectPrefix + "_" + id.Suffix(),
				Options:  opts,
			},
			{
				Type:     "button",
				ActionID: ActionSubmit,
				Text:     plain("Submit"),
				Value:    "submit",
			},
		},
	}
}

// QuestionMessage renders a quiz question with its answer checkboxes.
// feedback, when non-empty, is shown above the question (the result of the
// previous submission). The first question is posted in_channel; later
// ones replace the original message.
func QuestionMessage(number int, text string, options []string, feedback string) Message {
	headline := fmt.Sprintf("Question %d: %s", number, text)

	var blocks []Block
	if feedback != "" {
		blocks = append(blocks, Block{Type: "section", Text: mrkdwn(feedback)})
	}
	blocks = append(blocks,
		Block{Type: "section", Text: mrkdwn(headline)},
		checkboxBlock(options),
	)

	msg := Message{Text: headline, Blocks: blocks}
	if number == 1 {
		msg.ResponseType = "in_channel"
	} else {
		msg.ReplaceOriginal = true
	}
	return msg
}

// CompletionMessage renders the final score, prefixed with the feedback
// for the last submission.
func CompletionMessage(feedback string, score, total int) Message {
	return Message{
		ReplaceOriginal: true,
		Text:            fmt.Sprintf("%sQuiz completed! Your score is %d/%d.", feedback, score, total),
	}
}

// FeedbackText renders the result of a submission the way it is shown to
// the user. correctAnswers are the canonical uppercase letters.
func FeedbackText(correct bool, correctAnswers []string, explanation string) string {
	var b strings.Builder
	if correct {
		b.WriteString("That's correct!\n")
	} else {
		fmt.Fprintf(&b, "That's incorrect. Correct answer: %s\n", strings.Join(correctAnswers, ", "))
	}
	fmt.Fprintf(&b, "Explanation: %s\n", explanation)
	return b.String()
}
