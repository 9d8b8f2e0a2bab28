package supervisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
)

var clarifySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"needs_clarification": {"type": "boolean"},
		"question": {"type": "string"}
	},
	"required": ["needs_clarification"]
}`)

type clarifyDoc struct {
	NeedsClarification bool   `json:"needs_clarification"`
	Question           string `json:"question"`
}

// ClarificationNeeded halts Supervisor.Run before a brief is produced: the
// caller is expected to collect an answer to Question and re-invoke Run with
// it appended to the user messages.
type ClarificationNeeded struct {
	Question string
}

func (e *ClarificationNeeded) Error() string {
	return fmt.Sprintf("clarification needed: %s", e.Question)
}

// clarify asks the model whether userText requires a follow-up question
// before a brief can be produced.
func (s *Supervisor) clarify(ctx context.Context, userText string) (*ClarificationNeeded, error) {
	messages := []modeladapter.Message{{Role: "user", Content: userText}}
	doc, err := s.adapter.CompleteStructured(ctx, "Decide whether the user's research question needs clarification before you can plan research. If it is already clear and answerable, set needs_clarification to false.", messages, clarifySchema, modeladapter.Params{})
	if err != nil {
		return nil, err
	}

	var decoded clarifyDoc
	if err := json.Unmarshal(doc, &decoded); err != nil {
		return nil, err
	}
	if !decoded.NeedsClarification {
		return nil, nil
	}
	return &ClarificationNeeded{Question: decoded.Question}, nil
}
