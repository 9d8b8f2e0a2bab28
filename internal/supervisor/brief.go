package supervisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

var briefSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"question": {"type": "string"},
		"success_criteria": {"type": "array", "items": {"type": "string"}},
		"constraints": {"type": "array", "items": {"type": "string"}},
		"language": {"type": "string"}
	},
	"required": ["question"]
}`)

// produceBrief turns the user's conversation into a Research Brief, once,
// at the start of a run.
func (s *Supervisor) produceBrief(ctx context.Context, userMessages []research.Message) (research.Brief, error) {
	messages := make([]modeladapter.Message, 0, len(userMessages))
	for _, m := range userMessages {
		messages = append(messages, modeladapter.Message{Role: string(m.Role), Content: m.Content})
	}

	doc, err := s.adapter.CompleteStructured(ctx, "Produce a research brief from the conversation below: the core question, success criteria, constraints, and the language to respond in.", messages, briefSchema, modeladapter.Params{})
	if err != nil {
		return research.Brief{}, fmt.Errorf("supervisor: produce brief: %w", err)
	}

	var brief research.Brief
	if err := json.Unmarshal(doc, &brief); err != nil {
		return research.Brief{}, fmt.Errorf("supervisor: decode brief: %w", err)
	}
	if brief.Language == "" {
		brief.Language = "en"
	}
	return brief, nil
}
