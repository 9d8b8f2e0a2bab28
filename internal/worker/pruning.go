package worker

import (
	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// PruneSettings bounds a worker's growing conversation so it stays within
// the backend's context window across many search/reflect iterations.
type PruneSettings struct {
	// MaxChars is the character budget for the conversation. Pruning is a
	// no-op below this budget.
	MaxChars int

	// KeepLastObservations is the number of most recent observation
	// messages (tool results) that are never pruned, regardless of budget.
	KeepLastObservations int

	// Placeholder replaces a pruned observation's content.
	Placeholder string
}

// DefaultPruneSettings mirrors the worker's default iteration budget: a
// generous context window with the last six tool observations always kept
// verbatim, since those are what the model is most likely reasoning about
// next.
func DefaultPruneSettings() PruneSettings {
	return PruneSettings{
		MaxChars:             120_000,
		KeepLastObservations: 6,
		Placeholder:          "[earlier tool result cleared to stay within the context budget]",
	}
}

// Prune clears the content of older observation messages once the
// conversation's estimated size exceeds settings.MaxChars, preserving every
// non-observation message (system and user/assistant turns) and the most
// recent KeepLastObservations observations untouched. It returns a new
// slice (the input is never mutated) and whether the result fits within
// settings.MaxChars; the non-prunable tail (system/user turns plus the kept
// observations) can alone exceed the budget, in which case pruning cannot
// reach the target and the caller must terminate the worker as exhausted.
func Prune(messages []research.Message, settings PruneSettings) ([]research.Message, bool) {
	if settings.MaxChars <= 0 || estimateChars(messages) <= settings.MaxChars {
		return messages, true
	}

	keepFrom := lastNObservationIndex(messages, settings.KeepLastObservations)

	out := make([]research.Message, len(messages))
	copy(out, messages)

	total := estimateChars(out)
	for i := range out {
		if total <= settings.MaxChars {
			break
		}
		if out[i].Role != research.RoleObservation {
			continue
		}
		if i >= keepFrom {
			continue
		}
		before := len(out[i].Content)
		out[i].Content = settings.Placeholder
		total -= before - len(settings.Placeholder)
	}

	return out, total <= settings.MaxChars
}

// lastNObservationIndex returns the message index of the n-th most recent
// observation counting from the end; messages at or after this index are
// never pruned. If fewer than n observations exist, returns 0 (keep all).
func lastNObservationIndex(messages []research.Message, n int) int {
	if n <= 0 {
		return len(messages)
	}
	remaining := n
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == research.RoleObservation {
			remaining--
			if remaining == 0 {
				return i
			}
		}
	}
	return 0
}

func estimateChars(messages []research.Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return total
}
