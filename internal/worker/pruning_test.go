package worker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

func TestPruneIsNoOpBelowBudget(t *testing.T) {
	messages := []research.Message{
		{Role: research.RoleSystem, Content: "system"},
		{Role: research.RoleObservation, Content: "short observation"},
	}
	pruned, withinBudget := Prune(messages, PruneSettings{MaxChars: 10_000, KeepLastObservations: 1})
	assert.Equal(t, messages, pruned)
	assert.True(t, withinBudget)
}

func TestPruneClearsOldestObservationsFirst(t *testing.T) {
	big := strings.Repeat("x", 1000)
	messages := []research.Message{
		{Role: research.RoleSystem, Content: "system"},
		{Role: research.RoleObservation, Content: big},
		{Role: research.RoleObservation, Content: big},
		{Role: research.RoleObservation, Content: big},
	}
	settings := PruneSettings{MaxChars: 1500, KeepLastObservations: 1, Placeholder: "[cleared]"}
	pruned, withinBudget := Prune(messages, settings)

	assert.Equal(t, "[cleared]", pruned[1].Content)
	assert.NotEqual(t, "[cleared]", pruned[3].Content)
	assert.Equal(t, big, pruned[3].Content)
	assert.True(t, withinBudget)
}

func TestPruneNeverTouchesSystemMessages(t *testing.T) {
	big := strings.Repeat("x", 5000)
	messages := []research.Message{
		{Role: research.RoleSystem, Content: big},
		{Role: research.RoleObservation, Content: big},
	}
	pruned, _ := Prune(messages, PruneSettings{MaxChars: 100, KeepLastObservations: 0, Placeholder: "[cleared]"})
	assert.Equal(t, big, pruned[0].Content)
}

// TestPruneReportsUnreachableBudget covers the case where the non-prunable
// tail alone (the system message plus the kept observations) exceeds
// MaxChars: pruning clears every observation it is allowed to, but still
// can't reach the target, so it must report that to the caller.
func TestPruneReportsUnreachableBudget(t *testing.T) {
	big := strings.Repeat("x", 5000)
	messages := []research.Message{
		{Role: research.RoleSystem, Content: "system"},
		{Role: research.RoleObservation, Content: big},
		{Role: research.RoleObservation, Content: big},
	}
	settings := PruneSettings{MaxChars: 1000, KeepLastObservations: 2, Placeholder: "[cleared]"}
	pruned, withinBudget := Prune(messages, settings)

	assert.False(t, withinBudget)
	assert.Equal(t, big, pruned[1].Content)
	assert.Equal(t, big, pruned[2].Content)
}
