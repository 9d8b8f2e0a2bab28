package supervisor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jordangeorgiev/open-deep-research/internal/research"
	"github.com/jordangeorgiev/open-deep-research/internal/worker"
)

// fanOut runs every task concurrently, bounded by maxConcurrent, and returns
// their Findings in task-submission order regardless of which worker
// finishes first — the supervisor transcript must stay deterministic given
// the same inputs and model outputs.
func fanOut(ctx context.Context, researcher *worker.Researcher, tasks []research.WorkerTask, brief research.Brief, maxConcurrent int) ([]*research.Findings, error) {
	results := make([]*research.Findings, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			findings, err := researcher.Run(gctx, task, brief)
			if err != nil {
				return err
			}
			results[i] = findings
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
