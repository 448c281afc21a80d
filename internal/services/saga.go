package services

import (
	"context"
	"fmt"
)

// sagaStep pairs a creation action with the compensation that undoes it.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes the steps in order. When a step fails, the compensations
// of every completed step run in reverse order; compensation failures are
// logged and do not stop the unwind. The returned error names the failed step.
func runSaga(ctx context.Context, logger func(context.Context, string, map[string]any), steps []sagaStep) error {
	for i, step := range steps {
		if step.run == nil {
			continue
		}
		err := step.run(ctx)
		if err == nil {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			prev := steps[j]
			if prev.compensate == nil {
				continue
			}
			if compErr := prev.compensate(ctx); compErr != nil {
				logger(ctx, "submission.compensation.failed", map[string]any{
					"step":       prev.name,
					"failedStep": step.name,
					"error":      compErr.Error(),
				})
			}
		}

		return fmt.Errorf("step %s: %w", step.name, err)
	}
	return nil
}
