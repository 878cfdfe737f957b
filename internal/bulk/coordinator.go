package bulk

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shrutilabs/shruti-backend/internal/logger"
)

// errorSampleLimit bounds how many per-item messages a PartialFailureError
// carries in its text; the full list stays on the Result.
const errorSampleLimit = 5

// Operation is one asynchronous per-item state change. A timeout, if any,
// belongs to the transport behind it and comes back as a plain error.
type Operation func(ctx context.Context, id uuid.UUID) error

// ItemError records one failed item.
type ItemError struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

// Result is the aggregate outcome of one fan-out. Successes are never rolled
// back on partial failure; the operation is best-effort.
type Result struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// OK reports overall success: at least one item went through.
func (r Result) OK() bool {
	return r.Succeeded > 0
}

// Err returns nil for a clean run, a *PartialFailureError when some items
// failed, and an all-failed error when nothing succeeded.
func (r Result) Err() error {
	if r.Failed == 0 {
		return nil
	}
	pf := &PartialFailureError{Result: r}
	if r.Succeeded == 0 {
		return fmt.Errorf("all %d operations failed: %w", r.Failed, pf)
	}
	return pf
}

// PartialFailureError surfaces a partial (or total) failure with a bounded
// sample of per-item messages.
type PartialFailureError struct {
	Result Result
}

func (e *PartialFailureError) Error() string {
	sample := make([]string, 0, errorSampleLimit)
	for _, ie := range e.Result.Errors {
		if len(sample) == errorSampleLimit {
			break
		}
		sample = append(sample, fmt.Sprintf("%s: %s", ie.ID, ie.Message))
	}
	return fmt.Sprintf("%d succeeded, %d failed [%s]",
		e.Result.Succeeded, e.Result.Failed, strings.Join(sample, "; "))
}

// Coordinator fans one operation out over many item IDs concurrently and
// collects every outcome; it never short-circuits on the first failure.
type Coordinator struct {
	log   *logger.Logger
	limit int
}

func NewCoordinator(limit int, log *logger.Logger) *Coordinator {
	if limit < 1 {
		limit = 8
	}
	return &Coordinator{
		log:   log.With("component", "BulkCoordinator"),
		limit: limit,
	}
}

// Run issues op for every id in parallel and waits for all of them to
// settle. Per-item errors land in the result rather than aborting the group.
func (c *Coordinator) Run(ctx context.Context, ids []uuid.UUID, op Operation) Result {
	outcomes := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			outcomes[i] = op(gctx, id)
			return nil
		})
	}
	// Workers only record outcomes, so this cannot fail.
	_ = g.Wait()

	var res Result
	for i, err := range outcomes {
		if err == nil {
			res.Succeeded++
			continue
		}
		res.Failed++
		res.Errors = append(res.Errors, ItemError{ID: ids[i], Message: err.Error()})
	}
	if res.Failed > 0 {
		c.log.Warn("Bulk operation finished with failures",
			"total", len(ids), "succeeded", res.Succeeded, "failed", res.Failed)
	}
	return res
}
