package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/shrutilabs/shruti-backend/internal/logger"
)

func testCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return NewCoordinator(4, log)
}

func TestRunPartialFailure(t *testing.T) {
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
	}
	failing := ids[2]

	var mu sync.Mutex
	applied := map[uuid.UUID]bool{}

	res := testCoordinator(t).Run(context.Background(), ids, func(ctx context.Context, id uuid.UUID) error {
		if id == failing {
			return errors.New("backend rejected item")
		}
		mu.Lock()
		applied[id] = true
		mu.Unlock()
		return nil
	})

	if res.Succeeded != 4 || res.Failed != 1 {
		t.Fatalf("result = %d/%d, want 4/1", res.Succeeded, res.Failed)
	}
	if !res.OK() {
		t.Fatalf("partial failure with successes should be OK overall")
	}
	if len(res.Errors) != 1 || res.Errors[0].ID != failing {
		t.Fatalf("errors = %+v", res.Errors)
	}
	if applied[failing] {
		t.Fatalf("failed item was applied")
	}
	for _, id := range ids {
		if id != failing && !applied[id] {
			t.Fatalf("succeeding item %s not applied", id)
		}
	}

	var pf *PartialFailureError
	if err := res.Err(); !errors.As(err, &pf) {
		t.Fatalf("Err() = %v, want PartialFailureError", err)
	}
}

func TestRunAllFailed(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	res := testCoordinator(t).Run(context.Background(), ids, func(ctx context.Context, id uuid.UUID) error {
		return errors.New("nope")
	})

	if res.OK() {
		t.Fatalf("all-failed run reported OK")
	}
	err := res.Err()
	if err == nil || !strings.Contains(err.Error(), "all 2 operations failed") {
		t.Fatalf("Err() = %v", err)
	}
}

func TestRunAllSucceeded(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	res := testCoordinator(t).Run(context.Background(), ids, func(ctx context.Context, id uuid.UUID) error {
		return nil
	})
	if res.Succeeded != 3 || res.Failed != 0 {
		t.Fatalf("result = %d/%d, want 3/0", res.Succeeded, res.Failed)
	}
	if res.Err() != nil {
		t.Fatalf("Err() = %v, want nil", res.Err())
	}
}

func TestRunEmpty(t *testing.T) {
	res := testCoordinator(t).Run(context.Background(), nil, func(ctx context.Context, id uuid.UUID) error {
		t.Fatalf("operation invoked for empty id set")
		return nil
	})
	if res.Succeeded != 0 || res.Failed != 0 || res.OK() {
		t.Fatalf("empty run result = %+v", res)
	}
}

func TestErrorMessageSampleIsBounded(t *testing.T) {
	ids := make([]uuid.UUID, 12)
	for i := range ids {
		ids[i] = uuid.New()
	}
	res := testCoordinator(t).Run(context.Background(), ids, func(ctx context.Context, id uuid.UUID) error {
		return fmt.Errorf("broken")
	})

	if len(res.Errors) != 12 {
		t.Fatalf("full error list = %d entries, want 12", len(res.Errors))
	}
	var pf *PartialFailureError
	if !errors.As(res.Err(), &pf) {
		t.Fatalf("Err() = %v", res.Err())
	}
	if n := strings.Count(pf.Error(), "broken"); n != errorSampleLimit {
		t.Fatalf("sample carries %d messages, want %d", n, errorSampleLimit)
	}
}
