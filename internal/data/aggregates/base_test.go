package aggregates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
)

func TestExecuteWriteReportsOutcome(t *testing.T) {
	cases := []struct {
		name      string
		body      error
		wantCode  domainagg.ErrorCode
		status    string
		conflicts int
		retries   int
	}{
		{name: "success", status: "success"},
		{name: "invariant", body: InvariantError("two winners"), wantCode: domainagg.CodeInvariantViolation, status: "invariant_violation"},
		{name: "conflict", body: ConflictError("variant moved"), wantCode: domainagg.CodeConflict, status: "conflict", conflicts: 1},
		{name: "retryable", body: fmt.Errorf("lock timeout: %w", ErrRetryable), wantCode: domainagg.CodeRetryable, status: "retryable", retries: 1},
		{name: "deadline", body: context.DeadlineExceeded, wantCode: domainagg.CodeRetryable, status: "retryable", retries: 1},
		{name: "unknown", body: errors.New("disk on fire"), wantCode: domainagg.CodeInternal, status: "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "variant.test",
				func(dbctx.Context) error { return tc.body })
			if got := domainagg.CodeOf(err); got != tc.wantCode {
				t.Fatalf("code: want=%q got=%q (err=%v)", tc.wantCode, got, err)
			}
			if len(hooks.Operations) != 1 {
				t.Fatalf("operations: want=1 got=%d", len(hooks.Operations))
			}
			if op := hooks.Operations[0]; op.Name != "variant.test" || op.Status != tc.status {
				t.Fatalf("operation: %+v", op)
			}
			if len(hooks.Conflicts) != tc.conflicts || len(hooks.Retries) != tc.retries {
				t.Fatalf("conflicts=%v retries=%v", hooks.Conflicts, hooks.Retries)
			}
		})
	}
}

func TestExecuteWriteDefaultsOperationName(t *testing.T) {
	hooks := &spyHooks{}
	if err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "  ",
		func(dbctx.Context) error { return nil }); err != nil {
		t.Fatalf("executeWrite: %v", err)
	}
	if hooks.Operations[0].Name != "adpack.write" {
		t.Fatalf("name: %q", hooks.Operations[0].Name)
	}
}

func TestGormTxRunnerWithoutDB(t *testing.T) {
	err := NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("want internal error, got %v", err)
	}
}

func TestMustSwap(t *testing.T) {
	if err := mustSwap(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mustSwap(false, "variant moved"); !errors.Is(err, ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type spyOperation struct {
	Name   string
	Status string
}

type spyHooks struct {
	mu         sync.Mutex
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}
