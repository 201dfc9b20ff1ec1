package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

// BaseDeps is shared by every aggregate. Zero fields fall back to gorm-backed
// defaults built from DB.
type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	Guard  StatusGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Guard.db == nil {
		d.Guard = NewStatusGuard(d.DB)
	}
	return d
}

// executeWrite runs fn in one transaction, maps the failure to a domain code
// and reports the outcome under op.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	started := time.Now()
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "adpack.write"
	}

	err := MapError(op, deps.Runner.InTx(ctx, fn))
	switch domainagg.CodeOf(err) {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeRetryable:
		deps.Hooks.IncRetry(op)
	}
	deps.Hooks.ObserveOperation(op, outcomeLabel(err), time.Since(started))
	if err != nil && deps.Log != nil {
		deps.Log.Debug("aggregate write failed", "op", op, "code", domainagg.CodeOf(err), "error", err)
	}
	return err
}

// outcomeLabel is the metric label for a mapped write error.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	if code := domainagg.CodeOf(MapError("adpack.outcome", err)); code != "" {
		return string(code)
	}
	return "failure"
}
