package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

type countingPipeline struct {
	mu    sync.Mutex
	packs []uuid.UUID
	ctxOK bool
}

func (p *countingPipeline) RunVariant(context.Context, uuid.UUID) error { return nil }

func (p *countingPipeline) FinishPack(context.Context, uuid.UUID) (adpack.PackStatus, error) {
	return adpack.PackStatusReady, nil
}

func (p *countingPipeline) RunPack(ctx context.Context, packID uuid.UUID, _ []uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.packs = append(p.packs, packID)
	p.ctxOK = ctx.Err() == nil
	return nil
}

func TestInProcessDispatcherOutlivesRequest(t *testing.T) {
	pipe := &countingPipeline{}
	d := NewInProcessDispatcher(logger.Nop(), pipe)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	packID := uuid.New()
	runID, err := d.Dispatch(ctx, GenerationJob{PackID: packID, VariantIDs: []uuid.UUID{uuid.New()}})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Fatalf("run id %q: %v", runID, err)
	}
	d.Wait()

	if len(pipe.packs) != 1 || pipe.packs[0] != packID {
		t.Fatalf("packs run: %v", pipe.packs)
	}
	if !pipe.ctxOK {
		t.Fatalf("run context was canceled with the request")
	}
}
