package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos"
	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/observability"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime"
)

// VariantPipeline renders, stores and records the shots of generating variants.
type VariantPipeline interface {
	RunVariant(ctx context.Context, variantID uuid.UUID) error
	RunPack(ctx context.Context, packID uuid.UUID, variantIDs []uuid.UUID) error

	// FinishPack rolls the pack status up once no variant task is left.
	FinishPack(ctx context.Context, packID uuid.UUID) (adpack.PackStatus, error)
}

type PipelineDeps struct {
	Log         *logger.Logger
	Packs       repos.PackRepo
	Variants    repos.VariantRepo
	Lifecycle   domainagg.VariantLifecycleAggregate
	Rollup      domainagg.PackRollupAggregate
	Provider    MediaProvider
	Store       MediaStore
	Ledger      AssetLedger
	Events      PackEventPublisher
	Storyboards *StoryboardComposer
	Metrics     *observability.Metrics
	Concurrency int
}

type variantPipeline struct {
	deps PipelineDeps
	log  *logger.Logger
}

func NewVariantPipeline(deps PipelineDeps) VariantPipeline {
	if deps.Events == nil {
		deps.Events = NopPublisher()
	}
	if deps.Concurrency < 1 {
		deps.Concurrency = 4
	}
	return &variantPipeline{deps: deps, log: deps.Log.With("service", "VariantPipeline")}
}

// RunPack runs one task per variant. A failed variant never stops its siblings.
func (p *variantPipeline) RunPack(ctx context.Context, packID uuid.UUID, variantIDs []uuid.UUID) error {
	var g errgroup.Group
	g.SetLimit(p.deps.Concurrency)
	for _, id := range variantIDs {
		id := id
		g.Go(func() error {
			if err := p.RunVariant(ctx, id); err != nil {
				p.log.Warn("variant generation failed", "pack_id", packID, "variant_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	_, err := p.FinishPack(ctx, packID)
	return err
}

func (p *variantPipeline) FinishPack(ctx context.Context, packID uuid.UUID) (adpack.PackStatus, error) {
	res, err := p.deps.Rollup.Rollup(ctx, packID)
	if err != nil {
		return "", err
	}
	if res.Changed {
		p.deps.Events.Publish(ctx, realtime.SSEEventPackStatusChanged, realtime.PackEvent{PackID: packID, Status: string(res.Pack.Status)})
	}
	return res.Pack.Status, nil
}

type shotRun struct {
	pack    *adpack.Pack
	variant *adpack.Variant
	payload adpack.GenerationPayload
	tier    string

	mu        sync.Mutex
	images    map[adpack.ShotType][]byte
	completed bool
}

func (r *shotRun) keep(st adpack.ShotType, img []byte, completed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[st] = img
	if completed {
		r.completed = true
	}
}

// RunVariant renders the hook first, then the remaining shots concurrently with
// the hook as reference. Shots already recorded are not rendered again.
func (p *variantPipeline) RunVariant(ctx context.Context, variantID uuid.UUID) error {
	const op = "AdPack.Pipeline.RunVariant"
	dbc := dbctx.New(ctx)
	v, err := p.deps.Variants.GetByID(dbc, variantID)
	if err != nil {
		return err
	}
	if v == nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", variantID), nil)
	}
	if v.Status != adpack.VariantStatusGenerating {
		p.log.Debug("variant not generating; skipping", "variant_id", v.ID, "status", v.Status)
		return nil
	}
	pack, err := p.deps.Packs.GetByID(dbc, v.PackID)
	if err != nil {
		return err
	}
	if pack == nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("pack not found: %s", v.PackID), nil)
	}
	payload, err := v.GenerationPayload()
	if err != nil || len(payload.Shots) == 0 {
		return p.fail(ctx, v, "", fmt.Errorf("variant has no usable payload: %v", err))
	}
	shots, err := v.ShotMap()
	if err != nil {
		return p.fail(ctx, v, "", fmt.Errorf("variant has unreadable shots: %w", err))
	}

	run := &shotRun{pack: pack, variant: v, payload: payload, tier: "fast", images: map[adpack.ShotType][]byte{}}
	if v.IsFinal {
		run.tier = "final"
	}

	var hook RenderedImage
	if shots.Present(adpack.ShotTypeHook) {
		raw, err := p.load(ctx, shots[adpack.ShotTypeHook].StorageKey)
		if err != nil {
			return p.fail(ctx, v, adpack.ShotTypeHook, err)
		}
		hook = RenderedImage{Name: "hook.png", Bytes: raw, MimeType: "image/png"}
		run.keep(adpack.ShotTypeHook, raw, false)
	} else {
		hook, err = p.renderShot(ctx, run, adpack.ShotTypeHook, nil)
		if err != nil {
			return p.fail(ctx, v, adpack.ShotTypeHook, err)
		}
	}

	var (
		g        errgroup.Group
		failMu   sync.Mutex
		failShot adpack.ShotType
		failErr  error
	)
	for _, st := range adpack.RequiredShots[1:] {
		st := st
		if shots.Present(st) {
			continue
		}
		g.Go(func() error {
			if _, err := p.renderShot(ctx, run, st, []RenderedImage{hook}); err != nil {
				failMu.Lock()
				if failErr == nil {
					failShot, failErr = st, err
				}
				failMu.Unlock()
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return p.fail(ctx, v, failShot, failErr)
	}

	if run.completed {
		v.Status = adpack.VariantStatusShotsReady
		p.deps.Metrics.IncVariantTransition(string(adpack.VariantStatusShotsReady))
		p.deps.Events.Publish(ctx, realtime.SSEEventVariantStatusChanged, variantEvent(v))
		p.attachStoryboard(ctx, run)
	}
	return nil
}

func (p *variantPipeline) renderShot(ctx context.Context, run *shotRun, st adpack.ShotType, refs []RenderedImage) (RenderedImage, error) {
	start := time.Now()
	prompt := run.payload.Shots[st]
	if strings.TrimSpace(prompt.Prompt) == "" {
		return RenderedImage{}, fmt.Errorf("payload has no prompt for %s shot", st)
	}

	img, err := p.deps.Provider.RenderShot(ctx, RenderRequest{
		Model:       run.payload.Model,
		Prompt:      prompt.Prompt,
		AspectRatio: run.payload.AspectRatio,
		References:  refs,
	})
	if err != nil {
		p.deps.Metrics.ObserveShotRender(run.tier, string(st), "render_error", time.Since(start))
		return RenderedImage{}, fmt.Errorf("render %s shot: %w", st, err)
	}
	img.Name = string(st) + ".png"

	key := fmt.Sprintf("packs/%s/%s/%s/%s_%d.png", run.pack.ID, run.variant.ID, run.tier, st, time.Now().UnixNano())
	obj, err := p.deps.Store.Store(ctx, ObjectKindShot, key, img.Bytes)
	if err != nil {
		p.deps.Metrics.ObserveShotRender(run.tier, string(st), "store_error", time.Since(start))
		return RenderedImage{}, fmt.Errorf("store %s shot: %w", st, err)
	}

	res, err := p.deps.Lifecycle.RecordShot(ctx, domainagg.RecordShotInput{
		VariantID: run.variant.ID,
		Shot: adpack.Shot{
			ShotType:    st,
			ImageURL:    obj.URL,
			StorageKey:  obj.Key,
			Prompt:      prompt.Prompt,
			SpatialRole: prompt.SpatialRole,
			Metadata: map[string]any{
				"model":     run.payload.Model,
				"mime_type": img.MimeType,
			},
		},
	})
	if err != nil {
		if delErr := p.deps.Store.Delete(ctx, ObjectKindShot, obj.Key); delErr != nil {
			p.log.Warn("orphaned shot object", "key", obj.Key, "error", delErr)
		}
		p.deps.Metrics.ObserveShotRender(run.tier, string(st), "record_error", time.Since(start))
		return RenderedImage{}, err
	}
	p.deps.Metrics.ObserveShotRender(run.tier, string(st), "ok", time.Since(start))
	run.keep(st, img.Bytes, res.Completed)

	if p.deps.Ledger != nil {
		p.deps.Ledger.UpsertShotAsset(ctx, UpsertShotAssetInput{
			OwnerID:     run.pack.OwnerID,
			PackID:      run.pack.ID,
			VariantID:   run.variant.ID,
			ShotType:    st,
			ImageURL:    obj.URL,
			StorageKey:  obj.Key,
			Prompt:      prompt.Prompt,
			SpatialRole: prompt.SpatialRole,
			Metadata:    map[string]any{"tier": run.tier, "model": run.payload.Model},
		})
	}

	vid := run.variant.ID
	p.deps.Events.Publish(ctx, realtime.SSEEventShotCompleted, realtime.PackEvent{
		PackID:    run.pack.ID,
		VariantID: &vid,
		ShotType:  string(st),
		Data:      map[string]any{"imageUrl": obj.URL},
	})
	return img, nil
}

// fail marks the variant failed. The provider's error text stays in logs.
func (p *variantPipeline) fail(ctx context.Context, v *adpack.Variant, st adpack.ShotType, cause error) error {
	const op = "AdPack.Pipeline.RunVariant"
	reason := "generation_failed"
	meta := map[string]any{"failed_at": time.Now().UTC().Format(time.RFC3339Nano)}
	if st != "" {
		reason = fmt.Sprintf("%s_shot_failed", st)
		meta["failed_shot"] = string(st)
	}
	p.log.Warn("variant generation failed", "variant_id", v.ID, "shot_type", st, "error", cause)

	updated, err := p.deps.Lifecycle.Transition(ctx, domainagg.TransitionVariantInput{
		VariantID:     v.ID,
		ToStatus:      adpack.VariantStatusFailed,
		FailureReason: reason,
		Metadata:      meta,
	})
	if err != nil {
		p.log.Error("could not mark variant failed", "variant_id", v.ID, "error", err)
	} else {
		p.deps.Metrics.IncVariantTransition(string(adpack.VariantStatusFailed))
		p.deps.Events.Publish(ctx, realtime.SSEEventVariantStatusChanged, variantEvent(updated))
	}
	return domainagg.NewError(domainagg.CodeCollaboratorFailure, op, reason, cause)
}

func (p *variantPipeline) load(ctx context.Context, key string) ([]byte, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("shot has no storage key")
	}
	rc, err := p.deps.Store.Open(ctx, ObjectKindShot, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// attachStoryboard is best-effort; a failure leaves the variant untouched.
func (p *variantPipeline) attachStoryboard(ctx context.Context, run *shotRun) {
	if p.deps.Storyboards == nil {
		return
	}
	run.mu.Lock()
	images := make(map[adpack.ShotType][]byte, len(run.images))
	for k, b := range run.images {
		images[k] = b
	}
	run.mu.Unlock()

	title := fmt.Sprintf("%s / %s", run.payload.ProductName, run.variant.VariantType)
	sheet, err := p.deps.Storyboards.Compose(title, images)
	if err != nil {
		p.log.Warn("storyboard compose failed", "variant_id", run.variant.ID, "error", err)
		return
	}
	key := fmt.Sprintf("%s/%s_%s.png", run.pack.ID, run.variant.ID, run.tier)
	obj, err := p.deps.Store.Store(ctx, ObjectKindStoryboard, key, sheet)
	if err != nil {
		p.log.Warn("storyboard upload failed", "variant_id", run.variant.ID, "error", err)
		return
	}
	if err := p.deps.Lifecycle.MergeMetadata(ctx, run.variant.ID, map[string]any{"storyboard_url": obj.URL}); err != nil {
		p.log.Warn("storyboard metadata merge failed", "variant_id", run.variant.ID, "error", err)
	}
}
