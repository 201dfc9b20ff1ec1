package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos"
	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/observability"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime"
)

type AdPackConfig struct {
	FastModel         string
	FinalModel        string
	WinnerMaxAttempts int
	WinnerRetryDelay  time.Duration
}

type GenerateInput struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Category    string `json:"category"`
	Template    string `json:"template"`
}

type ShotPlan struct {
	ShotType    adpack.ShotType `json:"shotType"`
	SpatialRole string          `json:"spatialRole"`
	Prompt      string          `json:"prompt"`
}

type VariantPlan struct {
	VariantID   uuid.UUID          `json:"variantId"`
	VariantType adpack.VariantType `json:"variantType"`
	Model       string             `json:"model"`
	Angle       string             `json:"angle,omitempty"`
	Shots       []ShotPlan         `json:"shots"`
}

type ShotView struct {
	VariantID uuid.UUID       `json:"variantId"`
	ShotType  adpack.ShotType `json:"shotType"`
	ImageURL  string          `json:"imageUrl"`
}

type GenerateTotals struct {
	Variants      int `json:"variants"`
	Shots         int `json:"shots"`
	ShotsRendered int `json:"shotsRendered"`
	Failed        int `json:"failed"`
}

type GenerateResult struct {
	GenerationID uuid.UUID      `json:"generationId"`
	RunID        string         `json:"runId"`
	Plan         []VariantPlan  `json:"plan"`
	Shots        []ShotView     `json:"shots"`
	Status       string         `json:"status"`
	Totals       GenerateTotals `json:"totals"`
	Error        string         `json:"error,omitempty"`
}

type PackView struct {
	Pack     *adpack.Pack      `json:"pack"`
	Variants []*adpack.Variant `json:"variants"`
}

type RenderOutcome struct {
	Succeeded bool   `json:"succeeded"`
	VideoURL  string `json:"videoUrl,omitempty"`
	Error     string `json:"error,omitempty"`
}

type AdPackService interface {
	Generate(ctx context.Context, requesterID uuid.UUID, in GenerateInput) (*GenerateResult, error)
	GetPack(ctx context.Context, requesterID, packID uuid.UUID) (*PackView, error)
	ListPacks(ctx context.Context, requesterID uuid.UUID, limit int) ([]*adpack.Pack, error)
	MarkWinner(ctx context.Context, requesterID, variantID uuid.UUID) (*PackView, error)
	ValidateShots(ctx context.Context, requesterID, variantID uuid.UUID) (*adpack.Variant, error)
	Promote(ctx context.Context, requesterID, variantID uuid.UUID) (*adpack.Variant, error)
	ReportRenderOutcome(ctx context.Context, requesterID, variantID uuid.UUID, in RenderOutcome) (*adpack.Variant, error)
	ListAssets(ctx context.Context, requesterID, variantID uuid.UUID) ([]*adpack.AdAsset, error)
}

type AdPackServiceDeps struct {
	Log        *logger.Logger
	Config     AdPackConfig
	Packs      repos.PackRepo
	Variants   repos.VariantRepo
	Assets     repos.AdAssetRepo
	Creation   domainagg.PackCreationAggregate
	Winner     domainagg.WinnerAggregate
	Lifecycle  domainagg.VariantLifecycleAggregate
	Rollup     domainagg.PackRollupAggregate
	Promotion  domainagg.PromotionAggregate
	Prompts    *PromptCatalog
	Dispatcher GenerationDispatcher
	Events     PackEventPublisher
	Metrics    *observability.Metrics
}

type adPackService struct {
	deps AdPackServiceDeps
	log  *logger.Logger
}

func NewAdPackService(deps AdPackServiceDeps) AdPackService {
	if deps.Events == nil {
		deps.Events = NopPublisher()
	}
	if deps.Config.WinnerMaxAttempts < 1 {
		deps.Config.WinnerMaxAttempts = 3
	}
	if deps.Config.WinnerRetryDelay <= 0 {
		deps.Config.WinnerRetryDelay = 25 * time.Millisecond
	}
	return &adPackService{deps: deps, log: deps.Log.With("service", "AdPackService")}
}

func validationError(op, msg string) error {
	return domainagg.NewError(domainagg.CodeValidation, op, msg, nil)
}

func (s *adPackService) Generate(ctx context.Context, requesterID uuid.UUID, in GenerateInput) (*GenerateResult, error) {
	const op = "AdPack.Generate"
	productID := strings.TrimSpace(in.ProductID)
	productName := strings.TrimSpace(in.ProductName)
	if productID == "" {
		return nil, validationError(op, "productId is required")
	}
	if productName == "" {
		return nil, validationError(op, "productName is required")
	}
	category, ok := adpack.ParseCategory(in.Category)
	if !ok {
		return nil, validationError(op, fmt.Sprintf("invalid category %q", in.Category))
	}
	template, ok := adpack.ParseTemplate(in.Template)
	if !ok {
		return nil, validationError(op, fmt.Sprintf("invalid template %q", in.Template))
	}
	if requesterID == uuid.Nil {
		return nil, validationError(op, "missing requester")
	}

	now := time.Now().UTC()
	pack := &adpack.Pack{
		ID:          uuid.New(),
		OwnerID:     requesterID,
		ProductID:   productID,
		ProductName: productName,
		Category:    category,
		Template:    template,
		Status:      adpack.PackStatusGenerating,
	}
	meta, err := adpack.MergeMetadata(nil, map[string]any{"fast_model": s.deps.Config.FastModel, "requested_at": now.Format(time.RFC3339Nano)})
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	pack.Metadata = meta

	result := &GenerateResult{GenerationID: pack.ID}
	variants := make([]*adpack.Variant, 0, len(adpack.VariantTypes))
	for _, vt := range adpack.VariantTypes {
		payload, err := s.deps.Prompts.BuildPayload(PayloadInput{
			ProductID:   productID,
			ProductName: productName,
			Category:    category,
			Template:    template,
			VariantType: vt,
			Model:       s.deps.Config.FastModel,
			Now:         now,
		})
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		raw, err := payload.JSON()
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		v := &adpack.Variant{
			ID:          uuid.New(),
			PackID:      pack.ID,
			VariantType: vt,
			Status:      adpack.VariantStatusGenerating,
			Payload:     raw,
		}
		variants = append(variants, v)
		result.Plan = append(result.Plan, planFor(v.ID, payload))
	}

	if err := s.deps.Creation.Create(ctx, domainagg.CreatePackInput{Pack: pack, Variants: variants}); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ID)
	}
	runID, err := s.deps.Dispatcher.Dispatch(ctx, GenerationJob{PackID: pack.ID, VariantIDs: ids})
	if err != nil {
		s.log.Error("generation dispatch failed", "pack_id", pack.ID, "error", err)
		s.abandon(ctx, pack.ID, ids)
		result.Error = "generation could not be started"
	}
	result.RunID = runID
	s.log.Info("pack generation requested", "pack_id", pack.ID, "run_id", runID, "category", category, "template", template)

	view, err := s.GetPack(ctx, requesterID, pack.ID)
	if err != nil {
		return nil, err
	}
	s.summarize(result, view)
	return result, nil
}

// abandon fails every variant and the pack when no run could be started.
func (s *adPackService) abandon(ctx context.Context, packID uuid.UUID, variantIDs []uuid.UUID) {
	for _, id := range variantIDs {
		if _, err := s.deps.Lifecycle.Transition(ctx, domainagg.TransitionVariantInput{
			VariantID:     id,
			ToStatus:      adpack.VariantStatusFailed,
			FailureReason: "dispatch_failed",
		}); err != nil {
			s.log.Warn("could not fail undispatched variant", "variant_id", id, "error", err)
		}
	}
	if err := s.deps.Packs.UpdateFields(dbctx.New(ctx), packID, map[string]interface{}{
		"status":     adpack.PackStatusFailed,
		"updated_at": time.Now().UTC(),
	}); err != nil {
		s.log.Warn("could not fail undispatched pack", "pack_id", packID, "error", err)
	}
}

func (s *adPackService) summarize(result *GenerateResult, view *PackView) {
	result.Status = string(view.Pack.Status)
	result.Shots = []ShotView{}
	for _, v := range view.Variants {
		result.Totals.Variants++
		result.Totals.Shots += len(adpack.RequiredShots)
		if v.Status == adpack.VariantStatusFailed {
			result.Totals.Failed++
		}
		shots, err := v.ShotMap()
		if err != nil {
			continue
		}
		for _, st := range adpack.RequiredShots {
			if shots.Present(st) {
				result.Totals.ShotsRendered++
				result.Shots = append(result.Shots, ShotView{VariantID: v.ID, ShotType: st, ImageURL: shots[st].ImageURL})
			}
		}
	}
}

func planFor(id uuid.UUID, p adpack.GenerationPayload) VariantPlan {
	plan := VariantPlan{VariantID: id, VariantType: p.VariantType, Model: p.Model, Angle: p.Angle}
	for _, st := range adpack.RequiredShots {
		sp := p.Shots[st]
		plan.Shots = append(plan.Shots, ShotPlan{ShotType: st, SpatialRole: sp.SpatialRole, Prompt: sp.Prompt})
	}
	return plan
}

// GetPack rolls the pack status up before returning it.
func (s *adPackService) GetPack(ctx context.Context, requesterID, packID uuid.UUID) (*PackView, error) {
	const op = "AdPack.GetPack"
	if err := s.requireOwnedPack(ctx, op, requesterID, packID); err != nil {
		return nil, err
	}
	res, err := s.deps.Rollup.Rollup(ctx, packID)
	if err != nil {
		return nil, err
	}
	if res.Changed {
		s.deps.Events.Publish(ctx, realtime.SSEEventPackStatusChanged, realtime.PackEvent{PackID: packID, Status: string(res.Pack.Status)})
	}
	return &PackView{Pack: res.Pack, Variants: res.Variants}, nil
}

func (s *adPackService) ListPacks(ctx context.Context, requesterID uuid.UUID, limit int) ([]*adpack.Pack, error) {
	const op = "AdPack.ListPacks"
	packs, err := s.deps.Packs.ListByOwner(dbctx.New(ctx), requesterID, limit)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return packs, nil
}

// MarkWinner retries conflicts; each attempt is a fresh transaction.
func (s *adPackService) MarkWinner(ctx context.Context, requesterID, variantID uuid.UUID) (*PackView, error) {
	in := domainagg.MarkWinnerInput{RequesterID: requesterID, VariantID: variantID}
	for attempt := 1; ; attempt++ {
		res, err := s.deps.Winner.MarkWinner(ctx, in)
		if err == nil {
			if res.Changed {
				s.deps.Events.Publish(ctx, realtime.SSEEventWinnerChanged, realtime.PackEvent{
					PackID:    res.Pack.ID,
					VariantID: &variantID,
				})
			}
			return &PackView{Pack: res.Pack, Variants: res.Variants}, nil
		}
		code := domainagg.CodeOf(err)
		if (code != domainagg.CodeConflict && code != domainagg.CodeRetryable) || attempt >= s.deps.Config.WinnerMaxAttempts {
			return nil, err
		}
		s.deps.Metrics.IncWinnerRetry()
		s.log.Warn("winner selection conflicted; retrying", "variant_id", variantID, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * s.deps.Config.WinnerRetryDelay):
		}
	}
}

func (s *adPackService) ValidateShots(ctx context.Context, requesterID, variantID uuid.UUID) (*adpack.Variant, error) {
	const op = "AdPack.ValidateShots"
	before, err := s.deps.Variants.GetByID(dbctx.New(ctx), variantID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	v, err := s.deps.Lifecycle.Validate(ctx, domainagg.ValidateVariantInput{
		RequesterID: requesterID,
		VariantID:   variantID,
		ValidatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if before == nil || before.Status != v.Status {
		s.deps.Metrics.IncVariantTransition(string(v.Status))
		s.deps.Events.Publish(ctx, realtime.SSEEventVariantStatusChanged, variantEvent(v))
	}
	return v, nil
}

func (s *adPackService) Promote(ctx context.Context, requesterID, variantID uuid.UUID) (*adpack.Variant, error) {
	final, err := s.deps.Promotion.Promote(ctx, domainagg.PromoteVariantInput{
		RequesterID: requesterID,
		VariantID:   variantID,
		FinalModel:  s.deps.Config.FinalModel,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	ev := variantEvent(final)
	ev.Data["sourceVariantId"] = variantID
	s.deps.Events.Publish(ctx, realtime.SSEEventVariantPromoted, ev)

	runID, err := s.deps.Dispatcher.Dispatch(ctx, GenerationJob{PackID: final.PackID, VariantIDs: []uuid.UUID{final.ID}})
	if err != nil {
		s.log.Error("final generation dispatch failed", "variant_id", final.ID, "error", err)
		if failed, tErr := s.deps.Lifecycle.Transition(ctx, domainagg.TransitionVariantInput{
			VariantID:     final.ID,
			ToStatus:      adpack.VariantStatusFailed,
			FailureReason: "dispatch_failed",
		}); tErr == nil {
			return failed, nil
		}
		return final, nil
	}
	s.log.Info("final variant promoted", "source_variant_id", variantID, "variant_id", final.ID, "run_id", runID)
	return final, nil
}

// ReportRenderOutcome closes out a variant whose shots are done.
func (s *adPackService) ReportRenderOutcome(ctx context.Context, requesterID, variantID uuid.UUID, in RenderOutcome) (*adpack.Variant, error) {
	const op = "AdPack.ReportRenderOutcome"
	to := adpack.VariantStatusReady
	if !in.Succeeded {
		to = adpack.VariantStatusFailed
	}
	current, err := s.deps.Variants.GetByID(dbctx.New(ctx), variantID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if current != nil && current.Status == adpack.VariantStatusGenerating {
		// Existence and ownership are still checked by the transition below.
		if err := s.requireOwnedVariant(ctx, op, requesterID, current); err != nil {
			return nil, err
		}
		return nil, domainagg.InvalidTransition(op, adpack.ReasonIllegalTransition, nil,
			&adpack.TransitionError{From: current.Status, To: to, Reason: adpack.ReasonIllegalTransition})
	}

	outcome := map[string]any{
		"succeeded":   in.Succeeded,
		"reported_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if u := strings.TrimSpace(in.VideoURL); u != "" {
		outcome["video_url"] = u
	}
	input := domainagg.TransitionVariantInput{
		RequesterID: requesterID,
		VariantID:   variantID,
		ToStatus:    to,
		Metadata:    map[string]any{"render_outcome": outcome},
	}
	if !in.Succeeded {
		input.FailureReason = "render_failed"
		if msg := strings.TrimSpace(in.Error); msg != "" {
			outcome["error"] = msg
		}
	}
	v, err := s.deps.Lifecycle.Transition(ctx, input)
	if err != nil {
		return nil, err
	}
	if current == nil || current.Status != v.Status {
		s.deps.Metrics.IncVariantTransition(string(v.Status))
		s.deps.Events.Publish(ctx, realtime.SSEEventVariantStatusChanged, variantEvent(v))
	}
	return v, nil
}

func (s *adPackService) ListAssets(ctx context.Context, requesterID, variantID uuid.UUID) ([]*adpack.AdAsset, error) {
	const op = "AdPack.ListAssets"
	v, err := s.deps.Variants.GetByID(dbctx.New(ctx), variantID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if err := s.requireOwnedVariant(ctx, op, requesterID, v); err != nil {
		return nil, err
	}
	assets, err := s.deps.Assets.ListByVariant(dbctx.New(ctx), requesterID, variantID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return assets, nil
}

func (s *adPackService) requireOwnedPack(ctx context.Context, op string, requesterID, packID uuid.UUID) error {
	pack, err := s.deps.Packs.GetByID(dbctx.New(ctx), packID)
	if err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if pack == nil || pack.OwnerID != requesterID {
		return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("pack not found: %s", packID), nil)
	}
	return nil
}

func (s *adPackService) requireOwnedVariant(ctx context.Context, op string, requesterID uuid.UUID, v *adpack.Variant) error {
	if v == nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, "variant not found", nil)
	}
	if err := s.requireOwnedPack(ctx, op, requesterID, v.PackID); err != nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", v.ID), nil)
	}
	return nil
}
