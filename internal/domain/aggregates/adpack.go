package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
)

var PackCreationAggregateContract = Contract{
	Name:      "AdPack.PackCreationAggregate",
	Invariant: "Creates a generating pack together with its FAST variants. Either all rows exist or none do.",
	Tables:    []string{"ad_pack", "ad_variant"},
}

type PackCreationAggregate interface {
	Aggregate

	Create(ctx context.Context, in CreatePackInput) error
}

type CreatePackInput struct {
	Pack     *adpack.Pack
	Variants []*adpack.Variant
}

var WinnerAggregateContract = Contract{
	Name:      "AdPack.WinnerAggregate",
	Invariant: "Owns the single-winner-per-pack invariant. Locks the pack row, clears siblings and sets the target in one transaction.",
	Tables:    []string{"ad_pack", "ad_variant"},
}

// WinnerAggregate owns winner selection.
//
// Write method failures return *aggregates.Error with codes:
// CodeNotFound, CodeForbidden, CodeInvalidTransition, CodeConflict, CodeRetryable, CodeInternal.
type WinnerAggregate interface {
	Aggregate

	MarkWinner(ctx context.Context, in MarkWinnerInput) (MarkWinnerResult, error)
}

type MarkWinnerInput struct {
	RequesterID uuid.UUID
	VariantID   uuid.UUID
}

type MarkWinnerResult struct {
	Pack     *adpack.Pack
	Variants []*adpack.Variant
	Changed  bool
}

var VariantLifecycleAggregateContract = Contract{
	Name:      "AdPack.VariantLifecycleAggregate",
	Invariant: "Owns the variant status machine and the embedded shot map. shots_ready is only written in the transaction that completes the map.",
	Tables:    []string{"ad_variant"},
}

// VariantLifecycleAggregate owns shot recording and status transitions for one variant.
type VariantLifecycleAggregate interface {
	Aggregate

	// RecordShot merges one shot into the variant and moves generating -> shots_ready when the map completes.
	RecordShot(ctx context.Context, in RecordShotInput) (RecordShotResult, error)

	// Validate moves an owned, complete shots_ready variant to shots_validated.
	Validate(ctx context.Context, in ValidateVariantInput) (*adpack.Variant, error)

	// Transition applies a forward status change, merging metadata.
	Transition(ctx context.Context, in TransitionVariantInput) (*adpack.Variant, error)

	// MergeMetadata merges keys into variant metadata without touching status.
	MergeMetadata(ctx context.Context, variantID uuid.UUID, patch map[string]any) error
}

type RecordShotInput struct {
	VariantID uuid.UUID
	Shot      adpack.Shot
}

type RecordShotResult struct {
	Variant   *adpack.Variant
	Completed bool
}

type ValidateVariantInput struct {
	RequesterID uuid.UUID
	VariantID   uuid.UUID
	ValidatedAt time.Time
}

type TransitionVariantInput struct {
	// RequesterID scopes the change to the pack owner. uuid.Nil skips the ownership check.
	RequesterID   uuid.UUID
	VariantID     uuid.UUID
	ToStatus      adpack.VariantStatus
	FailureReason string
	Metadata      map[string]any
}

var PackRollupAggregateContract = Contract{
	Name:      "AdPack.PackRollupAggregate",
	Invariant: "Derives pack status from variant statuses. Writes nothing when the status would not change.",
	Tables:    []string{"ad_pack"},
}

type PackRollupAggregate interface {
	Aggregate

	Rollup(ctx context.Context, packID uuid.UUID) (PackRollupResult, error)
}

type PackRollupResult struct {
	Pack     *adpack.Pack
	Variants []*adpack.Variant
	Changed  bool
}

var PromotionAggregateContract = Contract{
	Name:      "AdPack.PromotionAggregate",
	Invariant: "Creates the FINAL variant for a validated FAST winner. At most one live FINAL per pack.",
	Tables:    []string{"ad_variant"},
}

type PromotionAggregate interface {
	Aggregate

	Promote(ctx context.Context, in PromoteVariantInput) (*adpack.Variant, error)
}

type PromoteVariantInput struct {
	RequesterID uuid.UUID
	VariantID   uuid.UUID
	FinalModel  string
	Now         time.Time
}
