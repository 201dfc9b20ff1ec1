package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos"
	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/observability"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

type UpsertShotAssetInput struct {
	OwnerID     uuid.UUID
	PackID      uuid.UUID
	VariantID   uuid.UUID
	ShotType    adpack.ShotType
	ImageURL    string
	StorageKey  string
	Prompt      string
	SpatialRole string
	Metadata    map[string]any
}

// AssetLedger keeps one catalog entry per (owner, variant, shot type).
// It is a projection of the variant's shot map: failures are logged and
// reported as uuid.Nil, never returned.
type AssetLedger interface {
	UpsertShotAsset(ctx context.Context, in UpsertShotAssetInput) uuid.UUID
}

type assetLedger struct {
	log     *logger.Logger
	assets  repos.AdAssetRepo
	metrics *observability.Metrics
}

func NewAssetLedger(log *logger.Logger, assets repos.AdAssetRepo, metrics *observability.Metrics) AssetLedger {
	return &assetLedger{log: log.With("service", "AssetLedger"), assets: assets, metrics: metrics}
}

func (l *assetLedger) UpsertShotAsset(ctx context.Context, in UpsertShotAssetInput) uuid.UUID {
	id, err := l.upsert(ctx, in)
	if err != nil {
		l.log.Warn("asset ledger upsert failed",
			"owner_id", in.OwnerID,
			"variant_id", in.VariantID,
			"shot_type", in.ShotType,
			"error", err,
		)
		l.metrics.IncLedgerSoftFailure(string(in.ShotType))
		return uuid.Nil
	}
	return id
}

func (l *assetLedger) upsert(ctx context.Context, in UpsertShotAssetInput) (uuid.UUID, error) {
	dbc := dbctx.New(ctx)
	meta := map[string]any{}
	for k, v := range in.Metadata {
		meta[k] = v
	}
	meta["pack_id"] = in.PackID.String()
	meta["variant_id"] = in.VariantID.String()
	meta["shot_type"] = string(in.ShotType)

	existing, err := l.assets.GetByOwnerVariantShot(dbc, in.OwnerID, in.VariantID, in.ShotType)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		merged, err := adpack.MergeMetadata(existing.Metadata, meta)
		if err != nil {
			return uuid.Nil, err
		}
		if err := l.assets.UpdateFields(dbc, existing.ID, map[string]interface{}{
			"url":          strings.TrimSpace(in.ImageURL),
			"storage_key":  strings.TrimSpace(in.StorageKey),
			"prompt":       in.Prompt,
			"spatial_role": in.SpatialRole,
			"metadata":     merged,
			"updated_at":   time.Now().UTC(),
		}); err != nil {
			return uuid.Nil, err
		}
		return existing.ID, nil
	}

	raw, err := adpack.MergeMetadata(nil, meta)
	if err != nil {
		return uuid.Nil, err
	}
	row, err := l.assets.Create(dbc, &adpack.AdAsset{
		OwnerID:     in.OwnerID,
		VariantID:   in.VariantID,
		ShotType:    in.ShotType,
		Kind:        adpack.AssetKindImage,
		Role:        in.ShotType.Role(),
		URL:         strings.TrimSpace(in.ImageURL),
		StorageKey:  strings.TrimSpace(in.StorageKey),
		Prompt:      in.Prompt,
		SpatialRole: in.SpatialRole,
		Metadata:    raw,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}
