package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos"
	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
)

type PackCreationAggregateDeps struct {
	Base BaseDeps

	Packs    repos.PackRepo
	Variants repos.VariantRepo
}

type packCreationAggregate struct {
	deps PackCreationAggregateDeps
}

func NewPackCreationAggregate(deps PackCreationAggregateDeps) domainagg.PackCreationAggregate {
	deps.Base = deps.Base.withDefaults()
	return &packCreationAggregate{deps: deps}
}

func (a *packCreationAggregate) Contract() domainagg.Contract {
	return domainagg.PackCreationAggregateContract
}

func (a *packCreationAggregate) Create(ctx context.Context, in domainagg.CreatePackInput) error {
	const op = "AdPack.PackCreation.Create"
	if a.deps.Packs == nil || a.deps.Variants == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "pack creation repos not configured", nil)
	}
	if err := checkNewPack(in); err != nil {
		return domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.deps.Packs.Create(dbc, in.Pack); err != nil {
			return err
		}
		_, err := a.deps.Variants.Create(dbc, in.Variants)
		return err
	})
}

func checkNewPack(in domainagg.CreatePackInput) error {
	p := in.Pack
	switch {
	case p == nil:
		return fmt.Errorf("missing pack")
	case p.ID == uuid.Nil || p.OwnerID == uuid.Nil:
		return fmt.Errorf("pack needs id and owner")
	case p.Status != adpack.PackStatusGenerating:
		return fmt.Errorf("new pack must be generating, got %q", p.Status)
	case len(in.Variants) == 0:
		return fmt.Errorf("pack %s has no variants", p.ID)
	}
	for _, v := range in.Variants {
		if v == nil || v.PackID != p.ID {
			return fmt.Errorf("variant does not belong to pack %s", p.ID)
		}
		if v.IsFinal || v.Status != adpack.VariantStatusGenerating {
			return fmt.Errorf("variant %s must be a generating FAST variant", v.ID)
		}
	}
	return nil
}
