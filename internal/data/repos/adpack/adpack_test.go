package adpack

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos/testutil"
	domain "github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
)

func TestPackRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewPackRepo(db, testutil.Logger(t))
	owner := uuid.New()
	created, err := repo.Create(dbc, &domain.Pack{
		OwnerID:     owner,
		ProductID:   "sku-1",
		ProductName: "Tote",
		Category:    domain.CategoryBags,
		Template:    domain.TemplateLuxury,
		Status:      domain.PackStatusGenerating,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("Create: id not assigned")
	}

	got, err := repo.LockByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("LockByID: %v", err)
	}
	if got == nil || got.OwnerID != owner {
		t.Fatalf("LockByID: unexpected %+v", got)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing): %v %+v", err, missing)
	}

	if err := repo.UpdateFields(dbc, created.ID, map[string]interface{}{"status": domain.PackStatusReady}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err = repo.GetByID(dbc, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.PackStatusReady {
		t.Fatalf("status: want=ready got=%s", got.Status)
	}

	list, err := repo.ListByOwner(dbc, owner, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByOwner: %v %d", err, len(list))
	}
}

func TestVariantRepoClearWinners(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	pack := testutil.SeedPack(t, ctx, tx, uuid.New())
	a := testutil.SeedVariant(t, ctx, tx, pack.ID, domain.VariantTypeHook, domain.VariantStatusShotsReady)
	b := testutil.SeedVariant(t, ctx, tx, pack.ID, domain.VariantTypeTrust, domain.VariantStatusShotsReady)

	repo := NewVariantRepo(db, testutil.Logger(t))
	if err := repo.UpdateFields(dbc, a.ID, map[string]interface{}{"is_winner": true}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	n, err := repo.ClearWinners(dbc, pack.ID, b.ID)
	if err != nil {
		t.Fatalf("ClearWinners: %v", err)
	}
	if n != 1 {
		t.Fatalf("ClearWinners: want=1 got=%d", n)
	}

	rows, err := repo.ListByPack(dbc, pack.ID)
	if err != nil {
		t.Fatalf("ListByPack: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListByPack: want=2 got=%d", len(rows))
	}
	if rows[0].VariantType != domain.VariantTypeHook || rows[1].VariantType != domain.VariantTypeTrust {
		t.Fatalf("ListByPack order: %s,%s", rows[0].VariantType, rows[1].VariantType)
	}
	for _, v := range rows {
		if v.IsWinner {
			t.Fatalf("variant %s still winner", v.ID)
		}
	}
}

func TestVariantRepoWinnerIndexRejectsSecondWinner(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	pack := testutil.SeedPack(t, ctx, tx, uuid.New())
	a := testutil.SeedVariant(t, ctx, tx, pack.ID, domain.VariantTypeHook, domain.VariantStatusShotsReady)
	b := testutil.SeedVariant(t, ctx, tx, pack.ID, domain.VariantTypeOffer, domain.VariantStatusShotsReady)

	repo := NewVariantRepo(db, testutil.Logger(t))
	if err := repo.UpdateFields(dbc, a.ID, map[string]interface{}{"is_winner": true}); err != nil {
		t.Fatalf("first winner: %v", err)
	}
	if err := repo.UpdateFields(dbc, b.ID, map[string]interface{}{"is_winner": true}); err == nil {
		t.Fatalf("expected unique violation for second winner")
	}
}

func TestAssetRepoLookupByKey(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewAssetRepo(db, testutil.Logger(t))
	owner := uuid.New()
	variantID := uuid.New()

	got, err := repo.GetByOwnerVariantShot(dbc, owner, variantID, domain.ShotTypeProof)
	if err != nil || got != nil {
		t.Fatalf("lookup before create: %v %+v", err, got)
	}

	row, err := repo.Create(dbc, &domain.AdAsset{
		OwnerID:   owner,
		VariantID: variantID,
		ShotType:  domain.ShotTypeProof,
		Kind:      domain.AssetKindImage,
		Role:      domain.ShotTypeProof.Role(),
		URL:       "https://cdn/proof.png",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err = repo.GetByOwnerVariantShot(dbc, owner, variantID, domain.ShotTypeProof)
	if err != nil || got == nil || got.ID != row.ID {
		t.Fatalf("lookup after create: %v %+v", err, got)
	}
	other, err := repo.GetByOwnerVariantShot(dbc, uuid.New(), variantID, domain.ShotTypeProof)
	if err != nil || other != nil {
		t.Fatalf("lookup with other owner: %v %+v", err, other)
	}

	list, err := repo.ListByVariant(dbc, owner, variantID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByVariant: %v %d", err, len(list))
	}
}
