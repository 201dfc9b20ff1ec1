package db

import (
	"fmt"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&adpack.Pack{},
		&adpack.Variant{},
		&adpack.AdAsset{},
	); err != nil {
		return err
	}
	return EnsureAdPackIndexes(db)
}

// EnsureAdPackIndexes creates the partial indexes gorm tags cannot express.
// Both statements are valid on postgres and sqlite.
func EnsureAdPackIndexes(db *gorm.DB) error {
	// One winner per pack.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ad_variant_pack_winner
		ON ad_variant (pack_id)
		WHERE is_winner = true AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_ad_variant_pack_winner: %w", err)
	}

	// One live FINAL per pack.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ad_variant_pack_live_final
		ON ad_variant (pack_id)
		WHERE is_final = true AND status <> 'failed' AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_ad_variant_pack_live_final: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ad_pack_owner_created
		ON ad_pack (owner_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_ad_pack_owner_created: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
