package repos

import (
	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"gorm.io/gorm"
)

type PackRepo = adpack.PackRepo
type VariantRepo = adpack.VariantRepo
type AdAssetRepo = adpack.AssetRepo

func NewPackRepo(db *gorm.DB, baseLog *logger.Logger) PackRepo { return adpack.NewPackRepo(db, baseLog) }
func NewVariantRepo(db *gorm.DB, baseLog *logger.Logger) VariantRepo {
	return adpack.NewVariantRepo(db, baseLog)
}
func NewAdAssetRepo(db *gorm.DB, baseLog *logger.Logger) AdAssetRepo {
	return adpack.NewAssetRepo(db, baseLog)
}
