package app

import (
	"gorm.io/gorm"

	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

type Repos struct {
	Packs    repos.PackRepo
	Variants repos.VariantRepo
	Assets   repos.AdAssetRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Packs:    repos.NewPackRepo(db, log),
		Variants: repos.NewVariantRepo(db, log),
		Assets:   repos.NewAdAssetRepo(db, log),
	}
}
