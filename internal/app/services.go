package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Monetiqai/Monetiq-sub003/internal/data/aggregates"
	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/observability"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
)

type Aggregates struct {
	Creation  domainagg.PackCreationAggregate
	Winner    domainagg.WinnerAggregate
	Lifecycle domainagg.VariantLifecycleAggregate
	Rollup    domainagg.PackRollupAggregate
	Promotion domainagg.PromotionAggregate
}

func wireAggregates(db *gorm.DB, log *logger.Logger, reposet Repos, metrics *observability.Metrics) Aggregates {
	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewObservabilityHooks(metrics)}
	aggs := Aggregates{
		Creation: aggregates.NewPackCreationAggregate(aggregates.PackCreationAggregateDeps{
			Base: base, Packs: reposet.Packs, Variants: reposet.Variants,
		}),
		Winner: aggregates.NewWinnerAggregate(aggregates.WinnerAggregateDeps{
			Base: base, Packs: reposet.Packs, Variants: reposet.Variants,
		}),
		Lifecycle: aggregates.NewVariantLifecycleAggregate(aggregates.VariantLifecycleAggregateDeps{
			Base: base, Packs: reposet.Packs, Variants: reposet.Variants,
		}),
		Rollup: aggregates.NewPackRollupAggregate(aggregates.PackRollupAggregateDeps{
			Base: base, Packs: reposet.Packs, Variants: reposet.Variants,
		}),
		Promotion: aggregates.NewPromotionAggregate(aggregates.PromotionAggregateDeps{
			Base: base, Packs: reposet.Packs, Variants: reposet.Variants,
		}),
	}
	for _, a := range []domainagg.Aggregate{aggs.Creation, aggs.Winner, aggs.Lifecycle, aggs.Rollup, aggs.Promotion} {
		c := a.Contract()
		log.Debug("aggregate ready", "name", c.Name, "tables", c.Tables)
	}
	return aggs
}

type Services struct {
	Prompts  *services.PromptCatalog
	Events   services.PackEventPublisher
	Pipeline services.VariantPipeline
	AdPack   services.AdPackService
}

// wireServices builds the pipeline first; the dispatcher is chosen by the
// caller because the Temporal worker needs the same pipeline instance.
func wireServices(log *logger.Logger, cfg Config, reposet Repos, aggs Aggregates, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")
	prompts, err := services.LoadPromptCatalog(log)
	if err != nil {
		return Services{}, fmt.Errorf("load prompt catalog: %w", err)
	}
	var storyboards *services.StoryboardComposer
	if cfg.StoryboardEnabled {
		storyboards, err = services.NewStoryboardComposer()
		if err != nil {
			return Services{}, fmt.Errorf("init storyboard composer: %w", err)
		}
	}
	events := services.NewBusPublisher(log, clients.Bus, metrics)
	pipeline := services.NewVariantPipeline(services.PipelineDeps{
		Log:         log,
		Packs:       reposet.Packs,
		Variants:    reposet.Variants,
		Lifecycle:   aggs.Lifecycle,
		Rollup:      aggs.Rollup,
		Provider:    services.NewOpenAIMediaProvider(clients.OpenAI),
		Store:       services.NewBucketMediaStore(clients.Bucket),
		Ledger:      services.NewAssetLedger(log, reposet.Assets, metrics),
		Events:      events,
		Storyboards: storyboards,
		Metrics:     metrics,
		Concurrency: cfg.VariantConcurrency,
	})
	return Services{Prompts: prompts, Events: events, Pipeline: pipeline}, nil
}

func wireAdPackService(log *logger.Logger, cfg Config, reposet Repos, aggs Aggregates, svcs Services, dispatcher services.GenerationDispatcher, metrics *observability.Metrics) services.AdPackService {
	return services.NewAdPackService(services.AdPackServiceDeps{
		Log: log,
		Config: services.AdPackConfig{
			FastModel:         cfg.FastModel,
			FinalModel:        cfg.FinalModel,
			WinnerMaxAttempts: cfg.WinnerMaxAttempts,
		},
		Packs:      reposet.Packs,
		Variants:   reposet.Variants,
		Assets:     reposet.Assets,
		Creation:   aggs.Creation,
		Winner:     aggs.Winner,
		Lifecycle:  aggs.Lifecycle,
		Rollup:     aggs.Rollup,
		Promotion:  aggs.Promotion,
		Prompts:    svcs.Prompts,
		Dispatcher: dispatcher,
		Events:     svcs.Events,
		Metrics:    metrics,
	})
}
