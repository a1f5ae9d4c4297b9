// Package pipeline orchestrates the five-stage reconstruction: participant
// resolution and stage planning run concurrently, extraction fills the
// skeleton, fact checking verifies every episode, and quality review
// produces the terminal cascade. The pipeline always terminates with some
// cascade plus an itemized account of everything that could not be grounded.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/avolkhin/fincascade/internal/cache"
	"github.com/avolkhin/fincascade/internal/check"
	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/extract"
	"github.com/avolkhin/fincascade/internal/llm"
	"github.com/avolkhin/fincascade/internal/model"
	"github.com/avolkhin/fincascade/internal/plan"
	"github.com/avolkhin/fincascade/internal/resolve"
	"github.com/avolkhin/fincascade/internal/review"
	"github.com/avolkhin/fincascade/internal/worker"
)

// Pipeline wires the components for one or more reconstruction runs.
type Pipeline struct {
	config   *model.Config
	logger   *zap.Logger
	provider llm.Provider
	store    resolve.Store
	// Participant store could not be opened; every run is flagged degraded.
	degraded bool
}

// New builds a pipeline from configuration: oracle provider (cached when
// enabled), durable participant store, and the stage components.
func New(cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.Oracle))
	if err != nil {
		return nil, fmt.Errorf("create oracle provider: %w", err)
	}
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = filepath.Join(dataDir(), "cache")
		}
		layered := cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		provider = llm.NewCachingProvider(provider, layered, cfg.Oracle.Model, cfg.Cache.DiskTTL)
	}

	storePath := cfg.Storage.Path
	if storePath == "" {
		storePath = filepath.Join(dataDir(), "participants.db")
	}
	store, err := resolve.NewSQLiteStore(storePath)
	if err != nil {
		// Degraded from the start: the resolver falls back to memory and
		// the condition is flagged on the cascade.
		logger.Warn("participant store unavailable, starting degraded", zap.Error(err))
		return &Pipeline{config: cfg, logger: logger, provider: provider, degraded: true}, nil
	}

	return &Pipeline{
		config:   cfg,
		logger:   logger,
		provider: provider,
		store:    store,
	}, nil
}

// Close releases the participant store.
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// Input is one reconstruction request: evidence, the event-level prior, and
// an id for the participant namespace.
type Input struct {
	EventID    string
	Evidence   *evidence.Store
	Recognizer model.FinanceEventRecognizer
}

// Run executes the full reconstruction. It is cancellable between phases;
// per-episode oracle deadlines come from the oracle timeout configuration.
func (p *Pipeline) Run(ctx context.Context, in Input) (model.EventCascade, error) {
	if in.Evidence == nil || in.Evidence.Len() == 0 {
		return model.EventCascade{}, fmt.Errorf("no evidence to reconstruct from")
	}
	if in.EventID == "" {
		return model.EventCascade{}, fmt.Errorf("event id is required")
	}

	resolver := p.newResolver()
	planner := plan.NewPlanner(p.config.Thresholds.MinScenarioConfidenceForStaging, p.logger)
	checker := check.NewChecker(in.Evidence, p.config.SourceReliabilityWeights,
		p.config.Thresholds.MinVerificationConfidence, p.logger)
	reviewer := review.NewReviewer(p.config.Thresholds.MinScenarioCoverageThreshold, p.logger)
	extractor := extract.NewExtractor(p.provider, resolver, in.Evidence,
		p.config.Thresholds.MinExtractionConfidence,
		p.config.Concurrency.ExtractionWorkers, p.logger)

	// Resolution and planning are independent; extraction blocks on both.
	var stages []model.EventStage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := resolver.ResolveText(gctx, in.EventID, in.Evidence.Documents())
		if err != nil {
			return fmt.Errorf("resolve participants: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		stages = planner.Plan(in.Recognizer)
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.EventCascade{}, err
	}

	stages, err := extractor.Extract(ctx, in.EventID, in.Recognizer, stages)
	if err != nil {
		return model.EventCascade{}, fmt.Errorf("extract episodes: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return model.EventCascade{}, err
	}

	if err := p.checkAll(ctx, checker, stages); err != nil {
		return model.EventCascade{}, err
	}

	dropped, err := p.retryRejected(ctx, in, extractor, checker, stages)
	if err != nil {
		return model.EventCascade{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.EventCascade{}, err
	}

	// Review is the synchronization barrier: every episode is in its final
	// Verified/Rejected state by this point.
	cascade := reviewer.Review(in.EventID, in.Recognizer, stages, dropped, p.degraded || resolver.Degraded())
	return cascade, nil
}

func (p *Pipeline) newResolver() *resolve.Resolver {
	if p.store == nil {
		r := resolve.NewResolver(resolve.NewMemoryStore(), p.logger, p.config.Storage.MaxRetries)
		return r
	}
	return resolve.NewResolver(p.store, p.logger, p.config.Storage.MaxRetries)
}

// checkAll fact-checks every extracted episode on the worker pool. Jobs are
// submitted from a goroutine while this routine drains results, so batches
// larger than the pool's channel buffers cannot wedge Submit behind a full
// results channel; write-back stays under this single reader.
func (p *Pipeline) checkAll(ctx context.Context, checker *check.Checker, stages []model.EventStage) error {
	pool := worker.NewPool(p.config.Concurrency.FactCheckWorkers)
	pool.Start()

	go func() {
		for si := range stages {
			for ei := range stages[si].Episodes {
				pool.Submit(&worker.CheckJob{
					StageIndex:   si,
					EpisodeIndex: ei,
					Episode:      stages[si].Episodes[ei],
					Checker:      checker,
				})
			}
		}
		pool.Done()
	}()

	jobs := 0
	var firstErr error
	for result := range pool.Results() {
		r := result.(*worker.CheckResult)
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		stages[r.StageIndex].Episodes[r.EpisodeIndex] = r.Episode
		jobs++
	}
	if firstErr != nil {
		return fmt.Errorf("fact check: %w", firstErr)
	}
	p.logger.Debug("fact check pass complete", zap.Int("episodes", jobs))
	return ctx.Err()
}

// retryRejected gives each rejected episode the bounded re-extraction pass,
// then returns the episodes that stayed rejected.
func (p *Pipeline) retryRejected(ctx context.Context, in Input, extractor *extract.Extractor, checker *check.Checker, stages []model.EventStage) ([]model.Episode, error) {
	var dropped []model.Episode
	for si := range stages {
		for ei := range stages[si].Episodes {
			ep := stages[si].Episodes[ei]
			if ep.State != model.EpisodeRejected {
				continue
			}

			final := ep
			for attempt := 0; attempt < p.config.Thresholds.MaxReextractRetries; attempt++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				retried, ok, err := extractor.Reextract(ctx, in.EventID, final, in.Recognizer, stages)
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				final = checker.Check(retried)
				if final.State == model.EpisodeVerified {
					break
				}
			}

			stages[si].Episodes[ei] = final
			if final.State == model.EpisodeRejected {
				dropped = append(dropped, final)
			}
		}
	}
	return dropped, nil
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fincascade"
	}
	return filepath.Join(home, ".fincascade")
}
