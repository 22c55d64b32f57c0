// Package acquisition sequences a live lookup against the court website and
// falls back to a synthetic record when that lookup fails. Acquire always
// returns a record.
package acquisition

import (
	"context"
	"fmt"
	"time"

	"github.com/JustJay7/court-case-engine/internal/config"
	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/internal/scraper"
	"github.com/JustJay7/court-case-engine/internal/synthetic"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Source performs one isolated live lookup.
type Source interface {
	Search(ctx context.Context, key model.QueryKey) (*model.CaseRecord, error)
}

// Store is the write side of the record store used during an acquisition.
type Store interface {
	Put(ctx context.Context, key model.QueryKey, record *model.CaseRecord) error
	AppendLog(ctx context.Context, entry *model.QueryLogEntry) (uint, error)
	UpdateLog(ctx context.Context, id uint, update model.LogUpdate) error
}

// Outcome is the result of one acquisition. FallbackReason is empty when the
// record is live.
type Outcome struct {
	Record          *model.CaseRecord   `json:"data"`
	QueryID         uint                `json:"query_id"`
	FallbackReason  scraper.FailureKind `json:"fallback_reason,omitempty"`
	FallbackMessage string              `json:"-"`
}

// Orchestrator runs acquisitions. It holds no per-acquisition state and is
// safe for concurrent use.
type Orchestrator struct {
	source        Source
	store         Store
	generator     *synthetic.Generator
	seeder        synthetic.Seeder
	timeout       time.Duration
	storeTimeout  time.Duration
	maxConcurrent int
	logger        *logger.Logger
}

// NewOrchestrator wires the live source, the store and the fallback generator.
func NewOrchestrator(source Source, store Store, generator *synthetic.Generator, cfg *config.Config, logger *logger.Logger) *Orchestrator {
	o := &Orchestrator{
		source:        source,
		store:         store,
		generator:     generator,
		seeder:        synthetic.NewSeeder(cfg.SyntheticSeed),
		timeout:       cfg.ScraperTimeout,
		storeTimeout:  cfg.StoreTimeout,
		maxConcurrent: cfg.MaxConcurrentScrapes,
		logger:        logger.With("component", "acquisition"),
	}
	if o.timeout <= 0 {
		o.timeout = 30 * time.Second
	}
	if o.storeTimeout <= 0 {
		o.storeTimeout = 5 * time.Second
	}
	if o.maxConcurrent < 1 {
		o.maxConcurrent = 1
	}
	return o
}

// Acquire returns a record for key: the live one when the court website
// yields usable data, a synthetic one otherwise. Store failures are logged
// and never change the result.
func (o *Orchestrator) Acquire(ctx context.Context, key model.QueryKey) *Outcome {
	start := time.Now()
	log := o.logger.With(
		"case_type", key.CaseType,
		"case_number", key.CaseNumber,
		"filing_year", key.FilingYear,
	)

	queryID := o.appendLog(ctx, key, log)
	out := &Outcome{QueryID: queryID}
	update := model.LogUpdate{Status: model.QuerySucceeded}

	record, err := o.live(ctx, key)
	if err != nil {
		kind := scraper.KindOf(err)
		log.Warn("Live lookup failed, generating synthetic record", "kind", kind, "error", err)

		record = o.generator.Generate(key, o.seeder(key))
		out.FallbackReason = kind
		out.FallbackMessage = err.Error()
		update.ErrorDetail = string(kind)
		update.ErrorMessage = err.Error()
	}
	out.Record = record
	update.Record = record

	if queryID != 0 {
		o.updateLog(ctx, queryID, update, log)
	}
	o.put(ctx, key, record, log)

	log.Info("Acquisition completed",
		"query_id", queryID,
		"provenance", record.Provenance,
		"duration", time.Since(start),
	)
	return out
}

// AcquireAll runs Acquire for every key with at most MaxConcurrentScrapes in
// flight. Outcomes are returned in key order.
func (o *Orchestrator) AcquireAll(ctx context.Context, keys []model.QueryKey) []*Outcome {
	outcomes := make([]*Outcome, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			outcomes[i] = o.Acquire(gctx, key)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// live runs the source under the scraper timeout. Panics and empty records
// come back as failures.
func (o *Orchestrator) live(ctx context.Context, key model.QueryKey) (record *model.CaseRecord, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			record = nil
			err = fmt.Errorf("live lookup panicked: %v", r)
		}
	}()

	record, err = o.source.Search(ctx, key)
	if err != nil {
		return nil, err
	}
	if !record.HasSubstance() {
		return nil, scraper.NewInvariantViolation("live record has no parties, orders or filing date")
	}
	record.Provenance = model.ProvenanceLive
	return record, nil
}

func (o *Orchestrator) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.storeTimeout)
}

func (o *Orchestrator) appendLog(ctx context.Context, key model.QueryKey, log *logger.Logger) uint {
	sctx, cancel := o.storeContext(ctx)
	defer cancel()

	id, err := o.store.AppendLog(sctx, &model.QueryLogEntry{
		Key:       key,
		Timestamp: time.Now(),
		Status:    model.QueryInitiated,
	})
	if err != nil {
		log.Error("Failed to log query", "error", err)
		return 0
	}
	return id
}

func (o *Orchestrator) updateLog(ctx context.Context, id uint, update model.LogUpdate, log *logger.Logger) {
	sctx, cancel := o.storeContext(ctx)
	defer cancel()

	if err := o.store.UpdateLog(sctx, id, update); err != nil {
		log.Error("Failed to update query log", "query_id", id, "error", err)
	}
}

func (o *Orchestrator) put(ctx context.Context, key model.QueryKey, record *model.CaseRecord, log *logger.Logger) {
	sctx, cancel := o.storeContext(ctx)
	defer cancel()

	if err := o.store.Put(sctx, key, record); err != nil {
		log.Error("Failed to store case record", "error", err)
	}
}
