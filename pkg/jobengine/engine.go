// Package jobengine drives asynchronous enrichment jobs.
//
// One background goroutine owns each job for its entire run. Campaigns are
// processed strictly in request order, one at a time, and within a campaign
// pages are fetched, enriched, and folded into the job store strictly in
// fetch order. The store is the only shared state; the engine never holds
// its lock across a network call.
package jobengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leadpulse/leadpulse/pkg/enrich"
	"github.com/leadpulse/leadpulse/pkg/instantly"
	"github.com/leadpulse/leadpulse/pkg/jobstore"
)

// Config configures engine behavior.
type Config struct {
	// PageDelay is the fixed pause between successive page requests to the
	// upstream API. This is politeness, not correctness.
	// Default: 500ms
	PageDelay time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{PageDelay: 500 * time.Millisecond}
}

// Engine orchestrates fetch-and-enrich jobs over the job store.
type Engine struct {
	client   *instantly.Client
	enricher *enrich.Engine
	store    *jobstore.Store
	config   Config
	log      *zap.Logger
}

// New creates an engine.
func New(client *instantly.Client, enricher *enrich.Engine, store *jobstore.Store, cfg Config, log *zap.Logger) *Engine {
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = DefaultConfig().PageDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		client:   client,
		enricher: enricher,
		store:    store,
		config:   cfg,
		log:      log,
	}
}

// Launch allocates a pending job and starts its background run.
//
// It returns as soon as the job is registered; the caller polls the store
// for progress. There is no cancellation: a launched job runs until every
// campaign reaches a terminal state.
func (e *Engine) Launch(campaignIDs []string) (*jobstore.Job, error) {
	job := jobstore.NewJob(campaignIDs)
	if err := e.store.Create(job); err != nil {
		return nil, err
	}

	snapshot := job.Clone()
	go e.Run(context.Background(), job.ID, snapshot.CampaignIDs)

	return snapshot, nil
}

// Run executes one job to completion. It is called on the job's own
// goroutine by Launch; tests call it directly for a synchronous run.
func (e *Engine) Run(ctx context.Context, jobID string, campaignIDs []string) {
	start := time.Now()

	defer func() {
		// A panic here is a coding defect, not a designed outcome. Capture
		// it as the job's error status instead of crashing the process.
		if r := recover(); r != nil {
			e.log.Error("job run panicked",
				zap.String("job_id", jobID),
				zap.Any("panic", r))
			_ = e.store.Update(jobID, func(j *jobstore.Job) {
				j.Status = jobstore.StatusError
				j.Message = fmt.Sprintf("unexpected fault: %v", r)
				j.ProcessingTime = time.Since(start).Seconds()
			})
		}
	}()

	_ = e.store.Update(jobID, func(j *jobstore.Job) {
		j.Status = jobstore.StatusProcessing
	})

	e.log.Info("job started",
		zap.String("job_id", jobID),
		zap.Int("campaigns", len(campaignIDs)))

	failed := 0
	for _, campaignID := range campaignIDs {
		if err := e.runCampaign(ctx, jobID, campaignID); err != nil {
			failed++
		}
	}

	// The job completes even when individual campaigns failed; their
	// errors live in the per-campaign progress.
	_ = e.store.Update(jobID, func(j *jobstore.Job) {
		j.Status = jobstore.StatusCompleted
		j.ProcessingTime = time.Since(start).Seconds()
		if failed > 0 {
			j.Message = fmt.Sprintf("completed with %d of %d campaigns failed", failed, len(campaignIDs))
		} else {
			j.Message = fmt.Sprintf("completed %d campaigns", len(campaignIDs))
		}
	})

	e.log.Info("job completed",
		zap.String("job_id", jobID),
		zap.Int("campaigns", len(campaignIDs)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// runCampaign walks one campaign's pages, enriching and folding each page
// into the job before the next page is fetched. A fetch failure marks this
// campaign as errored and leaves siblings untouched.
func (e *Engine) runCampaign(ctx context.Context, jobID, campaignID string) error {
	start := time.Now()

	_ = e.store.Update(jobID, func(j *jobstore.Job) {
		j.Progress[campaignID].Status = jobstore.StatusProcessing
	})

	// The limiter starts with one token, so the first page is immediate
	// and each later page waits out the configured delay.
	limiter := rate.NewLimiter(rate.Every(e.config.PageDelay), 1)
	pages := e.client.Pages(campaignID)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return e.failCampaign(jobID, campaignID, start, err)
		}

		page, err := pages.Next(ctx)
		if errors.Is(err, instantly.ErrNoMorePages) {
			break
		}
		if err != nil {
			return e.failCampaign(jobID, campaignID, start, err)
		}

		fetched := len(page.Items)
		_ = e.store.Update(jobID, func(j *jobstore.Job) {
			j.Progress[campaignID].LeadsFetched += fetched
		})

		records := e.enricher.Enrich(page.Items)
		_ = e.store.Update(jobID, func(j *jobstore.Job) {
			p := j.Progress[campaignID]
			p.LeadsProcessed += fetched
			j.TotalLeadsProcessed += fetched
			j.Results = append(j.Results, records...)
			j.TotalLeadsFound = len(j.Results)
		})

		e.log.Debug("page processed",
			zap.String("job_id", jobID),
			zap.String("campaign_id", campaignID),
			zap.Int("page", pages.PageCount()),
			zap.Int("leads", fetched),
			zap.Int("matched", len(records)))
	}

	_ = e.store.Update(jobID, func(j *jobstore.Job) {
		p := j.Progress[campaignID]
		p.Status = jobstore.StatusCompleted
		p.ProcessingTime = time.Since(start).Seconds()
	})

	e.log.Info("campaign completed",
		zap.String("job_id", jobID),
		zap.String("campaign_id", campaignID),
		zap.Int("pages", pages.PageCount()),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// failCampaign records a campaign-scoped failure in the job's progress.
func (e *Engine) failCampaign(jobID, campaignID string, start time.Time, cause error) error {
	e.log.Warn("campaign failed",
		zap.String("job_id", jobID),
		zap.String("campaign_id", campaignID),
		zap.Error(cause))

	_ = e.store.Update(jobID, func(j *jobstore.Job) {
		p := j.Progress[campaignID]
		p.Status = jobstore.StatusError
		p.Message = cause.Error()
		p.ProcessingTime = time.Since(start).Seconds()
	})
	return cause
}
