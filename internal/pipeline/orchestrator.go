package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
	"github.com/haulwire/loadscout/internal/services/status"
)

// Orchestrator runs the claim loop: poll, atomically claim a batch, process
// items with bounded parallelism, retry transient failures, and sweep stale
// in-flight items back to pending on a schedule. Multiple orchestrator
// processes can run against shared storage; the claim is the only point that
// needs cross-process atomicity.
type Orchestrator struct {
	queue     interfaces.QueueStorage
	processor *Processor
	metrics   *status.Service
	config    *common.PipelineConfig
	logger    arbor.ILogger

	cron   *cron.Cron
	cancel context.CancelFunc
	done   chan struct{}
}

func NewOrchestrator(
	storageManager interfaces.StorageManager,
	processor *Processor,
	metrics *status.Service,
	config *common.PipelineConfig,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		queue:     storageManager.QueueStorage(),
		processor: processor,
		metrics:   metrics,
		config:    config,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start launches the claim loop and the stale sweep. Returns immediately.
func (o *Orchestrator) Start() error {
	if !o.config.Enabled {
		o.logger.Info().Msg("Pipeline disabled, orchestrator not started")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.done = make(chan struct{})

	schedule := o.config.StaleSweepSchedule
	if schedule == "" {
		schedule = common.DefaultStaleSweepSchedule
	}
	if _, err := o.cron.AddFunc(schedule, func() { o.sweepStale(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("scheduling stale sweep: %w", err)
	}
	o.cron.Start()

	go o.run(ctx)

	o.logger.Info().
		Str("poll_interval", o.config.PollInterval).
		Int("batch_size", o.config.BatchSize).
		Int("concurrency", o.config.Concurrency).
		Str("stale_sweep", schedule).
		Msg("Pipeline orchestrator started")
	return nil
}

// Stop halts the claim loop and the sweep, waiting for the in-flight batch.
func (o *Orchestrator) Stop() {
	if o.cancel == nil {
		return
	}
	o.cancel()
	<-o.cron.Stop().Done()
	<-o.done
	o.logger.Info().Msg("Pipeline orchestrator stopped")
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)

	ticker := time.NewTicker(o.config.PollIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.metrics.RecordLoop()
			o.runBatch(ctx)
		}
	}
}

// runBatch claims and processes one batch. An empty backlog is not an error.
func (o *Orchestrator) runBatch(ctx context.Context) {
	items, err := o.queue.ClaimBatch(ctx, o.config.BatchSize)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNoItems) {
			o.logger.Warn().Err(err).Msg("Claiming batch failed")
		}
		return
	}

	started := time.Now()
	o.logger.Debug().Int("batch_size", len(items)).Msg("Claimed batch")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Concurrency)
	for _, item := range items {
		item := item
		g.Go(func() error {
			o.processOne(gctx, item)
			return nil
		})
	}
	g.Wait()

	o.metrics.RecordBatch(len(items), time.Since(started))
}

// processOne runs the item pipeline and applies the resulting queue
// transition. Item failures are contained here; a panic or error in one item
// never takes down the batch.
func (o *Orchestrator) processOne(ctx context.Context, item *models.QueueItem) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("message_id", item.MessageID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Item processing panicked")
			o.failItem(item, fmt.Sprintf("panic: %v", r))
		}
	}()

	matches, err := o.processor.ProcessItem(ctx, item)
	if err != nil {
		o.logger.Warn().Err(err).
			Str("message_id", item.MessageID).
			Int("attempts", item.Attempts).
			Msg("Item processing failed")
		o.failItem(item, err.Error())
		return
	}

	if err := o.queue.Complete(context.Background(), item.MessageID); err != nil {
		o.logger.Warn().Err(err).Str("message_id", item.MessageID).Msg("Completing item failed")
		return
	}
	o.metrics.RecordProcessed()
	o.metrics.RecordMatches(matches)
}

func (o *Orchestrator) failItem(item *models.QueueItem, errMsg string) {
	o.metrics.RecordFailed()
	// The queue transition must land even when the batch context is gone.
	if err := o.queue.Fail(context.Background(), item.MessageID, errMsg, o.config.MaxAttempts); err != nil {
		o.logger.Error().Err(err).Str("message_id", item.MessageID).Msg("Recording item failure failed")
	}
}

// sweepStale returns items stuck in processing past the staleness threshold
// to pending, so a crashed worker never permanently strands work.
func (o *Orchestrator) sweepStale(ctx context.Context) {
	count, err := o.queue.ResetStale(ctx, o.config.StaleThresholdDuration())
	if err != nil {
		o.logger.Warn().Err(err).Msg("Stale sweep failed")
		return
	}
	if count > 0 {
		o.metrics.RecordStaleResets(count)
		o.logger.Info().Int("reset", count).Msg("Returned stale items to pending")
	}
}
