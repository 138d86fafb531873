package status

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// Snapshot is one point-in-time view of the pipeline's counters
type Snapshot struct {
	UptimeSeconds     float64   `json:"uptime_seconds"`
	LoopCount         int64     `json:"loop_count"`
	ItemsProcessed    int64     `json:"items_processed"`
	ItemsFailed       int64     `json:"items_failed"`
	MatchesFired      int64     `json:"matches_fired"`
	StaleResets       int64     `json:"stale_resets"`
	LastBatchSize     int       `json:"last_batch_size"`
	LastBatchDuration string    `json:"last_batch_duration"`
	LastBatchAt       time.Time `json:"last_batch_at,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Service is the injected metrics registry for the worker loop. Counters are
// explicit component state, not module globals, so multiple workers in one
// test harness never share hidden state. Snapshot reads the counters;
// SnapshotAndReset additionally zeroes the cumulative ones for pull-based
// collectors that track deltas.
type Service struct {
	mu sync.Mutex

	startedAt      time.Time
	loopCount      int64
	itemsProcessed int64
	itemsFailed    int64
	matchesFired   int64
	staleResets    int64

	lastBatchSize     int
	lastBatchDuration time.Duration
	lastBatchAt       time.Time

	logger arbor.ILogger
}

func NewService(logger arbor.ILogger) *Service {
	return &Service{
		startedAt: time.Now().UTC(),
		logger:    logger,
	}
}

// RecordLoop counts one orchestrator poll cycle
func (s *Service) RecordLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loopCount++
}

// RecordBatch records the size and duration of a claimed batch
func (s *Service) RecordBatch(size int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBatchSize = size
	s.lastBatchDuration = duration
	s.lastBatchAt = time.Now().UTC()
}

// RecordProcessed counts one completed item
func (s *Service) RecordProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsProcessed++
}

// RecordFailed counts one failed item attempt
func (s *Service) RecordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsFailed++
}

// RecordMatches counts fired match events
func (s *Service) RecordMatches(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchesFired += int64(n)
}

// RecordStaleResets counts items recovered by the staleness sweep
func (s *Service) RecordStaleResets(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleResets += int64(n)
}

// Snapshot returns the current counters without resetting them
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SnapshotAndReset returns the current counters and zeroes the cumulative
// ones. Uptime and last-batch gauges survive the reset.
func (s *Service) SnapshotAndReset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	s.loopCount = 0
	s.itemsProcessed = 0
	s.itemsFailed = 0
	s.matchesFired = 0
	s.staleResets = 0
	return snap
}

func (s *Service) snapshotLocked() Snapshot {
	now := time.Now().UTC()
	return Snapshot{
		UptimeSeconds:     now.Sub(s.startedAt).Seconds(),
		LoopCount:         s.loopCount,
		ItemsProcessed:    s.itemsProcessed,
		ItemsFailed:       s.itemsFailed,
		MatchesFired:      s.matchesFired,
		StaleResets:       s.staleResets,
		LastBatchSize:     s.lastBatchSize,
		LastBatchDuration: s.lastBatchDuration.String(),
		LastBatchAt:       s.lastBatchAt,
		Timestamp:         now,
	}
}
