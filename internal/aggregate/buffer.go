package aggregate

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BatchProcessor receives one drained bucket: the accumulated counters for
// a single batch type since the previous flush.
type BatchProcessor func(ctx context.Context, entries map[string]int64)

// Buffer accumulates handler side-outputs (per-staff order counts and the
// like) and flushes them in batches, decoupling bursty raw events from
// downstream batched updates.
//
// Appends from many handlers race against the ticker's drain-and-clear, so
// every bucket access happens under mu and processors always run on a
// bucket that has already been detached from the map.
type Buffer struct {
	mu         sync.Mutex
	buckets    map[string]map[string]int64
	processors map[string]BatchProcessor

	interval      time.Duration
	maxBucketSize int
	logger        *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

func NewBuffer(interval time.Duration, maxBucketSize int, logger *slog.Logger) *Buffer {
	return &Buffer{
		buckets:       make(map[string]map[string]int64),
		processors:    make(map[string]BatchProcessor),
		interval:      interval,
		maxBucketSize: maxBucketSize,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// RegisterProcessor binds a batch type to its downstream processor.
// Registration happens at startup, before any flush fires.
func (b *Buffer) RegisterProcessor(batchType string, fn BatchProcessor) {
	b.mu.Lock()
	b.processors[batchType] = fn
	b.mu.Unlock()
}

// Append accumulates delta under (batchType, key). If the bucket crosses
// the configured size bound it is flushed early so memory stays bounded
// under bursty load.
func (b *Buffer) Append(batchType, key string, delta int64) {
	var overflow map[string]int64

	b.mu.Lock()
	bucket, ok := b.buckets[batchType]
	if !ok {
		bucket = make(map[string]int64)
		b.buckets[batchType] = bucket
	}
	bucket[key] += delta

	if b.maxBucketSize > 0 && len(bucket) >= b.maxBucketSize {
		overflow = bucket
		delete(b.buckets, batchType)
	}
	b.mu.Unlock()

	if overflow != nil {
		b.process(batchType, overflow)
	}
}

// Start launches the flush ticker.
func (b *Buffer) Start() {
	go b.loop()
}

// Shutdown stops the ticker and performs a final flush so accumulated
// counters are not silently lost on graceful exit.
func (b *Buffer) Shutdown() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.Flush()
	})
}

func (b *Buffer) loop() {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.Flush()
		}
	}
}

// Flush drains every populated bucket and hands each to its processor.
// Buckets untouched since the last interval simply do not exist in the map,
// so the flush cost stays proportional to actual activity.
func (b *Buffer) Flush() {
	b.mu.Lock()
	drained := b.buckets
	b.buckets = make(map[string]map[string]int64)
	b.mu.Unlock()

	for batchType, entries := range drained {
		if len(entries) == 0 {
			continue
		}
		b.process(batchType, entries)
	}
}

func (b *Buffer) process(batchType string, entries map[string]int64) {
	b.mu.Lock()
	fn := b.processors[batchType]
	b.mu.Unlock()

	if fn == nil {
		b.logger.Warn("no batch processor registered, discarding bucket",
			"batch_type", batchType, "entries", len(entries))
		return
	}

	start := time.Now()
	fn(context.Background(), entries)
	b.logger.Debug("aggregation bucket flushed",
		"batch_type", batchType,
		"entries", len(entries),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
