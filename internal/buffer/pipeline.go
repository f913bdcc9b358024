package buffer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CMC-Global-Team/RiverFlow-RealTime-ServerSide/internal/metrics"
)

// Pipeline buffers room-bound payloads and re-emits them in grouped,
// size-capped batches on a fixed interval.
//
// Exactly one queue backend is authoritative at a time. When a Redis
// queue is configured the pipeline starts in durable mode; individual
// Redis failures divert items to the memory queue, and reaching
// FailureThreshold consecutive failures downgrades the pipeline to
// memory mode permanently (no upgrade back without a restart).
type Pipeline struct {
	cfg    Config
	logger *slog.Logger

	broadcaster Broadcaster

	memory  *MemoryQueue
	durable *RedisQueue // nil when Redis is disabled

	mode     atomic.Int32
	failures atomic.Int32 // consecutive durable-backend failures

	// Flushing
	flushTicker *time.Ticker
	flushing    atomic.Bool

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Stats
	statsMu sync.Mutex
	stats   Stats
}

// New creates a Pipeline. A nil durable queue starts the pipeline in
// memory mode.
func New(cfg Config, broadcaster Broadcaster, durable *RedisQueue, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	if cfg.MaxChunkSize < 1 {
		cfg.MaxChunkSize = 1
	}
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}

	p := &Pipeline{
		cfg:         cfg,
		logger:      logger,
		broadcaster: broadcaster,
		memory:      NewMemoryQueue(cfg.MaxBufferSize),
		durable:     durable,
	}
	if durable != nil {
		p.mode.Store(int32(ModeDurable))
	}
	return p
}

// Start begins the periodic flush cycle.
func (p *Pipeline) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.flushTicker = time.NewTicker(p.cfg.FlushInterval)

	p.wg.Add(1)
	go p.flushLoop()

	p.logger.Info("broadcast pipeline started",
		"mode", p.ActiveMode().String(),
		"flush_interval", p.cfg.FlushInterval,
		"max_buffer_size", p.cfg.MaxBufferSize,
		"max_chunk_size", p.cfg.MaxChunkSize,
	)
	return nil
}

// Stop shuts the pipeline down and flushes whatever is still queued.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.logger.Info("stopping broadcast pipeline")

	if p.cancel != nil {
		p.cancel()
	}
	if p.flushTicker != nil {
		p.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("broadcast pipeline stop timed out")
	}

	// Final flush
	p.flush()

	p.logger.Info("broadcast pipeline stopped")
	return nil
}

// ActiveMode reports which queue backend is currently authoritative.
func (p *Pipeline) ActiveMode() Mode {
	return Mode(p.mode.Load())
}

// Enqueue adds a payload to the active queue. An empty event means the
// batch is re-emitted under the bufferedData event; an empty room means
// it is re-emitted to every connection.
func (p *Pipeline) Enqueue(room, event string, payload json.RawMessage) {
	item := Item{
		Room:       room,
		Event:      event,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}

	if p.ActiveMode() == ModeDurable {
		if err := p.durable.Enqueue(p.opCtx(), item); err != nil {
			p.durableFailure("enqueue", err)
			// The item lands on the memory path instead of being lost,
			// with the same eviction accounting as memory mode.
			evicted := p.memory.Enqueue(item)
			p.addStats(func(s *Stats) {
				s.Enqueued++
				s.Fallbacks++
				if evicted {
					s.Evicted++
				}
			})
			metrics.ItemsEnqueued.Inc()
			metrics.DurableFallbacks.Inc()
			if evicted {
				metrics.ItemsEvicted.Inc()
			}
			metrics.QueueDepth.Set(float64(p.memory.Len()))
			return
		}
		p.failures.Store(0)
		p.addStats(func(s *Stats) { s.Enqueued++ })
		metrics.ItemsEnqueued.Inc()
		return
	}

	evicted := p.memory.Enqueue(item)
	p.addStats(func(s *Stats) {
		s.Enqueued++
		if evicted {
			s.Evicted++
		}
	})
	metrics.ItemsEnqueued.Inc()
	if evicted {
		metrics.ItemsEvicted.Inc()
	}
	metrics.QueueDepth.Set(float64(p.memory.Len()))
}

// Stats returns current pipeline counters.
func (p *Pipeline) Stats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	s := p.stats
	s.Mode = p.ActiveMode().String()
	s.QueueLen = p.memory.Len()
	return s
}

// flushLoop periodically flushes the active queue.
func (p *Pipeline) flushLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.flushTicker.C:
			p.flush()
		}
	}
}

// flush drains the active queue and emits the drained items grouped by
// (room, event) in chunks of at most MaxChunkSize. A tick that arrives
// while a flush is still running is skipped, never queued.
func (p *Pipeline) flush() {
	if !p.flushing.CompareAndSwap(false, true) {
		return
	}
	defer p.flushing.Store(false)

	items := p.drain()
	if len(items) == 0 {
		return
	}

	start := time.Now()
	groups, order := groupItems(items)

	var chunks int
	for _, key := range order {
		chunks += p.emitGroup(key, groups[key])
	}

	p.addStats(func(s *Stats) {
		s.Flushed += int64(len(items))
		s.Chunks += int64(chunks)
	})
	metrics.ItemsFlushed.Add(float64(len(items)))
	metrics.ChunksEmitted.Add(float64(chunks))
	metrics.QueueDepth.Set(float64(p.memory.Len()))

	p.logger.Debug("flushed buffer",
		"items", len(items),
		"groups", len(order),
		"chunks", chunks,
		"duration", time.Since(start),
	)
}

// drain empties the active queue. In durable mode any items that were
// diverted to the memory queue by per-item fallbacks are appended after
// the durable batch.
func (p *Pipeline) drain() []Item {
	if p.ActiveMode() == ModeDurable {
		items, err := p.durable.DrainAll(p.opCtx())
		if err != nil {
			p.durableFailure("drain", err)
			return p.memory.DrainAll()
		}
		p.failures.Store(0)
		if strays := p.memory.DrainAll(); len(strays) > 0 {
			items = append(items, strays...)
		}
		return items
	}
	return p.memory.DrainAll()
}

// emitGroup emits one group's payloads in chunk order. A panic from
// the broadcaster aborts only this group, not the whole flush.
func (p *Pipeline) emitGroup(key groupKey, payloads []json.RawMessage) (chunks int) {
	defer func() {
		if r := recover(); r != nil {
			p.addStats(func(s *Stats) { s.FlushErrors++ })
			p.logger.Error("flush emit failed",
				"room", key.room,
				"event", key.event,
				"panic", r,
			)
		}
	}()

	name := key.event
	if name == "" {
		name = DefaultEvent
	}

	for start := 0; start < len(payloads); start += p.cfg.MaxChunkSize {
		end := start + p.cfg.MaxChunkSize
		if end > len(payloads) {
			end = len(payloads)
		}
		chunk := payloads[start:end]
		if key.room == "" {
			p.broadcaster.ToAll(name, chunk)
		} else {
			p.broadcaster.ToRoom(key.room, name, chunk)
		}
		chunks++
	}
	return chunks
}

// durableFailure counts a Redis failure and downgrades to memory mode
// once FailureThreshold consecutive failures accumulate.
func (p *Pipeline) durableFailure(op string, err error) {
	n := p.failures.Add(1)
	p.logger.Warn("durable queue operation failed",
		"op", op,
		"error", err,
		"consecutive_failures", n,
	)

	if int(n) >= p.cfg.FailureThreshold && p.mode.CompareAndSwap(int32(ModeDurable), int32(ModeMemory)) {
		metrics.DurableDowngrades.Inc()
		p.logger.Error("durable queue downgraded to memory mode",
			"consecutive_failures", n,
		)
	}
}

func (p *Pipeline) addStats(fn func(*Stats)) {
	p.statsMu.Lock()
	fn(&p.stats)
	p.statsMu.Unlock()
}

// opCtx returns the context for queue operations. Falls back to the
// background context for the final flush after Stop cancels p.ctx.
func (p *Pipeline) opCtx() context.Context {
	if p.ctx == nil || p.ctx.Err() != nil {
		return context.Background()
	}
	return p.ctx
}

// groupKey identifies one (room, event) delivery group.
type groupKey struct {
	room  string
	event string
}

// groupItems buckets items by (room, event), preserving arrival order
// within each group and first-appearance order across groups.
func groupItems(items []Item) (map[groupKey][]json.RawMessage, []groupKey) {
	groups := make(map[groupKey][]json.RawMessage)
	order := make([]groupKey, 0, 4)
	for _, item := range items {
		key := groupKey{room: item.Room, event: item.Event}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], item.Payload)
	}
	return groups, order
}
