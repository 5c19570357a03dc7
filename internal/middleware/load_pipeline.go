package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, class models.AssetClass, b *models.Bar) error
}

type keyed struct {
	class models.AssetClass
	bar   *models.Bar
}

// LoadPipeline sits between extraction and the load backend. It validates
// bars, drops (symbol, ts) pairs already seen inside the dedupe window, and
// buffers when downstream is unavailable so a backend hiccup does not lose a
// scheduled window.
type LoadPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	bufSize int
	dedupe  time.Duration
	bufCh   chan keyed
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	seen    map[string]time.Time // symbol|ts -> first accepted
}

type PipelineOption func(*LoadPipeline)

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *LoadPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithDedupeWindow sets how long an accepted (symbol, ts) suppresses
// re-delivery. Extraction windows overlap on purpose, so this is what keeps
// reloads idempotent before the warehouse even sees them.
func WithDedupeWindow(d time.Duration) PipelineOption {
	return func(p *LoadPipeline) {
		if d > 0 {
			p.dedupe = d
		}
	}
}

// NewLoadPipeline creates a new pipeline.
func NewLoadPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *LoadPipeline {
	p := &LoadPipeline{
		proc:    proc,
		metrics: metrics,
		bufSize: 1000,
		dedupe:  2 * time.Hour,
		bufCh:   make(chan keyed, 1000),
		stopCh:  make(chan struct{}),
		seen:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan keyed, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered bars.
func (p *LoadPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case k := <-p.bufCh:
				if k.bar == nil {
					continue
				}
				if err := p.proc.Process(ctx, k.class, k.bar); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- k:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *LoadPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, dedupes, and forwards a bar downstream, buffering on
// errors. A duplicate is dropped without error.
func (p *LoadPipeline) Process(ctx context.Context, class models.AssetClass, b *models.Bar) error {
	start := time.Now()
	if err := validateBar(b); err != nil {
		p.metrics.RecordError("pipeline_validate")
		p.metrics.RecordRowsDropped("pipeline_validate", 1)
		return err
	}
	if !p.accept(b, start) {
		p.metrics.RecordRowsDropped("pipeline_dedupe", 1)
		return nil
	}

	if err := p.proc.Process(ctx, class, b); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- keyed{class: class, bar: b}:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch runs Process over a window of bars, continuing past
// individual failures and returning the first error seen.
func (p *LoadPipeline) ProcessBatch(ctx context.Context, class models.AssetClass, bars []*models.Bar) error {
	var firstErr error
	for _, b := range bars {
		if err := p.Process(ctx, class, b); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func validateBar(b *models.Bar) error {
	if b == nil {
		return fmt.Errorf("bar nil")
	}
	if b.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if b.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume")
	}
	return nil
}

// accept returns false for a (symbol, ts) seen inside the dedupe window.
// Stale entries are swept lazily on each call.
func (p *LoadPipeline) accept(b *models.Bar, now time.Time) bool {
	key := b.Symbol + "|" + b.Timestamp.Format(time.RFC3339)

	p.mu.Lock()
	defer p.mu.Unlock()

	if first, ok := p.seen[key]; ok && now.Sub(first) < p.dedupe {
		return false
	}
	for k, first := range p.seen {
		if now.Sub(first) >= p.dedupe {
			delete(p.seen, k)
		}
	}
	p.seen[key] = now
	return true
}
