package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

type fakeProc struct {
	mu   sync.Mutex
	bars []*models.Bar
	err  error
}

func (f *fakeProc) Process(_ context.Context, _ models.AssetClass, b *models.Bar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.bars = append(f.bars, b)
	return nil
}

func (f *fakeProc) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bars)
}

func (f *fakeProc) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type noopMetrics struct {
	dropped map[string]int
}

func newNoopMetrics() *noopMetrics                         { return &noopMetrics{dropped: make(map[string]int)} }
func (m *noopMetrics) RecordRowsLoaded(string, string, int) {}
func (m *noopMetrics) RecordRowsDropped(stage string, n int) {
	m.dropped[stage] += n
}
func (m *noopMetrics) RecordError(string)                {}
func (m *noopMetrics) RecordLastClose(string, float64)   {}
func (m *noopMetrics) RecordLatency(string, float64)     {}
func (m *noopMetrics) RecordQualityCheck(string, bool)   {}

func bar(sym string, ts time.Time) *models.Bar {
	return &models.Bar{Symbol: sym, Timestamp: ts, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000}
}

func TestPipelineForwardsValidBar(t *testing.T) {
	proc := &fakeProc{}
	p := NewLoadPipeline(proc, newNoopMetrics())

	if err := p.Process(context.Background(), models.AssetStock, bar("AAPL", time.Now())); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(proc.bars) != 1 {
		t.Fatalf("expected 1 forwarded bar, got %d", len(proc.bars))
	}
}

func TestPipelineRejectsInvalidBars(t *testing.T) {
	proc := &fakeProc{}
	m := newNoopMetrics()
	p := NewLoadPipeline(proc, m)
	ctx := context.Background()

	cases := []*models.Bar{
		nil,
		{Symbol: "", Timestamp: time.Now(), Volume: 1},
		{Symbol: "AAPL", Volume: 1},
		{Symbol: "AAPL", Timestamp: time.Now(), Volume: -5},
	}
	for i, b := range cases {
		if err := p.Process(ctx, models.AssetStock, b); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if len(proc.bars) != 0 {
		t.Fatalf("invalid bars reached downstream: %d", len(proc.bars))
	}
	if m.dropped["pipeline_validate"] != len(cases) {
		t.Fatalf("expected %d validation drops, got %d", len(cases), m.dropped["pipeline_validate"])
	}
}

func TestPipelineDedupesWithinWindow(t *testing.T) {
	proc := &fakeProc{}
	m := newNoopMetrics()
	p := NewLoadPipeline(proc, m, WithDedupeWindow(time.Hour))
	ctx := context.Background()

	ts := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	if err := p.Process(ctx, models.AssetStock, bar("AAPL", ts)); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// same (symbol, ts) again: dropped silently
	if err := p.Process(ctx, models.AssetStock, bar("AAPL", ts)); err != nil {
		t.Fatalf("duplicate should not error: %v", err)
	}
	if len(proc.bars) != 1 {
		t.Fatalf("duplicate reached downstream, got %d bars", len(proc.bars))
	}
	if m.dropped["pipeline_dedupe"] != 1 {
		t.Fatalf("expected 1 dedupe drop, got %d", m.dropped["pipeline_dedupe"])
	}

	// different symbol or timestamp passes
	if err := p.Process(ctx, models.AssetStock, bar("MSFT", ts)); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if err := p.Process(ctx, models.AssetStock, bar("AAPL", ts.Add(15*time.Minute))); err != nil {
		t.Fatalf("other timestamp: %v", err)
	}
	if len(proc.bars) != 3 {
		t.Fatalf("expected 3 forwarded bars, got %d", len(proc.bars))
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &fakeProc{err: errors.New("backend down")}
	p := NewLoadPipeline(proc, newNoopMetrics(), WithBufferSize(10))
	ctx := context.Background()

	ts := time.Now()
	if err := p.Process(ctx, models.AssetStock, bar("AAPL", ts)); err == nil {
		t.Fatal("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("expected 1 buffered bar, got %d", len(p.bufCh))
	}

	// recovery: background flush delivers the buffered bar
	proc.setErr(nil)
	p.Start(ctx)
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered bar never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPipelineBatchContinuesPastFailures(t *testing.T) {
	proc := &fakeProc{}
	p := NewLoadPipeline(proc, newNoopMetrics())

	ts := time.Now()
	bars := []*models.Bar{
		bar("AAPL", ts),
		{Symbol: "", Timestamp: ts, Volume: 1}, // invalid
		bar("MSFT", ts),
	}
	if err := p.ProcessBatch(context.Background(), models.AssetStock, bars); err == nil {
		t.Fatal("expected first error from batch")
	}
	if len(proc.bars) != 2 {
		t.Fatalf("expected valid bars to pass, got %d", len(proc.bars))
	}
}
