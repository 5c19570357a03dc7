package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/pkg/cache"
	"MarketPulse/pkg/util"
)

// MarketQueries is the read side behind the HTTP API. Hot reads go through
// the cache; misses fall back to the warehouse and populate it.
type MarketQueries struct {
	raw       domrepo.RawStore
	analytics domrepo.AnalyticsStore
	cache     cache.Service // nil disables caching
	ttl       QueryTTL
}

// QueryTTL holds per-endpoint cache lifetimes.
type QueryTTL struct {
	Candles    time.Duration
	Indicators time.Duration
	Breadth    time.Duration
	Yields     time.Duration
}

func NewMarketQueries(raw domrepo.RawStore, analytics domrepo.AnalyticsStore, c cache.Service, ttl QueryTTL) *MarketQueries {
	if ttl.Candles <= 0 {
		ttl.Candles = time.Minute
	}
	if ttl.Indicators <= 0 {
		ttl.Indicators = time.Minute
	}
	if ttl.Breadth <= 0 {
		ttl.Breadth = 5 * time.Minute
	}
	if ttl.Yields <= 0 {
		ttl.Yields = 15 * time.Minute
	}
	return &MarketQueries{raw: raw, analytics: analytics, cache: c, ttl: ttl}
}

type GetCandlesParams struct {
	Class  models.AssetClass
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetCandlesResult struct {
	Symbol  string          `json:"symbol"`
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Count   int             `json:"count"`
	Candles []models.Candle `json:"candles"`
}

func (uc *MarketQueries) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Class == "" {
		p.Class = models.AssetStock
	}
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	key := cache.GenerateKeyWithParams("candles", p.Class, p.Symbol,
		p.From.Unix(), p.To.Unix(), p.Limit)
	var out GetCandlesResult
	if uc.hit(ctx, key, &out) {
		return &out, nil
	}

	candles, err := uc.raw.GetCandles(ctx, p.Class, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}

	out = GetCandlesResult{
		Symbol:  p.Symbol,
		From:    p.From,
		To:      p.To,
		Count:   len(candles),
		Candles: candles,
	}
	uc.fill(ctx, key, &out, uc.ttl.Candles)
	return &out, nil
}

type GetIndicatorsResult struct {
	Symbol string                `json:"symbol"`
	Count  int                   `json:"count"`
	Rows   []models.IndicatorRow `json:"rows"`
}

func (uc *MarketQueries) GetIndicators(ctx context.Context, symbol string, n int) (*GetIndicatorsResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 200
	}
	if n > 5000 {
		n = 5000
	}

	key := cache.GenerateKeyWithParams("indicators", symbol, n)
	var out GetIndicatorsResult
	if uc.hit(ctx, key, &out) {
		return &out, nil
	}

	rows, err := uc.analytics.GetLatestNIndicators(ctx, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("get indicators: %w", err)
	}

	out = GetIndicatorsResult{Symbol: symbol, Count: len(rows), Rows: rows}
	uc.fill(ctx, key, &out, uc.ttl.Indicators)
	return &out, nil
}

func (uc *MarketQueries) GetBreadth(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	key := cache.GenerateKey("breadth", util.SessionDate(date).Format("2006-01-02"))
	var out models.DailySummary
	if uc.hit(ctx, key, &out) {
		return &out, nil
	}

	sum, err := uc.analytics.GetDailySummary(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("get breadth: %w", err)
	}
	if sum == nil {
		return nil, nil
	}
	uc.fill(ctx, key, sum, uc.ttl.Breadth)
	return sum, nil
}

type GetYieldsResult struct {
	From  time.Time              `json:"from"`
	To    time.Time              `json:"to"`
	Count int                    `json:"count"`
	Rows  []models.TreasuryYield `json:"rows"`
}

func (uc *MarketQueries) GetYields(ctx context.Context, from, to time.Time) (*GetYieldsResult, error) {
	if from.After(to) {
		return nil, fmt.Errorf("from must be <= to")
	}

	key := cache.GenerateKeyWithParams("yields", from.Unix(), to.Unix())
	var out GetYieldsResult
	if uc.hit(ctx, key, &out) {
		return &out, nil
	}

	rows, err := uc.analytics.GetYields(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("get yields: %w", err)
	}
	out = GetYieldsResult{From: from, To: to, Count: len(rows), Rows: rows}
	uc.fill(ctx, key, &out, uc.ttl.Yields)
	return &out, nil
}

func (uc *MarketQueries) hit(ctx context.Context, key string, dest interface{}) bool {
	if uc.cache == nil {
		return false
	}
	return uc.cache.Get(ctx, key, dest) == nil
}

func (uc *MarketQueries) fill(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Set(ctx, key, value, ttl)
}
