package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgch "MarketPulse/pkg/clickhouse"
	applogger "MarketPulse/pkg/logger"
)

// RawWarehouse implements RawStore backed by ClickHouse.
type RawWarehouse struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewRawWarehouse(ch *pkgch.Client) *RawWarehouse {
	return &RawWarehouse{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *RawWarehouse) SetLogger(l *applogger.Logger) { s.l = l }

func (s *RawWarehouse) Init(ctx context.Context) error {
	for _, stmt := range Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *RawWarehouse) StoreBatch(ctx context.Context, class models.AssetClass, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	candles := make([]models.Candle, 0, len(bars))
	for _, b := range bars {
		if b == nil || b.Symbol == "" || b.Timestamp.IsZero() {
			continue
		}
		candles = append(candles, models.Candle{
			Symbol:         b.Symbol,
			Timestamp:      b.Timestamp,
			Open:           b.Open,
			High:           b.High,
			Low:            b.Low,
			Close:          b.Close,
			Volume:         b.Volume,
			SourceBarCount: 1,
		})
	}
	return s.StoreCandles(ctx, class, candles)
}

func (s *RawWarehouse) StoreCandles(ctx context.Context, class models.AssetClass, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	// Chunked multi-row VALUES insert to cut round-trips.
	const chunkSize = 2000
	table := rawTable(class)
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, c := range candles[start:end] {
			if c.Symbol == "" || c.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				c.Symbol,
				c.Timestamp,
				c.Open,
				c.High,
				c.Low,
				c.Close,
				c.Volume,
				c.SourceBarCount,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, ts, open, high, low, close, volume, source_bar_count) VALUES %s",
			table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_candles error",
					applogger.String("table", table),
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store candles: %w", err)
		}
	}
	return nil
}

func (s *RawWarehouse) GetSeries(ctx context.Context, class models.AssetClass, symbol string, from, to time.Time) ([]models.Bar, error) {
	q := fmt.Sprintf(`
        SELECT symbol, ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, rawTable(class))
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 256)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *RawWarehouse) GetCandles(ctx context.Context, class models.AssetClass, symbol string, from, to time.Time, limit int) ([]models.Candle, error) {
	start := time.Now()
	table := rawTable(class)
	q := fmt.Sprintf(`
        SELECT symbol, ts, open, high, low, close, volume, source_bar_count
        FROM %s FINAL
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?
    `, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_candles query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Candle, 0, limit)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Symbol, &c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.SourceBarCount); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse get_candles ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func (s *RawWarehouse) Symbols(ctx context.Context, class models.AssetClass, since time.Time) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT symbol FROM %s WHERE ts >= ? ORDER BY symbol", rawTable(class))
	rows, err := s.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *RawWarehouse) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *RawWarehouse) Close() error {
	return nil // pool owned by pkg client
}

var _ domrepo.RawStore = (*RawWarehouse)(nil)
