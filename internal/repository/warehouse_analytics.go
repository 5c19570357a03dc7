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
	"MarketPulse/pkg/util"
)

// AnalyticsWarehouse implements AnalyticsStore backed by ClickHouse.
type AnalyticsWarehouse struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewAnalyticsWarehouse(ch *pkgch.Client) *AnalyticsWarehouse {
	return &AnalyticsWarehouse{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *AnalyticsWarehouse) SetLogger(l *applogger.Logger) { s.l = l }

func (s *AnalyticsWarehouse) UpsertEnriched(ctx context.Context, class models.AssetClass, rows []models.EnrichedBar) error {
	if len(rows) == 0 {
		return nil
	}
	const chunkSize = 2000
	table := analyticsTable(class)
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*14)
		for _, r := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Symbol,
				r.Timestamp,
				util.SessionDate(r.Timestamp),
				r.Open,
				r.High,
				r.Low,
				r.Close,
				r.Volume,
				r.PriceChange,
				r.PriceChangePct,
				r.AvgPrice,
				r.Volatility,
				r.RelativeVolume,
				r.QualityScore,
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s
            (symbol, ts, date, open, high, low, close, volume,
             price_change, price_change_pct, avg_price, volatility, relative_volume, quality_score)
            VALUES %s`, table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse upsert_enriched error",
					applogger.String("table", table),
					applogger.Int("rows", end-start),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("upsert enriched: %w", err)
		}
	}
	return nil
}

func (s *AnalyticsWarehouse) UpsertIndicators(ctx context.Context, rows []models.IndicatorRow) error {
	if len(rows) == 0 {
		return nil
	}
	const chunkSize = 1000
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*21)
		for _, r := range rows[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Symbol, r.Timestamp,
				r.SMA20, r.SMA50, r.SMA200,
				r.EMA12, r.EMA26,
				r.MACD, r.MACDSignal, r.MACDHistogram,
				r.RSI14,
				r.BBUpper, r.BBMiddle, r.BBLower,
				r.VolumeSMA20, r.VolumeRatio,
				r.PriceChange1, r.PriceChange5, r.PriceChange20,
				r.Volatility20,
				time.Now().UTC(),
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s
            (symbol, ts, sma_20, sma_50, sma_200, ema_12, ema_26,
             macd, macd_signal, macd_histogram, rsi_14,
             bb_upper, bb_middle, bb_lower, volume_sma_20, volume_ratio,
             price_change_1, price_change_5, price_change_20, volatility_20, calculated_at)
            VALUES %s`, indicatorsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("upsert indicators: %w", err)
		}
	}
	return nil
}

func (s *AnalyticsWarehouse) UpsertDailySummary(ctx context.Context, sum *models.DailySummary) error {
	if sum == nil {
		return nil
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (date, total_instruments, advancing_count, declining_count, unchanged_count,
         total_volume, avg_volume, up_volume, down_volume,
         breadth_pct, advance_decline_ratio, vwap)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, summaryTable)
	_, err := s.db.ExecContext(ctx, q,
		sum.Date,
		sum.TotalInstruments,
		sum.AdvancingCount,
		sum.DecliningCount,
		sum.UnchangedCount,
		sum.TotalVolume,
		sum.AvgVolume,
		sum.UpVolume,
		sum.DownVolume,
		sum.BreadthPct,
		sum.AdvanceDeclineRatio,
		sum.VWAP,
	)
	if err != nil {
		return fmt.Errorf("upsert daily summary: %w", err)
	}
	return nil
}

func (s *AnalyticsWarehouse) UpsertYields(ctx context.Context, y *models.TreasuryYield) error {
	if y == nil {
		return nil
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (date, month_1, month_2, month_3, month_6,
         year_1, year_2, year_3, year_5, year_7, year_10, year_20, year_30,
         yield_curve_slope, term_spread, credit_spread_proxy)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, yieldsTable)
	_, err := s.db.ExecContext(ctx, q,
		y.Date,
		y.Month1, y.Month2, y.Month3, y.Month6,
		y.Year1, y.Year2, y.Year3, y.Year5, y.Year7, y.Year10, y.Year20, y.Year30,
		y.YieldCurveSlope, y.TermSpread, y.CreditSpreadProxy,
	)
	if err != nil {
		return fmt.Errorf("upsert yields: %w", err)
	}
	return nil
}

func (s *AnalyticsWarehouse) GetLatestNIndicators(ctx context.Context, symbol string, n int) ([]models.IndicatorRow, error) {
	q := fmt.Sprintf(`
        SELECT symbol, ts, sma_20, sma_50, sma_200, ema_12, ema_26,
               macd, macd_signal, macd_histogram, rsi_14,
               bb_upper, bb_middle, bb_lower, volume_sma_20, volume_ratio,
               price_change_1, price_change_5, price_change_20, volatility_20
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `, indicatorsTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("get indicators: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.IndicatorRow, 0, n)
	for rows.Next() {
		var r models.IndicatorRow
		if err := rows.Scan(
			&r.Symbol, &r.Timestamp,
			&r.SMA20, &r.SMA50, &r.SMA200,
			&r.EMA12, &r.EMA26,
			&r.MACD, &r.MACDSignal, &r.MACDHistogram,
			&r.RSI14,
			&r.BBUpper, &r.BBMiddle, &r.BBLower,
			&r.VolumeSMA20, &r.VolumeRatio,
			&r.PriceChange1, &r.PriceChange5, &r.PriceChange20,
			&r.Volatility20,
		); err != nil {
			return nil, fmt.Errorf("scan indicator row: %w", err)
		}
		tmp = append(tmp, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

// GetDailyRows reads the latest analytics row per stock symbol for one date,
// the input to the breadth rollup.
func (s *AnalyticsWarehouse) GetDailyRows(ctx context.Context, date time.Time) ([]models.DailyRow, error) {
	q := fmt.Sprintf(`
        SELECT symbol,
               argMax(price_change, ts) AS price_change,
               sum(volume) AS volume,
               argMax(avg_price, ts) AS avg_price
        FROM %s FINAL
        WHERE date = ?
        GROUP BY symbol
        ORDER BY symbol
    `, analyticsTable(models.AssetStock))
	rows, err := s.db.QueryContext(ctx, q, util.SessionDate(date))
	if err != nil {
		return nil, fmt.Errorf("get daily rows: %w", err)
	}
	defer rows.Close()

	var out []models.DailyRow
	for rows.Next() {
		var r models.DailyRow
		if err := rows.Scan(&r.Symbol, &r.PriceChange, &r.Volume, &r.AvgPrice); err != nil {
			return nil, fmt.Errorf("scan daily row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *AnalyticsWarehouse) GetDailySummary(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	q := fmt.Sprintf(`
        SELECT date, total_instruments, advancing_count, declining_count, unchanged_count,
               total_volume, avg_volume, up_volume, down_volume,
               breadth_pct, advance_decline_ratio, vwap
        FROM %s FINAL
        WHERE date = ?
        LIMIT 1
    `, summaryTable)
	row := s.db.QueryRowContext(ctx, q, util.SessionDate(date))

	var sum models.DailySummary
	err := row.Scan(
		&sum.Date,
		&sum.TotalInstruments,
		&sum.AdvancingCount,
		&sum.DecliningCount,
		&sum.UnchangedCount,
		&sum.TotalVolume,
		&sum.AvgVolume,
		&sum.UpVolume,
		&sum.DownVolume,
		&sum.BreadthPct,
		&sum.AdvanceDeclineRatio,
		&sum.VWAP,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily summary: %w", err)
	}
	return &sum, nil
}

func (s *AnalyticsWarehouse) GetYields(ctx context.Context, from, to time.Time) ([]models.TreasuryYield, error) {
	q := fmt.Sprintf(`
        SELECT date, month_1, month_2, month_3, month_6,
               year_1, year_2, year_3, year_5, year_7, year_10, year_20, year_30,
               yield_curve_slope, term_spread, credit_spread_proxy
        FROM %s FINAL
        WHERE date >= ? AND date <= ?
        ORDER BY date ASC
    `, yieldsTable)
	rows, err := s.db.QueryContext(ctx, q, util.SessionDate(from), util.SessionDate(to))
	if err != nil {
		return nil, fmt.Errorf("get yields: %w", err)
	}
	defer rows.Close()

	var out []models.TreasuryYield
	for rows.Next() {
		var y models.TreasuryYield
		if err := rows.Scan(
			&y.Date, &y.Month1, &y.Month2, &y.Month3, &y.Month6,
			&y.Year1, &y.Year2, &y.Year3, &y.Year5, &y.Year7, &y.Year10, &y.Year20, &y.Year30,
			&y.YieldCurveSlope, &y.TermSpread, &y.CreditSpreadProxy,
		); err != nil {
			return nil, fmt.Errorf("scan yield row: %w", err)
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// VolumeBaseline returns each symbol's raw volume series over the window,
// used to compute the trailing mean and deviation for anomaly checks.
func (s *AnalyticsWarehouse) VolumeBaseline(ctx context.Context, class models.AssetClass, symbols []string, from, to time.Time) (map[string][]int64, error) {
	if len(symbols) == 0 {
		return map[string][]int64{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(symbols)), ",")
	q := fmt.Sprintf(`
        SELECT symbol, volume
        FROM %s FINAL
        WHERE symbol IN (%s) AND ts >= ? AND ts <= ?
        ORDER BY symbol, ts
    `, rawTable(class), placeholders)

	args := make([]interface{}, 0, len(symbols)+2)
	for _, sym := range symbols {
		args = append(args, sym)
	}
	args = append(args, from, to)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("volume baseline: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]int64, len(symbols))
	for rows.Next() {
		var sym string
		var vol int64
		if err := rows.Scan(&sym, &vol); err != nil {
			return nil, fmt.Errorf("scan volume: %w", err)
		}
		out[sym] = append(out[sym], vol)
	}
	return out, rows.Err()
}

var _ domrepo.AnalyticsStore = (*AnalyticsWarehouse)(nil)
