package repository

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
)

// Coverage counts loaded rows and distinct symbols for one class over a
// window, with the span of timestamps actually present.
func (s *RawWarehouse) Coverage(ctx context.Context, class models.AssetClass, from, to time.Time) (models.ClassCoverage, error) {
	q := fmt.Sprintf(`
        SELECT count(), uniqExact(symbol), min(ts), max(ts)
        FROM %s FINAL
        WHERE ts >= ? AND ts <= ?
    `, rawTable(class))

	var cov models.ClassCoverage
	var earliest, latest time.Time
	row := s.db.QueryRowContext(ctx, q, from, to)
	if err := row.Scan(&cov.Records, &cov.Symbols, &earliest, &latest); err != nil {
		return models.ClassCoverage{}, fmt.Errorf("coverage %s: %w", class, err)
	}
	// min/max over an empty set come back as the zero date.
	if cov.Records > 0 {
		cov.Earliest = &earliest
		cov.Latest = &latest
	}
	return cov, nil
}

// WeeklyReturns computes each symbol's close-to-close return over the window.
// argMin/argMax pick the closes at the window edges per symbol.
func (s *RawWarehouse) WeeklyReturns(ctx context.Context, class models.AssetClass, from, to time.Time) ([]models.SymbolReturn, error) {
	q := fmt.Sprintf(`
        SELECT symbol,
               argMin(close, ts) AS first_close,
               argMax(close, ts) AS last_close
        FROM %s FINAL
        WHERE ts >= ? AND ts <= ?
        GROUP BY symbol
        ORDER BY symbol
    `, rawTable(class))

	rows, err := s.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("weekly returns %s: %w", class, err)
	}
	defer rows.Close()

	var out []models.SymbolReturn
	for rows.Next() {
		var sym string
		var first, last float64
		if err := rows.Scan(&sym, &first, &last); err != nil {
			return nil, fmt.Errorf("scan return: %w", err)
		}
		if first == 0 {
			continue
		}
		out = append(out, models.SymbolReturn{
			Symbol:    sym,
			ReturnPct: (last - first) / first * 100,
		})
	}
	return out, rows.Err()
}

// LatestTimestamp reports the newest loaded bar for one class; the zero time
// means the table is empty.
func (s *RawWarehouse) LatestTimestamp(ctx context.Context, class models.AssetClass) (time.Time, error) {
	q := fmt.Sprintf("SELECT max(ts) FROM %s", rawTable(class))
	var ts time.Time
	if err := s.db.QueryRowContext(ctx, q).Scan(&ts); err != nil {
		return time.Time{}, fmt.Errorf("latest timestamp %s: %w", class, err)
	}
	if ts.Year() <= 1970 {
		return time.Time{}, nil
	}
	return ts, nil
}

var _ domrepo.ReportStore = (*RawWarehouse)(nil)
