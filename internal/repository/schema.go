package repository

import (
	"fmt"

	"MarketPulse/internal/domain/models"
)

// Warehouse table names. Raw tables hold loaded 15-minute bars per asset
// class; analytics tables hold the derived rows the transform stage writes.
// All tables are ReplacingMergeTree so reloading a window overwrites instead
// of duplicating.

func rawTable(class models.AssetClass) string {
	return fmt.Sprintf("marketpulse.%s_bars_raw", class)
}

func analyticsTable(class models.AssetClass) string {
	return fmt.Sprintf("marketpulse.%s_analytics", class)
}

const (
	indicatorsTable = "marketpulse.technical_indicators"
	summaryTable    = "marketpulse.daily_market_summary"
	yieldsTable     = "marketpulse.treasury_yields"
)

// Schema returns idempotent DDL for the whole warehouse.
func Schema() []string {
	stmts := []string{"CREATE DATABASE IF NOT EXISTS marketpulse"}

	for _, class := range []models.AssetClass{models.AssetStock, models.AssetIndex, models.AssetCommodity} {
		stmts = append(stmts, fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s (
                symbol           String,
                ts               DateTime,
                open             Float64,
                high             Float64,
                low              Float64,
                close            Float64,
                volume           Int64,
                source_bar_count UInt8,
                loaded_at        DateTime DEFAULT now()
            ) ENGINE = ReplacingMergeTree(loaded_at)
            PARTITION BY toYYYYMM(ts)
            ORDER BY (symbol, ts)
        `, rawTable(class)))

		stmts = append(stmts, fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s (
                symbol           String,
                ts               DateTime,
                date             Date,
                open             Float64,
                high             Float64,
                low              Float64,
                close            Float64,
                volume           Int64,
                price_change     Nullable(Float64),
                price_change_pct Nullable(Float64),
                avg_price        Float64,
                volatility       Nullable(Float64),
                relative_volume  Nullable(Float64),
                quality_score    UInt8,
                loaded_at        DateTime DEFAULT now()
            ) ENGINE = ReplacingMergeTree(loaded_at)
            PARTITION BY toYYYYMM(ts)
            ORDER BY (symbol, ts)
        `, analyticsTable(class)))
	}

	stmts = append(stmts, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol         String,
            ts             DateTime,
            sma_20         Nullable(Float64),
            sma_50         Nullable(Float64),
            sma_200        Nullable(Float64),
            ema_12         Nullable(Float64),
            ema_26         Nullable(Float64),
            macd           Nullable(Float64),
            macd_signal    Nullable(Float64),
            macd_histogram Nullable(Float64),
            rsi_14         Nullable(Float64),
            bb_upper       Nullable(Float64),
            bb_middle      Nullable(Float64),
            bb_lower       Nullable(Float64),
            volume_sma_20  Nullable(Float64),
            volume_ratio   Nullable(Float64),
            price_change_1  Nullable(Float64),
            price_change_5  Nullable(Float64),
            price_change_20 Nullable(Float64),
            volatility_20   Nullable(Float64),
            calculated_at  DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(calculated_at)
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, ts)
    `, indicatorsTable))

	stmts = append(stmts, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            date                  Date,
            total_instruments     UInt32,
            advancing_count       UInt32,
            declining_count       UInt32,
            unchanged_count       UInt32,
            total_volume          Int64,
            avg_volume            Int64,
            up_volume             Int64,
            down_volume           Int64,
            breadth_pct           Float64,
            advance_decline_ratio Nullable(Float64),
            vwap                  Nullable(Float64),
            calculated_at         DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(calculated_at)
        ORDER BY date
    `, summaryTable))

	stmts = append(stmts, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            date                Date,
            month_1             Nullable(Float64),
            month_2             Nullable(Float64),
            month_3             Nullable(Float64),
            month_6             Nullable(Float64),
            year_1              Nullable(Float64),
            year_2              Nullable(Float64),
            year_3              Nullable(Float64),
            year_5              Nullable(Float64),
            year_7              Nullable(Float64),
            year_10             Nullable(Float64),
            year_20             Nullable(Float64),
            year_30             Nullable(Float64),
            yield_curve_slope   Nullable(Float64),
            term_spread         Nullable(Float64),
            credit_spread_proxy Nullable(Float64),
            loaded_at           DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(loaded_at)
        ORDER BY date
    `, yieldsTable))

	return stmts
}
