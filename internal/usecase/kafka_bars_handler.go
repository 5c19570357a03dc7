package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgkafka "MarketPulse/pkg/kafka"
	"MarketPulse/pkg/util"
)

// KafkaBarsHandler consumes published bars and writes them to the raw
// warehouse tables. It is the storage half of the kafka backend split.
type KafkaBarsHandler struct {
	topic   string
	storage domrepo.RawStore
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, storage domrepo.RawStore, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {class, symbol, date, open, high, low, close, volume, source_bar_count}
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Class          string      `json:"class"`
		Symbol         string      `json:"symbol"`
		Date           string      `json:"date"`
		Open           interface{} `json:"open"`
		High           interface{} `json:"high"`
		Low            interface{} `json:"low"`
		Close          interface{} `json:"close"`
		Volume         interface{} `json:"volume"`
		SourceBarCount int         `json:"source_bar_count"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	ts, ok := util.ParseTime(m.Date)
	if !ok {
		h.metrics.RecordError("consumer_timestamp")
		return fmt.Errorf("bad bar timestamp: %q", m.Date)
	}
	if m.SourceBarCount <= 0 {
		m.SourceBarCount = 1
	}
	// Load lag from bar time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	candle := models.Candle{
		Symbol:         m.Symbol,
		Timestamp:      ts,
		Open:           util.SafeFloatDefault(m.Open, 0),
		High:           util.SafeFloatDefault(m.High, 0),
		Low:            util.SafeFloatDefault(m.Low, 0),
		Close:          util.SafeFloatDefault(m.Close, 0),
		Volume:         util.SafeIntDefault(m.Volume, 0),
		SourceBarCount: m.SourceBarCount,
	}

	start := time.Now()
	err := h.storage.StoreCandles(ctx, models.AssetClass(m.Class), []models.Candle{candle})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordRowsLoaded("clickhouse", m.Symbol, 1)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
