package usecase

import (
	"context"
	"encoding/json"
	"time"

	"YutaiScan/internal/domain/models"
	domrepo "YutaiScan/internal/domain/repository"
	pkgkafka "YutaiScan/pkg/kafka"
	"YutaiScan/pkg/util"
)

// KafkaBarsHandler consumes price-bar upserts off the bars topic and writes
// them through the price store. This is the ingest side of the store write
// contract; the import pipeline producing these messages lives elsewhere.
type KafkaBarsHandler struct {
	topic   string
	prices  domrepo.PriceStore
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, prices domrepo.PriceStore, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, prices: prices, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// Handle accepts either a single bar upsert or an array of them.
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var ups []domrepo.BarUpsert
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &ups); err != nil {
			h.metrics.RecordError("consumer_unmarshal")
			return err
		}
	} else {
		var u domrepo.BarUpsert
		if err := json.Unmarshal(b, &u); err != nil {
			h.metrics.RecordError("consumer_unmarshal")
			return err
		}
		ups = append(ups, u)
	}

	bars := make([]models.PriceBar, 0, len(ups))
	for _, u := range ups {
		date, ok := util.ParseTime(u.Date)
		if u.Code == "" || !ok {
			h.metrics.RecordError("consumer_invalid_bar")
			continue
		}
		bars = append(bars, models.PriceBar{
			Code:   u.Code,
			Date:   date,
			Open:   u.Open,
			High:   u.High,
			Low:    u.Low,
			Close:  u.Close,
			Volume: u.Volume,
		})
	}
	if len(bars) == 0 {
		return nil
	}

	start := time.Now()
	if err := h.prices.PutPriceSeries(ctx, bars); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("bars_insert_seconds", time.Since(start).Seconds())
	for _, bar := range bars {
		h.metrics.RecordMessageSent("clickhouse", bar.Code)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
