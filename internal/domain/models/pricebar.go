package models

import "time"

// PriceBar represents one daily OHLCV record for an instrument.
// Series handed to the scan engine are ascending by Date, one bar per
// trading day.
type PriceBar struct {
	Code   string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
