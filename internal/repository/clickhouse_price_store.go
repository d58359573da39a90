package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"YutaiScan/internal/domain/models"
	"YutaiScan/internal/domain/repository"
	pkgch "YutaiScan/pkg/clickhouse"
	applogger "YutaiScan/pkg/logger"
)

// CHPriceStore implements PriceStore backed by ClickHouse. Bars live in a
// ReplacingMergeTree keyed by (code, date), so re-imported days collapse to
// the latest write.
type CHPriceStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client) repository.PriceStore {
	return &CHPriceStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) GetPriceSeries(ctx context.Context, code string, years int) ([]models.PriceBar, error) {
	start := time.Now()
	q := `
        SELECT code, date, open, high, low, close, volume
        FROM yutaiscan.price_bars FINAL
        WHERE code = ?
    `
	args := []interface{}{code}
	if years > 0 {
		q += " AND date >= ?"
		args = append(args, time.Now().AddDate(-years, 0, 0))
	}
	q += " ORDER BY date ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse price_series query error",
				applogger.String("code", code),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get price series: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, 1024)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Code, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan price bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse price_series ok",
			applogger.String("code", code),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHPriceStore) PutPriceSeries(ctx context.Context, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, b := range bars[start:end] {
			if b.Code == "" || b.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Code, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := "INSERT INTO yutaiscan.price_bars (code, date, open, high, low, close, volume) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("put price series: %w", err)
		}
	}
	return nil
}

func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CHInstrumentStore implements InstrumentStore backed by ClickHouse.
type CHInstrumentStore struct {
	db *sql.DB
}

func NewCHInstrumentStore(ch *pkgch.Client) repository.InstrumentStore {
	return &CHInstrumentStore{db: ch.DB()}
}

func (s *CHInstrumentStore) GetAllInstruments(ctx context.Context, rightsMonth int) ([]models.Instrument, error) {
	q := `
        SELECT code, name, rights_month, rights_date, benefit, min_shares, updated_at
        FROM yutaiscan.instruments FINAL
    `
	args := []interface{}{}
	if rightsMonth > 0 {
		q += " WHERE rights_month = ?"
		args = append(args, rightsMonth)
	}
	q += " ORDER BY code ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get instruments: %w", err)
	}
	defer rows.Close()

	var out []models.Instrument
	for rows.Next() {
		var in models.Instrument
		if err := rows.Scan(&in.Code, &in.Name, &in.RightsMonth, &in.RightsDate, &in.Benefit, &in.MinShares, &in.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *CHInstrumentStore) GetInstrument(ctx context.Context, code string) (*models.Instrument, error) {
	q := `
        SELECT code, name, rights_month, rights_date, benefit, min_shares, updated_at
        FROM yutaiscan.instruments FINAL
        WHERE code = ?
        LIMIT 1
    `
	var in models.Instrument
	err := s.db.QueryRowContext(ctx, q, code).
		Scan(&in.Code, &in.Name, &in.RightsMonth, &in.RightsDate, &in.Benefit, &in.MinShares, &in.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instrument: %w", err)
	}
	return &in, nil
}
