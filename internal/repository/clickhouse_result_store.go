package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"YutaiScan/internal/domain/models"
	"YutaiScan/internal/domain/repository"
	pkgch "YutaiScan/pkg/clickhouse"
)

// CHResultStore persists offset statistics in ClickHouse. Every recorded
// offset of a scan is written; the optimal one is flagged so best-offset
// lookups stay a single indexed read.
type CHResultStore struct {
	db *sql.DB
}

func NewCHResultStore(ch *pkgch.Client) repository.ResultStore {
	return &CHResultStore{db: ch.DB()}
}

func (s *CHResultStore) SaveTimingResult(ctx context.Context, res *models.OptimalTimingResult) error {
	if res == nil || len(res.AllOffsets) == 0 {
		return fmt.Errorf("empty timing result")
	}

	values := make([]string, 0, len(res.AllOffsets))
	args := make([]interface{}, 0, len(res.AllOffsets)*15)
	for _, o := range res.AllOffsets {
		optimal := uint8(0)
		if o.Offset == res.OptimalOffset {
			optimal = 1
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			res.Code,
			res.RightsMonth,
			o.Offset,
			o.WinCount,
			o.LoseCount,
			o.TotalCount,
			o.WinRate,
			o.AvgWinReturn,
			o.AvgLoseReturn,
			o.MaxWinReturn,
			o.MaxLoseReturn,
			o.ExpectedReturn,
			o.Score(),
			optimal,
			res.GeneratedAt,
		)
	}

	q := `INSERT INTO yutaiscan.offset_statistics
        (code, rights_month, offset_days, win_count, lose_count, total_count,
         win_rate, avg_win_return, avg_lose_return, max_win_return,
         max_lose_return, expected_return, score, is_optimal, generated_at)
        VALUES ` + strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save timing result: %w", err)
	}
	return nil
}

func (s *CHResultStore) BestOffsetStatistics(ctx context.Context, code string, rightsMonth int) (*models.OffsetStatistics, error) {
	q := `
        SELECT offset_days, win_count, lose_count, total_count, win_rate,
               avg_win_return, avg_lose_return, max_win_return,
               max_lose_return, expected_return
        FROM yutaiscan.offset_statistics FINAL
        WHERE code = ? AND rights_month = ?
        ORDER BY score DESC, offset_days ASC
        LIMIT 1
    `
	var o models.OffsetStatistics
	err := s.db.QueryRowContext(ctx, q, code, rightsMonth).Scan(
		&o.Offset, &o.WinCount, &o.LoseCount, &o.TotalCount, &o.WinRate,
		&o.AvgWinReturn, &o.AvgLoseReturn, &o.MaxWinReturn,
		&o.MaxLoseReturn, &o.ExpectedReturn,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("best offset statistics: %w", err)
	}
	return &o, nil
}

func (s *CHResultStore) Close() error {
	return nil // Managed by pkg
}
