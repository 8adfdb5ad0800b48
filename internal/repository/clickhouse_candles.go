package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FinDash/internal/domain/models"
	pkgch "FinDash/pkg/clickhouse"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/util"
)

// CHCandles implements CandleStore backed by a ClickHouse table
// (symbol, t, open, high, low, close).
type CHCandles struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

func NewCHCandles(client *pkgch.Client, table string, l *applogger.Logger) *CHCandles {
	return &CHCandles{client: client, db: client.DB(), table: table, l: l}
}

// Init creates the candle table when missing.
func (s *CHCandles) Init(ctx context.Context) error {
	ddl := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol LowCardinality(String),
            t      DateTime('UTC'),
            open   Float64,
            high   Float64,
            low    Float64,
            close  Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, t)
    `, s.table)
	return s.client.InitSchema(ctx, []string{ddl})
}

// Candles returns the latest limit candles for symbol within [from, to],
// oldest first. Zero bounds are open.
func (s *CHCandles) Candles(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Candle, error) {
	start := time.Now()
	q, args := candlesQuery(s.table, symbol, from, to, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse candles query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, limit)
	stamps := make([]time.Time, 0, limit)
	for rows.Next() {
		var (
			c  models.Candle
			ts time.Time
		)
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
		stamps = append(stamps, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	for i, ct := range chartTimes(stamps) {
		out[i].Time = ct
	}

	// query is newest first so LIMIT keeps the latest rows
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	s.l.Debug("clickhouse candles ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHCandles) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHCandles) Close() error {
	return s.client.Close()
}

func candlesQuery(table, symbol string, from, to time.Time, limit int) (string, []interface{}) {
	where := []string{"symbol = ?"}
	args := []interface{}{symbol}
	if !from.IsZero() {
		where = append(where, "t >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		where = append(where, "t <= ?")
		args = append(args, to.UTC())
	}
	args = append(args, limit)

	q := fmt.Sprintf("SELECT t, open, high, low, close FROM %s WHERE %s ORDER BY t DESC LIMIT ?",
		table, strings.Join(where, " AND "))
	return q, args
}

// chartTimes converts a whole batch to one time kind: business days when
// every row is midnight-aligned, unix seconds otherwise.
func chartTimes(ts []time.Time) []models.ChartTime {
	daily := true
	for _, t := range ts {
		if !midnight(t) {
			daily = false
			break
		}
	}

	out := make([]models.ChartTime, len(ts))
	for i, t := range ts {
		if daily {
			out[i] = models.BusinessDay(t.UTC().Format(util.DayLayout))
		} else {
			out[i] = models.Timestamp(t)
		}
	}
	return out
}

func midnight(t time.Time) bool {
	t = t.UTC()
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
