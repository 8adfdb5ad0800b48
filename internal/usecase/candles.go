package usecase

import (
	"context"
	"fmt"
	"time"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	xhttp "FinDash/pkg/http"
	"FinDash/pkg/util"
)

const (
	DefaultCandleLimit = 500
	MaxCandleLimit     = 5000
)

// CandlesUseCase serves candle series from the configured store.
type CandlesUseCase struct {
	store         domrepo.CandleStore
	defaultSymbol string
	metrics       domrepo.Metrics
}

func NewCandlesUseCase(store domrepo.CandleStore, defaultSymbol string, metrics domrepo.Metrics) *CandlesUseCase {
	return &CandlesUseCase{store: store, defaultSymbol: defaultSymbol, metrics: metrics}
}

type GetCandlesParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*models.CandleSeries, error) {
	if p.Symbol == "" {
		p.Symbol = uc.defaultSymbol
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, xhttp.BadRequestError("from must be before to")
	}
	p.Limit = util.ClampInt(p.Limit, DefaultCandleLimit, 1, MaxCandleLimit)

	start := time.Now()
	candles, err := uc.store.Candles(ctx, p.Symbol, p.From, p.To, p.Limit)
	uc.metrics.RecordLatency("candles_query", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[len(candles)-p.Limit:]
	}

	return &models.CandleSeries{
		Symbol:  p.Symbol,
		Count:   len(candles),
		Candles: candles,
	}, nil
}
