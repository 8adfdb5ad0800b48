package repository

import (
	"context"
	"time"

	"FinDash/internal/chart"
	"FinDash/internal/domain/models"
)

// SampleCandles serves the built-in demo series for any symbol.
type SampleCandles struct {
	points []models.Candle
}

func NewSampleCandles() *SampleCandles {
	return &SampleCandles{points: chart.DefaultPoints()}
}

func (s *SampleCandles) Init(context.Context) error { return nil }

func (s *SampleCandles) Candles(_ context.Context, _ string, from, to time.Time, limit int) ([]models.Candle, error) {
	out := make([]models.Candle, 0, len(s.points))
	for _, p := range s.points {
		t := p.Time.Time()
		if !from.IsZero() && t.Before(from) {
			continue
		}
		if !to.IsZero() && t.After(to) {
			continue
		}
		out = append(out, p)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *SampleCandles) Health(context.Context) error { return nil }

func (s *SampleCandles) Close() error { return nil }
