package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"FinDash/pkg/util"
)

// ChartTime is either a business day ("2019-04-11") or a UTC unix timestamp in seconds.
// It marshals to a JSON string or number accordingly.
type ChartTime struct {
	Day  string
	Unix int64
}

// BusinessDay returns a day-granular time.
func BusinessDay(day string) ChartTime {
	return ChartTime{Day: day}
}

// Timestamp returns a second-granular time.
func Timestamp(t time.Time) ChartTime {
	return ChartTime{Unix: t.UTC().Unix()}
}

func (t ChartTime) IsBusinessDay() bool {
	return t.Day != ""
}

// Time returns the instant this value denotes, midnight UTC for business days.
func (t ChartTime) Time() time.Time {
	if t.Day != "" {
		d, err := time.Parse(util.DayLayout, t.Day)
		if err == nil {
			return d
		}
	}
	return time.Unix(t.Unix, 0).UTC()
}

func (t ChartTime) String() string {
	if t.Day != "" {
		return t.Day
	}
	return fmt.Sprintf("%d", t.Unix)
}

func (t ChartTime) MarshalJSON() ([]byte, error) {
	if t.Day != "" {
		return json.Marshal(t.Day)
	}
	return json.Marshal(t.Unix)
}

func (t *ChartTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var day string
		if err := json.Unmarshal(b, &day); err != nil {
			return err
		}
		if _, err := time.Parse(util.DayLayout, day); err != nil {
			return fmt.Errorf("invalid business day %q", day)
		}
		*t = ChartTime{Day: day}
		return nil
	}
	var unix int64
	if err := json.Unmarshal(b, &unix); err != nil {
		return fmt.Errorf("chart time must be a day string or unix seconds: %w", err)
	}
	*t = ChartTime{Unix: unix}
	return nil
}

// Candle is one OHLC point. Sequences are expected in ascending time order.
type Candle struct {
	Time  ChartTime `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// CandleSeries is the candles endpoint payload.
type CandleSeries struct {
	Symbol  string   `json:"symbol"`
	Count   int      `json:"count"`
	Candles []Candle `json:"candles"`
}
