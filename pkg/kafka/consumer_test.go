package kafka

import (
	"testing"
	"time"
)

func TestBackoffWithJitterStaysInRange(t *testing.T) {
	min := 100 * time.Millisecond
	max := time.Second

	tests := []struct {
		attempt int
		ceiling time.Duration
	}{
		{attempt: 1, ceiling: 100 * time.Millisecond},
		{attempt: 2, ceiling: 200 * time.Millisecond},
		{attempt: 3, ceiling: 400 * time.Millisecond},
		{attempt: 5, ceiling: time.Second},
		{attempt: 64, ceiling: time.Second},
	}

	for _, test := range tests {
		for i := 0; i < 50; i++ {
			d := backoffWithJitter(min, max, test.attempt)
			if d > test.ceiling || d <= test.ceiling/2-time.Nanosecond {
				t.Fatalf("attempt %d: delay %v outside (%v, %v]", test.attempt, d, test.ceiling/2, test.ceiling)
			}
		}
	}
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	if _, err := NewConsumer(nil, nil); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestEncodeValue(t *testing.T) {
	v, err := encodeValue(map[string]string{"type": "user.signed_up"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(v) != `{"type":"user.signed_up"}` {
		t.Fatalf("unexpected payload %s", v)
	}
	raw, _ := encodeValue([]byte("raw"))
	if string(raw) != "raw" {
		t.Fatalf("bytes should pass through, got %s", raw)
	}
}
