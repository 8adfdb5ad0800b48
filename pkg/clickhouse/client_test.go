package clickhouse

import (
	"net/url"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch.internal",
		Port:        9000,
		Database:    "findash",
		User:        "reader",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
	})

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.internal:9000" || u.Path != "/findash" {
		t.Fatalf("unexpected dsn %s", dsn)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" || u.User.Username() != "reader" {
		t.Fatalf("credentials not preserved: %s", dsn)
	}
	if u.Query().Get("dial_timeout") != "5s" {
		t.Fatalf("unexpected dial timeout in %s", dsn)
	}
}
