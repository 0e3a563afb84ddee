package chstore

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ConnConfig names the ClickHouse endpoint and credentials a LogQuerier or
// TraceQuerier dials against. One gateway process holds up to two
// connections: one per configured data source.
type ConnConfig struct {
	Addr     string
	Database string
	Username string
	Password string

	// DialTimeout bounds the initial TCP/TLS handshake; zero uses the
	// driver's own default.
	DialTimeout time.Duration
}

// resultLimits are the ClickHouse server-side settings every query this
// gateway issues carries, regardless of data source: cap the result set
// rather than let an unbounded LogQL/TraceQL selector return millions of
// rows to a process that only ever streams them back over HTTP.
var resultLimits = clickhouse.Settings{
	"max_result_rows":      1000,
	"max_result_bytes":     10000000,
	"result_overflow_mode": "break",
}

// Dial opens a native-protocol connection configured with the gateway's
// fixed result-size ceiling.
func Dial(cfg ConnConfig) (driver.Conn, error) {
	opts := &clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: resultLimits,
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}
	return conn, nil
}
