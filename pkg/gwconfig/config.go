// Package gwconfig loads the gateway's YAML configuration, grounded on
// original_source/src/config.rs's AppConfig/Server/Log/DataSource shape.
// Only the ClickHouse backend kind is implemented (Databend/Quickwit are a
// config-level Non-goal); the two-variant DataSource enum is kept as a
// discriminated struct so an unrecognized "kind" fails loudly at load time
// rather than silently defaulting.
package gwconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable carrying the config file
// path; DefaultConfigPath is used when it's unset.
const EnvConfigPath = "QRYGW_CONFIG"

// DefaultConfigPath is used when EnvConfigPath is unset.
const DefaultConfigPath = "config.yaml"

// Log configures the gateway's go-kit logger: where it writes, at what
// level, and (mirroring the original's tracing-subscriber directive
// string) an optional filter expression.
type Log struct {
	Level            string `yaml:"level"`
	File             string `yaml:"file"`
	FilterDirectives string `yaml:"filter_directives"`
}

func (l Log) withDefaults() Log {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.File == "" {
		l.File = "stdout"
	}
	if l.FilterDirectives == "" {
		l.FilterDirectives = l.Level
	}
	return l
}

// Server configures the HTTP listener: address, per-request timeout, and
// the logging sink.
type Server struct {
	ListenAddr string        `yaml:"listen_addr"`
	Timeout    time.Duration `yaml:"timeout"`
	Log        Log           `yaml:"log"`
}

// Cache configures the bounded response cache and its background refresh.
type Cache struct {
	MaxCapacityBytes int64         `yaml:"max_capacity_bytes"`
	TimeToLive       time.Duration `yaml:"time_to_live"`
	TimeToIdle       time.Duration `yaml:"time_to_idle"`
	// RefreshInterval is optional; zero disables the background refresh
	// loop entirely.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	// ExtendDuration is the minimum remaining TTL a hot-key update
	// guarantees (series index, label-values entries).
	ExtendDuration time.Duration `yaml:"extend_duration"`
}

func (c Cache) withDefaults() Cache {
	if c.MaxCapacityBytes == 0 {
		c.MaxCapacityBytes = 64 << 20
	}
	if c.TimeToLive == 0 {
		c.TimeToLive = 10 * time.Minute
	}
	if c.ExtendDuration == 0 {
		c.ExtendDuration = 5 * time.Minute
	}
	return c
}

// Clickhouse is the common connection shape shared by the log and trace
// data sources.
type Clickhouse struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Table    string `yaml:"table"`
}

// CKLogLabel names the resource/attribute keys promoted into the series
// index, mirroring the original's CKLogLabel.resources/attributes lists.
type CKLogLabel struct {
	Resources  []string `yaml:"resources"`
	Attributes []string `yaml:"attributes"`
}

// ClickhouseLog is the log data source's ClickHouse-backend configuration.
type ClickhouseLog struct {
	Clickhouse       `yaml:",inline"`
	Label            CKLogLabel `yaml:"label"`
	ReplaceDashToDot bool       `yaml:"replace_dash_to_dot"`
	DefaultLogLevel  string     `yaml:"default_log_level"`
}

// ClickhouseTrace is the trace data source's ClickHouse-backend
// configuration; TraceTSTable names the companion time-bucketed trace_id
// index table the WITH-clause narrowing query joins against.
type ClickhouseTrace struct {
	Clickhouse  `yaml:",inline"`
	TraceTSTable string `yaml:"trace_ts_table"`
}

// DataSourceKind discriminates the two data-source blocks. Only KindClickhouse
// is implemented; Databend/Quickwit are accepted as named kinds in the enum
// (matching the original's surface) but rejected at Validate time.
type DataSourceKind string

const (
	KindClickhouse DataSourceKind = "clickhouse"
	KindDatabend   DataSourceKind = "databend"
	KindQuickwit   DataSourceKind = "quickwit"
)

// LogSource is the `log_source` config block.
type LogSource struct {
	Kind       DataSourceKind `yaml:"kind"`
	Clickhouse *ClickhouseLog `yaml:"clickhouse"`
}

// TraceSource is the `trace_source` config block.
type TraceSource struct {
	Kind       DataSourceKind   `yaml:"kind"`
	Clickhouse *ClickhouseTrace `yaml:"clickhouse"`
}

// AppConfig is the gateway's full configuration, loaded from YAML.
type AppConfig struct {
	Server      Server      `yaml:"server"`
	Cache       Cache       `yaml:"cache"`
	LogSource   LogSource   `yaml:"log_source"`
	TraceSource TraceSource `yaml:"trace_source"`
}

// ConfigPath returns the path to load from: the EnvConfigPath environment
// variable if set, otherwise DefaultConfigPath.
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load reads and parses the YAML config at path (ConfigPath() if empty),
// applies ambient defaults, and validates the data-source kinds.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = ConfigPath()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.Log = cfg.Server.Log.withDefaults()
	cfg.Cache = cfg.Cache.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects data-source kinds this gateway doesn't implement.
func (c *AppConfig) Validate() error {
	if c.LogSource.Kind != KindClickhouse || c.LogSource.Clickhouse == nil {
		return fmt.Errorf("log_source: only kind %q is implemented, got %q", KindClickhouse, c.LogSource.Kind)
	}
	if c.TraceSource.Kind != KindClickhouse || c.TraceSource.Clickhouse == nil {
		return fmt.Errorf("trace_source: only kind %q is implemented, got %q", KindClickhouse, c.TraceSource.Kind)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	return nil
}
