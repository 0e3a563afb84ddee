package gwconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  listen_addr: "0.0.0.0:3100"
  timeout: 30s
  log:
    level: debug
cache:
  max_capacity_bytes: 1048576
  time_to_live: 10m
  refresh_interval: 2h
log_source:
  kind: clickhouse
  clickhouse:
    addr: "127.0.0.1:9000"
    database: otel
    table: otel_logs
    label:
      resources: ["k8s_pod_name"]
      attributes: ["http_method"]
    replace_dash_to_dot: true
trace_source:
  kind: clickhouse
  clickhouse:
    addr: "127.0.0.1:9000"
    database: otel
    table: otel_traces
    trace_ts_table: otel_traces_trace_id_ts
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:3100", cfg.Server.ListenAddr)
	require.Equal(t, "debug", cfg.Server.Log.Level)
	require.Equal(t, "stdout", cfg.Server.Log.File)
	require.Equal(t, int64(1048576), cfg.Cache.MaxCapacityBytes)
	require.Equal(t, KindClickhouse, cfg.LogSource.Kind)
	require.Equal(t, []string{"k8s_pod_name"}, cfg.LogSource.Clickhouse.Label.Resources)
	require.Equal(t, "otel_traces_trace_id_ts", cfg.TraceSource.Clickhouse.TraceTSTable)
}

func TestLoadRejectsUnimplementedKind(t *testing.T) {
	path := writeTempConfig(t, `
server:
  listen_addr: "0.0.0.0:3100"
log_source:
  kind: quickwit
trace_source:
  kind: clickhouse
  clickhouse:
    addr: "x"
    database: x
    table: x
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestConfigPathEnvOverride(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	require.Equal(t, "/tmp/custom.yaml", ConfigPath())
}

func TestConfigPathDefault(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	require.Equal(t, DefaultConfigPath, ConfigPath())
}
