package logql

import "time"

// parseDuration accepts the human-readable unit suffixes LogQL range
// literals use (`5m`, `1h30m`, `90s`). time.ParseDuration already covers
// this exact surface, so no bespoke grammar is needed here.
func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
