package chstore

import (
	"strconv"
	"strings"
	"time"
)

// tsFormats is the fixed, ordered sequence of layouts a raw ClickHouse
// timestamp string is tried against, each parsed as UTC; the first one that
// parses wins.
//
// ClickHouse's JSON/native formatters render DateTime64 at varying
// precision depending on the column's declared scale, so the gateway
// cannot assume a single layout up front.
var tsFormats = []string{
	"2006-01-02 15:04:05.000000000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05.000",
}

// ParseTimestampBestEffort tries, in order, a nanosecond-precision layout, a
// bare-seconds layout, a microsecond layout and a millisecond layout,
// returning the first that parses. It also accepts a plain Unix
// seconds/nanoseconds integer, since some deployments configure ClickHouse
// to return DateTime columns as epoch integers rather than formatted text.
func ParseTimestampBestEffort(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range tsFormats {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if len(raw) <= 10 {
			return time.Unix(n, 0).UTC(), true
		}
		return time.Unix(0, n).UTC(), true
	}
	return time.Time{}, false
}

// consistentLevel normalizes raw into a known LogLevel, falling back to
// fallback when raw doesn't match any recognized severity text. This is
// how a table populated by multiple log pipelines (each spelling severity
// differently, or omitting it) still produces a consistent /labels
// enumeration.
func consistentLevel(raw string, fallback LogLevel) LogLevel {
	if lvl, ok := normalizeLevel(raw); ok {
		return lvl
	}
	return fallback
}

// statusCodeNames maps the OTel collector's STATUS_CODE_* enum names, as
// they're actually written into the StatusCode column, to the integers the
// TraceQL status literal and the Tempo response envelope both use
// (Unset=0, Ok=1, Error=2).
var statusCodeNames = map[string]int32{
	"STATUS_CODE_UNSET": 0,
	"STATUS_CODE_OK":    1,
	"STATUS_CODE_ERROR": 2,
}

// ParseStatusCode maps a StatusCode column's text to its integer form,
// defaulting to Unset (0) for anything unrecognized, mirroring the
// collector's own default.
func ParseStatusCode(raw string) int32 {
	if v, ok := statusCodeNames[raw]; ok {
		return v
	}
	return 0
}
