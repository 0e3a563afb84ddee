package chstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTimestampBestEffortLayouts(t *testing.T) {
	cases := []string{
		"2024-05-04 17:38:07.123456789",
		"2024-05-04 17:38:07",
		"2024-05-04 17:38:07.123456",
		"2024-05-04 17:38:07.123",
	}
	for _, raw := range cases {
		got, ok := ParseTimestampBestEffort(raw)
		require.True(t, ok, raw)
		require.Equal(t, 2024, got.Year())
	}
}

func TestParseTimestampBestEffortEpoch(t *testing.T) {
	got, ok := ParseTimestampBestEffort("1714815487")
	require.True(t, ok)
	require.Equal(t, int64(1714815487), got.Unix())

	got, ok = ParseTimestampBestEffort("1714815487123456789")
	require.True(t, ok)
	require.Equal(t, int64(1714815487), got.Unix())
}

func TestParseTimestampBestEffortInvalid(t *testing.T) {
	_, ok := ParseTimestampBestEffort("not-a-timestamp")
	require.False(t, ok)
}

func TestConsistentLevelFallsBackToDefault(t *testing.T) {
	require.Equal(t, LevelWarn, consistentLevel("warn", LevelInfo))
	require.Equal(t, LevelWarn, consistentLevel("WARNING", LevelInfo))
	require.Equal(t, LevelInfo, consistentLevel("not-a-level", LevelInfo))
}

func TestParseStatusCode(t *testing.T) {
	require.Equal(t, int32(0), ParseStatusCode("STATUS_CODE_UNSET"))
	require.Equal(t, int32(1), ParseStatusCode("STATUS_CODE_OK"))
	require.Equal(t, int32(2), ParseStatusCode("STATUS_CODE_ERROR"))
	require.Equal(t, int32(0), ParseStatusCode("garbage"))
}

func TestSpanKindToInt(t *testing.T) {
	require.Equal(t, int32(2), spanKindToInt("SPAN_KIND_SERVER"))
	require.Equal(t, int32(0), spanKindToInt("garbage"))
}
