package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseSecondsInteger(t *testing.T) {
	got, err := Parse("1700000000")
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), got.Unix())
}

func TestParseNanosecondsInteger(t *testing.T) {
	got, err := Parse("1700000000123456789")
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), got.Unix())
}

func TestParseFloatSeconds(t *testing.T) {
	got, err := Parse("1700000000.5")
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), got.Unix())
}

func TestParseRFC3339(t *testing.T) {
	got, err := Parse("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), got.Unix())
	require.True(t, got.Equal(time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)))
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-a-time")
	require.Error(t, err)
}
