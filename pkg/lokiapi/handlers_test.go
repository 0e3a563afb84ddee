package lokiapi

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caibirdme/qrygw/pkg/chstore"
)

func TestParseQueryLimitsDefaults(t *testing.T) {
	limits, err := parseQueryLimits(url.Values{}, defaultLogLimit)
	require.NoError(t, err)
	require.Equal(t, defaultLogLimit, limits.Limit)
	require.Equal(t, chstore.DirectionBackward, limits.Direction)
	require.True(t, limits.Range.Start.IsZero())
}

func TestParseQueryLimitsOverrides(t *testing.T) {
	q := url.Values{
		"start":     {"1700000000"},
		"end":       {"1700000100"},
		"limit":     {"50"},
		"direction": {"forward"},
		"step":      {"30s"},
	}
	limits, err := parseQueryLimits(q, defaultLogLimit)
	require.NoError(t, err)
	require.Equal(t, 50, limits.Limit)
	require.Equal(t, chstore.DirectionForward, limits.Direction)
	require.Equal(t, int64(1700000000), limits.Range.Start.Unix())
	require.Equal(t, int64(1700000100), limits.Range.End.Unix())
}

func TestParseQueryLimitsInvalidTime(t *testing.T) {
	_, err := parseQueryLimits(url.Values{"start": {"not-a-time"}}, defaultLogLimit)
	require.Error(t, err)
}
