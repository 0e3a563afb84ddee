package querycache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caibirdme/qrygw/pkg/seriesstore"
)

func TestCacheGetSetRoundTrip(t *testing.T) {
	c := New(Options{MaxCapacityBytes: 1 << 20, TimeToLive: time.Hour})
	c.Set("k", []byte("v"))
	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", string(got))
}

func TestCacheExpiresOnTTL(t *testing.T) {
	c := New(Options{MaxCapacityBytes: 1 << 20, TimeToLive: time.Millisecond})
	c.Set("k", []byte("v"))
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestHotKeyExtendsExpiryOnUpdate(t *testing.T) {
	c := New(Options{MaxCapacityBytes: 1 << 20, TimeToLive: time.Millisecond, ExtendDuration: time.Hour})
	c.Set(SeriesIndexKey, []byte("a"))
	c.Set(SeriesIndexKey, []byte("b"))
	time.Sleep(5 * time.Millisecond)
	got, ok := c.Get(SeriesIndexKey)
	require.True(t, ok)
	require.Equal(t, "b", string(got))
}

func TestWeightEvictionUnderPressure(t *testing.T) {
	c := New(Options{MaxCapacityBytes: 10, TimeToLive: time.Hour})
	c.Set("a", []byte("12345"))
	c.Set("b", []byte("12345"))
	c.Set("c", []byte("12345"))
	require.LessOrEqual(t, c.Len(), 2)
}

func TestSeriesPayloadRoundTrip(t *testing.T) {
	streams := []seriesstore.Stream{
		{"env": "prod", "service": "api"},
		{"env": "dev", "service": "web"},
	}
	payload, err := EncodeSeriesPayload(streams)
	require.NoError(t, err)
	got, err := DecodeSeriesPayload(payload)
	require.NoError(t, err)
	require.ElementsMatch(t, streams, got)
}

func TestCanonicalKeyOrdersServiceNameFirstThenAlpha(t *testing.T) {
	conds := []LabelCondition{
		{Name: "env", Op: OpEq, Value: "prod"},
		{Name: "service_name", Op: OpEq, Value: "api"},
		{Name: "app", Op: OpEq, Value: "x"},
	}
	key := CanonicalKey(conds)
	require.Equal(t, "service_name|||0|||api---app|||0|||x---env|||0|||prod", key)
}

func TestFindReusablePrefixAndPostFilter(t *testing.T) {
	shortConds := []LabelCondition{{Name: "service_name", Op: OpEq, Value: "api"}}
	shortKey := CanonicalKey(shortConds)
	cachedStreams := []seriesstore.Stream{
		{"service_name": "api", "env": "prod"},
		{"service_name": "api", "env": "dev"},
	}
	payload, err := EncodeSeriesPayload(cachedStreams)
	require.NoError(t, err)

	longConds := []LabelCondition{
		{Name: "service_name", Op: OpEq, Value: "api"},
		{Name: "env", Op: OpEq, Value: "prod"},
	}
	data, residual, key, ok := FindReusablePrefix(longConds, func(k string) ([]byte, bool) {
		if k == shortKey {
			return payload, true
		}
		return nil, false
	})
	require.True(t, ok)
	require.Equal(t, shortKey, key)
	require.Len(t, residual, 1)
	require.Equal(t, "env", residual[0].Name)

	decoded, err := DecodeSeriesPayload(data)
	require.NoError(t, err)
	filtered := PostFilter(decoded, residual)
	require.Len(t, filtered, 1)
	require.Equal(t, "prod", filtered[0]["env"])
}
