package seriesstore

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleStreams() []Stream {
	return []Stream{
		{"env": "prod", "service": "api"},
		{"env": "prod", "service": "web"},
		{"env": "dev", "service": "api"},
	}
}

func TestAddIdempotent(t *testing.T) {
	s := New(Options{})
	s.Add(sampleStreams())
	require.Equal(t, 3, s.Len())
	s.Add(sampleStreams())
	require.Equal(t, 3, s.Len())
	require.Len(t, s.Query(nil), 3)
}

func TestQueryByLabel(t *testing.T) {
	s := New(Options{})
	s.Add(sampleStreams())

	got := s.Query(Stream{"env": "prod"})
	require.Len(t, got, 2)

	require.ElementsMatch(t, []string{"env", "service"}, s.Labels())

	values := s.LabelValues("service")
	require.ElementsMatch(t, []string{"api", "web"}, values)
}

func TestQueryNoMatchReturnsEmpty(t *testing.T) {
	s := New(Options{})
	s.Add(sampleStreams())
	require.Empty(t, s.Query(Stream{"env": "staging"}))
}

func TestInvertedIndexInvariant(t *testing.T) {
	s := New(Options{})
	s.Add(sampleStreams())
	for _, str := range sampleStreams() {
		h := StreamHash(str)
		for k, v := range str {
			posting := s.inverted[k][v]
			_, ok := posting[h]
			require.True(t, ok, "missing posting for %s=%s", k, v)
		}
	}
}

func TestCleanupIfNeededHalvesAndKeepsConsistency(t *testing.T) {
	s := New(Options{})
	var streams []Stream
	for i := 0; i < 100; i++ {
		streams = append(streams, Stream{"i": string(rune('a' + i%26)), "n": strconv.Itoa(i)})
	}
	s.Add(streams)
	require.Equal(t, 100, s.Len())

	s.CleanupIfNeeded(50)
	require.Equal(t, 50, s.Len())

	s.mu.RLock()
	for h := range s.hashes {
		ls, ok := s.labelSets[h]
		require.True(t, ok)
		for k, v := range ls {
			_, ok := s.inverted[k][v][h]
			require.True(t, ok)
		}
	}
	s.mu.RUnlock()
}

func TestMaxStreamsCapsCapacity(t *testing.T) {
	s := New(Options{MaxStreams: 2})
	s.Add(sampleStreams())
	require.Equal(t, 2, s.Len())
}
