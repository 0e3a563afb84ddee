// Package seriesstore implements the in-memory, concurrent index of
// observed log label combinations backing Loki's /labels, /label/<k>/values
// and /series endpoints. The inverted-index shape is grounded on the
// teacher's MemPostings (pkg/storage/.../tsdb/index/postings.go): a
// map-of-maps guarded by a single RWMutex, adapted here from sorted
// postings slices to hash sets because stream identity is a 64-bit content
// hash rather than a monotonically assigned series ref.
package seriesstore

import (
	"math/rand/v2"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Stream is a label name -> label value mapping identifying a log source.
type Stream map[string]string

// Options configures capacity and eviction behavior.
type Options struct {
	MaxStreams       int
	CleanupThreshold int
}

// Store is the concurrent series index described by component C8.
type Store struct {
	opts Options

	hashes    map[uint64]struct{}
	labelSets map[uint64]Stream
	inverted  map[string]map[string]map[uint64]struct{}
	pool      *stringPool

	mu sync.RWMutex
}

// New constructs an empty Store. A zero MaxStreams/CleanupThreshold means
// unbounded.
func New(opts Options) *Store {
	return &Store{
		opts:      opts,
		hashes:    make(map[uint64]struct{}),
		labelSets: make(map[uint64]Stream),
		inverted:  make(map[string]map[string]map[uint64]struct{}),
		pool:      newStringPool(),
	}
}

// Add ingests a batch of label-sets. Duplicates (streams whose hash is
// already known) are skipped; if that leaves more new records than free
// capacity, the batch is truncated to the number of free slots.
func (s *Store) Add(records []Stream) {
	if len(records) == 0 {
		return
	}

	s.mu.RLock()
	fresh := make([]Stream, 0, len(records))
	hashes := make([]uint64, 0, len(records))
	for _, r := range records {
		h := StreamHash(r)
		if _, ok := s.hashes[h]; ok {
			continue
		}
		fresh = append(fresh, r)
		hashes = append(hashes, h)
	}
	s.mu.RUnlock()

	if len(fresh) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.MaxStreams > 0 {
		free := s.opts.MaxStreams - len(s.hashes)
		if free <= 0 {
			return
		}
		if len(fresh) > free {
			fresh = fresh[:free]
			hashes = hashes[:free]
		}
	}

	for i, r := range fresh {
		h := hashes[i]
		if _, ok := s.hashes[h]; ok {
			continue // raced with a concurrent writer between RUnlock and Lock
		}
		s.hashes[h] = struct{}{}
		interned := make(Stream, len(r))
		for k, v := range r {
			ik := s.pool.Intern(k)
			iv := s.pool.Intern(v)
			interned[ik] = iv
			if s.inverted[ik] == nil {
				s.inverted[ik] = make(map[string]map[uint64]struct{})
			}
			if s.inverted[ik][iv] == nil {
				s.inverted[ik][iv] = make(map[uint64]struct{})
			}
			s.inverted[ik][iv][h] = struct{}{}
		}
		s.labelSets[h] = interned
	}

	if s.opts.CleanupThreshold > 0 && len(s.hashes) > s.opts.CleanupThreshold {
		s.cleanupLocked()
	}
}

// Query returns every stored label-set satisfying an equality-AND over all
// given (k,v) pairs; empty conditions return every stored label-set.
func (s *Store) Query(conditions Stream) []Stream {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(conditions) == 0 {
		out := make([]Stream, 0, len(s.labelSets))
		for _, ls := range s.labelSets {
			out = append(out, cloneStream(ls))
		}
		return out
	}

	var candidates map[uint64]struct{}
	for k, v := range conditions {
		posting := s.inverted[k][v]
		if len(posting) == 0 {
			return nil
		}
		if candidates == nil {
			candidates = make(map[uint64]struct{}, len(posting))
			for h := range posting {
				candidates[h] = struct{}{}
			}
			continue
		}
		for h := range candidates {
			if _, ok := posting[h]; !ok {
				delete(candidates, h)
			}
		}
		if len(candidates) == 0 {
			return nil
		}
	}

	out := make([]Stream, 0, len(candidates))
	for h := range candidates {
		ls, ok := s.labelSets[h]
		if !ok || !matchesAll(ls, conditions) {
			continue // defense in depth: reconfirm against the stored label-set
		}
		out = append(out, cloneStream(ls))
	}
	return out
}

func matchesAll(ls Stream, conditions Stream) bool {
	for k, v := range conditions {
		if ls[k] != v {
			return false
		}
	}
	return true
}

func cloneStream(ls Stream) Stream {
	out := make(Stream, len(ls))
	for k, v := range ls {
		out[k] = v
	}
	return out
}

// Labels returns the union of all label names ever inserted.
func (s *Store) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.inverted))
	for k := range s.inverted {
		out = append(out, k)
	}
	return out
}

// LabelValues returns every value ever seen for label.
func (s *Store) LabelValues(label string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := s.inverted[label]
	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	return out
}

// Len reports the current number of known streams.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hashes)
}

var storeSizeDesc = prometheus.NewDesc(
	"qrygw_seriesstore_streams",
	"Number of distinct streams currently held by the series index.",
	nil, nil,
)

// Describe and Collect implement prometheus.Collector so main can register
// a Store directly with a registry, exposing its size as a gauge without
// the duplicate-registration hazard of a package-level promauto gauge
// keyed to a single global store.
func (s *Store) Describe(ch chan<- *prometheus.Desc) {
	ch <- storeSizeDesc
}

func (s *Store) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(storeSizeDesc, prometheus.GaugeValue, float64(s.Len()))
}

// CleanupIfNeeded forces the randomized eviction pass described in C8 when
// the store exceeds threshold, independent of the implicit check Add runs.
func (s *Store) CleanupIfNeeded(threshold int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.hashes) > threshold {
		s.cleanupLocked()
	}
}

// cleanupLocked must be called with mu held for writing. It shuffles all
// known hashes and keeps the first half, rewriting the three index
// structures and releasing the interned strings of the evicted half back
// to the pool.
func (s *Store) cleanupLocked() {
	all := make([]uint64, 0, len(s.hashes))
	for h := range s.hashes {
		all = append(all, h)
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	keep := len(all) / 2
	survivors := make(map[uint64]struct{}, keep)
	for _, h := range all[:keep] {
		survivors[h] = struct{}{}
	}

	newHashes := make(map[uint64]struct{}, keep)
	newLabelSets := make(map[uint64]Stream, keep)
	newInverted := make(map[string]map[string]map[uint64]struct{})

	for h := range survivors {
		ls, ok := s.labelSets[h]
		if !ok {
			continue
		}
		newHashes[h] = struct{}{}
		newLabelSets[h] = ls
		for k, v := range ls {
			if newInverted[k] == nil {
				newInverted[k] = make(map[string]map[uint64]struct{})
			}
			if newInverted[k][v] == nil {
				newInverted[k][v] = make(map[uint64]struct{})
			}
			newInverted[k][v][h] = struct{}{}
		}
	}

	for _, h := range all[keep:] {
		if ls, ok := s.labelSets[h]; ok {
			for k, v := range ls {
				s.pool.Release(k)
				s.pool.Release(v)
			}
		}
	}

	s.hashes = newHashes
	s.labelSets = newLabelSets
	s.inverted = newInverted
}
