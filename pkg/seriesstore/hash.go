package seriesstore

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// StreamHash computes the 64-bit identity of a stream: a hash over its
// label entries sorted by key, so the same label set always hashes to the
// same value regardless of insertion order.
func StreamHash(labels map[string]string) uint64 {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte(';')
	}
	return xxhash.Sum64String(b.String())
}
