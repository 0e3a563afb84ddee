package querycache

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/caibirdme/qrygw/pkg/seriesstore"
)

// LabelOp mirrors the four selector operators a series-cache key's field
// triplet can carry, encoded 0..3 in the canonical key.
type LabelOp int

const (
	OpEq LabelOp = iota
	OpNeq
	OpRegexMatch
	OpRegexNotMatch
)

// LabelCondition is one (name, op, value) triplet making up a series query.
type LabelCondition struct {
	Name  string
	Op    LabelOp
	Value string
}

// CanonicalKey renders conds into the series-cache key shape: service_name
// first if present, then the rest in alphabetic label-name order (ties
// broken by operator, then value), each
// triplet as "name|||op|||value", triplets joined by "---". Two queries
// whose conditions are the same set always produce the same key
// regardless of the order the caller supplied them in.
func CanonicalKey(conds []LabelCondition) string {
	ordered := orderConditions(conds)
	parts := make([]string, len(ordered))
	for i, c := range ordered {
		parts[i] = fmt.Sprintf("%s|||%d|||%s", c.Name, c.Op, c.Value)
	}
	return strings.Join(parts, "---")
}

func orderConditions(conds []LabelCondition) []LabelCondition {
	out := make([]LabelCondition, len(conds))
	copy(out, conds)
	sort.SliceStable(out, func(i, j int) bool {
		iSvc := out[i].Name == "service_name"
		jSvc := out[j].Name == "service_name"
		if iSvc != jSvc {
			return iSvc
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].Op != out[j].Op {
			return out[i].Op < out[j].Op
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// FindReusablePrefix looks for the longest previously-cached canonical key
// that is a strict prefix of conds' own canonical ordering (i.e. built
// from the first K of conds' ordered triplets), returning that shorter
// key, its payload, and the residual conditions the caller must
// post-filter by. exists is called with progressively shorter candidate
// keys, longest first.
func FindReusablePrefix(conds []LabelCondition, exists func(key string) ([]byte, bool)) (payload []byte, residual []LabelCondition, key string, ok bool) {
	ordered := orderConditions(conds)
	for k := len(ordered) - 1; k >= 1; k-- {
		candidateKey := CanonicalKey(ordered[:k])
		if data, found := exists(candidateKey); found {
			return data, ordered[k:], candidateKey, true
		}
	}
	return nil, nil, "", false
}

// PostFilter applies the residual label conditions FindReusablePrefix
// returned against a decoded stream list, reproducing the series-cache
// prefix-reuse filter: Eq passes iff values match; Neq passes iff missing
// or unequal; RegexMatch/RegexNotMatch use a compiled regex; absence with
// a positive operator (Eq/RegexMatch) is a miss.
func PostFilter(streams []seriesstore.Stream, residual []LabelCondition) []seriesstore.Stream {
	if len(residual) == 0 {
		return streams
	}
	out := make([]seriesstore.Stream, 0, len(streams))
	for _, s := range streams {
		if matchesResidual(s, residual) {
			out = append(out, s)
		}
	}
	return out
}

func matchesResidual(s seriesstore.Stream, residual []LabelCondition) bool {
	for _, c := range residual {
		v, present := s[c.Name]
		switch c.Op {
		case OpEq:
			if !present || v != c.Value {
				return false
			}
		case OpNeq:
			if present && v == c.Value {
				return false
			}
		case OpRegexMatch:
			if !present {
				return false
			}
			re, err := regexp.Compile(c.Value)
			if err != nil || !re.MatchString(v) {
				return false
			}
		case OpRegexNotMatch:
			if present {
				re, err := regexp.Compile(c.Value)
				if err == nil && re.MatchString(v) {
					return false
				}
			}
		}
	}
	return true
}
