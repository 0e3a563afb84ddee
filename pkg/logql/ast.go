// Package logql implements a hand-written recursive-descent parser for the
// LogQL subset this gateway supports (selector, line filters, drop filters,
// and a sum/avg over rate/count_over_time metric wrapper), plus the visitor
// that lowers a parsed query into the package-neutral queryir.Selection.
package logql

import "time"

// LabelOp is the comparison operator of a selector LabelPair.
type LabelOp int

const (
	LabelEq LabelOp = iota
	LabelNeq
	LabelRegexMatch
	LabelRegexNotMatch
)

// LabelPair is one entry of a selector: `ident op "value"`.
type LabelPair struct {
	Label string
	Op    LabelOp
	Value string
}

// LineOp is the operator of a line filter.
type LineOp int

const (
	LineContain LineOp = iota
	LineNotContain
	LineRegexMatch
	LineRegexNotMatch
)

// Filter is either a LineFilter or a DropFilter.
type Filter interface{ isFilter() }

// LineFilter narrows log lines by containment or regex match.
type LineFilter struct {
	Op   LineOp
	Expr string
}

func (LineFilter) isFilter() {}

// DropFilter discards a named field from downstream processing; it never
// contributes a Condition (see ir.go).
type DropFilter struct {
	Ident string
}

func (DropFilter) isFilter() {}

// LogQuery is a selector plus an optional, non-empty chain of filters.
type LogQuery struct {
	Selector []LabelPair
	Filters  []Filter // nil when no filter survives the empty-expression drop rule
}

// AggOp is the outer aggregator of a metric query.
type AggOp int

const (
	AggSum AggOp = iota
	AggAvg
)

// FuncOp is the windowed function wrapped by the aggregator.
type FuncOp int

const (
	FuncRate FuncOp = iota
	FuncCountOverTime
)

// MetricQuery is `agg by (labels) (func(log_query[range]))`, or the
// equivalent with `by (...)` trailing instead of leading.
type MetricQuery struct {
	Aggregator AggOp
	Func       FuncOp
	By         []string
	Range      time.Duration
	LogQuery   LogQuery
}

// Query is either a bare LogQuery or a MetricQuery; exactly one of the two
// pointer fields is non-nil.
type Query struct {
	Log    *LogQuery
	Metric *MetricQuery
}
