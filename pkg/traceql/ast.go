// Package traceql implements a hand-written, precedence-layered
// recursive-descent parser for the TraceQL span-set subset this gateway
// supports, plus the span-set rewriter (rewrite.go) that lowers a parsed
// Expression into a two-level SQL query.
package traceql

import "time"

// IntrinsicField names a TraceQL field referring to a built-in span
// property rather than an arbitrary span/resource attribute.
type IntrinsicField int

const (
	IntrinsicStatus IntrinsicField = iota
	IntrinsicStatusMessage
	IntrinsicDuration
	IntrinsicName
	IntrinsicKind
	IntrinsicTraceDuration
	IntrinsicRootName
	IntrinsicRootServiceName
	IntrinsicServiceName
)

var intrinsicNames = map[string]IntrinsicField{
	"status":          IntrinsicStatus,
	"statusMessage":   IntrinsicStatusMessage,
	"duration":        IntrinsicDuration,
	"name":            IntrinsicName,
	"kind":            IntrinsicKind,
	"traceDuration":   IntrinsicTraceDuration,
	"rootName":        IntrinsicRootName,
	"rootServiceName": IntrinsicRootServiceName,
	"serviceName":     IntrinsicServiceName,
}

// FieldScope tags the variant held by FieldType.
type FieldScope int

const (
	ScopeIntrinsic FieldScope = iota
	ScopeSpan
	ScopeResource
	ScopeUnscoped
)

// FieldType is the left-hand side of a FieldExpr: an intrinsic property, a
// `span.k`/`resource.k` scoped attribute, or a bare unscoped key.
type FieldType struct {
	Scope     FieldScope
	Intrinsic IntrinsicField
	Key       string
}

// ComparisonOperator is the operator of a FieldExpr.
type ComparisonOperator int

const (
	OpEq ComparisonOperator = iota
	OpNeq
	OpLarger
	OpLargerEqual
	OpLess
	OpLessEqual
)

// StatusCode is the TraceQL status literal, mapped to 0/1/2 to match the
// storage adapter's STATUS_CODE_{UNSET,OK,ERROR} convention.
type StatusCode int

const (
	StatusUnset StatusCode = 0
	StatusOk    StatusCode = 1
	StatusErr   StatusCode = 2
)

var statusLiterals = map[string]StatusCode{
	"unset": StatusUnset,
	"ok":    StatusOk,
	"error": StatusErr,
}

// SpanKind is the TraceQL kind literal, 0..5, matched case-insensitively.
type SpanKind int

const (
	KindUnspecified SpanKind = iota
	KindInternal
	KindServer
	KindClient
	KindProducer
	KindConsumer
)

var spanKindLiterals = map[string]SpanKind{
	"unspecified": KindUnspecified,
	"internal":    KindInternal,
	"server":      KindServer,
	"client":      KindClient,
	"producer":    KindProducer,
	"consumer":    KindConsumer,
}

// FieldValueKind tags the variant held by FieldValue.
type FieldValueKind int

const (
	ValInteger FieldValueKind = iota
	ValFloat
	ValString
	ValStatus
	ValDuration
	ValKind
)

// FieldValue is the right-hand side of a FieldExpr.
type FieldValue struct {
	Kind     FieldValueKind
	Int      int64
	Flt      float64
	Str      string
	Status   StatusCode
	Duration time.Duration
	SpanKind SpanKind
}

// FieldExpr is a single leaf comparison: `field op value`.
type FieldExpr struct {
	Field FieldType
	Op    ComparisonOperator
	Value FieldValue
}

// LogicalOp composes two SpanSet or Expression nodes.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

// SpanSetKind tags the variant held by SpanSet.
type SpanSetKind int

const (
	SpanSetExpr SpanSetKind = iota
	SpanSetLogical
)

// SpanSet is a boolean expression over a single span: either a leaf
// FieldExpr or a Logical composition of two SpanSets (same-span semantics).
type SpanSet struct {
	Kind  SpanSetKind
	Expr  FieldExpr
	Op    LogicalOp
	Left  *SpanSet
	Right *SpanSet
}

// ExpressionKind tags the variant held by Expression.
type ExpressionKind int

const (
	ExprSpanSet ExpressionKind = iota
	ExprLogical
)

// Expression is the top-level TraceQL AST: either one span-set or a Logical
// composition of two expressions (cross-span, same-trace semantics).
type Expression struct {
	Kind    ExpressionKind
	SpanSet SpanSet
	Op      LogicalOp
	Left    *Expression
	Right   *Expression
}
