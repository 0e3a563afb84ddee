package traceql

import (
	"fmt"
	"strings"

	"github.com/caibirdme/qrygw/pkg/queryir"
)

// SubQueryKind tags the variant held by SubQuery.
type SubQueryKind int

const (
	SubBasic SubQueryKind = iota
	SubAnd
	SubOr
)

// SubQuery is the trace-level predicate tree built over `sub.trace_id IN
// (...)` basics, one per source span-set, composed by the original
// Expression's &&/|| structure.
type SubQuery struct {
	Kind  SubQueryKind
	SQL   string // only set when Kind == SubBasic
	Left  *SubQuery
	Right *SubQuery
}

// Render walks the SubQuery tree into a single boolean expression string,
// wrapping each And/Or in parentheses.
func (s *SubQuery) Render() string {
	switch s.Kind {
	case SubBasic:
		return s.SQL
	case SubAnd:
		return "(" + s.Left.Render() + " AND " + s.Right.Render() + ")"
	case SubOr:
		return "(" + s.Left.Render() + " OR " + s.Right.Render() + ")"
	default:
		return ""
	}
}

type rewriter struct {
	schema queryir.TableSchema
	conv   queryir.QueryConverter
	unions []string
}

// Rewrite lowers a parsed TraceQL Expression into the two-level SQL query
// described in the span-set rewriter design: a UNION of per-span-set
// candidate span_id/trace_id pairs, filtered at the trace level by a
// boolean tree over `sub.trace_id IN (...)` basics, with the outer query
// re-selecting full span rows.
func Rewrite(expr *Expression, schema queryir.TableSchema, conv queryir.QueryConverter) string {
	rw := &rewriter{schema: schema, conv: conv}
	sub := rw.walkExpression(expr)

	unionSQL := make([]string, len(rw.unions))
	for i, u := range rw.unions {
		unionSQL[i] = "(" + u + ")"
	}

	spanIDCol := schema.SpanIDColumn()

	return fmt.Sprintf(
		"SELECT * FROM %s sp WHERE sp.%s IN (SELECT %s FROM (%s) AS sub WHERE %s) LIMIT 500",
		schema.Table(), spanIDCol,
		spanIDCol,
		strings.Join(unionSQL, " UNION "),
		sub.Render(),
	)
}

func (rw *rewriter) walkExpression(expr *Expression) *SubQuery {
	if expr.Kind == ExprSpanSet {
		return rw.leafSubQuery(&expr.SpanSet)
	}
	left := rw.walkExpression(expr.Left)
	right := rw.walkExpression(expr.Right)
	kind := SubAnd
	if expr.Op == LogicalOr {
		kind = SubOr
	}
	return &SubQuery{Kind: kind, Left: left, Right: right}
}

func (rw *rewriter) leafSubQuery(ss *SpanSet) *SubQuery {
	sel := spanSetToSelection(ss)
	where := ""
	if sel != nil {
		where = queryir.RenderSelection(sel, rw.conv)
	} else {
		where = "1"
	}

	spanIDCol := rw.schema.SpanIDColumn()
	traceIDCol := rw.schema.TraceIDColumn()
	table := rw.schema.Table()

	perSpanSQL := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s", spanIDCol, traceIDCol, table, where)
	rw.unions = append(rw.unions, perSpanSQL)

	traceSQL := fmt.Sprintf("SELECT %s FROM %s WHERE %s", traceIDCol, table, where)
	basic := fmt.Sprintf("sub.%s IN (%s)", traceIDCol, traceSQL)
	return &SubQuery{Kind: SubBasic, SQL: basic}
}

// spanSetToSelection translates a SpanSet's internal boolean tree into a
// queryir.Selection; an Unscoped leaf field expands to
// Or(Span(k,v), Resource(k,v)) before translation.
func spanSetToSelection(ss *SpanSet) *queryir.Selection {
	switch ss.Kind {
	case SpanSetExpr:
		return fieldExprToSelection(ss.Expr)
	case SpanSetLogical:
		left := spanSetToSelection(ss.Left)
		right := spanSetToSelection(ss.Right)
		if ss.Op == LogicalOr {
			return queryir.Or(left, right)
		}
		return queryir.And(left, right)
	default:
		return nil
	}
}

func fieldExprToSelection(fe FieldExpr) *queryir.Selection {
	if fe.Field.Scope == ScopeUnscoped {
		spanField := fe
		spanField.Field = FieldType{Scope: ScopeSpan, Key: fe.Field.Key}
		resourceField := fe
		resourceField.Field = FieldType{Scope: ScopeResource, Key: fe.Field.Key}
		return queryir.Or(
			queryir.Unit(fieldExprToCondition(spanField)),
			queryir.Unit(fieldExprToCondition(resourceField)),
		)
	}
	return queryir.Unit(fieldExprToCondition(fe))
}

func fieldExprToCondition(fe FieldExpr) queryir.Condition {
	col := fieldTypeToColumn(fe.Field)
	return queryir.Condition{Column: col, Cmp: fieldValueToCmp(fe.Op, fe.Value)}
}

func fieldTypeToColumn(ft FieldType) queryir.Column {
	switch ft.Scope {
	case ScopeSpan:
		return queryir.Attributes(ft.Key)
	case ScopeResource:
		return queryir.Resources(ft.Key)
	case ScopeIntrinsic:
		return queryir.Raw(intrinsicColumn(ft.Intrinsic))
	default:
		return queryir.Raw(ft.Key)
	}
}

// intrinsicColumn maps a TraceQL intrinsic to its physical raw column name.
func intrinsicColumn(f IntrinsicField) string {
	switch f {
	case IntrinsicStatus:
		return "StatusCode"
	case IntrinsicStatusMessage:
		return "StatusMessage"
	case IntrinsicDuration:
		return "Duration"
	case IntrinsicName:
		return "SpanName"
	case IntrinsicKind:
		return "SpanKind"
	case IntrinsicTraceDuration:
		return "TraceDuration"
	case IntrinsicRootName:
		return "RootName"
	case IntrinsicRootServiceName:
		return "RootServiceName"
	case IntrinsicServiceName:
		return "ServiceName"
	default:
		return ""
	}
}

func fieldValueToCmp(op ComparisonOperator, v FieldValue) queryir.Cmp {
	pv := fieldValueToPlaceValue(v)
	switch op {
	case OpEq:
		return queryir.CmpEq(pv)
	case OpNeq:
		return queryir.CmpNeq(pv)
	case OpLarger:
		return queryir.CmpLarger(pv)
	case OpLargerEqual:
		return queryir.CmpLargerEqual(pv)
	case OpLess:
		return queryir.CmpLess(pv)
	case OpLessEqual:
		return queryir.CmpLessEqual(pv)
	default:
		return queryir.CmpEq(pv)
	}
}

func fieldValueToPlaceValue(v FieldValue) queryir.PlaceValue {
	switch v.Kind {
	case ValInteger:
		return queryir.IntegerValue(v.Int)
	case ValFloat:
		return queryir.FloatValue(v.Flt)
	case ValString:
		return queryir.StringValue(v.Str)
	case ValStatus:
		return queryir.IntegerValue(int64(v.Status))
	case ValKind:
		return queryir.IntegerValue(int64(v.SpanKind))
	case ValDuration:
		return queryir.IntegerValue(v.Duration.Nanoseconds())
	default:
		return queryir.StringValue("")
	}
}
