package traceql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseSingleSpanSetRightAssociative(t *testing.T) {
	expr, err := Parse(`{resource.app="camp" && duration > 1m30s && status!=ok}`)
	require.NoError(t, err)
	require.Equal(t, ExprSpanSet, expr.Kind)

	ss := expr.SpanSet
	require.Equal(t, SpanSetLogical, ss.Kind)
	require.Equal(t, LogicalAnd, ss.Op)
	require.Equal(t, SpanSetExpr, ss.Left.Kind)
	require.Equal(t, ScopeResource, ss.Left.Expr.Field.Scope)
	require.Equal(t, "app", ss.Left.Expr.Field.Key)

	require.Equal(t, SpanSetLogical, ss.Right.Kind)
	require.Equal(t, LogicalAnd, ss.Right.Op)
	require.Equal(t, IntrinsicDuration, ss.Right.Left.Expr.Field.Intrinsic)
	require.Equal(t, 90*time.Second, ss.Right.Left.Expr.Value.Duration)
	require.Equal(t, IntrinsicStatus, ss.Right.Right.Expr.Field.Intrinsic)
	require.Equal(t, StatusOk, ss.Right.Right.Expr.Value.Status)
	require.Equal(t, OpNeq, ss.Right.Right.Expr.Op)
}

func TestParseAndBindsTighterThanOr(t *testing.T) {
	expr, err := Parse(`{a="a" && b>123 || a="aa" && b<456}`)
	require.NoError(t, err)
	ss := expr.SpanSet
	require.Equal(t, SpanSetLogical, ss.Kind)
	require.Equal(t, LogicalOr, ss.Op)

	require.Equal(t, SpanSetLogical, ss.Left.Kind)
	require.Equal(t, LogicalAnd, ss.Left.Op)
	require.Equal(t, "a", ss.Left.Left.Expr.Field.Key)
	require.Equal(t, int64(123), ss.Left.Right.Expr.Value.Int)

	require.Equal(t, SpanSetLogical, ss.Right.Kind)
	require.Equal(t, LogicalAnd, ss.Right.Op)
	require.Equal(t, "aa", ss.Right.Left.Expr.Value.Str)
	require.Equal(t, int64(456), ss.Right.Right.Expr.Value.Int)
}

func TestParseCrossSpanSetComposition(t *testing.T) {
	expr, err := Parse(`{span.http.method="GET"} && {status=error}`)
	require.NoError(t, err)
	require.Equal(t, ExprLogical, expr.Kind)
	require.Equal(t, LogicalAnd, expr.Op)
	require.Equal(t, ExprSpanSet, expr.Left.Kind)
	require.Equal(t, ScopeSpan, expr.Left.SpanSet.Expr.Field.Scope)
	require.Equal(t, ExprSpanSet, expr.Right.Kind)
	require.Equal(t, IntrinsicStatus, expr.Right.SpanSet.Expr.Field.Intrinsic)
}

func TestParseUnscopedField(t *testing.T) {
	expr, err := Parse(`{env="prod"}`)
	require.NoError(t, err)
	require.Equal(t, ScopeUnscoped, expr.SpanSet.Expr.Field.Scope)
	require.Equal(t, "env", expr.SpanSet.Expr.Field.Key)
}
