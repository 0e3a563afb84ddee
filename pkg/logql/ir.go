package logql

import (
	"strings"

	"github.com/caibirdme/qrygw/pkg/queryir"
)

// ToConditions lowers a LogQuery's selector and filters into a left-to-right
// ordered sequence of queryir.Condition, following the LogQL->IR visitor
// mapping rules. Drop filters contribute nothing.
func (q LogQuery) ToConditions() []queryir.Condition {
	var conds []queryir.Condition
	for _, lp := range q.Selector {
		conds = append(conds, labelPairCondition(lp))
	}
	for _, f := range q.Filters {
		if lf, ok := f.(LineFilter); ok {
			conds = append(conds, lineFilterCondition(lf))
		}
	}
	return conds
}

// ToSelection folds ToConditions into a queryir.Selection via the same
// right-leaning And chain the IR package defines; nil when there are no
// conditions at all.
func (q LogQuery) ToSelection() *queryir.Selection {
	return queryir.ConditionsIntoSelection(q.ToConditions())
}

func labelPairCondition(lp LabelPair) queryir.Condition {
	lower := strings.ToLower(lp.Label)

	// Documented quirk: any trace_id/traceid label forces Eq regardless of
	// the source operator.
	if lower == "trace_id" || lower == "traceid" {
		return queryir.Condition{
			Column: queryir.TraceID(),
			Cmp:    queryir.CmpEq(queryir.StringValue(lp.Value)),
		}
	}

	var col queryir.Column
	switch {
	case lower == "level" || lower == "severitytext":
		col = queryir.Level()
	case strings.HasPrefix(lower, "resources_"):
		col = queryir.Resources(lp.Label[len("resources_"):])
	case strings.HasPrefix(lower, "attributes_"):
		col = queryir.Attributes(lp.Label[len("attributes_"):])
	default:
		col = queryir.Raw(lp.Label)
	}

	return queryir.Condition{Column: col, Cmp: labelOpCmp(lp.Op, lp.Value)}
}

func labelOpCmp(op LabelOp, value string) queryir.Cmp {
	switch op {
	case LabelEq:
		return queryir.CmpEq(queryir.StringValue(value))
	case LabelNeq:
		return queryir.CmpNeq(queryir.StringValue(value))
	case LabelRegexMatch:
		return queryir.CmpRegexMatch(value)
	case LabelRegexNotMatch:
		return queryir.CmpRegexNotMatch(value)
	default:
		return queryir.CmpEq(queryir.StringValue(value))
	}
}

func lineFilterCondition(lf LineFilter) queryir.Condition {
	var cmp queryir.Cmp
	switch lf.Op {
	case LineContain:
		cmp = queryir.CmpContains(lf.Expr)
	case LineNotContain:
		cmp = queryir.CmpNotContains(lf.Expr)
	case LineRegexMatch:
		cmp = queryir.CmpRegexMatch(lf.Expr)
	case LineRegexNotMatch:
		cmp = queryir.CmpRegexNotMatch(lf.Expr)
	}
	return queryir.Condition{Column: queryir.Message(), Cmp: cmp}
}
