package queryir

import (
	"fmt"
	"strings"
)

// SQL renders the plan as a single SQL statement, using conv to render
// conditions and timing bounds. Clauses appear in the fixed order
// SELECT ... FROM ... [WHERE ...] [GROUP BY ...] [ORDER BY ...] [LIMIT ...],
// and any empty clause is omitted entirely.
func (p *QueryPlan) SQL(conv QueryConverter) string {
	var b strings.Builder

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(p.Projection, ", "))
	b.WriteString(" FROM ")
	b.WriteString(p.Schema.Table())

	if where := p.whereClause(conv); where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	if len(p.Grouping) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(p.Grouping, ", "))
	}

	if len(p.Sorting) > 0 {
		b.WriteString(" ORDER BY ")
		parts := make([]string, len(p.Sorting))
		for i, s := range p.Sorting {
			dir := "ASC"
			if s.Direction == Desc {
				dir = "DESC"
			}
			parts[i] = s.Column + " " + dir
		}
		b.WriteString(strings.Join(parts, ", "))
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)
	}

	return b.String()
}

func (p *QueryPlan) whereClause(conv QueryConverter) string {
	var parts []string
	if p.Selection != nil {
		parts = append(parts, renderSelection(p.Selection, conv))
	}
	for _, t := range p.Timing {
		parts = append(parts, conv.ConvertTiming(p.Schema.TimestampColumn(), t))
	}
	return strings.Join(parts, " AND ")
}

// RenderSelection exposes the selection-tree renderer so other packages
// (the TraceQL span-set rewriter) can build SQL fragments outside a full
// QueryPlan.
func RenderSelection(s *Selection, conv QueryConverter) string {
	return renderSelection(s, conv)
}

func renderSelection(s *Selection, conv QueryConverter) string {
	switch s.Kind {
	case SelUnit:
		return conv.ConvertCondition(s.Cond)
	case SelAnd:
		return "(" + renderSelection(s.Left, conv) + " AND " + renderSelection(s.Right, conv) + ")"
	case SelOr:
		return "(" + renderSelection(s.Left, conv) + " OR " + renderSelection(s.Right, conv) + ")"
	default:
		return ""
	}
}
