package chconv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caibirdme/qrygw/pkg/queryir"
)

// Converter implements queryir.QueryConverter for the ClickHouse dialect.
// ReplaceDashToDot mirrors the ClickhouseLog `replace_dash_to_dot` config
// flag. CaseInsensitiveLevel has no config key of its own; its callers set
// it (cmd/qrygw for the log table, NewTraceQuerier for the span table).
type Converter struct {
	Table               queryir.TableSchema
	ReplaceDashToDot     bool
	CaseInsensitiveLevel bool
	// NanosecondTiming selects toDateTime64(ts, 9) instead of toDateTime(ts)
	// for convert_timing, for tables whose timestamp column needs
	// nanosecond precision (the span table).
	NanosecondTiming bool
}

var _ queryir.QueryConverter = Converter{}

func (c Converter) ConvertCondition(cond queryir.Condition) string {
	col := c.columnName(cond.Column)
	cmp := cond.Cmp

	switch cmp.Op {
	case queryir.Eq, queryir.Neq:
		if cond.Column.Kind == queryir.ColLevel && c.CaseInsensitiveLevel {
			op := "ILIKE"
			if cmp.Op == queryir.Neq {
				op = "NOT ILIKE"
			}
			return fmt.Sprintf("%s %s %s", col, op, renderPlaceValue(cmp.Value))
		}
		op := "="
		if cmp.Op == queryir.Neq {
			op = "!="
		}
		return fmt.Sprintf("%s %s %s", col, op, renderPlaceValue(cmp.Value))
	case queryir.Larger:
		return fmt.Sprintf("%s > %s", col, renderPlaceValue(cmp.Value))
	case queryir.LargerEqual:
		return fmt.Sprintf("%s >= %s", col, renderPlaceValue(cmp.Value))
	case queryir.Less:
		return fmt.Sprintf("%s < %s", col, renderPlaceValue(cmp.Value))
	case queryir.LessEqual:
		return fmt.Sprintf("%s <= %s", col, renderPlaceValue(cmp.Value))
	case queryir.RegexMatch:
		return fmt.Sprintf("match(%s, '%s')", col, cmp.Raw)
	case queryir.RegexNotMatch:
		return fmt.Sprintf("NOT match(%s, '%s')", col, cmp.Raw)
	case queryir.Contains:
		return joinTokens(col, cmp.Raw, false)
	case queryir.NotContains:
		return joinTokens(col, cmp.Raw, true)
	default:
		return "1"
	}
}

func joinTokens(col, expr string, negate bool) string {
	var parts []string
	for _, tok := range strings.Split(expr, " ") {
		if tok == "" {
			continue
		}
		if negate {
			parts = append(parts, fmt.Sprintf("NOT hasToken(%s, '%s')", col, tok))
		} else {
			parts = append(parts, fmt.Sprintf("hasToken(%s, '%s')", col, tok))
		}
	}
	return strings.Join(parts, " AND ")
}

func renderPlaceValue(v queryir.PlaceValue) string {
	switch v.Kind {
	case queryir.PlaceString:
		return "'" + strings.ReplaceAll(v.Str, "'", "\\'") + "'"
	case queryir.PlaceInteger:
		return strconv.FormatInt(v.Int, 10)
	case queryir.PlaceFloat:
		return strconv.FormatFloat(v.Flt, 'f', -1, 64)
	default:
		return "NULL"
	}
}

func (c Converter) columnName(col queryir.Column) string {
	switch col.Kind {
	case queryir.ColMessage:
		return c.Table.MessageColumn()
	case queryir.ColTimestamp:
		return c.Table.TimestampColumn()
	case queryir.ColLevel:
		return c.Table.LevelColumn()
	case queryir.ColTraceID:
		return c.Table.TraceIDColumn()
	case queryir.ColResources:
		// Open question (preserved from the original implementation): the
		// flag is consulted directly for Resources...
		key := col.Key
		if c.ReplaceDashToDot {
			key = strings.ReplaceAll(key, "_", ".")
		}
		return fmt.Sprintf("%s['%s']", c.Table.ResourcesColumn(), key)
	case queryir.ColAttributes:
		// ...and inverted for Attributes: the rewrite only applies when the
		// flag is OFF. Kept as observed rather than "fixed".
		key := col.Key
		if !c.ReplaceDashToDot {
			key = strings.ReplaceAll(key, "_", ".")
		}
		return fmt.Sprintf("%s['%s']", c.Table.AttributesColumn(), key)
	case queryir.ColRaw:
		return col.Key
	default:
		return ""
	}
}

func (c Converter) ConvertTiming(tsColumn string, bound queryir.TimingBound) string {
	op := ">="
	if bound.Op == queryir.TimingLTE {
		op = "<="
	}
	unix := bound.When.Unix()
	if c.NanosecondTiming {
		return fmt.Sprintf("%s%stoDateTime64(%d, 9)", tsColumn, op, unix)
	}
	return fmt.Sprintf("%s%stoDateTime(%d)", tsColumn, op, unix)
}
