// Package queryir defines the backend-neutral intermediate representation
// that both the LogQL and TraceQL pipelines lower into before a
// dialect-specific converter renders it to SQL.
package queryir

import "time"

// ColumnKind tags the variant held by Column.
type ColumnKind int

const (
	ColMessage ColumnKind = iota
	ColTimestamp
	ColLevel
	ColTraceID
	ColResources
	ColAttributes
	ColRaw
)

// Column names a logical field a Condition compares against. Resources and
// Attributes carry a map key; Raw carries a physical column name untouched
// by any dialect mapping.
type Column struct {
	Kind ColumnKind
	Key  string
}

func Message() Column              { return Column{Kind: ColMessage} }
func Timestamp() Column            { return Column{Kind: ColTimestamp} }
func Level() Column                { return Column{Kind: ColLevel} }
func TraceID() Column              { return Column{Kind: ColTraceID} }
func Resources(key string) Column  { return Column{Kind: ColResources, Key: key} }
func Attributes(key string) Column { return Column{Kind: ColAttributes, Key: key} }
func Raw(name string) Column       { return Column{Kind: ColRaw, Key: name} }

// PlaceKind tags the variant held by PlaceValue.
type PlaceKind int

const (
	PlaceString PlaceKind = iota
	PlaceInteger
	PlaceFloat
)

// PlaceValue is a literal carried by a comparison Cmp. Float is held as a
// plain float64, so structural equality of two PlaceValues follows Go's
// float comparison: a NaN Float equals no PlaceValue, itself included, and
// 0 and -0 compare equal.
type PlaceValue struct {
	Kind PlaceKind
	Str  string
	Int  int64
	Flt  float64
}

func StringValue(s string) PlaceValue  { return PlaceValue{Kind: PlaceString, Str: s} }
func IntegerValue(i int64) PlaceValue  { return PlaceValue{Kind: PlaceInteger, Int: i} }
func FloatValue(f float64) PlaceValue  { return PlaceValue{Kind: PlaceFloat, Flt: f} }

// CmpOp enumerates the comparison operators a Condition may carry.
type CmpOp int

const (
	Eq CmpOp = iota
	Neq
	Larger
	LargerEqual
	Less
	LessEqual
	RegexMatch
	RegexNotMatch
	Contains
	NotContains
)

// Cmp pairs an operator with its operand. Eq..LessEqual carry a PlaceValue;
// RegexMatch/RegexNotMatch/Contains/NotContains carry a raw string (regex
// source or space-delimited token expression, respectively).
type Cmp struct {
	Op    CmpOp
	Value PlaceValue
	Raw   string
}

func CmpEq(v PlaceValue) Cmp          { return Cmp{Op: Eq, Value: v} }
func CmpNeq(v PlaceValue) Cmp         { return Cmp{Op: Neq, Value: v} }
func CmpLarger(v PlaceValue) Cmp      { return Cmp{Op: Larger, Value: v} }
func CmpLargerEqual(v PlaceValue) Cmp { return Cmp{Op: LargerEqual, Value: v} }
func CmpLess(v PlaceValue) Cmp        { return Cmp{Op: Less, Value: v} }
func CmpLessEqual(v PlaceValue) Cmp   { return Cmp{Op: LessEqual, Value: v} }
func CmpRegexMatch(expr string) Cmp   { return Cmp{Op: RegexMatch, Raw: expr} }
func CmpRegexNotMatch(expr string) Cmp { return Cmp{Op: RegexNotMatch, Raw: expr} }
func CmpContains(expr string) Cmp     { return Cmp{Op: Contains, Raw: expr} }
func CmpNotContains(expr string) Cmp  { return Cmp{Op: NotContains, Raw: expr} }

// Condition is a single leaf predicate: a column compared via Cmp.
type Condition struct {
	Column Column
	Cmp    Cmp
}

// SelectionKind tags the variant held by Selection.
type SelectionKind int

const (
	SelUnit SelectionKind = iota
	SelAnd
	SelOr
)

// Selection is an immutable boolean tree of Conditions. Zero value is never
// used directly; construct via Unit/And/Or.
type Selection struct {
	Kind  SelectionKind
	Cond  Condition
	Left  *Selection
	Right *Selection
}

func Unit(c Condition) *Selection {
	return &Selection{Kind: SelUnit, Cond: c}
}

func And(l, r *Selection) *Selection {
	return &Selection{Kind: SelAnd, Left: l, Right: r}
}

func Or(l, r *Selection) *Selection {
	return &Selection{Kind: SelOr, Left: l, Right: r}
}

// ConditionsIntoSelection folds a non-empty sequence of Conditions into a
// right-leaning And chain: cond[0] And (cond[1] And (cond[2] And ...)).
// Returns nil for an empty sequence.
func ConditionsIntoSelection(conds []Condition) *Selection {
	if len(conds) == 0 {
		return nil
	}
	sel := Unit(conds[len(conds)-1])
	for i := len(conds) - 2; i >= 0; i-- {
		sel = And(Unit(conds[i]), sel)
	}
	return sel
}

// SortDirection orders an ORDER BY column.
type SortDirection int

const (
	Asc SortDirection = iota
	Desc
)

// SortKey is one ORDER BY entry.
type SortKey struct {
	Column    string
	Direction SortDirection
}

// OrdType selects which side of a timing bound a predicate enforces.
type OrdType int

const (
	TimingGTE OrdType = iota
	TimingLTE
)

// TimingBound is one WHERE-clause timestamp bound, rendered via
// QueryConverter.ConvertTiming.
type TimingBound struct {
	Op   OrdType
	When time.Time
}

// TableSchema exposes the physical column names a backend uses for the
// logical concepts the IR and converters need. One implementation per
// backend/table shape.
type TableSchema interface {
	Table() string
	TimestampColumn() string
	MessageColumn() string
	LevelColumn() string
	TraceIDColumn() string
	SpanIDColumn() string
	ResourcesColumn() string
	AttributesColumn() string
}

// QueryConverter renders dialect-specific SQL fragments for conditions and
// timing bounds. Implemented once per backend (see pkg/chconv).
type QueryConverter interface {
	ConvertCondition(Condition) string
	ConvertTiming(tsColumn string, bound TimingBound) string
}

// QueryPlan is the language-neutral query description that the SQL emitter
// (QueryPlan.SQL) renders into a single statement.
type QueryPlan struct {
	Schema     TableSchema
	Projection []string
	Selection  *Selection
	Grouping   []string
	Sorting    []SortKey
	Timing     []TimingBound
	Limit      int
}
