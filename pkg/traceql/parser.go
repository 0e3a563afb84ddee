package traceql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ParseError carries the rune offset reached, mirroring AppError::InvalidTraceQL.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid traceql at position %d: %s", e.Pos, e.Msg)
}

var parseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "qrygw",
	Subsystem: "traceql",
	Name:      "parse_duration_seconds",
	Help:      "TraceQL parse timings.",
	Buckets:   prometheus.DefBuckets,
})

type parser struct {
	src []rune
	pos int
}

// Parse parses a complete TraceQL expression. Any residual input after a
// successful top-level parse is a ParseError.
func Parse(input string) (*Expression, error) {
	start := time.Now()
	p := &parser{src: []rune(input)}
	expr, err := p.parseOrExpression()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if !p.eof() {
		return nil, p.errf("unexpected trailing input %q", string(p.src[p.pos:]))
	}
	parseDuration.Observe(time.Since(start).Seconds())
	return expr, nil
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipWS() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || r == '.' || r == '-' || (r >= '0' && r <= '9')
}

func (p *parser) peekStr(s string) bool {
	p.skipWS()
	if p.pos+len(s) > len(p.src) {
		return false
	}
	return string(p.src[p.pos:p.pos+len(s)]) == s
}

func (p *parser) consumeStr(s string) bool {
	if p.peekStr(s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) expect(s string) error {
	if !p.consumeStr(s) {
		return p.errf("expected %q", s)
	}
	return nil
}

// ---- expression level: loosest-to-tightest is || across span-sets, &&
// across span-sets, grouping/span-set boundary ----

func (p *parser) parseOrExpression() (*Expression, error) {
	left, err := p.parseAndExpression()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.consumeStr("||") {
		right, err := p.parseOrExpression()
		if err != nil {
			return nil, err
		}
		return &Expression{Kind: ExprLogical, Op: LogicalOr, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAndExpression() (*Expression, error) {
	left, err := p.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.consumeStr("&&") {
		right, err := p.parseAndExpression()
		if err != nil {
			return nil, err
		}
		return &Expression{Kind: ExprLogical, Op: LogicalAnd, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parsePrimaryExpression() (*Expression, error) {
	p.skipWS()
	if p.consumeStr("(") {
		inner, err := p.parseOrExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	ss, err := p.parseSpanSetBoundary()
	if err != nil {
		return nil, err
	}
	return &Expression{Kind: ExprSpanSet, SpanSet: *ss}, nil
}

func (p *parser) parseSpanSetBoundary() (*SpanSet, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	ss, err := p.parseOrFieldExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return ss, nil
}

// ---- span-set level: || loosest, && tighter, comparison tightest ----

func (p *parser) parseOrFieldExpr() (*SpanSet, error) {
	left, err := p.parseAndFieldExpr()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.consumeStr("||") {
		right, err := p.parseOrFieldExpr()
		if err != nil {
			return nil, err
		}
		return &SpanSet{Kind: SpanSetLogical, Op: LogicalOr, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAndFieldExpr() (*SpanSet, error) {
	left, err := p.parseCmpFieldExpr()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.consumeStr("&&") {
		right, err := p.parseAndFieldExpr()
		if err != nil {
			return nil, err
		}
		return &SpanSet{Kind: SpanSetLogical, Op: LogicalAnd, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseCmpFieldExpr() (*SpanSet, error) {
	fe, err := p.parseFieldExpr()
	if err != nil {
		return nil, err
	}
	return &SpanSet{Kind: SpanSetExpr, Expr: fe}, nil
}

// ---- leaf field expression ----

func (p *parser) parseFieldExpr() (FieldExpr, error) {
	field, err := p.parseFieldType()
	if err != nil {
		return FieldExpr{}, err
	}
	op, err := p.parseComparisonOperator()
	if err != nil {
		return FieldExpr{}, err
	}
	val, err := p.parseFieldValue(field)
	if err != nil {
		return FieldExpr{}, err
	}
	return FieldExpr{Field: field, Op: op, Value: val}, nil
}

func (p *parser) parseRawIdent() (string, error) {
	p.skipWS()
	if p.eof() || !isIdentStart(p.src[p.pos]) {
		return "", p.errf("expected identifier")
	}
	start := p.pos
	for !p.eof() && isIdentRune(p.src[p.pos]) {
		p.pos++
	}
	return string(p.src[start:p.pos]), nil
}

func (p *parser) parseFieldType() (FieldType, error) {
	id, err := p.parseRawIdent()
	if err != nil {
		return FieldType{}, err
	}
	if scope, key, ok := strings.Cut(id, "."); ok && key != "" {
		switch scope {
		case "span":
			return FieldType{Scope: ScopeSpan, Key: key}, nil
		case "resource":
			return FieldType{Scope: ScopeResource, Key: key}, nil
		}
	}
	switch id {
	case "span":
		if err := p.expect("."); err != nil {
			return FieldType{}, err
		}
		key, err := p.parseRawIdent()
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Scope: ScopeSpan, Key: key}, nil
	case "resource":
		if err := p.expect("."); err != nil {
			return FieldType{}, err
		}
		key, err := p.parseRawIdent()
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Scope: ScopeResource, Key: key}, nil
	default:
		if intr, ok := intrinsicNames[id]; ok {
			return FieldType{Scope: ScopeIntrinsic, Intrinsic: intr}, nil
		}
		return FieldType{Scope: ScopeUnscoped, Key: id}, nil
	}
}

func (p *parser) parseComparisonOperator() (ComparisonOperator, error) {
	p.skipWS()
	switch {
	case p.consumeStr(">="):
		return OpLargerEqual, nil
	case p.consumeStr("<="):
		return OpLessEqual, nil
	case p.consumeStr("!="):
		return OpNeq, nil
	case p.consumeStr("="):
		return OpEq, nil
	case p.consumeStr(">"):
		return OpLarger, nil
	case p.consumeStr("<"):
		return OpLess, nil
	default:
		return 0, p.errf("expected comparison operator")
	}
}

func (p *parser) parseFieldValue(field FieldType) (FieldValue, error) {
	p.skipWS()
	if field.Scope == ScopeIntrinsic && field.Intrinsic == IntrinsicStatus {
		return p.parseStatusLiteral()
	}
	if field.Scope == ScopeIntrinsic && field.Intrinsic == IntrinsicKind {
		return p.parseKindLiteral()
	}
	if field.Scope == ScopeIntrinsic &&
		(field.Intrinsic == IntrinsicDuration || field.Intrinsic == IntrinsicTraceDuration) {
		return p.parseDurationLiteral()
	}
	if p.eof() {
		return FieldValue{}, p.errf("expected value")
	}
	if p.src[p.pos] == '"' || p.src[p.pos] == '`' {
		return p.parseStringLiteral()
	}
	if p.src[p.pos] == '-' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9') {
		return p.parseNumberOrDuration()
	}
	return p.parseStringLiteral()
}

func (p *parser) parseStringLiteral() (FieldValue, error) {
	if p.eof() {
		return FieldValue{}, p.errf("expected string literal")
	}
	quote := p.src[p.pos]
	if quote != '"' && quote != '`' {
		return FieldValue{}, p.errf("expected quoted string")
	}
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			return FieldValue{}, p.errf("unterminated string")
		}
		r := p.src[p.pos]
		if r == quote {
			p.pos++
			return FieldValue{Kind: ValString, Str: b.String()}, nil
		}
		if quote == '"' && r == '\\' && p.pos+1 < len(p.src) {
			next := p.src[p.pos+1]
			if next == '"' || next == '\\' {
				b.WriteRune(next)
				p.pos += 2
				continue
			}
		}
		b.WriteRune(r)
		p.pos++
	}
}

func (p *parser) parseStatusLiteral() (FieldValue, error) {
	id, err := p.parseRawIdent()
	if err != nil {
		return FieldValue{}, err
	}
	code, ok := statusLiterals[strings.ToLower(id)]
	if !ok {
		return FieldValue{}, p.errf("invalid status literal %q", id)
	}
	return FieldValue{Kind: ValStatus, Status: code}, nil
}

func (p *parser) parseKindLiteral() (FieldValue, error) {
	id, err := p.parseRawIdent()
	if err != nil {
		return FieldValue{}, err
	}
	kind, ok := spanKindLiterals[strings.ToLower(id)]
	if !ok {
		return FieldValue{}, p.errf("invalid kind literal %q", id)
	}
	return FieldValue{Kind: ValKind, SpanKind: kind}, nil
}

func (p *parser) parseDurationLiteral() (FieldValue, error) {
	start := p.pos
	for !p.eof() && (isIdentRune(p.src[p.pos]) || p.src[p.pos] == '-') {
		p.pos++
	}
	lit := string(p.src[start:p.pos])
	d, err := time.ParseDuration(lit)
	if err != nil {
		return FieldValue{}, p.errf("invalid duration literal %q: %v", lit, err)
	}
	return FieldValue{Kind: ValDuration, Duration: d}, nil
}

func (p *parser) parseNumberOrDuration() (FieldValue, error) {
	start := p.pos
	if !p.eof() && p.src[p.pos] == '-' {
		p.pos++
	}
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	isFloat := false
	if !p.eof() && p.src[p.pos] == '.' {
		isFloat = true
		p.pos++
		for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	// a trailing unit letter (s/m/h/ns/us/ms) means this is a duration literal
	if !p.eof() && isIdentStart(p.src[p.pos]) {
		for !p.eof() && isIdentRune(p.src[p.pos]) {
			p.pos++
		}
		lit := string(p.src[start:p.pos])
		d, err := time.ParseDuration(lit)
		if err != nil {
			return FieldValue{}, p.errf("invalid duration literal %q: %v", lit, err)
		}
		return FieldValue{Kind: ValDuration, Duration: d}, nil
	}
	lit := string(p.src[start:p.pos])
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return FieldValue{}, p.errf("invalid float literal %q: %v", lit, err)
		}
		return FieldValue{Kind: ValFloat, Flt: f}, nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return FieldValue{}, p.errf("invalid integer literal %q: %v", lit, err)
	}
	return FieldValue{Kind: ValInteger, Int: i}, nil
}
