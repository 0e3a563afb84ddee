package logql

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ParseError carries the rune offset the parser had reached, mirroring the
// nom parser error original_source surfaces as AppError::InvalidLogQL.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid logql at position %d: %s", e.Pos, e.Msg)
}

// parseDurationHist mirrors the query_duration_seconds histogram the
// teacher's query engine registers, scoped here to parsing rather than
// full execution since this gateway's "execution" is a SQL rewrite, not
// an in-process query engine.
var parseDurationHist = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "qrygw",
	Subsystem: "logql",
	Name:      "parse_duration_seconds",
	Help:      "LogQL parse timings by result query type.",
	Buckets:   prometheus.DefBuckets,
}, []string{"query_type"})

type parser struct {
	src []rune
	pos int
}

// Parse parses a complete LogQL query string into either a LogQuery or a
// MetricQuery. The parser must consume the entire input; trailing garbage
// is a parse error.
func Parse(input string) (*Query, error) {
	start := time.Now()
	p := &parser{src: []rune(input)}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if !p.eof() {
		return nil, p.errf("unexpected trailing input %q", string(p.src[p.pos:]))
	}
	queryType := "log"
	if q.Metric != nil {
		queryType = "metric"
	}
	parseDurationHist.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
	return q, nil
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

func isIdentRune(r rune) bool {
	return r == '.' || r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
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

func (p *parser) parseIdent() (string, error) {
	p.skipWS()
	start := p.pos
	for !p.eof() && isIdentRune(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errf("expected identifier")
	}
	return string(p.src[start:p.pos]), nil
}

// parseQuoted accepts a backtick-delimited raw string or a double-quoted
// string with `\"` and `\\` escapes.
func (p *parser) parseQuoted() (string, error) {
	p.skipWS()
	if p.eof() {
		return "", p.errf("expected string literal")
	}
	switch p.src[p.pos] {
	case '`':
		p.pos++
		start := p.pos
		for !p.eof() && p.src[p.pos] != '`' {
			p.pos++
		}
		if p.eof() {
			return "", p.errf("unterminated backtick string")
		}
		s := string(p.src[start:p.pos])
		p.pos++
		return s, nil
	case '"':
		p.pos++
		var b strings.Builder
		for {
			if p.eof() {
				return "", p.errf("unterminated string")
			}
			r := p.src[p.pos]
			if r == '"' {
				p.pos++
				return b.String(), nil
			}
			if r == '\\' && p.pos+1 < len(p.src) {
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
	default:
		return "", p.errf("expected string literal")
	}
}

func (p *parser) parseLabelOp() (LabelOp, error) {
	p.skipWS()
	switch {
	case p.consumeStr("=~"):
		return LabelRegexMatch, nil
	case p.consumeStr("!~"):
		return LabelRegexNotMatch, nil
	case p.consumeStr("!="):
		return LabelNeq, nil
	case p.consumeStr("="):
		return LabelEq, nil
	default:
		return 0, p.errf("expected label operator")
	}
}

func (p *parser) parseLabelPair() (LabelPair, error) {
	label, err := p.parseIdent()
	if err != nil {
		return LabelPair{}, err
	}
	op, err := p.parseLabelOp()
	if err != nil {
		return LabelPair{}, err
	}
	val, err := p.parseQuoted()
	if err != nil {
		return LabelPair{}, err
	}
	return LabelPair{Label: label, Op: op, Value: val}, nil
}

func (p *parser) parseSelector() ([]LabelPair, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var pairs []LabelPair
	p.skipWS()
	if p.peekStr("}") {
		p.consumeStr("}")
		return pairs, nil
	}
	for {
		lp, err := p.parseLabelPair()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, lp)
		if p.consumeStr(",") {
			continue
		}
		break
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (p *parser) parseFilterChain() ([]Filter, error) {
	var filters []Filter
	for {
		p.skipWS()
		switch {
		case p.peekStr("|="):
			p.consumeStr("|=")
			expr, err := p.parseQuoted()
			if err != nil {
				return nil, err
			}
			if expr != "" {
				filters = append(filters, LineFilter{Op: LineContain, Expr: expr})
			}
		case p.peekStr("!="):
			p.consumeStr("!=")
			expr, err := p.parseQuoted()
			if err != nil {
				return nil, err
			}
			if expr != "" {
				filters = append(filters, LineFilter{Op: LineNotContain, Expr: expr})
			}
		case p.peekStr("|~"):
			p.consumeStr("|~")
			expr, err := p.parseQuoted()
			if err != nil {
				return nil, err
			}
			if expr != "" {
				filters = append(filters, LineFilter{Op: LineRegexMatch, Expr: expr})
			}
		case p.peekStr("!~"):
			p.consumeStr("!~")
			expr, err := p.parseQuoted()
			if err != nil {
				return nil, err
			}
			if expr != "" {
				filters = append(filters, LineFilter{Op: LineRegexNotMatch, Expr: expr})
			}
		case p.peekStr("|"):
			save := p.pos
			p.consumeStr("|")
			p.skipWS()
			if p.consumeStr("drop") {
				ident, err := p.parseIdent()
				if err != nil {
					return nil, err
				}
				filters = append(filters, DropFilter{Ident: ident})
				continue
			}
			p.pos = save
			return filters, nil
		default:
			return filters, nil
		}
	}
}

func (p *parser) parseLogQuery() (LogQuery, error) {
	sel, err := p.parseSelector()
	if err != nil {
		return LogQuery{}, err
	}
	filters, err := p.parseFilterChain()
	if err != nil {
		return LogQuery{}, err
	}
	if len(filters) == 0 {
		filters = nil
	}
	return LogQuery{Selector: sel, Filters: filters}, nil
}

func (p *parser) parseByClause() ([]string, error) {
	if err := p.expect("by"); err != nil {
		return nil, err
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var labels []string
	for {
		id, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		labels = append(labels, id)
		if p.consumeStr(",") {
			continue
		}
		break
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return labels, nil
}

func (p *parser) parseAgg() (AggOp, error) {
	switch {
	case p.consumeStr("sum"):
		return AggSum, nil
	case p.consumeStr("avg"):
		return AggAvg, nil
	default:
		return 0, p.errf("expected aggregator (sum|avg)")
	}
}

func (p *parser) parseFunc() (FuncOp, error) {
	switch {
	case p.consumeStr("count_over_time"):
		return FuncCountOverTime, nil
	case p.consumeStr("rate"):
		return FuncRate, nil
	default:
		return 0, p.errf("expected function (rate|count_over_time)")
	}
}

// parseQuery tries the metric-query grammar (agg keyword lookahead) before
// falling back to a bare log query.
func (p *parser) parseQuery() (*Query, error) {
	p.skipWS()
	if p.peekStr("sum") || p.peekStr("avg") {
		mq, err := p.parseMetricQuery()
		if err != nil {
			return nil, err
		}
		return &Query{Metric: mq}, nil
	}
	lq, err := p.parseLogQuery()
	if err != nil {
		return nil, err
	}
	return &Query{Log: &lq}, nil
}

func (p *parser) parseMetricQuery() (*MetricQuery, error) {
	agg, err := p.parseAgg()
	if err != nil {
		return nil, err
	}

	var leadingBy []string
	p.skipWS()
	if p.peekStr("by") {
		leadingBy, err = p.parseByClause()
		if err != nil {
			return nil, err
		}
	}

	if err := p.expect("("); err != nil {
		return nil, err
	}
	fn, err := p.parseFunc()
	if err != nil {
		return nil, err
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	lq, err := p.parseLogQuery()
	if err != nil {
		return nil, err
	}
	if err := p.expect("["); err != nil {
		return nil, err
	}
	durStr, err := p.parseDurationLiteral()
	if err != nil {
		return nil, err
	}
	dur, err := parseDuration(durStr)
	if err != nil {
		return nil, p.errf("invalid duration %q: %v", durStr, err)
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	by := leadingBy
	p.skipWS()
	if p.peekStr("by") {
		trailingBy, err := p.parseByClause()
		if err != nil {
			return nil, err
		}
		by = trailingBy
	}

	return &MetricQuery{
		Aggregator: agg,
		Func:       fn,
		By:         by,
		Range:      dur,
		LogQuery:   lq,
	}, nil
}

func (p *parser) parseDurationLiteral() (string, error) {
	p.skipWS()
	start := p.pos
	for !p.eof() && p.src[p.pos] != ']' {
		p.pos++
	}
	if p.pos == start {
		return "", p.errf("expected duration literal")
	}
	return strings.TrimSpace(string(p.src[start:p.pos])), nil
}
