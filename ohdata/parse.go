package ohdata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNoRules is wrapped by the ParseError returned for a value without a usable rule.
var ErrNoRules = errors.New("no usable rule")

// Warning messages. They double as keys of the message catalogs that translate them.
const (
	MsgUnexpected          = "unexpected %s"
	MsgEmptyRule           = "empty rule"
	MsgUnterminatedComment = "unterminated comment"
	MsgExpectedTime        = "expected a time instead of %s"
	MsgExpectedNumber      = "expected a number instead of %s"
	MsgExpectedDate        = "expected a date instead of %s"
	MsgExpectedEvent       = "expected sunrise, sunset, dawn or dusk instead of %s"
	MsgExpectedPunct       = "expected %q instead of %s"
	MsgInvalidTime         = "invalid time %s"
	MsgYearOutOfRange      = "year %d is out of range"
	MsgWeekOutOfRange      = "week %d is out of range"
	MsgDayOutOfRange       = "day %d is out of range"
	MsgNthOutOfRange       = "occurrence %d is out of range"
	MsgReversedRange       = "range %s is reversed"
	MsgInvalidStep         = "step %d is invalid"
)

const (
	minYear = 1900
	maxYear = 9999
	// maxMinutes is the latest time of day a span may end at, 48:00.
	maxMinutes = 2 * minutesPerDay
)

// tokenEOF is the kind of the token returned when reading past the end of input.
const tokenEOF TokenKind = -1

// syntaxError is a problem in a single rule. The parser turns it into a Warning.
type syntaxError struct {
	tok    Token
	format string
	args   []any
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.tok.Offset, fmt.Sprintf(e.format, e.args...))
}

// ParseString tokenizes and parses an opening_hours value.
func ParseString(value string) ([]Rule, []Warning, error) {
	return Parse(Tokenize(value))
}

// Parse builds the rules of an opening_hours value from its tokens.
//
// Malformed rules are skipped and reported as warnings; parsing resumes at the
// next ";", "||" or "," followed by the start of a new rule. If no rule could
// be parsed, Parse returns a *ParseError that describes the first problem.
func Parse(tokens []Token) ([]Rule, []Warning, error) {
	p := &parser{toks: tokens}
	rules := p.parseRules()
	if len(rules) == 0 {
		if len(p.warnings) == 0 {
			return nil, nil, &ParseError{Err: ErrNoRules}
		}
		w := p.warnings[0]
		return nil, p.warnings, &ParseError{Offset: w.Offset, Text: w.Text, Err: fmt.Errorf("%w: %s", ErrNoRules, w.Message)}
	}
	return rules, p.warnings, nil
}

type parser struct {
	toks     []Token
	pos      int
	warnings []Warning
}

func (p *parser) peek(n int) Token {
	i := p.pos + n
	if i < 0 || i >= len(p.toks) {
		end := 0
		if len(p.toks) > 0 {
			last := p.toks[len(p.toks)-1]
			end = last.Offset + len(last.Text)
		}
		return Token{Kind: tokenEOF, Offset: end}
	}
	return p.toks[i]
}

func (p *parser) next() Token {
	t := p.peek(0)
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) eof() bool {
	return p.pos >= len(p.toks)
}

// atRuleEnd reports whether the current token ends a rule.
func (p *parser) atRuleEnd() bool {
	t := p.peek(0)
	return t.Kind == tokenEOF || t.is(";") || t.is(",") || t.is("||")
}

// text reconstructs the source text of the tokens in [from, to).
func (p *parser) text(from, to int) string {
	var b strings.Builder
	for i := from; i < to && i < len(p.toks); i++ {
		t := p.toks[i]
		if i > from {
			prev := p.toks[i-1]
			if t.Offset > prev.Offset+len(prev.Text) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	return &syntaxError{tok: tok, format: format, args: args}
}

func (p *parser) unexpected(tok Token) error {
	if tok.Kind == TokenUnknown && (strings.HasPrefix(tok.Text, `"`) || strings.HasPrefix(tok.Text, "“") || strings.HasPrefix(tok.Text, "”")) {
		return p.errorf(tok, MsgUnterminatedComment)
	}
	return p.errorf(tok, MsgUnexpected, describe(tok))
}

// describe returns a short description of tok for warning messages.
func describe(tok Token) string {
	if tok.Kind == tokenEOF {
		return "end of input"
	}
	return strconv.Quote(tok.Text)
}

func (p *parser) parseRules() []Rule {
	var rules []Rule
	rel := RelationNormal
	for !p.eof() {
		start := p.pos
		rule, err := p.parseRule()
		if err != nil {
			p.skipRule(start, err)
		} else {
			rule.Relation = rel
			rule.Offset = p.toks[start].Offset
			rule.Text = p.text(start, p.pos)
			rules = append(rules, rule)
		}

		if p.eof() {
			break
		}
		sep := p.next()
		switch sep.Str {
		case ";":
			rel = RelationNormal
		case ",":
			rel = RelationAdditional
		case "||":
			rel = RelationFallback
		}
		if p.eof() {
			p.warnings = append(p.warnings, NewWarning(sep.Offset, sep.Text, MsgEmptyRule))
		}
	}
	return rules
}

// skipRule records err as a warning and skips to the next ";", "||" or a
// "," that starts an additional rule.
func (p *parser) skipRule(start int, err error) {
	for !p.eof() {
		t := p.peek(0)
		if t.is(";") || t.is("||") {
			break
		}
		if t.is(",") && startsRule(p.peek(1), p.peek(2)) {
			break
		}
		p.pos++
	}
	var serr *syntaxError
	if !errors.As(err, &serr) {
		serr = &syntaxError{tok: p.peek(0), format: "%v", args: []any{err}}
	}
	text := p.text(start, p.pos)
	if text == "" {
		text = serr.tok.Text
	}
	p.warnings = append(p.warnings, NewWarning(serr.tok.Offset, text, serr.format, serr.args...))
}

func (p *parser) parseRule() (Rule, error) {
	var r Rule
	if p.atRuleEnd() {
		return r, p.errorf(p.peek(0), MsgEmptyRule)
	}

	if p.peek(0).is(keywordAlwaysOpen) {
		p.pos++
		r.AlwaysOpen = true
	} else {
		if err := p.parseWideSelectors(&r); err != nil {
			return r, err
		}
		if err := p.parseSmallSelectors(&r); err != nil {
			return r, err
		}
	}

	if startsTimeSpan(p.peek(0)) {
		spans, err := p.parseTimeSpans()
		if err != nil {
			return r, err
		}
		r.Spans = spans
	}

	if t := p.peek(0); t.Kind == TokenKeyword {
		switch t.Str {
		case keywordOpen:
			r.Modifier = ModifierOpen
		case keywordClosed:
			r.Modifier = ModifierClosed
		case keywordOff:
			r.Modifier = ModifierOff
		case keywordUnknown:
			r.Modifier = ModifierUnknown
		}
		if r.Modifier != ModifierImplicit {
			p.pos++
		}
	}

	if t := p.peek(0); t.Kind == TokenComment {
		r.Comment = t.Str
		p.pos++
	}

	if !p.atRuleEnd() {
		return r, p.unexpected(p.peek(0))
	}
	return r, nil
}

// isYear reports whether t is a four digit number.
func isYear(t Token) bool {
	return t.Kind == TokenNumber && len(t.Text) == 4
}

// startsDatePoint reports whether a and b begin a month-day date.
func startsDatePoint(a, b Token) bool {
	if isYear(a) {
		a = b
	}
	return a.Kind == TokenMonth || a.is(keywordEaster)
}

// startsRule reports whether a and b begin the selectors of a rule. Times and
// plain numbers after a comma continue a list instead.
func startsRule(a, b Token) bool {
	return startsSmall(a) || a.is(keywordAlwaysOpen) || a.is(keywordWeek) ||
		isYear(a) || startsDatePoint(a, b)
}

func startsSmall(t Token) bool {
	return t.Kind == TokenWeekday || t.Kind == TokenHoliday
}

func startsTimeSpan(t Token) bool {
	return t.Kind == TokenTime || t.Kind == TokenEvent || t.is("(")
}

// parseWideSelectors parses the year, month-day and week selectors in this order.
// Each may be followed by a colon.
func (p *parser) parseWideSelectors(r *Rule) error {
	if isYear(p.peek(0)) && !startsDatePoint(p.peek(0), p.peek(1)) {
		g, err := p.parseYears()
		if err != nil {
			return err
		}
		r.Groups = append(r.Groups, g)
		p.skipColon()
	}
	if startsDatePoint(p.peek(0), p.peek(1)) {
		g, err := p.parseMonthDays()
		if err != nil {
			return err
		}
		r.Groups = append(r.Groups, g)
		p.skipColon()
	}
	if p.peek(0).is(keywordWeek) {
		g, err := p.parseWeeks()
		if err != nil {
			return err
		}
		r.Groups = append(r.Groups, g)
		p.skipColon()
	}
	return nil
}

func (p *parser) skipColon() {
	if p.peek(0).is(":") {
		p.pos++
	}
}

func (p *parser) parseYears() (SelectorGroup, error) {
	g := SelectorGroup{Dimension: DimensionYear}
	for {
		y, err := p.parseYearRange()
		if err != nil {
			return g, err
		}
		g.Items = append(g.Items, y)
		if p.peek(0).is(",") && isYear(p.peek(1)) && !startsDatePoint(p.peek(1), p.peek(2)) {
			p.pos++
			continue
		}
		return g, nil
	}
}

func (p *parser) parseYear() (int, error) {
	t := p.next()
	if t.Kind != TokenNumber {
		return 0, p.errorf(t, MsgExpectedNumber, describe(t))
	}
	if t.Value < minYear || t.Value > maxYear {
		return 0, p.errorf(t, MsgYearOutOfRange, t.Value)
	}
	return t.Value, nil
}

func (p *parser) parseYearRange() (YearRange, error) {
	start := p.peek(0)
	from, err := p.parseYear()
	if err != nil {
		return YearRange{}, err
	}
	y := YearRange{From: from, To: from}
	switch {
	case p.peek(0).is("+"):
		p.pos++
		y.OpenEnd = true
		return y, nil
	case p.peek(0).is("-") && isYear(p.peek(1)):
		p.pos++
		to, err := p.parseYear()
		if err != nil {
			return y, err
		}
		if to < from {
			return y, p.errorf(start, MsgReversedRange, fmt.Sprintf("%d-%d", from, to))
		}
		y.To = to
	}
	if p.peek(0).is("/") {
		step, err := p.parseStep()
		if err != nil {
			return y, err
		}
		y.Step = step
	}
	return y, nil
}

func (p *parser) parseStep() (int, error) {
	p.pos++ // "/"
	t := p.next()
	if t.Kind != TokenNumber {
		return 0, p.errorf(t, MsgExpectedNumber, describe(t))
	}
	if t.Value < 1 {
		return 0, p.errorf(t, MsgInvalidStep, t.Value)
	}
	return t.Value, nil
}

// parseDayOffset parses an optional "+1 day" or "-2 days" and returns the signed number of days.
func (p *parser) parseDayOffset() int {
	sign := p.peek(0)
	if !(sign.is("+") || sign.is("-")) || p.peek(1).Kind != TokenNumber || !p.peek(2).is(keywordDay) {
		return 0
	}
	n := p.peek(1).Value
	p.pos += 3
	if sign.is("-") {
		return -n
	}
	return n
}

func (p *parser) parseMonthDays() (SelectorGroup, error) {
	g := SelectorGroup{Dimension: DimensionMonthDay}
	var prev *DatePoint
	for {
		md, err := p.parseMonthDayRange(prev)
		if err != nil {
			return g, err
		}
		g.Items = append(g.Items, md)
		if !p.peek(0).is(",") {
			return g, nil
		}
		switch next := p.peek(1); {
		case startsDatePoint(next, p.peek(2)):
			prev = nil
		case next.Kind == TokenNumber && !isYear(next) && !md.From.Easter && md.From.Day != 0:
			// Dec 24,26 continues in the month of the previous item.
			from := md.From
			prev = &from
		default:
			return g, nil
		}
		p.pos++
	}
}

// parseDay parses a day of the month.
func (p *parser) parseDay() (int, error) {
	t := p.next()
	if t.Kind != TokenNumber {
		return 0, p.errorf(t, MsgExpectedNumber, describe(t))
	}
	if t.Value < 1 || t.Value > 31 {
		return 0, p.errorf(t, MsgDayOutOfRange, t.Value)
	}
	return t.Value, nil
}

func (p *parser) parseDatePoint() (DatePoint, error) {
	var d DatePoint
	if isYear(p.peek(0)) {
		y, err := p.parseYear()
		if err != nil {
			return d, err
		}
		d.Year = y
	}
	t := p.next()
	switch {
	case t.is(keywordEaster):
		d.Easter = true
	case t.Kind == TokenMonth:
		d.Month = time.Month(t.Value)
		if n := p.peek(0); n.Kind == TokenNumber && !isYear(n) {
			day, err := p.parseDay()
			if err != nil {
				return d, err
			}
			d.Day = day
		}
	default:
		return d, p.errorf(t, MsgExpectedDate, describe(t))
	}
	d.Offset = p.parseDayOffset()
	return d, nil
}

// parseMonthDayRange parses one month-day item. If prev is not nil the item
// starts with a bare day number in the month of prev.
func (p *parser) parseMonthDayRange(prev *DatePoint) (MonthDayRange, error) {
	var from DatePoint
	if prev != nil {
		day, err := p.parseDay()
		if err != nil {
			return MonthDayRange{}, err
		}
		from = DatePoint{Year: prev.Year, Month: prev.Month, Day: day}
	} else {
		var err error
		if from, err = p.parseDatePoint(); err != nil {
			return MonthDayRange{}, err
		}
	}

	md := MonthDayRange{From: from, To: from}
	switch {
	case p.peek(0).is("+"):
		p.pos++
		md.OpenEnd = true
		return md, nil
	case p.peek(0).is("-"):
		next := p.peek(1)
		switch {
		case startsDatePoint(next, p.peek(2)):
			p.pos++
			to, err := p.parseDatePoint()
			if err != nil {
				return md, err
			}
			md.To = to
		case next.Kind == TokenNumber && !from.Easter && from.Day != 0:
			// Dec 24-26
			p.pos++
			day, err := p.parseDay()
			if err != nil {
				return md, err
			}
			md.To = DatePoint{Year: from.Year, Month: from.Month, Day: day}
		default:
			p.pos++
			return md, p.errorf(next, MsgExpectedDate, describe(next))
		}
	}
	if p.peek(0).is("/") {
		step, err := p.parseStep()
		if err != nil {
			return md, err
		}
		md.Step = step
	}
	return md, nil
}

func (p *parser) parseWeeks() (SelectorGroup, error) {
	p.pos++ // "week"
	g := SelectorGroup{Dimension: DimensionWeek}
	for {
		w, err := p.parseWeekRange()
		if err != nil {
			return g, err
		}
		g.Items = append(g.Items, w)
		switch {
		case p.peek(0).is(",") && p.peek(1).Kind == TokenNumber:
			p.pos++
		case p.peek(0).is(",") && p.peek(1).is(keywordWeek):
			p.pos += 2
		default:
			return g, nil
		}
	}
}

func (p *parser) parseWeekNumber() (int, error) {
	t := p.next()
	if t.Kind != TokenNumber {
		return 0, p.errorf(t, MsgExpectedNumber, describe(t))
	}
	if t.Value < 1 || t.Value > 53 {
		return 0, p.errorf(t, MsgWeekOutOfRange, t.Value)
	}
	return t.Value, nil
}

func (p *parser) parseWeekRange() (WeekRange, error) {
	from, err := p.parseWeekNumber()
	if err != nil {
		return WeekRange{}, err
	}
	w := WeekRange{From: from, To: from}
	if p.peek(0).is("-") {
		p.pos++
		to, err := p.parseWeekNumber()
		if err != nil {
			return w, err
		}
		w.To = to
	}
	if p.peek(0).is("/") {
		step, err := p.parseStep()
		if err != nil {
			return w, err
		}
		w.Step = step
	}
	return w, nil
}

// parseSmallSelectors parses weekday and holiday groups. Items separated by
// commas form one group; groups separated by spaces must all match.
func (p *parser) parseSmallSelectors(r *Rule) error {
	for startsSmall(p.peek(0)) {
		g := SelectorGroup{Dimension: DimensionWeekday}
		for {
			sel, err := p.parseSmallItem()
			if err != nil {
				return err
			}
			g.Items = append(g.Items, sel)
			if p.peek(0).is(",") && startsSmall(p.peek(1)) {
				p.pos++
				continue
			}
			break
		}
		r.Groups = append(r.Groups, g)
	}
	return nil
}

func (p *parser) parseSmallItem() (Selector, error) {
	t := p.next()
	if t.Kind == TokenHoliday {
		return HolidaySelector{Kind: HolidayKind(t.Value), Offset: p.parseDayOffset()}, nil
	}

	w := WeekdayRange{From: time.Weekday(t.Value), To: time.Weekday(t.Value)}
	if p.peek(0).is("-") && p.peek(1).Kind == TokenWeekday {
		p.pos++
		w.To = time.Weekday(p.next().Value)
	}
	if p.peek(0).is("/") {
		step, err := p.parseStep()
		if err != nil {
			return w, err
		}
		w.Step = step
	}
	if p.peek(0).is("[") {
		nth, err := p.parseNth()
		if err != nil {
			return w, err
		}
		w.Nth = nth
	}
	w.Offset = p.parseDayOffset()
	return w, nil
}

func (p *parser) parseNthValue() (int, error) {
	neg := false
	if p.peek(0).is("-") {
		p.pos++
		neg = true
	}
	t := p.next()
	if t.Kind != TokenNumber {
		return 0, p.errorf(t, MsgExpectedNumber, describe(t))
	}
	n := t.Value
	if neg {
		n = -n
	}
	if n == 0 || n < -5 || n > 5 {
		return 0, p.errorf(t, MsgNthOutOfRange, n)
	}
	return n, nil
}

// parseNth parses a bracketed occurrence list like [1,3], [-1] or [1-2].
func (p *parser) parseNth() ([]NthRange, error) {
	p.pos++ // "["
	var out []NthRange
	for {
		start := p.peek(0)
		from, err := p.parseNthValue()
		if err != nil {
			return nil, err
		}
		r := NthRange{From: from, To: from}
		if p.peek(0).is("-") && p.peek(1).Kind == TokenNumber {
			p.pos++
			to, err := p.parseNthValue()
			if err != nil {
				return nil, err
			}
			if to < from {
				return nil, p.errorf(start, MsgReversedRange, fmt.Sprintf("%d-%d", from, to))
			}
			r.To = to
		}
		out = append(out, r)

		t := p.next()
		switch {
		case t.is(","):
			continue
		case t.is("]"):
			return out, nil
		default:
			return nil, p.errorf(t, MsgExpectedPunct, "]", describe(t))
		}
	}
}

func (p *parser) parseTimeSpans() ([]TimeSpan, error) {
	var spans []TimeSpan
	for {
		s, err := p.parseTimeSpan()
		if err != nil {
			return nil, err
		}
		spans = append(spans, s)
		if p.peek(0).is(",") && startsTimeSpan(p.peek(1)) {
			p.pos++
			continue
		}
		return spans, nil
	}
}

func (p *parser) parseTimeSpan() (TimeSpan, error) {
	startTok := p.peek(0)
	start, err := p.parseTimePoint()
	if err != nil {
		return TimeSpan{}, err
	}
	if start.Event == EventNone && start.Minutes >= minutesPerDay {
		return TimeSpan{}, p.errorf(startTok, MsgInvalidTime, describe(startTok))
	}
	s := TimeSpan{Start: start}
	switch {
	case p.peek(0).is("+"):
		p.pos++
		s.OpenEnd = true
		return s, nil
	case !p.peek(0).is("-"):
		return s, nil
	}
	p.pos++

	end, err := p.parseTimePoint()
	if err != nil {
		return s, err
	}
	s.End, s.HasEnd = end, true
	if p.peek(0).is("+") {
		p.pos++
		s.OpenEnd = true
	}

	if start.Event == EventNone && end.Event == EventNone {
		if s.End.Minutes <= s.Start.Minutes {
			s.End.Minutes += minutesPerDay
		}
		s.Wrap = s.End.Minutes > minutesPerDay
	}
	return s, nil
}

func (p *parser) parseTimePoint() (TimePoint, error) {
	t := p.next()
	switch {
	case t.Kind == TokenTime:
		if !validTime(t) {
			return TimePoint{}, p.errorf(t, MsgInvalidTime, describe(t))
		}
		return TimePoint{Minutes: t.Value}, nil
	case t.Kind == TokenEvent:
		return TimePoint{Event: Event(t.Value)}, nil
	case t.is("("):
		ev := p.next()
		if ev.Kind != TokenEvent {
			return TimePoint{}, p.errorf(ev, MsgExpectedEvent, describe(ev))
		}
		sign := p.next()
		if !sign.is("+") && !sign.is("-") {
			return TimePoint{}, p.errorf(sign, MsgExpectedPunct, "+", describe(sign))
		}
		off := p.next()
		if off.Kind != TokenTime || !validTime(off) {
			return TimePoint{}, p.errorf(off, MsgExpectedTime, describe(off))
		}
		if c := p.next(); !c.is(")") {
			return TimePoint{}, p.errorf(c, MsgExpectedPunct, ")", describe(c))
		}
		tp := TimePoint{Event: Event(ev.Value), Minutes: off.Value}
		if sign.is("-") {
			tp.Minutes = -tp.Minutes
		}
		return tp, nil
	default:
		return TimePoint{}, p.errorf(t, MsgExpectedTime, describe(t))
	}
}

// validTime reports whether a time token has minutes below 60 and does not exceed 48:00.
func validTime(t Token) bool {
	minutes, err := strconv.Atoi(t.Text[len(t.Text)-2:])
	if err != nil || minutes >= 60 {
		return false
	}
	return t.Value <= maxMinutes
}
