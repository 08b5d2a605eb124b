package ohdata

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// TokenKind represents the lexical class of a token.
type TokenKind int

func (k TokenKind) String() string {
	switch k {
	case TokenUnknown:
		return "Unknown"
	case TokenNumber:
		return "Number"
	case TokenTime:
		return "Time"
	case TokenWeekday:
		return "Weekday"
	case TokenMonth:
		return "Month"
	case TokenHoliday:
		return "Holiday"
	case TokenEvent:
		return "Event"
	case TokenKeyword:
		return "Keyword"
	case TokenPunct:
		return "Punct"
	case TokenComment:
		return "Comment"
	case TokenIdent:
		return "Ident"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// TokenUnknown is a character that cannot start any token.
	TokenUnknown TokenKind = iota
	// TokenNumber is a run of decimal digits. Value holds the number.
	TokenNumber
	// TokenTime is a time literal like 09:30. Value holds the minutes after 00:00.
	TokenTime
	// TokenWeekday is a weekday name. Value holds the time.Weekday.
	TokenWeekday
	// TokenMonth is a month name. Value holds the time.Month.
	TokenMonth
	// TokenHoliday is PH or SH. Value holds the HolidayKind.
	TokenHoliday
	// TokenEvent is sunrise, sunset, dawn or dusk. Value holds the Event.
	TokenEvent
	// TokenKeyword is a reserved word. Str holds its canonical lower case spelling.
	TokenKeyword
	// TokenPunct is one of ; , - + / : [ ] ( ) or ||. Str holds the punctuation.
	TokenPunct
	// TokenComment is quoted text or unquoted free text after a rule or ||. Str holds the text without quotes.
	TokenComment
	// TokenIdent is a word that is not a keyword.
	TokenIdent
)

// Token is a lexical token of an opening_hours value.
type Token struct {
	Kind   TokenKind
	Text   string // Text is the raw source text of the token.
	Offset int    // Offset is the byte offset of the token in the source.
	Value  int
	Str    string
}

// is reports whether t is the punctuation or keyword s.
func (t Token) is(s string) bool {
	return (t.Kind == TokenPunct || t.Kind == TokenKeyword) && t.Str == s
}

// Keywords recognized by the tokenizer.
const (
	keywordAlwaysOpen = "24/7"
	keywordWeek       = "week"
	keywordEaster     = "easter"
	keywordDay        = "day"
	keywordOpen       = "open"
	keywordClosed     = "closed"
	keywordOff        = "off"
	keywordUnknown    = "unknown"
)

// Tokenize splits an opening_hours value into tokens.
// It never fails: characters that cannot start a token become TokenUnknown
// so that the parser can report their position.
func Tokenize(s string) []Token {
	l := &lexer{input: s}
	return l.tokenize()
}

// lexer is the internal lexer state.
type lexer struct {
	input  string
	pos    int
	tokens []Token
}

func (l *lexer) tokenize() []Token {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}
		start := l.pos
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		switch {
		case r == '"' || r == '“' || r == '”':
			l.lexQuoted(size)
		case r == '|' && strings.HasPrefix(l.input[l.pos:], "||"):
			l.pos += 2
			l.emit(Token{Kind: TokenPunct, Offset: start, Str: "||"})
		case strings.ContainsRune(";,-+/:[]()", r):
			l.pos += size
			l.emit(Token{Kind: TokenPunct, Offset: start, Str: string(r)})
		case r == '–' || r == '—':
			// Typographic dashes are common in hand-written values.
			l.pos += size
			l.emit(Token{Kind: TokenPunct, Offset: start, Str: "-"})
		case isDigit(r):
			l.lexNumberOrTime()
		case unicode.IsLetter(r):
			l.lexWord()
		default:
			l.pos += size
			l.emit(Token{Kind: TokenUnknown, Offset: start})
		}
	}
	return l.tokens
}

// emit appends tok after filling in its source text.
func (l *lexer) emit(tok Token) {
	tok.Text = l.input[tok.Offset:l.pos]
	l.tokens = append(l.tokens, tok)
}

// last returns the previously emitted token, if any.
func (l *lexer) last() (Token, bool) {
	if len(l.tokens) == 0 {
		return Token{}, false
	}
	return l.tokens[len(l.tokens)-1], true
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// lexQuoted reads a quoted comment. An unterminated quote extends to the end of input.
func (l *lexer) lexQuoted(quoteSize int) {
	start := l.pos
	l.pos += quoteSize
	contentStart := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if r == '"' || r == '”' || r == '“' {
			content := l.input[contentStart:l.pos]
			l.pos += size
			l.emit(Token{Kind: TokenComment, Offset: start, Str: content})
			return
		}
		l.pos += size
	}
	// Unterminated: keep the text but mark it unknown so the parser can complain.
	l.emit(Token{Kind: TokenUnknown, Offset: start, Str: l.input[contentStart:]})
}

// lexNumberOrTime reads digits and, if followed by a colon and two digits, a time literal.
// The sequence 24/7 is a keyword.
func (l *lexer) lexNumberOrTime() {
	start := l.pos
	for l.pos < len(l.input) && isDigit(rune(l.input[l.pos])) {
		l.pos++
	}
	digits := l.input[start:l.pos]

	if digits == "24" && strings.HasPrefix(l.input[l.pos:], "/7") &&
		(l.pos+2 == len(l.input) || !isDigit(rune(l.input[l.pos+2]))) {
		l.pos += 2
		l.emit(Token{Kind: TokenKeyword, Offset: start, Str: keywordAlwaysOpen})
		return
	}

	if len(digits) <= 2 && l.pos+2 < len(l.input) && l.input[l.pos] == ':' &&
		isDigit(rune(l.input[l.pos+1])) && isDigit(rune(l.input[l.pos+2])) &&
		(l.pos+3 == len(l.input) || !isDigit(rune(l.input[l.pos+3]))) {
		hours, _ := strconv.Atoi(digits)
		minutes, _ := strconv.Atoi(l.input[l.pos+1 : l.pos+3])
		l.pos += 3
		l.emit(Token{Kind: TokenTime, Offset: start, Value: hours*60 + minutes})
		return
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		l.emit(Token{Kind: TokenUnknown, Offset: start})
		return
	}
	l.emit(Token{Kind: TokenNumber, Offset: start, Value: n})
}

// lexWord reads a run of letters and classifies it.
// An unrecognized word directly after || or after the selectors, times or
// modifier of a rule starts a free text comment that extends to the next
// ";" or "||".
func (l *lexer) lexWord() {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsLetter(r) {
			break
		}
		l.pos += size
	}
	word := l.input[start:l.pos]
	tok := classifyWord(word)
	tok.Offset = start

	if tok.Kind == TokenIdent {
		if prev, ok := l.last(); ok && (prev.is("||") || endsRuleContent(prev)) {
			l.lexFreeText(start)
			return
		}
	}
	l.emit(tok)
}

// endsRuleContent reports whether t can be the last token of a rule's
// selectors, time spans or modifier.
func endsRuleContent(t Token) bool {
	switch t.Kind {
	case TokenNumber, TokenTime, TokenWeekday, TokenMonth, TokenHoliday, TokenEvent, TokenKeyword:
		return true
	case TokenPunct:
		return t.Str == ")" || t.Str == "]" || t.Str == "+"
	}
	return false
}

// lexFreeText reads unquoted text up to the next ; or || as a comment.
func (l *lexer) lexFreeText(start int) {
	end := len(l.input)
	if i := strings.IndexAny(l.input[start:], ";"); i >= 0 {
		end = start + i
	}
	if i := strings.Index(l.input[start:end], "||"); i >= 0 {
		end = start + i
	}
	text := strings.TrimRightFunc(l.input[start:end], unicode.IsSpace)
	l.pos = start + len(text)
	l.emit(Token{Kind: TokenComment, Offset: start, Str: text})
}

// classifyWord maps a word to its token kind and value. Matching is case-insensitive
// and accepts abbreviations of weekday and month names.
func classifyWord(word string) Token {
	lower := strings.ToLower(word)
	if w, err := parseWeekday(lower); err == nil {
		return Token{Kind: TokenWeekday, Value: int(w), Str: lower}
	}
	if m, err := parseMonth(lower); err == nil {
		return Token{Kind: TokenMonth, Value: int(m), Str: lower}
	}
	switch lower {
	case "ph":
		return Token{Kind: TokenHoliday, Value: int(PublicHoliday), Str: lower}
	case "sh":
		return Token{Kind: TokenHoliday, Value: int(SchoolHoliday), Str: lower}
	case "sunrise":
		return Token{Kind: TokenEvent, Value: int(EventSunrise), Str: lower}
	case "sunset":
		return Token{Kind: TokenEvent, Value: int(EventSunset), Str: lower}
	case "dawn":
		return Token{Kind: TokenEvent, Value: int(EventDawn), Str: lower}
	case "dusk":
		return Token{Kind: TokenEvent, Value: int(EventDusk), Str: lower}
	case keywordWeek, keywordEaster, keywordOpen, keywordClosed, keywordOff, keywordUnknown:
		return Token{Kind: TokenKeyword, Str: lower}
	case "day", "days":
		return Token{Kind: TokenKeyword, Str: keywordDay}
	}
	return Token{Kind: TokenIdent, Str: word}
}

func parseMonth(l string) (time.Month, error) {
	if len(l) < 3 {
		return 0, errInvalidName
	}
	names := [...]string{"january", "february", "march", "april", "may", "june", "july",
		"august", "september", "october", "november", "december"}
	for i, name := range names {
		if isAbbrev(l, name, name[:3]) {
			return time.Month(i + 1), nil
		}
	}
	return 0, errInvalidName
}

func parseWeekday(l string) (time.Weekday, error) {
	if isAbbrev(l, "sunday", "su") {
		return time.Sunday, nil
	}
	if isAbbrev(l, "monday", "mo") {
		return time.Monday, nil
	}
	if isAbbrev(l, "tuesday", "tu") {
		return time.Tuesday, nil
	}
	if isAbbrev(l, "wednesday", "we") {
		return time.Wednesday, nil
	}
	if isAbbrev(l, "thursday", "th") {
		return time.Thursday, nil
	}
	if isAbbrev(l, "friday", "fr") {
		return time.Friday, nil
	}
	if isAbbrev(l, "saturday", "sa") {
		return time.Saturday, nil
	}
	return 0, errInvalidName
}

func isAbbrev(s string, long string, min string) bool {
	return strings.HasPrefix(s, min) && strings.HasPrefix(long, s)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
