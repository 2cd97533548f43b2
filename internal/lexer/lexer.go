// Package lexer recognizes the whitespace, keyword, identifier and
// numeric-literal tokens that make up both the PLY header grammar and
// ASCII-encoded element rows.
package lexer

import (
	"github.com/elliotwutingfeng/asciiset"

	"github.com/dyuri/goply/internal/bytewindow"
)

var (
	identStartSet, _ = asciiset.MakeASCIISet("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_")
	identContSet, _  = asciiset.MakeASCIISet("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_")
	digitSet, _      = asciiset.MakeASCIISet("0123456789")
)

// maxIntDigits is the conservative decimal-digit ceiling for int_literal,
// per spec §4.2 ("integer parse rejects > 10 decimal digits").
const maxIntDigits = 10

// Lexer tokenizes over a *bytewindow.Reader window. Its only state besides
// the window's cursor is the list of comment lines seen so far —
// rewinding is never needed because the grammar is a strict left-to-right
// walk.
type Lexer struct {
	w        *bytewindow.Reader
	comments []string
}

// New wraps w. The caller is responsible for putting w into ASCII mode
// via w.SetASCIIMode(true) for header and ASCII-payload lexing.
func New(w *bytewindow.Reader) *Lexer {
	return &Lexer{w: w}
}

// Advance skips in-line whitespace: space, tab, CR. It does not cross
// newlines — line structure is significant to the grammar.
func (l *Lexer) Advance() {
	for {
		b := l.w.Peek()
		if b == ' ' || b == '\t' || b == '\r' {
			l.w.AdvanceBytes(1)
			continue
		}
		return
	}
}

// NextLine consumes up to and past the next '\n', then, if the following
// line begins with the keyword "comment", consumes that line too and
// repeats — so comment lines are transparent to every header and
// ASCII-row caller that calls NextLine to finish a line.
func (l *Lexer) NextLine() bool {
	for {
		if !l.skipToAndPastNewline() {
			return false
		}
		if !l.lineStartsWithComment() {
			return true
		}
	}
}

func (l *Lexer) skipToAndPastNewline() bool {
	for {
		b := l.w.Peek()
		if b == 0 && !l.w.Ensure(1) {
			return false
		}
		l.w.AdvanceBytes(1)
		if b == '\n' {
			return true
		}
	}
}

func (l *Lexer) lineStartsWithComment() bool {
	if !l.Keyword("comment") {
		return false
	}
	l.Advance()
	l.comments = append(l.comments, l.peekLineText())
	return true
}

// peekLineText returns the bytes from the cursor up to (not including)
// the next '\n' or end of window, without advancing — the caller's
// subsequent skipToAndPastNewline performs the actual consumption.
func (l *Lexer) peekLineText() string {
	var buf []byte
	for {
		b, ok := l.w.PeekAt(len(buf))
		if !ok || b == '\n' {
			break
		}
		if b == '\r' {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// Comments returns every comment line's text (post "comment " prefix,
// trimmed of the line terminator) encountered so far, in file order.
func (l *Lexer) Comments() []string {
	return l.comments
}

// Keyword matches the literal string kw at the cursor, ensuring the
// following byte is not itself part of an identifier (no trailing
// alphanumeric or underscore) — so "format" doesn't spuriously match a
// property literally named "formatx". Advances past kw on success only.
func (l *Lexer) Keyword(kw string) bool {
	n := len(kw)
	b, ok := l.peekRun(n)
	if !ok || string(b) != kw {
		return false
	}
	if next, ok := l.w.PeekAt(n); ok && identContSet.Contains(next) {
		return false
	}
	return l.w.AdvanceBytes(n)
}

func (l *Lexer) peekRun(n int) ([]byte, bool) {
	return l.w.Bytes(n)
}

// Identifier recognizes a PLY identifier: starts with a letter or
// underscore, continues with alphanumerics or underscore, length-bounded
// by maxLen. Returns ok=false (without consuming anything) if the first
// byte isn't a valid identifier start, or if the identifier would exceed
// maxLen.
func (l *Lexer) Identifier(maxLen int) (string, bool) {
	first := l.w.Peek()
	if !identStartSet.Contains(first) {
		return "", false
	}

	var buf []byte
	for {
		b, ok := l.w.PeekAt(len(buf))
		if !ok || !identContSet.Contains(b) {
			break
		}
		if len(buf) >= maxLen {
			return "", false // overflow
		}
		buf = append(buf, b)
	}
	if len(buf) == 0 {
		return "", false
	}
	l.w.AdvanceBytes(len(buf))
	return string(buf), true
}

// IntLiteral recognizes an optionally-signed decimal integer: at most
// maxIntDigits digits, no trailing alphanumeric or underscore (that would
// be a lex error, reported as ok=false). A following '.' is not consumed,
// so the header's "major.minor" version can be read as two literals.
func (l *Lexer) IntLiteral() (int64, bool) {
	start := l.lookaheadStart()
	i := 0
	neg := false
	if b, ok := l.w.PeekAt(i); ok && (b == '+' || b == '-') {
		neg = b == '-'
		i++
	}

	digitsStart := i
	var val int64
	digits := 0
	for {
		b, ok := l.w.PeekAt(i)
		if !ok || !digitSet.Contains(b) {
			break
		}
		digits++
		if digits > maxIntDigits {
			return 0, false
		}
		val = val*10 + int64(b-'0')
		i++
	}
	if i == digitsStart {
		return 0, false // no digits at all
	}

	if b, ok := l.w.PeekAt(i); ok && identContSet.Contains(b) {
		return 0, false // trailing junk: lex error
	}

	_ = start
	l.w.AdvanceBytes(i)
	if neg {
		val = -val
	}
	return val, true
}

// DoubleLiteral recognizes an optionally-signed floating point literal:
// digits, optional '.' and fractional digits (at least one digit
// somewhere around the decimal point), optional signed e/E exponent.
// Trailing alphanumeric or underscore is a lex error.
func (l *Lexer) DoubleLiteral() (float64, bool) {
	i := 0
	if b, ok := l.w.PeekAt(i); ok && (b == '+' || b == '-') {
		i++
	}

	intDigits := l.countDigits(i)
	i += intDigits

	hasDot := false
	fracDigits := 0
	if b, ok := l.w.PeekAt(i); ok && b == '.' {
		hasDot = true
		i++
		fracDigits = l.countDigits(i)
		i += fracDigits
	}

	if intDigits == 0 && fracDigits == 0 {
		return 0, false
	}
	_ = hasDot

	if b, ok := l.w.PeekAt(i); ok && (b == 'e' || b == 'E') {
		j := i + 1
		if sb, ok := l.w.PeekAt(j); ok && (sb == '+' || sb == '-') {
			j++
		}
		expDigits := l.countDigits(j)
		if expDigits > 0 {
			i = j + expDigits
		}
	}

	if b, ok := l.w.PeekAt(i); ok && identContSet.Contains(b) {
		return 0, false // lex error: trailing alnum/underscore
	}

	buf, ok := l.w.Bytes(i)
	if !ok {
		return 0, false
	}
	val, perr := parseFloat(buf)
	if perr != nil {
		return 0, false
	}
	l.w.AdvanceBytes(i)
	return val, true
}

func (l *Lexer) countDigits(from int) int {
	n := 0
	for {
		b, ok := l.w.PeekAt(from + n)
		if !ok || !digitSet.Contains(b) {
			return n
		}
		n++
	}
}

func (l *Lexer) lookaheadStart() int { return 0 }

// PeekByte returns the byte at the cursor without advancing, for grammar
// punctuation (like the '.' in a format version) that isn't a keyword or
// literal.
func (l *Lexer) PeekByte() (byte, bool) {
	return l.w.PeekAt(0)
}

// AdvanceOne advances the cursor by a single byte.
func (l *Lexer) AdvanceOne() bool {
	return l.w.AdvanceBytes(1)
}

// Window exposes the underlying byte window, for callers (the element
// loader) that need raw byte access alongside lexing within the same
// header/ASCII-row walk.
func (l *Lexer) Window() *bytewindow.Reader {
	return l.w
}
