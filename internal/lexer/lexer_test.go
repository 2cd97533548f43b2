package lexer

import (
	"strings"
	"testing"

	"github.com/dyuri/goply/internal/bytewindow"
)

func newLexer(s string) *Lexer {
	w := bytewindow.NewSize(strings.NewReader(s), 64, nil)
	w.SetASCIIMode(true)
	return New(w)
}

func TestKeyword(t *testing.T) {
	l := newLexer("format ascii")
	if !l.Keyword("format") {
		t.Fatalf("Keyword(format) = false")
	}
	l.Advance()
	if !l.Keyword("ascii") {
		t.Fatalf("Keyword(ascii) = false")
	}
}

func TestKeywordRejectsPrefixOfLongerIdentifier(t *testing.T) {
	l := newLexer("formatx 1")
	if l.Keyword("format") {
		t.Fatalf("Keyword(format) matched prefix of identifier formatx")
	}
}

func TestIdentifier(t *testing.T) {
	l := newLexer("vertex_indices ")
	name, ok := l.Identifier(255)
	if !ok || name != "vertex_indices" {
		t.Fatalf("Identifier = %q, %v", name, ok)
	}
}

func TestIdentifierOverflow(t *testing.T) {
	l := newLexer("abcdefghij ")
	if _, ok := l.Identifier(5); ok {
		t.Fatalf("Identifier(5) on 10-char name should overflow")
	}
}

func TestIntLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"123 ", 123, true},
		{"-45\n", -45, true},
		{"+7,", 7, true},
		{"12345678901 ", 0, false}, // 11 digits, over the conservative cap
		{"12a ", 0, false},
	}
	for _, c := range cases {
		l := newLexer(c.in)
		got, ok := l.IntLiteral()
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("IntLiteral(%q) = %d, %v; want %d, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestDoubleLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.5 ", 1.5, true},
		{"-2.25e3\n", -2250, true},
		{"3 ", 3, true},
		{".5 ", 0.5, true},
		{"1.5a ", 0, false},
	}
	for _, c := range cases {
		l := newLexer(c.in)
		got, ok := l.DoubleLiteral()
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("DoubleLiteral(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNextLineSkipsComments(t *testing.T) {
	l := newLexer("first\ncomment this is ignored\nsecond\n")
	if !l.NextLine() {
		t.Fatalf("NextLine() failed")
	}
	// Should have skipped past the comment line directly to "second".
	name, ok := l.Identifier(255)
	if !ok || name != "second" {
		t.Fatalf("after NextLine, Identifier = %q, %v; want second", name, ok)
	}
	comments := l.Comments()
	if len(comments) != 1 || comments[0] != "this is ignored" {
		t.Fatalf("Comments() = %v, want [\"this is ignored\"]", comments)
	}
}
