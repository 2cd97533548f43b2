// Package header implements the PLY header grammar (spec §4.3), producing
// the element/property descriptors the rest of the pipeline consumes.
package header

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/goply/internal/bytewindow"
	"github.com/dyuri/goply/internal/lexer"
	"github.com/dyuri/goply/internal/model"
)

// maxIdentifierLen is the ≤255-byte bound spec §3 places on property and
// element names.
const maxIdentifierLen = 255

// Result is everything the header grammar produces.
type Result struct {
	Format       model.Format
	VersionMajor int
	VersionMinor int
	Elements     []model.Element
	Comments     []string
}

// Parser drives the Lexer over the header grammar:
//
//	file      := "ply" NL "format" fmt int "." int NL element* "end_header" NL
//	element   := "element" ident int NL property*
//	property  := "property" (scalar_type | "list" scalar_type scalar_type) ident NL
//	fmt       := "ascii" | "binary_little_endian" | "binary_big_endian"
//
// On any grammar violation, Parse returns an error and the caller must
// treat the reader as invalid; no partial element list is exposed.
type Parser struct {
	lex *lexer.Lexer
	log *logrus.Entry
}

// New builds a Parser over w and switches w into ASCII mode (the header
// is always textual, regardless of the body's encoding).
func New(w *bytewindow.Reader, log *logrus.Entry) *Parser {
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	w.SetASCIIMode(true)
	return &Parser{lex: lexer.New(w), log: log}
}

func (p *Parser) endOfLine() error {
	if !p.lex.NextLine() {
		return fmt.Errorf("header: unexpected end of file")
	}
	return nil
}

// Parse consumes the entire header and returns the parsed Result.
func (p *Parser) Parse() (*Result, error) {
	if !p.lex.Keyword("ply") {
		return nil, fmt.Errorf("header: missing \"ply\" magic")
	}
	if err := p.endOfLine(); err != nil {
		return nil, fmt.Errorf("header: after \"ply\": %w", err)
	}

	res, err := p.parseFormatLine()
	if err != nil {
		return nil, err
	}

	var elements []model.Element
	for {
		p.lex.Advance()
		if p.lex.Keyword("end_header") {
			if err := p.endOfLine(); err != nil {
				return nil, fmt.Errorf("header: after \"end_header\": %w", err)
			}
			break
		}
		if !p.lex.Keyword("element") {
			return nil, fmt.Errorf("header: expected \"element\" or \"end_header\"")
		}
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		elements = append(elements, *el)
	}

	for i := range elements {
		elements[i].ComputeLayout()
	}

	res.Elements = elements
	res.Comments = p.lex.Comments()
	return res, nil
}

func (p *Parser) parseFormatLine() (*Result, error) {
	p.lex.Advance()
	if !p.lex.Keyword("format") {
		return nil, fmt.Errorf("header: expected \"format\"")
	}
	p.lex.Advance()
	name, ok := p.lex.Identifier(32)
	if !ok {
		return nil, fmt.Errorf("header: expected format encoding name")
	}
	format, ok := model.FormatByName(name)
	if !ok {
		return nil, fmt.Errorf("header: unknown format encoding %q", name)
	}
	p.lex.Advance()
	major, ok := p.lex.IntLiteral()
	if !ok {
		return nil, fmt.Errorf("header: expected format major version")
	}
	if !p.consumeByte('.') {
		return nil, fmt.Errorf("header: expected '.' in format version")
	}
	minor, ok := p.lex.IntLiteral()
	if !ok {
		return nil, fmt.Errorf("header: expected format minor version")
	}
	if err := p.endOfLine(); err != nil {
		return nil, fmt.Errorf("header: after format line: %w", err)
	}
	return &Result{Format: format, VersionMajor: int(major), VersionMinor: int(minor)}, nil
}

// consumeByte matches a single literal byte at the cursor (used for the
// '.' in the format version, which isn't a keyword).
func (p *Parser) consumeByte(b byte) bool {
	got, ok := p.lex.PeekByte()
	if !ok || got != b {
		return false
	}
	p.lex.AdvanceOne()
	return true
}

func (p *Parser) parseElement() (*model.Element, error) {
	p.lex.Advance()
	name, ok := p.lex.Identifier(maxIdentifierLen)
	if !ok {
		return nil, fmt.Errorf("header: expected element name")
	}
	p.lex.Advance()
	count, ok := p.lex.IntLiteral()
	if !ok {
		return nil, fmt.Errorf("header: element %q: expected row count", name)
	}
	if count < 0 {
		return nil, fmt.Errorf("header: element %q: negative row count %d", name, count)
	}
	if err := p.endOfLine(); err != nil {
		return nil, fmt.Errorf("header: element %q: %w", name, err)
	}

	el := &model.Element{Name: name, Count: int(count)}
	for {
		p.lex.Advance()
		if !p.lex.Keyword("property") {
			break
		}
		prop, err := p.parseProperty()
		if err != nil {
			return nil, fmt.Errorf("header: element %q: %w", name, err)
		}
		el.Properties = append(el.Properties, *prop)
	}
	return el, nil
}

func (p *Parser) parseProperty() (*model.Property, error) {
	p.lex.Advance()
	if p.lex.Keyword("list") {
		p.lex.Advance()
		countType, err := p.parseScalarType()
		if err != nil {
			return nil, fmt.Errorf("list count type: %w", err)
		}
		if !countType.IsInteger() {
			return nil, fmt.Errorf("list count type must be an integer type, got %s", countType)
		}
		p.lex.Advance()
		valType, err := p.parseScalarType()
		if err != nil {
			return nil, fmt.Errorf("list value type: %w", err)
		}
		p.lex.Advance()
		name, ok := p.lex.Identifier(maxIdentifierLen)
		if !ok {
			return nil, fmt.Errorf("expected list property name")
		}
		if err := p.endOfLine(); err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		return &model.Property{Name: name, Type: valType, CountType: countType}, nil
	}

	valType, err := p.parseScalarType()
	if err != nil {
		return nil, err
	}
	p.lex.Advance()
	name, ok := p.lex.Identifier(maxIdentifierLen)
	if !ok {
		return nil, fmt.Errorf("expected scalar property name")
	}
	if err := p.endOfLine(); err != nil {
		return nil, fmt.Errorf("property %q: %w", name, err)
	}
	return &model.Property{Name: name, Type: valType, CountType: model.None}, nil
}

func (p *Parser) parseScalarType() (model.ScalarType, error) {
	name, ok := p.lex.Identifier(32)
	if !ok {
		return model.None, fmt.Errorf("expected a scalar type name")
	}
	t, ok := model.ScalarTypeByName(name)
	if !ok {
		return model.None, fmt.Errorf("unknown scalar type %q", name)
	}
	return t, nil
}
