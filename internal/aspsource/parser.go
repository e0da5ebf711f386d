package aspsource

import (
	"fmt"

	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/calling"
)

// Declaration source grammar (a small DSL over lexer.cpp's token set,
// standing in for the full appspec compiler original_source/appspec
// only supplies a lexer and generator backend for, not a parser):
//
//	lib name
//	var name = literal
//	def name(param, param=literal, *group, **group)
//
// Symbols are assigned in declaration order first to every var/def
// name, then to every parameter name not already assigned — the same
// two-pass order Generator::WriteCompilerSpec documents ("Assign
// symbols to variable and function names first... then to parameter
// names").

// ParseResult is a parsed declaration source: the entries ready for
// appspec.Encode, plus the library base name used to title the
// generated C header.
type ParseResult struct {
	BaseName string
	Entries  []appspec.Entry
}

// Parse reads one complete declaration source.
func Parse(src string) (*ParseResult, error) {
	p := &parser{lex: NewLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseSource()
}

type parser struct {
	lex     *Lexer
	tok     Token
	symbols map[string]int32
	order   []string
}

func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) symbolFor(name string) int32 {
	if p.symbols == nil {
		p.symbols = make(map[string]int32)
	}
	if id, ok := p.symbols[name]; ok {
		return id
	}
	id := int32(len(p.order))
	p.symbols[name] = id
	p.order = append(p.order, name)
	return id
}

func (p *parser) skipBlankLines() error {
	for p.tok.Type == TokenEOL {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseSource() (*ParseResult, error) {
	result := &ParseResult{BaseName: "app"}
	if err := p.skipBlankLines(); err != nil {
		return nil, err
	}
	for p.tok.Type != TokenEOF {
		switch p.tok.Type {
		case TokenKeywordLib:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.Type != TokenName {
				return nil, fmt.Errorf("aspsource: expected library name at %d:%d", p.tok.Line, p.tok.Column)
			}
			result.BaseName = p.tok.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
		case TokenKeywordVar:
			entry, err := p.parseVar()
			if err != nil {
				return nil, err
			}
			result.Entries = append(result.Entries, entry)
		case TokenKeywordDef:
			entry, err := p.parseDef()
			if err != nil {
				return nil, err
			}
			result.Entries = append(result.Entries, entry)
		default:
			return nil, fmt.Errorf("aspsource: unexpected token at %d:%d", p.tok.Line, p.tok.Column)
		}
		if err := p.endOfStatement(); err != nil {
			return nil, err
		}
		if err := p.skipBlankLines(); err != nil {
			return nil, err
		}
	}

	// Second pass: reassign every symbol id, names first, then parameters.
	p.symbols, p.order = nil, nil
	for i := range result.Entries {
		result.Entries[i].SymbolID = p.symbolFor(result.Entries[i].Name)
	}
	for i := range result.Entries {
		params := result.Entries[i].Parameters
		for j := range params {
			params[j].SymbolID = p.symbolFor(params[j].Name)
		}
	}
	return result, nil
}

func (p *parser) endOfStatement() error {
	if p.tok.Type != TokenEOL && p.tok.Type != TokenEOF {
		return fmt.Errorf("aspsource: expected end of line at %d:%d", p.tok.Line, p.tok.Column)
	}
	if p.tok.Type == TokenEOL {
		return p.advance()
	}
	return nil
}

func (p *parser) parseVar() (appspec.Entry, error) {
	if err := p.advance(); err != nil { // consume 'var'
		return appspec.Entry{}, err
	}
	if p.tok.Type != TokenName {
		return appspec.Entry{}, fmt.Errorf("aspsource: expected variable name at %d:%d", p.tok.Line, p.tok.Column)
	}
	name := p.tok.Text
	if err := p.advance(); err != nil {
		return appspec.Entry{}, err
	}
	if p.tok.Type != TokenAssign {
		return appspec.Entry{}, fmt.Errorf("aspsource: expected '=' after %q at %d:%d", name, p.tok.Line, p.tok.Column)
	}
	if err := p.advance(); err != nil {
		return appspec.Entry{}, err
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return appspec.Entry{}, err
	}
	return appspec.Entry{
		Kind:     appspec.EntryVariable,
		Name:     name,
		SymbolID: p.symbolFor(name),
		Literal:  &lit,
	}, nil
}

func (p *parser) parseDef() (appspec.Entry, error) {
	if err := p.advance(); err != nil { // consume 'def'
		return appspec.Entry{}, err
	}
	if p.tok.Type != TokenName {
		return appspec.Entry{}, fmt.Errorf("aspsource: expected function name at %d:%d", p.tok.Line, p.tok.Column)
	}
	name := p.tok.Text
	if err := p.advance(); err != nil {
		return appspec.Entry{}, err
	}
	if p.tok.Type != TokenLeftParen {
		return appspec.Entry{}, fmt.Errorf("aspsource: expected '(' after %q at %d:%d", name, p.tok.Line, p.tok.Column)
	}
	if err := p.advance(); err != nil {
		return appspec.Entry{}, err
	}
	var params []appspec.Parameter
	for p.tok.Type != TokenRightParen {
		param, err := p.parseParameter()
		if err != nil {
			return appspec.Entry{}, err
		}
		params = append(params, param)
		if p.tok.Type == TokenComma {
			if err := p.advance(); err != nil {
				return appspec.Entry{}, err
			}
			continue
		}
		break
	}
	if p.tok.Type != TokenRightParen {
		return appspec.Entry{}, fmt.Errorf("aspsource: expected ')' at %d:%d", p.tok.Line, p.tok.Column)
	}
	if err := p.advance(); err != nil {
		return appspec.Entry{}, err
	}
	return appspec.Entry{
		Kind:       appspec.EntryFunction,
		Name:       name,
		SymbolID:   p.symbolFor(name),
		Parameters: params,
	}, nil
}

func (p *parser) parseParameter() (appspec.Parameter, error) {
	kind := calling.ParamPlain
	switch p.tok.Type {
	case TokenDoubleAsterisk:
		kind = calling.ParamDictGroup
		if err := p.advance(); err != nil {
			return appspec.Parameter{}, err
		}
	case TokenAsterisk:
		kind = calling.ParamTupleGroup
		if err := p.advance(); err != nil {
			return appspec.Parameter{}, err
		}
	}
	if p.tok.Type != TokenName {
		return appspec.Parameter{}, fmt.Errorf("aspsource: expected parameter name at %d:%d", p.tok.Line, p.tok.Column)
	}
	name := p.tok.Text
	if err := p.advance(); err != nil {
		return appspec.Parameter{}, err
	}
	param := appspec.Parameter{Name: name, SymbolID: p.symbolFor(name), Kind: kind}
	if kind == calling.ParamPlain && p.tok.Type == TokenAssign {
		if err := p.advance(); err != nil {
			return appspec.Parameter{}, err
		}
		lit, err := p.parseLiteral()
		if err != nil {
			return appspec.Parameter{}, err
		}
		param.Kind = calling.ParamDefaulted
		param.Default = &lit
	}
	return param, nil
}

func (p *parser) parseLiteral() (appspec.Literal, error) {
	switch p.tok.Type {
	case TokenInteger:
		v := p.tok.Int
		if err := p.advance(); err != nil {
			return appspec.Literal{}, err
		}
		return appspec.Int32Literal(v), nil
	case TokenFloat:
		v := p.tok.Float
		if err := p.advance(); err != nil {
			return appspec.Literal{}, err
		}
		return appspec.Float64Literal(v), nil
	case TokenString:
		v := p.tok.Text
		if err := p.advance(); err != nil {
			return appspec.Literal{}, err
		}
		return appspec.BytesLiteral([]byte(v)), nil
	case TokenName:
		switch p.tok.Text {
		case "true", "false":
			v := p.tok.Text == "true"
			if err := p.advance(); err != nil {
				return appspec.Literal{}, err
			}
			return appspec.BoolLiteral(v), nil
		}
	}
	return appspec.Literal{}, fmt.Errorf("aspsource: expected a literal at %d:%d", p.tok.Line, p.tok.Column)
}
