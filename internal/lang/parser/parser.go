// Package parser builds the ML syntax tree from the token stream. It is a
// Pratt parser: statements are dispatched by leading keyword, expressions by
// a precedence table.
package parser

import (
	"fmt"
	"strconv"

	"github.com/mlang-dev/mlc/internal/lang/ast"
	"github.com/mlang-dev/mlc/internal/lang/lexer"
)

// Error is a parse failure with source position.
type Error struct {
	Pos ast.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Msg)
}

// Binding powers, lowest first.
const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precCompare
	precAdditive
	precMultiplicative
	precUnary
	precPostfix // calls, member access, indexing
)

var binaryPrec = map[lexer.Kind]int{
	lexer.OR:      precOr,
	lexer.AND:     precAnd,
	lexer.EQ:      precEquality,
	lexer.NEQ:     precEquality,
	lexer.LT:      precCompare,
	lexer.LTE:     precCompare,
	lexer.GT:      precCompare,
	lexer.GTE:     precCompare,
	lexer.PLUS:    precAdditive,
	lexer.MINUS:   precAdditive,
	lexer.STAR:    precMultiplicative,
	lexer.SLASH:   precMultiplicative,
	lexer.PERCENT: precMultiplicative,
}

func pos(p ast.Pos) ast.Position { return ast.Position{P: p} }

// Parser consumes tokens and produces an ast.Program.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse tokenizes and parses a complete compilation unit.
func Parse(src string) (*ast.Program, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	var stmts []ast.Stmt
	for !p.at(lexer.EOF) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return &ast.Program{Stmts: stmts}, nil
}

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }
func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if t.Kind != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, &Error{Pos: p.cur().Pos, Msg: fmt.Sprintf("expected %s, found %q", what, p.cur().Lexeme)}
	}
	return p.advance(), nil
}

// ---- Statements ----

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur().Kind {
	case lexer.LET:
		return p.parseLet()
	case lexer.FN:
		return p.parseFuncDef()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.TRY:
		return p.parseTry()
	case lexer.IMPORT:
		return p.parseImport()
	case lexer.RETURN:
		return p.parseReturn()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *Parser) parseLet() (ast.Stmt, error) {
	kw := p.advance()
	name, err := p.expect(lexer.IDENT, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN, "'='"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI, "';'"); err != nil {
		return nil, err
	}
	return &ast.Let{Position: pos(kw.Pos), Name: name.Lexeme, Value: value}, nil
}

func (p *Parser) parseFuncDef() (ast.Stmt, error) {
	kw := p.advance()
	name, err := p.expect(lexer.IDENT, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var params []string
	for !p.at(lexer.RPAREN) {
		param, err := p.expect(lexer.IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, param.Lexeme)
		if !p.at(lexer.RPAREN) {
			if _, err := p.expect(lexer.COMMA, "','"); err != nil {
				return nil, err
			}
		}
	}
	p.advance() // ')'
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{Position: pos(kw.Pos), Name: name.Lexeme, Params: params, Body: body}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	kw := p.advance()
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Position: pos(kw.Pos), Cond: cond, Then: then}

	switch p.cur().Kind {
	case lexer.ELIF:
		// elif parses as a nested If in the else branch.
		nested, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		node.Else = []ast.Stmt{nested}
	case lexer.ELSE:
		p.advance()
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	return node, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	kw := p.advance()
	cond, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Position: pos(kw.Pos), Cond: cond, Body: body}, nil
}

func (p *Parser) parseTry() (ast.Stmt, error) {
	kw := p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var clauses []ast.ExceptClause
	for p.at(lexer.EXCEPT) {
		ekw := p.advance()
		clause := ast.ExceptClause{Position: pos(ekw.Pos)}
		if p.at(lexer.LPAREN) {
			p.advance()
			name, err := p.expect(lexer.IDENT, "error class name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
				return nil, err
			}
			clause.ErrName = name.Lexeme
		}
		cbody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		clause.Body = cbody
		clauses = append(clauses, clause)
	}
	if len(clauses) == 0 {
		return nil, &Error{Pos: kw.Pos, Msg: "try requires at least one except clause"}
	}
	return &ast.Try{Position: pos(kw.Pos), Body: body, Clauses: clauses}, nil
}

func (p *Parser) parseImport() (ast.Stmt, error) {
	kw := p.advance()
	name, err := p.expect(lexer.IDENT, "module name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI, "';'"); err != nil {
		return nil, err
	}
	return &ast.Import{Position: pos(kw.Pos), Module: name.Lexeme}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	kw := p.advance()
	if p.at(lexer.SEMI) {
		p.advance()
		return &ast.Return{Position: pos(kw.Pos)}, nil
	}
	x, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI, "';'"); err != nil {
		return nil, err
	}
	return &ast.Return{Position: pos(kw.Pos), X: x}, nil
}

// parseSimpleStmt handles assignments and expression statements.
func (p *Parser) parseSimpleStmt() (ast.Stmt, error) {
	start := p.cur().Pos
	x, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if p.at(lexer.ASSIGN) {
		p.advance()
		switch x.(type) {
		case *ast.Ident, *ast.Member, *ast.Index:
		default:
			return nil, &Error{Pos: start, Msg: "invalid assignment target"}
		}
		value, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI, "';'"); err != nil {
			return nil, err
		}
		return &ast.Assign{Position: pos(start), Target: x, Value: value}, nil
	}
	if _, err := p.expect(lexer.SEMI, "';'"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Position: pos(start), X: x}, nil
}

func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(lexer.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.at(lexer.RBRACE) {
		if p.at(lexer.EOF) {
			return nil, &Error{Pos: p.cur().Pos, Msg: "unterminated block"}
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance() // '}'
	return stmts, nil
}

// ---- Expressions ----

func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := binaryPrec[p.cur().Kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		op := p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Position: pos(op.Pos), Op: op.Lexeme, L: left, R: right}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.cur().Kind {
	case lexer.MINUS, lexer.NOT:
		op := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Position: pos(op.Pos), Op: op.Lexeme, X: x}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case lexer.LPAREN:
			open := p.advance()
			var args []ast.Expr
			for !p.at(lexer.RPAREN) {
				arg, err := p.parseExpr(precLowest)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.at(lexer.RPAREN) {
					if _, err := p.expect(lexer.COMMA, "','"); err != nil {
						return nil, err
					}
				}
			}
			p.advance() // ')'
			x = &ast.Call{Position: pos(open.Pos), Callee: x, Args: args}
		case lexer.DOT:
			dot := p.advance()
			name, err := p.expect(lexer.IDENT, "attribute name")
			if err != nil {
				return nil, err
			}
			x = &ast.Member{Position: pos(dot.Pos), Target: x, Name: name.Lexeme}
		case lexer.LBRACKET:
			open := p.advance()
			key, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACKET, "']'"); err != nil {
				return nil, err
			}
			x = &ast.Index{Position: pos(open.Pos), Target: x, Key: key}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case lexer.INT:
		p.advance()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, &Error{Pos: tok.Pos, Msg: "integer out of range"}
		}
		return &ast.IntLit{Position: pos(tok.Pos), Value: v}, nil
	case lexer.FLOAT:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, &Error{Pos: tok.Pos, Msg: "malformed number"}
		}
		return &ast.FloatLit{Position: pos(tok.Pos), Value: v}, nil
	case lexer.STRING:
		p.advance()
		return &ast.StringLit{Position: pos(tok.Pos), Value: tok.Lexeme}, nil
	case lexer.BOOL:
		p.advance()
		return &ast.BoolLit{Position: pos(tok.Pos), Value: tok.Lexeme == "true"}, nil
	case lexer.NULL:
		p.advance()
		return &ast.NullLit{Position: pos(tok.Pos)}, nil
	case lexer.IDENT:
		p.advance()
		return &ast.Ident{Position: pos(tok.Pos), Name: tok.Lexeme}, nil
	case lexer.LPAREN:
		p.advance()
		x, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	case lexer.LBRACKET:
		p.advance()
		var elems []ast.Expr
		for !p.at(lexer.RBRACKET) {
			e, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.at(lexer.RBRACKET) {
				if _, err := p.expect(lexer.COMMA, "','"); err != nil {
					return nil, err
				}
			}
		}
		p.advance() // ']'
		return &ast.ListLit{Position: pos(tok.Pos), Elems: elems}, nil
	case lexer.LBRACE:
		return p.parseMapLit()
	default:
		return nil, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected token %q", tok.Lexeme)}
	}
}

func (p *Parser) parseMapLit() (ast.Expr, error) {
	open := p.advance()
	var entries []ast.MapEntry
	for !p.at(lexer.RBRACE) {
		key, err := p.expectMapKey()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON, "':'"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.MapEntry{Key: key, Value: value})
		if !p.at(lexer.RBRACE) {
			if _, err := p.expect(lexer.COMMA, "','"); err != nil {
				return nil, err
			}
		}
	}
	p.advance() // '}'
	return &ast.MapLit{Position: pos(open.Pos), Entries: entries}, nil
}

func (p *Parser) expectMapKey() (string, error) {
	tok := p.cur()
	if tok.Kind == lexer.IDENT || tok.Kind == lexer.STRING {
		p.advance()
		return tok.Lexeme, nil
	}
	return "", &Error{Pos: tok.Pos, Msg: "expected map key"}
}
