package xpp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse lexes and parses a whole model source. A malformed statement is
// dropped and recorded on Program.Dropped while parsing continues at the
// next line; only a lexical error or a grammar violation at end of input
// fails the whole call.
func Parse(src string) (*Program, error) {
	toks, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

// ParseCommand parses exactly one statement, as used by the patch flow.
// There is no error recovery, and a statement that array-expands to more
// than one command is rejected because it cannot fill a single slot.
func ParseCommand(src string) (Command, error) {
	toks, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	for p.at(TokenNewline) {
		p.next()
	}
	cmds, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	for p.at(TokenNewline) {
		p.next()
	}
	if !p.at(TokenEOF) {
		return nil, p.syntaxError()
	}
	if len(cmds) != 1 {
		return nil, fmt.Errorf("statement expands to %d commands, expected one", len(cmds))
	}
	return cmds[0], nil
}

// parser is a cursor over one token sequence. All mutable state is local
// to the invocation, so concurrent parses never interfere.
type parser struct {
	toks    []Token
	pos     int
	inRange bool // an array-range expansion is in progress; selects allowed
}

func (p *parser) cur() Token {
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	tok := p.toks[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) at(kind TokenKind) bool {
	return p.cur().Kind == kind
}

func (p *parser) peekKind(n int) TokenKind {
	if p.pos+n >= len(p.toks) {
		return TokenEOF
	}
	return p.toks[p.pos+n].Kind
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	if !p.at(kind) {
		return Token{}, p.syntaxError()
	}
	return p.next(), nil
}

func (p *parser) syntaxError() error {
	tok := p.cur()
	return &SyntaxError{Line: tok.Line, Token: tok}
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for {
		if p.at(TokenEOF) {
			return prog, nil
		}
		if p.at(TokenNewline) {
			p.next()
			continue
		}
		cmds, err := p.parseStatement()
		if err != nil {
			var se *SyntaxError
			if !errors.As(err, &se) || se.Token.Kind == TokenEOF {
				return nil, err
			}
			p.skipToNextLine()
			prog.Dropped = append(prog.Dropped, *se)
			continue
		}
		prog.Commands = append(prog.Commands, cmds...)
	}
}

func (p *parser) parseStatement() ([]Command, error) {
	cmds, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case TokenNewline:
		p.next()
	case TokenEOF:
	default:
		return nil, p.syntaxError()
	}
	return cmds, nil
}

func (p *parser) skipToNextLine() {
	for {
		switch p.cur().Kind {
		case TokenEOF:
			return
		case TokenNewline:
			p.next()
			return
		}
		p.next()
	}
}

func (p *parser) parseCommand() ([]Command, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokenPar:
		p.next()
		as, err := p.parseAssignmentList(true)
		if err != nil {
			return nil, err
		}
		return []Command{&Par{Assignments: as}}, nil
	case TokenInit:
		p.next()
		as, err := p.parseAssignmentList(true)
		if err != nil {
			return nil, err
		}
		return []Command{&Init{Assignments: as}}, nil
	case TokenAux:
		p.next()
		as, err := p.parseAssignmentList(true)
		if err != nil {
			return nil, err
		}
		return []Command{&Aux{Assignments: as}}, nil
	case TokenOption:
		p.next()
		as, err := p.parseAssignmentList(false)
		if err != nil {
			return nil, err
		}
		return []Command{&Option{Assignments: as}}, nil
	case TokenNumberDecl:
		p.next()
		as, err := p.parseAssignmentList(true)
		if err != nil {
			return nil, err
		}
		return []Command{&FixedVar{Assignments: as}}, nil
	case TokenGlobal:
		return p.parseGlobal()
	case TokenDone:
		p.next()
		return []Command{&Done{}}, nil
	case TokenLeibniz:
		p.next()
		return p.parseODETail(leibnizName(tok.Text))
	case TokenEuler:
		p.next()
		return p.parseODETail(strings.TrimSuffix(tok.Text, "'"))
	case TokenIdentifier:
		return p.parseNameStatement()
	}
	return nil, p.syntaxError()
}

// leibnizName recovers the state-variable name from a d<name>/dt lexeme.
func leibnizName(text string) string {
	return strings.TrimSuffix(strings.TrimPrefix(text, "d"), "/dt")
}

func (p *parser) parseODETail(name string) ([]Command, error) {
	if _, err := p.expect(TokenAssign); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return []Command{&ODE{Assignment: Assignment{Target: Name{ID: name}, Value: rhs}}}, nil
}

// parseNameStatement handles the statement kinds that open with a plain
// identifier: a bare fixed variable, a function definition, the v(0)=expr
// initial-condition shorthand, and the ranged declarator forms.
func (p *parser) parseNameStatement() ([]Command, error) {
	name := p.next().Text
	switch p.cur().Kind {
	case TokenAssign:
		p.next()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		a := Assignment{Target: Name{ID: name}, Value: value}
		return []Command{&FixedVar{Assignments: []Assignment{a}}}, nil
	case TokenLeftParen:
		if p.peekKind(1) == TokenInteger {
			return p.parseInitShorthand(name)
		}
		return p.parseFunDef(name)
	case TokenArrayRange:
		return p.parseArrayStatement(name)
	}
	return nil, p.syntaxError()
}

// parseInitShorthand parses "v(0)=expr". The integer is a time-zero marker
// and carries no information.
func (p *parser) parseInitShorthand(name string) ([]Command, error) {
	p.next() // (
	p.next() // integer
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenAssign); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	a := Assignment{Target: Name{ID: name}, Value: value}
	return []Command{&Init{Assignments: []Assignment{a}}}, nil
}

func (p *parser) parseFunDef(name string) ([]Command, error) {
	p.next() // (
	var params []Name
	seen := make(map[string]bool)
	for {
		tok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		if seen[tok.Text] {
			return nil, &SyntaxError{Line: tok.Line, Token: tok}
		}
		seen[tok.Text] = true
		params = append(params, Name{ID: tok.Text})
		if p.at(TokenComma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenAssign); err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return []Command{&FunDef{Name: Name{ID: name}, Params: params, Body: body}}, nil
}

// parseArrayStatement handles a line-initial ranged declarator: an array
// ODE x[1..n]'=expr (one ODE per index, selects substituted), the ranged
// initial-condition shorthand x[1..n](0)=expr, and the ranged fixed
// variable x[1..n]=expr.
func (p *parser) parseArrayStatement(name string) ([]Command, error) {
	lo, hi, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case TokenApostrophe:
		p.next()
		if _, err := p.expect(TokenAssign); err != nil {
			return nil, err
		}
		rhs, err := p.parseRangeExpression()
		if err != nil {
			return nil, err
		}
		cmds := make([]Command, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			value, err := substituteIndex(rhs, i)
			if err != nil {
				return nil, err
			}
			a := Assignment{Target: Name{ID: name + strconv.Itoa(i)}, Value: value}
			cmds = append(cmds, &ODE{Assignment: a})
		}
		return cmds, nil
	case TokenLeftParen:
		p.next()
		if _, err := p.expect(TokenInteger); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenAssign); err != nil {
			return nil, err
		}
		value, err := p.parseRangeExpression()
		if err != nil {
			return nil, err
		}
		as, err := expandAssignments(name, lo, hi, value)
		if err != nil {
			return nil, err
		}
		return []Command{&Init{Assignments: as}}, nil
	case TokenAssign:
		p.next()
		value, err := p.parseRangeExpression()
		if err != nil {
			return nil, err
		}
		as, err := expandAssignments(name, lo, hi, value)
		if err != nil {
			return nil, err
		}
		return []Command{&FixedVar{Assignments: as}}, nil
	}
	return nil, p.syntaxError()
}

func (p *parser) parseRange() (int, int, error) {
	tok := p.next()
	inner := strings.TrimSuffix(strings.TrimPrefix(tok.Text, "["), "]")
	parts := strings.SplitN(inner, "..", 2)
	lo, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || lo > hi {
		return 0, 0, &SyntaxError{Line: tok.Line, Token: tok}
	}
	return lo, hi, nil
}

// parseRangeExpression parses an expression with indexed selects enabled.
func (p *parser) parseRangeExpression() (Expression, error) {
	saved := p.inRange
	p.inRange = true
	e, err := p.parseExpression()
	p.inRange = saved
	return e, err
}

func expandAssignments(base string, lo, hi int, value Expression) ([]Assignment, error) {
	out := make([]Assignment, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		v, err := substituteIndex(value, i)
		if err != nil {
			return nil, err
		}
		out = append(out, Assignment{Target: Name{ID: base + strconv.Itoa(i)}, Value: v})
	}
	return out, nil
}

// parseAssignmentList parses "a=1,b=2" style lists. Comma and semicolon
// both separate; a trailing separator before the end of the list is
// tolerated. With allowRanges set, an item may be a ranged declarator whose
// expansion is spliced into the list in place.
func (p *parser) parseAssignmentList(allowRanges bool) ([]Assignment, error) {
	var out []Assignment
	for {
		tok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		if allowRanges && p.at(TokenArrayRange) {
			lo, hi, err := p.parseRange()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenAssign); err != nil {
				return nil, err
			}
			value, err := p.parseRangeExpression()
			if err != nil {
				return nil, err
			}
			expanded, err := expandAssignments(tok.Text, lo, hi, value)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		} else {
			if _, err := p.expect(TokenAssign); err != nil {
				return nil, err
			}
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			out = append(out, Assignment{Target: Name{ID: tok.Text}, Value: value})
		}
		if p.at(TokenComma) || p.at(TokenSemicolon) {
			p.next()
			if p.at(TokenNewline) || p.at(TokenEOF) || p.at(TokenRightBrace) {
				break
			}
			continue
		}
		break
	}
	return out, nil
}

func (p *parser) parseGlobal() ([]Command, error) {
	p.next() // keyword
	neg := false
	if p.at(TokenMinus) {
		neg = true
		p.next()
	}
	tok, err := p.expect(TokenInteger)
	if err != nil {
		return nil, err
	}
	sign, err := strconv.Atoi(tok.Text)
	if err != nil {
		return nil, &SyntaxError{Line: tok.Line, Token: tok}
	}
	if neg {
		sign = -sign
	}
	if _, err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}
	body, err := p.parseAssignmentList(false)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return []Command{&Global{Sign: sign, Condition: cond, Body: body}}, nil
}

// parseCondition parses the one position where relational operators are
// admitted. A bare arithmetic expression is a valid condition (the crossing
// test is against zero), so the comparison is optional.
func (p *parser) parseCondition() (Expression, error) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	var op string
	switch p.cur().Kind {
	case TokenLess:
		op = "<"
	case TokenLessEqual:
		op = "<="
	case TokenGreater:
		op = ">"
	case TokenGreaterEqual:
		op = ">="
	case TokenNotEqual:
		op = "<>"
	case TokenEqual:
		op = "=="
	default:
		return left, nil
	}
	p.next()
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Compare{Op: op, Left: left, Right: right}, nil
}

// Precedence, lowest to highest: additive < multiplicative < power < unary
// minus. All binary levels associate left; unary minus binds tighter than
// exponentiation, so -x^2 is (-x)^2.

func (p *parser) parseExpression() (Expression, error) {
	return p.parseAdditive()
}

func (p *parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(TokenPlus) || p.at(TokenMinus) {
		op := p.next().Text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinOp{Left: foldGroup(left), Op: op, Right: foldGroup(right)}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expression, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.at(TokenTimes) || p.at(TokenDivide) {
		op := p.next().Text
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &BinOp{Left: foldGroup(left), Op: op, Right: foldGroup(right)}
	}
	return left, nil
}

func (p *parser) parsePower() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(TokenPower) {
		op := p.next().Text // spelling preserved: ^ or **
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinOp{Left: foldGroup(left), Op: op, Right: foldGroup(right)}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expression, error) {
	if p.at(TokenMinus) {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "-", Operand: foldGroup(operand)}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expression, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokenInteger:
		p.next()
		if v, err := strconv.ParseInt(tok.Text, 10, 64); err == nil {
			return &Number{Value: float64(v), IsInt: true}, nil
		}
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &SyntaxError{Line: tok.Line, Token: tok}
		}
		return &Number{Value: v}, nil
	case TokenFloat:
		p.next()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &SyntaxError{Line: tok.Line, Token: tok}
		}
		return &Number{Value: v}, nil
	case TokenIdentifier:
		p.next()
		switch p.cur().Kind {
		case TokenLeftParen:
			return p.parseCallArgs(tok.Text)
		case TokenLeftBracket:
			if p.inRange {
				return p.parseArraySelect(tok.Text, tok.Line)
			}
			return nil, p.syntaxError()
		case TokenApostrophe:
			p.next()
			return &Index{Name: tok.Text}, nil
		}
		return &Name{ID: tok.Text}, nil
	case TokenLeftParen:
		p.next()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return &Group{Inner: inner}, nil
	case TokenIf:
		return p.parseIf()
	case TokenSum:
		return p.parseSum()
	}
	return nil, p.syntaxError()
}

func (p *parser) parseCallArgs(name string) (Expression, error) {
	p.next() // (
	var args []Expression
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.at(TokenComma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return &FunCall{Name: Name{ID: name}, Args: args}, nil
}

// parseArraySelect parses base[j], base[j+2], base[j-1] or base[j*2]. The
// index identifier itself is not interpreted; the select records which
// transform to apply to the expansion index.
func (p *parser) parseArraySelect(base string, line int) (Expression, error) {
	p.next() // [
	if _, err := p.expect(TokenIdentifier); err != nil {
		return nil, err
	}
	sel := &arraySelect{base: base, line: line}
	switch p.cur().Kind {
	case TokenPlus:
		sel.op = idxAdd
	case TokenMinus:
		sel.op = idxSub
	case TokenTimes:
		sel.op = idxMul
	}
	if sel.op != idxIdentity {
		p.next()
		ktok, err := p.expect(TokenInteger)
		if err != nil {
			return nil, err
		}
		k, err := strconv.Atoi(ktok.Text)
		if err != nil {
			return nil, &SyntaxError{Line: ktok.Line, Token: ktok}
		}
		sel.k = k
	}
	if _, err := p.expect(TokenRightBracket); err != nil {
		return nil, err
	}
	return sel, nil
}

func (p *parser) parseIf() (Expression, error) {
	p.next() // if
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenThen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenElse); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return &If{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseSum() (Expression, error) {
	p.next() // sum
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	from, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}
	to, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenOf); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return &Sum{From: from, To: to, Body: body}, nil
}

// foldGroup unwraps explicit parentheses around a BinOp standing directly
// as a binary or unary operand. The generator re-creates exactly those
// parentheses from its conservative wrapping rule, so keeping the Group
// would make the round trip drift instead of reaching a fixed point.
func foldGroup(e Expression) Expression {
	if g, ok := e.(*Group); ok {
		if _, ok := g.Inner.(*BinOp); ok {
			return g.Inner
		}
	}
	return e
}

// substituteIndex rebuilds an expression for one expansion index, replacing
// every indexed select with the transformed concrete name. The walk covers
// every nested position. A transform that produces a negative index has no
// spellable name and is a syntax error.
func substituteIndex(e Expression, i int) (Expression, error) {
	switch e := e.(type) {
	case *arraySelect:
		idx := e.apply(i)
		if idx < 0 {
			bad := Token{Kind: TokenIdentifier, Text: e.base + strconv.Itoa(idx), Line: e.line}
			return nil, &SyntaxError{Line: e.line, Token: bad}
		}
		return &Name{ID: e.base + strconv.Itoa(idx)}, nil
	case *BinOp:
		left, err := substituteIndex(e.Left, i)
		if err != nil {
			return nil, err
		}
		right, err := substituteIndex(e.Right, i)
		if err != nil {
			return nil, err
		}
		return &BinOp{Left: left, Op: e.Op, Right: right}, nil
	case *UnaryOp:
		operand, err := substituteIndex(e.Operand, i)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: e.Op, Operand: operand}, nil
	case *Compare:
		left, err := substituteIndex(e.Left, i)
		if err != nil {
			return nil, err
		}
		right, err := substituteIndex(e.Right, i)
		if err != nil {
			return nil, err
		}
		return &Compare{Op: e.Op, Left: left, Right: right}, nil
	case *FunCall:
		args := make([]Expression, 0, len(e.Args))
		for _, arg := range e.Args {
			sub, err := substituteIndex(arg, i)
			if err != nil {
				return nil, err
			}
			args = append(args, sub)
		}
		return &FunCall{Name: e.Name, Args: args}, nil
	case *Group:
		inner, err := substituteIndex(e.Inner, i)
		if err != nil {
			return nil, err
		}
		return &Group{Inner: inner}, nil
	case *If:
		cond, err := substituteIndex(e.Cond, i)
		if err != nil {
			return nil, err
		}
		then, err := substituteIndex(e.Then, i)
		if err != nil {
			return nil, err
		}
		els, err := substituteIndex(e.Else, i)
		if err != nil {
			return nil, err
		}
		return &If{Cond: cond, Then: then, Else: els}, nil
	case *Sum:
		from, err := substituteIndex(e.From, i)
		if err != nil {
			return nil, err
		}
		to, err := substituteIndex(e.To, i)
		if err != nil {
			return nil, err
		}
		body, err := substituteIndex(e.Body, i)
		if err != nil {
			return nil, err
		}
		return &Sum{From: from, To: to, Body: body}, nil
	default:
		return e, nil
	}
}
