package xpp

import "fmt"

// LexicalError reports the first character of the input that matches no
// token rule. Lexing stops at the offending character; nothing is skipped.
type LexicalError struct {
	Char byte
	Line int
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("illegal character %q at line %d", string(e.Char), e.Line)
}

// SyntaxError reports a statement that cannot be reduced to any grammar
// rule. Inside a program the parser drops the offending line and continues;
// at end of input the error is fatal to the whole parse.
type SyntaxError struct {
	Line  int
	Token Token
}

func (e *SyntaxError) Error() string {
	if e.Token.Kind == TokenEOF {
		return fmt.Sprintf("syntax error at line %d: unexpected end of input", e.Line)
	}
	return fmt.Sprintf("syntax error at line %d near %s", e.Line, e.Token)
}

// GenerationError reports an AST node that matches no known variant, for
// example a nil expression or a foreign Command implementation.
type GenerationError struct {
	Node any
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("cannot generate source for node of type %T", e.Node)
}
