package xpp

import "fmt"

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	// Special tokens
	TokenEOF TokenKind = iota
	TokenIllegal
	TokenNewline

	// Literals and identifiers
	TokenInteger
	TokenFloat
	TokenIdentifier

	// Operators
	TokenPlus         // +
	TokenMinus        // -
	TokenTimes        // *
	TokenDivide       // /
	TokenPower        // ^ or **
	TokenAssign       // =
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenNotEqual     // <>
	TokenEqual        // ==

	// Separators
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenComma        // ,
	TokenSemicolon    // ;
	TokenApostrophe   // '

	// Compound lexemes
	TokenArrayRange // [1..10]
	TokenLeibniz    // dv/dt, line start only
	TokenEuler      // v', line start only

	// Line-start keywords, matched by prefix
	TokenPar        // p, par, param, ...
	TokenInit       // i, init, ...
	TokenAux        // aux, auxiliary, ...
	TokenOption     // @
	TokenGlobal     // global
	TokenDone       // done
	TokenNumberDecl // number (fixed-variable list)

	// Expression keywords, matched anywhere by exact word
	TokenIf
	TokenThen
	TokenElse
	TokenSum
	TokenOf
)

var tokenNames = map[TokenKind]string{
	TokenEOF:          "EOF",
	TokenIllegal:      "ILLEGAL",
	TokenNewline:      "NEWLINE",
	TokenInteger:      "INTEGER",
	TokenFloat:        "FLOAT",
	TokenIdentifier:   "IDENTIFIER",
	TokenPlus:         "PLUS",
	TokenMinus:        "MINUS",
	TokenTimes:        "TIMES",
	TokenDivide:       "DIVIDE",
	TokenPower:        "POWER",
	TokenAssign:       "ASSIGN",
	TokenLess:         "LESS",
	TokenLessEqual:    "LESS_EQUAL",
	TokenGreater:      "GREATER",
	TokenGreaterEqual: "GREATER_EQUAL",
	TokenNotEqual:     "NOT_EQUAL",
	TokenEqual:        "EQUAL",
	TokenLeftParen:    "LEFT_PAREN",
	TokenRightParen:   "RIGHT_PAREN",
	TokenLeftBracket:  "LEFT_BRACKET",
	TokenRightBracket: "RIGHT_BRACKET",
	TokenLeftBrace:    "LEFT_BRACE",
	TokenRightBrace:   "RIGHT_BRACE",
	TokenComma:        "COMMA",
	TokenSemicolon:    "SEMICOLON",
	TokenApostrophe:   "APOSTROPHE",
	TokenArrayRange:   "ARRAY_RANGE",
	TokenLeibniz:      "LEIBNIZ",
	TokenEuler:        "EULER",
	TokenPar:          "PARAMETER",
	TokenInit:         "INITIALIZE",
	TokenAux:          "AUXILIARY",
	TokenOption:       "OPTION",
	TokenGlobal:       "GLOBAL",
	TokenDone:         "DONE",
	TokenNumberDecl:   "NUMBER",
	TokenIf:           "IF",
	TokenThen:         "THEN",
	TokenElse:         "ELSE",
	TokenSum:          "SUM",
	TokenOf:           "OF",
}

// String returns the canonical name of the token kind.
func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexeme together with its matched text and the 1-based
// source line it started on. Tokens are immutable once produced.
type Token struct {
	Kind TokenKind
	Text string
	Line int
}

// String renders the token for error messages and debugging.
func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return "EOF"
	case TokenNewline:
		return "NEWLINE"
	default:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Text)
	}
}

// keywords maps exact words that are keywords in any position, unlike the
// command keywords which are recognized at line start only.
var keywords = map[string]TokenKind{
	"if":   TokenIf,
	"then": TokenThen,
	"else": TokenElse,
	"sum":  TokenSum,
	"of":   TokenOf,
}

// ignoredDecls lists line-start declaration prefixes the front end discards
// whole. These are simulator constructs (lookup tables, boundary conditions,
// stochastic declarations, ...) outside the modeled command set.
var ignoredDecls = []string{
	"table",
	"bdry",
	"volt",
	"markov",
	"wiener",
	"solv",
	"special",
	"set",
}
