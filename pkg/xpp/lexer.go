package xpp

import "strings"

// Lexer turns model source text into a stream of tokens. The grammar is
// line sensitive: command keywords count only at column 0, so the lexer
// tracks whether the next token begins a logical line. All per-call state
// lives on the Lexer value; concurrent lexers never share anything mutable.
type Lexer struct {
	input   string
	pos     int  // index of current char
	readPos int  // index after current char
	ch      byte // current char, 0 at end of input
	line    int  // 1-based
	bol     bool // next token would start at column 0
}

// NewLexer returns a lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, bol: true}
	l.readChar()
	return l
}

// Tokenize consumes the whole input and returns every token including the
// terminating EOF. It fails with a LexicalError on the first character that
// matches no rule.
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Kind == TokenIllegal {
			return nil, &LexicalError{Char: tok.Text[0], Line: tok.Line}
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks, nil
		}
	}
}

// NextToken scans and returns the next token. Unrecognized characters are
// returned as TokenIllegal rather than an error so that callers driving the
// lexer directly can decide how to stop.
func (l *Lexer) NextToken() Token {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.bol = false
			l.readChar()
		}
		if l.bol && (l.ch == '#' || l.ch == '"' || l.ch == '!') {
			// comment or derived-parameter line, dropped whole
			l.bol = false
			l.skipLine()
			continue
		}
		if l.bol && l.ch == '%' {
			l.bol = false
			l.skipActiveBlock()
			continue
		}
		break
	}

	line := l.line
	switch l.ch {
	case 0:
		return Token{Kind: TokenEOF, Line: line}
	case '\n':
		l.readChar()
		l.line++
		l.bol = true
		return Token{Kind: TokenNewline, Text: "\n", Line: line}
	}

	atLineStart := l.bol
	l.bol = false

	if l.ch == '@' {
		if !atLineStart {
			return l.illegal(line)
		}
		l.readChar()
		return Token{Kind: TokenOption, Text: "@", Line: line}
	}
	if isLetter(l.ch) {
		return l.lexWord(atLineStart, line)
	}
	if isDigit(l.ch) || l.ch == '.' {
		return l.lexNumber(line)
	}

	switch l.ch {
	case '+':
		return l.single(TokenPlus, line)
	case '-':
		return l.single(TokenMinus, line)
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			return Token{Kind: TokenPower, Text: "**", Line: line}
		}
		return l.single(TokenTimes, line)
	case '/':
		return l.single(TokenDivide, line)
	case '^':
		return l.single(TokenPower, line)
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Kind: TokenEqual, Text: "==", Line: line}
		}
		return l.single(TokenAssign, line)
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			l.readChar()
			return Token{Kind: TokenLessEqual, Text: "<=", Line: line}
		case '>':
			l.readChar()
			l.readChar()
			return Token{Kind: TokenNotEqual, Text: "<>", Line: line}
		}
		return l.single(TokenLess, line)
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Kind: TokenGreaterEqual, Text: ">=", Line: line}
		}
		return l.single(TokenGreater, line)
	case '(':
		return l.single(TokenLeftParen, line)
	case ')':
		return l.single(TokenRightParen, line)
	case '[':
		if tok, ok := l.lexArrayRange(line); ok {
			return tok
		}
		return l.single(TokenLeftBracket, line)
	case ']':
		return l.single(TokenRightBracket, line)
	case '{':
		return l.single(TokenLeftBrace, line)
	case '}':
		return l.single(TokenRightBrace, line)
	case ',':
		return l.single(TokenComma, line)
	case ';':
		return l.single(TokenSemicolon, line)
	case '\'':
		return l.single(TokenApostrophe, line)
	}
	return l.illegal(line)
}

// lexWord scans an identifier-shaped word and classifies it. At line start
// the word may be a differentiation token, an ignored declaration, or one of
// the abbreviating command keywords; anywhere it may be one of the exact
// expression keywords. Everything else is a lower-cased identifier.
func (l *Lexer) lexWord(atLineStart bool, line int) Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	word := strings.ToLower(l.input[start:l.pos])

	if atLineStart {
		// Leibniz notation d<name>/dt, checked before keywords so that a
		// state variable like "one" keeps its derivative line "done/dt=...".
		if len(word) >= 2 && word[0] == 'd' && l.ch == '/' {
			rest := l.input[l.readPos:]
			if len(rest) >= 2 && lower(rest[0]) == 'd' && lower(rest[1]) == 't' &&
				(len(rest) == 2 || !isWordChar(rest[2])) {
				l.readChar() // /
				l.readChar() // d
				l.readChar() // t
				return Token{Kind: TokenLeibniz, Text: word + "/dt", Line: line}
			}
		}
		// Euler notation <name>'
		if l.ch == '\'' {
			l.readChar()
			return Token{Kind: TokenEuler, Text: word + "'", Line: line}
		}
		for _, prefix := range ignoredDecls {
			if strings.HasPrefix(word, prefix) {
				l.skipLine()
				return l.NextToken()
			}
		}
		switch {
		case strings.HasPrefix(word, "aux"):
			return Token{Kind: TokenAux, Text: word, Line: line}
		case strings.HasPrefix(word, "global"):
			return Token{Kind: TokenGlobal, Text: word, Line: line}
		case strings.HasPrefix(word, "done"):
			return Token{Kind: TokenDone, Text: word, Line: line}
		case strings.HasPrefix(word, "number"):
			return Token{Kind: TokenNumberDecl, Text: word, Line: line}
		case word[0] == 'p':
			return Token{Kind: TokenPar, Text: word, Line: line}
		case word[0] == 'i':
			return Token{Kind: TokenInit, Text: word, Line: line}
		}
	}
	if kind, ok := keywords[word]; ok {
		return Token{Kind: kind, Text: word, Line: line}
	}
	return Token{Kind: TokenIdentifier, Text: word, Line: line}
}

// lexNumber scans INTEGER and FLOAT literals. A decimal point adjacent to
// another dot is never part of a literal, so the two dots of an array range
// separator stay untouched.
func (l *Lexer) lexNumber(line int) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	isFloat := false
	if l.ch == '.' && l.peekChar() != '.' {
		if l.pos > start || isDigit(l.peekChar()) {
			isFloat = true
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	text := l.input[start:l.pos]
	if text == "" {
		return l.illegal(line)
	}
	if isFloat {
		return Token{Kind: TokenFloat, Text: text, Line: line}
	}
	return Token{Kind: TokenInteger, Text: text, Line: line}
}

// lexArrayRange tries to scan "[lo..hi]" as one token starting at the
// current "[". On failure nothing is consumed and the caller falls back to
// a plain left bracket.
func (l *Lexer) lexArrayRange(line int) (Token, bool) {
	i := l.pos + 1
	j := i
	for j < len(l.input) && isDigit(l.input[j]) {
		j++
	}
	if j == i {
		return Token{}, false
	}
	k := j
	for k < len(l.input) && (l.input[k] == ' ' || l.input[k] == '\t') {
		k++
	}
	if k+1 >= len(l.input) || l.input[k] != '.' || l.input[k+1] != '.' {
		return Token{}, false
	}
	k += 2
	for k < len(l.input) && (l.input[k] == ' ' || l.input[k] == '\t') {
		k++
	}
	m := k
	for m < len(l.input) && isDigit(l.input[m]) {
		m++
	}
	if m == k || m >= len(l.input) || l.input[m] != ']' {
		return Token{}, false
	}
	text := l.input[l.pos : m+1]
	for l.pos <= m {
		l.readChar()
	}
	return Token{Kind: TokenArrayRange, Text: text, Line: line}, true
}

func (l *Lexer) single(kind TokenKind, line int) Token {
	tok := Token{Kind: kind, Text: string(l.ch), Line: line}
	l.readChar()
	return tok
}

func (l *Lexer) illegal(line int) Token {
	tok := Token{Kind: TokenIllegal, Text: string(l.ch), Line: line}
	l.readChar()
	return tok
}

func (l *Lexer) skipLine() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipActiveBlock discards a "%" active-comment region: everything from the
// opening "%" line through the end of the next line that starts with "%".
func (l *Lexer) skipActiveBlock() {
	l.readChar() // opening %
	for {
		switch l.ch {
		case 0:
			return
		case '\n':
			l.readChar()
			l.line++
			if l.ch == '%' {
				l.skipLine()
				return
			}
		default:
			l.readChar()
		}
	}
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isWordChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

func lower(ch byte) byte {
	if 'A' <= ch && ch <= 'Z' {
		return ch + ('a' - 'A')
	}
	return ch
}
