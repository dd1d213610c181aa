package xpp

import (
	"errors"
	"testing"
)

func tokenKinds(t *testing.T, src string) []TokenKind {
	t.Helper()
	toks, err := NewLexer(src).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", src, err)
	}
	kinds := make([]TokenKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	return kinds
}

func kindsEqual(a, b []TokenKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLexOperators(t *testing.T) {
	tests := []struct {
		src  string
		kind TokenKind
	}{
		{"+", TokenPlus},
		{"-", TokenMinus},
		{"*", TokenTimes},
		{"/", TokenDivide},
		{"^", TokenPower},
		{"**", TokenPower},
		{"=", TokenAssign},
		{"==", TokenEqual},
		{"<", TokenLess},
		{"<=", TokenLessEqual},
		{">", TokenGreater},
		{">=", TokenGreaterEqual},
		{"<>", TokenNotEqual},
	}
	for _, tt := range tests {
		toks, err := NewLexer(tt.src).Tokenize()
		if err != nil {
			t.Fatalf("Tokenize(%q) failed: %v", tt.src, err)
		}
		if toks[0].Kind != tt.kind {
			t.Errorf("Tokenize(%q) kind = %s, want %s", tt.src, toks[0].Kind, tt.kind)
		}
		if toks[0].Text != tt.src {
			t.Errorf("Tokenize(%q) text = %q, want %q", tt.src, toks[0].Text, tt.src)
		}
	}
}

func TestLexSeparators(t *testing.T) {
	got := tokenKinds(t, "( ) [ ] { } , ; '")
	want := []TokenKind{
		TokenLeftParen, TokenRightParen, TokenLeftBracket, TokenRightBracket,
		TokenLeftBrace, TokenRightBrace, TokenComma, TokenSemicolon,
		TokenApostrophe, TokenEOF,
	}
	if !kindsEqual(got, want) {
		t.Errorf("kinds = %v, want %v", got, want)
	}
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		src  string
		kind TokenKind
	}{
		{"0", TokenInteger},
		{"42", TokenInteger},
		{"40000000", TokenInteger},
		{"0.4", TokenFloat},
		{".4", TokenFloat},
		{"4.", TokenFloat},
		{"3.14159", TokenFloat},
	}
	for _, tt := range tests {
		toks, err := NewLexer(tt.src).Tokenize()
		if err != nil {
			t.Fatalf("Tokenize(%q) failed: %v", tt.src, err)
		}
		if toks[0].Kind != tt.kind || toks[0].Text != tt.src {
			t.Errorf("Tokenize(%q) = %s(%s), want %s(%s)",
				tt.src, toks[0].Kind, toks[0].Text, tt.kind, tt.src)
		}
	}
}

func TestLexIdentifiersLowerCased(t *testing.T) {
	toks, err := NewLexer("x=Vm+INF").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	wantTexts := []string{"x", "=", "vm", "+", "inf"}
	for i, want := range wantTexts {
		if toks[i].Text != want {
			t.Errorf("token %d text = %q, want %q", i, toks[i].Text, want)
		}
	}
}

func TestLexLineStartKeywords(t *testing.T) {
	tests := []struct {
		src  string
		kind TokenKind
	}{
		{"p k=1", TokenPar},
		{"par k=1", TokenPar},
		{"param k=1", TokenPar},
		{"i x=0", TokenInit},
		{"init x=0", TokenInit},
		{"aux e=v", TokenAux},
		{"auxiliary e=v", TokenAux},
		{"@ dt=0.05", TokenOption},
		{"global 1 {v} {m=0}", TokenGlobal},
		{"done", TokenDone},
		{"number z=1", TokenNumberDecl},
	}
	for _, tt := range tests {
		toks, err := NewLexer(tt.src).Tokenize()
		if err != nil {
			t.Fatalf("Tokenize(%q) failed: %v", tt.src, err)
		}
		if toks[0].Kind != tt.kind {
			t.Errorf("Tokenize(%q) first kind = %s, want %s", tt.src, toks[0].Kind, tt.kind)
		}
	}
}

func TestLexKeywordsOnlyAtLineStart(t *testing.T) {
	// The same words mid-line are plain identifiers.
	toks, err := NewLexer("x aux").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[0].Kind != TokenIdentifier || toks[1].Kind != TokenIdentifier {
		t.Errorf("got %s %s, want two identifiers", toks[0], toks[1])
	}

	toks, err = NewLexer("k=done").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[2].Kind != TokenIdentifier || toks[2].Text != "done" {
		t.Errorf("mid-line done = %s, want IDENTIFIER(done)", toks[2])
	}

	// An indented keyword lost its column-0 anchor.
	toks, err = NewLexer("  par k=1").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[0].Kind != TokenIdentifier || toks[0].Text != "par" {
		t.Errorf("indented par = %s, want IDENTIFIER(par)", toks[0])
	}
}

func TestLexCaseFolding(t *testing.T) {
	toks, err := NewLexer("PAR G=1").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[0].Kind != TokenPar || toks[0].Text != "par" {
		t.Errorf("keyword token = %s, want PARAMETER(par)", toks[0])
	}
	if toks[1].Kind != TokenIdentifier || toks[1].Text != "g" {
		t.Errorf("identifier token = %s, want IDENTIFIER(g)", toks[1])
	}
}

func TestLexComments(t *testing.T) {
	got := tokenKinds(t, "# a comment\n\" another\nx=1\n")
	want := []TokenKind{
		TokenNewline, TokenNewline,
		TokenIdentifier, TokenAssign, TokenInteger, TokenNewline,
		TokenEOF,
	}
	if !kindsEqual(got, want) {
		t.Errorf("kinds = %v, want %v", got, want)
	}

	// Line numbers advance across discarded lines.
	toks, err := NewLexer("# one\n# two\nx=1\n").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	var ident Token
	for _, tok := range toks {
		if tok.Kind == TokenIdentifier {
			ident = tok
			break
		}
	}
	if ident.Line != 3 {
		t.Errorf("identifier line = %d, want 3", ident.Line)
	}
}

func TestLexIgnoredDeclarations(t *testing.T) {
	src := "table f fun.tab\nwiener w\nspecial k=conv(even,5,1,w,u0)\n!rho=1\nx=1\n"
	got := tokenKinds(t, src)
	want := []TokenKind{
		TokenNewline, TokenNewline, TokenNewline, TokenNewline,
		TokenIdentifier, TokenAssign, TokenInteger, TokenNewline,
		TokenEOF,
	}
	if !kindsEqual(got, want) {
		t.Errorf("kinds = %v, want %v", got, want)
	}
}

func TestLexActiveCommentBlock(t *testing.T) {
	src := "%\nall of this is skipped\n%\nx=1\n"
	got := tokenKinds(t, src)
	want := []TokenKind{
		TokenNewline,
		TokenIdentifier, TokenAssign, TokenInteger, TokenNewline,
		TokenEOF,
	}
	if !kindsEqual(got, want) {
		t.Errorf("kinds = %v, want %v", got, want)
	}
}

func TestLexArrayRange(t *testing.T) {
	toks, err := NewLexer("x[1..10]=0").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[1].Kind != TokenArrayRange || toks[1].Text != "[1..10]" {
		t.Errorf("range token = %s, want ARRAY_RANGE([1..10])", toks[1])
	}

	// Interior spaces are part of the lexeme.
	toks, err = NewLexer("x[1 .. 3]=0").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[1].Kind != TokenArrayRange {
		t.Errorf("spaced range token = %s, want ARRAY_RANGE", toks[1])
	}

	// A bracket that is not a range stays a plain bracket.
	got := tokenKinds(t, "u[j+1]")
	want := []TokenKind{
		TokenIdentifier, TokenLeftBracket, TokenIdentifier, TokenPlus,
		TokenInteger, TokenRightBracket, TokenEOF,
	}
	if !kindsEqual(got, want) {
		t.Errorf("kinds = %v, want %v", got, want)
	}
}

func TestLexFloatStopsBeforeRangeDots(t *testing.T) {
	// The literal's dot rule must not eat the ".." separator.
	toks, err := NewLexer("[1..3]").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[0].Kind != TokenArrayRange {
		t.Fatalf("token = %s, want ARRAY_RANGE", toks[0])
	}
}

func TestLexDifferentiationNotations(t *testing.T) {
	toks, err := NewLexer("dv/dt=-v").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[0].Kind != TokenLeibniz || toks[0].Text != "dv/dt" {
		t.Errorf("token = %s, want LEIBNIZ(dv/dt)", toks[0])
	}

	toks, err = NewLexer("V'=-v").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[0].Kind != TokenEuler || toks[0].Text != "v'" {
		t.Errorf("token = %s, want EULER(v')", toks[0])
	}

	// A state variable named "one" keeps its Leibniz line.
	toks, err = NewLexer("done/dt=1").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if toks[0].Kind != TokenLeibniz || toks[0].Text != "done/dt" {
		t.Errorf("token = %s, want LEIBNIZ(done/dt)", toks[0])
	}

	// Mid-line the same text is ordinary identifiers and a divide.
	got := tokenKinds(t, "x=dv/dt")
	want := []TokenKind{
		TokenIdentifier, TokenAssign, TokenIdentifier, TokenDivide,
		TokenIdentifier, TokenEOF,
	}
	if !kindsEqual(got, want) {
		t.Errorf("kinds = %v, want %v", got, want)
	}
}

func TestLexIllegalCharacter(t *testing.T) {
	_, err := NewLexer("x=1\ny=$2\n").Tokenize()
	if err == nil {
		t.Fatal("Tokenize succeeded, want lexical error")
	}
	var le *LexicalError
	if !errors.As(err, &le) {
		t.Fatalf("error type = %T, want *LexicalError", err)
	}
	if le.Char != '$' || le.Line != 2 {
		t.Errorf("LexicalError = %q line %d, want %q line 2", string(le.Char), le.Line, "$")
	}
}

func TestLexMidLineOptionSignIllegal(t *testing.T) {
	_, err := NewLexer("x=1 @ y\n").Tokenize()
	var le *LexicalError
	if !errors.As(err, &le) {
		t.Fatalf("error = %v, want *LexicalError", err)
	}
	if le.Char != '@' {
		t.Errorf("LexicalError char = %q, want @", string(le.Char))
	}
}

func TestLexLineNumbers(t *testing.T) {
	toks, err := NewLexer("a=1\nb=2\nc=3\n").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	line := 0
	for _, tok := range toks {
		if tok.Kind == TokenIdentifier {
			line++
			if tok.Line != line {
				t.Errorf("identifier %q line = %d, want %d", tok.Text, tok.Line, line)
			}
		}
	}
	if line != 3 {
		t.Fatalf("saw %d identifiers, want 3", line)
	}
}
