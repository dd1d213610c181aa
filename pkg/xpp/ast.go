// Package xpp implements the front end for the XPPAUT .ode model language:
// a lexer, a parser producing an immutable AST, and a generator that turns
// the AST back into source text with a guaranteed round trip. The language
// is line oriented and case insensitive, command keywords abbreviate and
// count only at line start, and array-range declarators expand at parse
// time. Orchestration of the simulator itself lives outside this package;
// callers typically parse a model, patch individual commands by index, and
// regenerate the text to hand to the external tool.
package xpp

// Command is one parsed statement. The set of implementations is closed;
// the generator matches over it exhaustively and reports a GenerationError
// for anything else.
type Command interface {
	cmdNode()
}

// Assignment binds one lower-cased target name to an expression.
type Assignment struct {
	Target Name
	Value  Expression
}

// FixedVar is a fixed-variable definition: either a bare "name=expr" line
// or a "number" keyword line carrying a list of assignments.
type FixedVar struct {
	Assignments []Assignment
}

// Par declares model parameters.
type Par struct {
	Assignments []Assignment
}

// Init declares initial conditions.
type Init struct {
	Assignments []Assignment
}

// Aux declares auxiliary output variables.
type Aux struct {
	Assignments []Assignment
}

// Option carries "@" numeric-option settings for the simulator.
type Option struct {
	Assignments []Assignment
}

// Global is an event-detection block: when Condition crosses zero in the
// direction selected by Sign (-1, 0 or 1), Body is executed.
type Global struct {
	Sign      int
	Condition Expression
	Body      []Assignment
}

// FunDef is a user function definition.
type FunDef struct {
	Name   Name
	Params []Name
	Body   Expression
}

// ODE binds one state variable to its right-hand side. Both source
// notations, "dv/dt=expr" and "v'=expr", normalize to this one shape.
type ODE struct {
	Assignment Assignment
}

// Done is the end-of-program marker.
type Done struct{}

func (*FixedVar) cmdNode() {}
func (*Par) cmdNode()      {}
func (*Init) cmdNode()     {}
func (*Aux) cmdNode()      {}
func (*Option) cmdNode()   {}
func (*Global) cmdNode()   {}
func (*FunDef) cmdNode()   {}
func (*ODE) cmdNode()      {}
func (*Done) cmdNode()     {}

// Expression is one node of an expression tree. Like Command this is a
// closed set.
type Expression interface {
	exprNode()
}

// Number is a numeric literal. IsInt records whether the source spelled an
// integer, so regeneration keeps the integer/floating distinction.
type Number struct {
	Value float64
	IsInt bool
}

// Name is a lower-cased identifier reference.
type Name struct {
	ID string
}

// BinOp is a binary arithmetic operation. Op is the source spelling, one
// of + - * / ^ **.
type BinOp struct {
	Left  Expression
	Op    string
	Right Expression
}

// UnaryOp is unary negation; Op is always "-".
type UnaryOp struct {
	Op      string
	Operand Expression
}

// Compare is a relational operation, one of < <= > >= <> ==. It is not
// part of the arithmetic expression chain; the grammar admits it only in
// condition positions (global blocks and if expressions).
type Compare struct {
	Op    string
	Left  Expression
	Right Expression
}

// FunCall applies a named function to one or more arguments.
type FunCall struct {
	Name Name
	Args []Expression
}

// Group is explicit source parenthesization, retained so regeneration is
// faithful. The parser folds a Group standing directly as a binary or unary
// operand around a BinOp, because the generator re-creates exactly those
// parentheses itself.
type Group struct {
	Inner Expression
}

// If is the conditional expression if(cond)then(a)else(b).
type If struct {
	Cond Expression
	Then Expression
	Else Expression
}

// Sum is the summation expression sum(lo,hi)of(body).
type Sum struct {
	From Expression
	To   Expression
	Body Expression
}

// Index is the current-summation-index expression, spelled name' inside a
// sum body.
type Index struct {
	Name string
}

func (*Number) exprNode()  {}
func (*Name) exprNode()    {}
func (*BinOp) exprNode()   {}
func (*UnaryOp) exprNode() {}
func (*Compare) exprNode() {}
func (*FunCall) exprNode() {}
func (*Group) exprNode()   {}
func (*If) exprNode()      {}
func (*Sum) exprNode()     {}
func (*Index) exprNode()   {}

// indexOp is the closed set of index transforms an array select may apply
// to the expansion index.
type indexOp int

const (
	idxIdentity indexOp = iota
	idxAdd
	idxSub
	idxMul
)

// arraySelect is a parser-internal expression: an indexed select such as
// u[j+1] inside a statement undergoing array expansion. Expansion replaces
// every select with a plain Name before the statement leaves the parser, so
// the node never appears in a returned AST.
type arraySelect struct {
	base string
	op   indexOp
	k    int
	line int
}

func (*arraySelect) exprNode() {}

func (s *arraySelect) apply(i int) int {
	switch s.op {
	case idxAdd:
		return i + s.k
	case idxSub:
		return i - s.k
	case idxMul:
		return i * s.k
	default:
		return i
	}
}
