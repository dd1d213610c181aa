package xpp

import (
	"fmt"
	"strconv"
	"strings"
)

// Generate serializes a program, one line per command. It emits exactly
// the commands it is given; the trailing "done" terminator a simulator
// input file needs is applied by the file writer, keeping Generate the
// exact inverse of Parse.
func Generate(p *Program) (string, error) {
	var b strings.Builder
	for _, cmd := range p.Commands {
		line, err := GenerateCommand(cmd)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// GenerateCommand serializes one command without a trailing newline.
func GenerateCommand(cmd Command) (string, error) {
	switch cmd := cmd.(type) {
	case *FixedVar:
		if len(cmd.Assignments) == 1 && bareFixedVarSafe(cmd.Assignments[0].Target.ID) {
			return genAssignment(cmd.Assignments[0])
		}
		list, err := genAssignments(cmd.Assignments, ",")
		if err != nil {
			return "", err
		}
		return "number " + list, nil
	case *Par:
		list, err := genAssignments(cmd.Assignments, ",")
		if err != nil {
			return "", err
		}
		return "par " + list, nil
	case *Init:
		list, err := genAssignments(cmd.Assignments, ",")
		if err != nil {
			return "", err
		}
		return "init " + list, nil
	case *Aux:
		list, err := genAssignments(cmd.Assignments, ",")
		if err != nil {
			return "", err
		}
		return "aux " + list, nil
	case *Option:
		list, err := genAssignments(cmd.Assignments, ",")
		if err != nil {
			return "", err
		}
		return "@ " + list, nil
	case *Global:
		cond, err := GenerateExpr(cmd.Condition)
		if err != nil {
			return "", err
		}
		body, err := genAssignments(cmd.Body, ";")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("global %d {%s} {%s}", cmd.Sign, cond, body), nil
	case *FunDef:
		params := make([]string, 0, len(cmd.Params))
		for _, param := range cmd.Params {
			params = append(params, param.ID)
		}
		body, err := GenerateExpr(cmd.Body)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)=%s", cmd.Name.ID, strings.Join(params, ","), body), nil
	case *ODE:
		rhs, err := GenerateExpr(cmd.Assignment.Value)
		if err != nil {
			return "", err
		}
		return cmd.Assignment.Target.ID + "'=" + rhs, nil
	case *Done:
		return "done", nil
	}
	return "", &GenerationError{Node: cmd}
}

// GenerateExpr serializes one expression.
func GenerateExpr(e Expression) (string, error) {
	switch e := e.(type) {
	case *Number:
		return formatNumber(e), nil
	case *Name:
		return e.ID, nil
	case *BinOp:
		left, err := genOperand(e.Left)
		if err != nil {
			return "", err
		}
		right, err := genOperand(e.Right)
		if err != nil {
			return "", err
		}
		return left + e.Op + right, nil
	case *UnaryOp:
		operand, err := genOperand(e.Operand)
		if err != nil {
			return "", err
		}
		return e.Op + operand, nil
	case *Compare:
		left, err := GenerateExpr(e.Left)
		if err != nil {
			return "", err
		}
		right, err := GenerateExpr(e.Right)
		if err != nil {
			return "", err
		}
		return left + e.Op + right, nil
	case *FunCall:
		args := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			s, err := GenerateExpr(arg)
			if err != nil {
				return "", err
			}
			args = append(args, s)
		}
		return e.Name.ID + "(" + strings.Join(args, ",") + ")", nil
	case *Group:
		inner, err := GenerateExpr(e.Inner)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case *If:
		cond, err := GenerateExpr(e.Cond)
		if err != nil {
			return "", err
		}
		then, err := GenerateExpr(e.Then)
		if err != nil {
			return "", err
		}
		els, err := GenerateExpr(e.Else)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("if(%s)then(%s)else(%s)", cond, then, els), nil
	case *Sum:
		from, err := GenerateExpr(e.From)
		if err != nil {
			return "", err
		}
		to, err := GenerateExpr(e.To)
		if err != nil {
			return "", err
		}
		body, err := GenerateExpr(e.Body)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("sum(%s,%s)of(%s)", from, to, body), nil
	case *Index:
		return e.Name + "'", nil
	}
	return "", &GenerationError{Node: e}
}

// genOperand renders a binary or unary operand. A nested BinOp is always
// parenthesized, independent of relative precedence; the parser folds the
// matching Group away again, so the round trip stays exact.
func genOperand(e Expression) (string, error) {
	s, err := GenerateExpr(e)
	if err != nil {
		return "", err
	}
	if _, ok := e.(*BinOp); ok {
		return "(" + s + ")", nil
	}
	return s, nil
}

func genAssignment(a Assignment) (string, error) {
	value, err := GenerateExpr(a.Value)
	if err != nil {
		return "", err
	}
	return a.Target.ID + "=" + value, nil
}

func genAssignments(as []Assignment, sep string) (string, error) {
	parts := make([]string, 0, len(as))
	for _, a := range as {
		s, err := genAssignment(a)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

// formatNumber keeps the integer/floating distinction through the round
// trip. Floats use plain decimal notation because the lexer accepts no
// exponent spelling, and get a ".0" suffix when formatting drops the point.
func formatNumber(n *Number) string {
	if n.IsInt {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	s := strconv.FormatFloat(n.Value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// bareFixedVarSafe reports whether "name=expr" would re-lex with name still
// an identifier at line start. A target that collides with a keyword or an
// ignored-declaration prefix is emitted in the "number" form instead.
func bareFixedVarSafe(name string) bool {
	if name == "" {
		return false
	}
	if name[0] == 'p' || name[0] == 'i' {
		return false
	}
	for _, prefix := range []string{"aux", "global", "done", "number"} {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	for _, prefix := range ignoredDecls {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	if _, ok := keywords[name]; ok {
		return false
	}
	return true
}
