package runtime

import (
	"math"
	"strings"
)

// binaryOp applies a non short-circuit binary operator. + concatenates
// when either side is a string. Two integers stay integral unless the result
// overflows int64; anything else
// numeric is computed in floating point.
func binaryOp(at Node, op string, l, r *Value) *Value {
	switch op {
	case "==":
		return BoolValue(l.Equals(r))
	case "!=":
		return BoolValue(!l.Equals(r))
	}

	ls, lstr := l.Str()
	rs, rstr := r.Str()
	if op == "+" && (lstr || rstr) {
		return StringValue(l.String() + r.String())
	}
	if lstr && rstr {
		if out, ok := compare(op, strings.Compare(ls, rs)); ok {
			return BoolValue(out)
		}
	}

	lf, lint, lok := l.Number()
	rf, rint, rok := r.Number()
	if !lok || !rok {
		raise(CodeBadOperand, at, "operator %s does not apply to %s and %s", op, l, r)
	}
	if out, ok := compare(op, cmpFloat(lf, rf)); ok {
		return BoolValue(out)
	}
	if lint && rint {
		return intOp(at, op, l.Value.(int64), r.Value.(int64))
	}
	return floatOp(at, op, lf, rf)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compare evaluates a relational operator given a three way comparison.
func compare(op string, c int) (result bool, ok bool) {
	switch op {
	case "<":
		return c < 0, true
	case "<=":
		return c <= 0, true
	case ">":
		return c > 0, true
	case ">=":
		return c >= 0, true
	}
	return false, false
}

// intOp keeps integer results integral until they overflow int64, at which
// point the operation is redone in floating point.
func intOp(at Node, op string, a, b int64) *Value {
	switch op {
	case "+":
		if s := a + b; (a >= 0) != (b >= 0) || (s >= 0) == (a >= 0) {
			return NumberValue(s)
		}
	case "-":
		if d := a - b; (a >= 0) == (b >= 0) || (d >= 0) == (a >= 0) {
			return NumberValue(d)
		}
	case "*":
		if a == 0 || b == 0 {
			return NumberValue(int64(0))
		}
		if p := a * b; p/b == a && !(a == -1 && b == math.MinInt64) && !(b == -1 && a == math.MinInt64) {
			return NumberValue(p)
		}
	case "/":
		if b == 0 {
			raise(CodeDivideByZero, at, "division by zero")
		}
		if a != math.MinInt64 || b != -1 {
			return NumberValue(a / b)
		}
	case "%":
		if b == 0 {
			raise(CodeDivideByZero, at, "modulo by zero")
		}
		return NumberValue(a % b)
	default:
		raise(CodeBadOperand, at, "unknown operator %s", op)
	}
	return floatOp(at, op, float64(a), float64(b))
}

func floatOp(at Node, op string, a, b float64) *Value {
	switch op {
	case "+":
		return NumberValue(a + b)
	case "-":
		return NumberValue(a - b)
	case "*":
		return NumberValue(a * b)
	case "/":
		if b == 0 {
			raise(CodeDivideByZero, at, "division by zero")
		}
		return NumberValue(a / b)
	case "%":
		if b == 0 {
			raise(CodeDivideByZero, at, "modulo by zero")
		}
		return NumberValue(math.Mod(a, b))
	}
	raise(CodeBadOperand, at, "unknown operator %s", op)
	return nil
}
