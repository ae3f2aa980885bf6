package runtime

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = errors.New("evaluation for this node type not implemented")
	ErrInternal       = errors.New("internal interpreter error")
	ErrNoBuiltin      = errors.New("builtin method not found")
	ErrNoHost         = errors.New("no host bridge configured")
	ErrPoolClosed     = errors.New("worker pool is closed")
)

// Fault codes raised by the interpreter. Scripts raise their own codes with
// panic(code, message).
const (
	CodeVarNotFound   = 1
	CodeFieldNotFound = 2
	CodeNotAssignable = 3
	CodeNotMapOrArray = 4
	CodeDivideByZero  = 5
	CodeIndexRange    = 6
	CodeNotCallable   = 7
	CodeHostFailure   = 8
	CodeBadOperand    = 9
	CodeUnknownError  = 99
)

var codeNames = map[int]string{
	CodeVarNotFound:   "VAR_NOT_FOUND",
	CodeFieldNotFound: "FIELD_NOT_FOUND",
	CodeNotAssignable: "NOT_ASSIGNABLE",
	CodeNotMapOrArray: "NOT_MAP_OR_ARRAY",
	CodeDivideByZero:  "DIVIDE_BY_ZERO",
	CodeIndexRange:    "INDEX_OUT_OF_RANGE",
	CodeNotCallable:   "NOT_CALLABLE",
	CodeHostFailure:   "HOST_FAILURE",
	CodeBadOperand:    "BAD_OPERAND",
	CodeUnknownError:  "UNKNOWN_ERROR",
}

// Fault is a runtime panic raised by a script or by the interpreter on its
// behalf. It unwinds evaluation until a safe block or the top level.
type Fault struct {
	Code    int
	Message string
	Node    Node
}

func (f *Fault) Error() string {
	name, ok := codeNames[f.Code]
	if !ok {
		name = fmt.Sprintf("PANIC(%d)", f.Code)
	}
	if f.Node != nil {
		return fmt.Sprintf("%s: %s: %s", f.Node.Pos(), name, f.Message)
	}
	return fmt.Sprintf("%s: %s", name, f.Message)
}

func NewFault(code int, node Node, format string, args ...any) *Fault {
	return &Fault{Code: code, Node: node, Message: fmt.Sprintf(format, args...)}
}

// InternalError is a bug in the interpreter or its host wiring, never a
// script level fault. Safe blocks do not catch it.
type InternalError struct {
	Node Node
	Err  error
}

func (e *InternalError) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("%v at %s (%T): %v", ErrInternal, e.Node.Pos(), e.Node, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrInternal, e.Err)
}

func (e *InternalError) Unwrap() []error { return []error{ErrInternal, e.Err} }

// raise unwinds the current evaluation with a fault.
func raise(code int, node Node, format string, args ...any) {
	panic(NewFault(code, node, format, args...))
}

func ensureNoErr(node Node, err error) {
	if err != nil {
		panic(&InternalError{Node: node, Err: err})
	}
}

// asError converts a recovered panic into the error Run reports.
func asError(r any) error {
	switch e := r.(type) {
	case *Fault:
		return e
	case *InternalError:
		return e
	case error:
		if errors.Is(e, context.Canceled) || errors.Is(e, context.DeadlineExceeded) {
			return e
		}
		return &InternalError{Err: e}
	}
	return &InternalError{Err: fmt.Errorf("%v", r)}
}
