package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrorKind classifies analysis diagnostics.
type ErrorKind int

const (
	TypeMismatch ErrorKind = iota + 1
	VariableNotDefined
	VariableNotMutable
	ConstNotInitialized
	FunctionNotDefined
	ArgumentNotExist
	ArgumentMissing
	EntityMemberAccessDenied
	EntityNotFound
	EntityMemberNotDefined
	SystemMemberNotFound
	ImportErrorID
	ImportErrorSource
	TypeContradiction
)

var kindNames = map[ErrorKind]string{
	TypeMismatch:             "TYPE_MISMATCH",
	VariableNotDefined:       "VARIABLE_NOT_DEFINED",
	VariableNotMutable:       "VARIABLE_NOT_MUTABLE",
	ConstNotInitialized:      "CONST_NOT_INITIALIZED",
	FunctionNotDefined:       "FUNCTION_NOT_DEFINED",
	ArgumentNotExist:         "ARGUMENT_NOT_EXIST",
	ArgumentMissing:          "ARGUMENT_MISSING",
	EntityMemberAccessDenied: "ENTITY_MEMBER_ACCESS_DENIED",
	EntityNotFound:           "ENTITY_NOT_FOUND",
	EntityMemberNotDefined:   "ENTITY_MEMBER_NOT_DEFINED",
	SystemMemberNotFound:     "SYSTEM_MEMBER_NOT_FOUND",
	ImportErrorID:            "IMPORT_ERROR_ID",
	ImportErrorSource:        "IMPORT_ERROR_SOURCE",
	TypeContradiction:        "TYPE_CONTRADICTION",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ERROR_%d", int(k))
}

// Diagnostic is a user facing analysis error scoped to a node.
type Diagnostic struct {
	Kind    ErrorKind
	Message string
	Node    Node
}

func (d *Diagnostic) Error() string {
	if d.Node == nil {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Node.Pos(), d.Kind, d.Message)
}

// AnalysisError is returned when a unit cannot be run because analysis
// reported diagnostics.
type AnalysisError struct {
	Unit        string
	Diagnostics []*Diagnostic
}

var ErrAnalysisFailed = errors.New("analysis failed")

func (e *AnalysisError) Error() string {
	lines := make([]string, 0, len(e.Diagnostics)+1)
	lines = append(lines, fmt.Sprintf("unit '%s' has %d error(s)", e.Unit, len(e.Diagnostics)))
	for _, d := range e.Diagnostics {
		lines = append(lines, "  "+d.Error())
	}
	return strings.Join(lines, "\n")
}

func (e *AnalysisError) Unwrap() error { return ErrAnalysisFailed }

type ErrorCollector struct {
	// Errors for this unit
	Errors []error

	// Errors beyond this many are dropped. 0 => no limit
	MaxErrors int
}

func (f *ErrorCollector) HasErrors() bool {
	return len(f.Errors) > 0
}

func (f *ErrorCollector) PrintErrors() {
	f.WriteErrors(os.Stderr)
}

func (f *ErrorCollector) WriteErrors(w io.Writer) {
	for _, err := range f.Errors {
		fmt.Fprintln(w, err)
	}
}

func (f *ErrorCollector) AddErrors(errs ...error) {
	for _, err := range errs {
		if f.MaxErrors > 0 && len(f.Errors) >= f.MaxErrors {
			return
		}
		f.Errors = append(f.Errors, err)
	}
}

// Errorf records a diagnostic against node. Always returns false so callers
// can `return a.Errorf(...)` from checks.
func (f *ErrorCollector) Errorf(kind ErrorKind, node Node, format string, args ...any) bool {
	f.AddErrors(&Diagnostic{Kind: kind, Node: node, Message: fmt.Sprintf(format, args...)})
	return false
}

// Diagnostics returns the collected errors that are diagnostics.
func (f *ErrorCollector) Diagnostics() (out []*Diagnostic) {
	for _, err := range f.Errors {
		var d *Diagnostic
		if errors.As(err, &d) {
			out = append(out, d)
		}
	}
	return
}
