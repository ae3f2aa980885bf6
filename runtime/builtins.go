package runtime

import (
	"slices"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/panyam/ohscript/decl"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type builtinFunc func(this *Value, args []*Value) *Value

// Method tables for arrays, maps and strings, keyed by member name. These
// must cover decl.ArrayBuiltins, decl.MapBuiltins and decl.StringBuiltins.
var (
	arrayMethods = map[string]builtinFunc{
		"size": func(this *Value, _ []*Value) *Value {
			return NumberValue(len(this.Value.(*Array).Items))
		},
		"push": func(this *Value, args []*Value) *Value {
			arr := this.Value.(*Array)
			arr.Items = append(arr.Items, arg(args, 0).Clone())
			return UNIT
		},
		"insert": func(this *Value, args []*Value) *Value {
			arr := this.Value.(*Array)
			i := indexArg(args, 0, len(arr.Items)+1)
			arr.Items = slices.Insert(arr.Items, i, arg(args, 1).Clone())
			return UNIT
		},
		"remove": func(this *Value, args []*Value) *Value {
			arr := this.Value.(*Array)
			i := indexArg(args, 0, len(arr.Items))
			out := arr.Items[i]
			arr.Items = slices.Delete(arr.Items, i, i+1)
			return out
		},
	}

	mapMethods = map[string]builtinFunc{
		"size": func(this *Value, _ []*Value) *Value {
			return NumberValue(len(this.Value.(Map)))
		},
		"keys": func(this *Value, _ []*Value) *Value {
			keys := sortedKeys(this.Value.(Map))
			items := make([]*Value, len(keys))
			for i, k := range keys {
				items[i] = StringValue(k)
			}
			out := ArrayValue(items...)
			out.Type = decl.ArrayType(decl.StringType)
			return out
		},
		"has": func(this *Value, args []*Value) *Value {
			_, ok := this.Value.(Map)[arg(args, 0).String()]
			return BoolValue(ok)
		},
	}

	stringMethods = map[string]builtinFunc{
		"size": func(this *Value, _ []*Value) *Value {
			return NumberValue(utf8.RuneCountInString(this.Value.(string)))
		},
		"upper": func(this *Value, _ []*Value) *Value {
			return StringValue(cases.Upper(language.Und).String(this.Value.(string)))
		},
		"lower": func(this *Value, _ []*Value) *Value {
			return StringValue(cases.Lower(language.Und).String(this.Value.(string)))
		},
		"matches": func(this *Value, args []*Value) *Value {
			re, err := regexp2.Compile(arg(args, 0).String(), regexp2.None)
			if err != nil {
				raise(CodeBadOperand, nil, "invalid pattern: %v", err)
			}
			ok, err := re.MatchString(this.Value.(string))
			if err != nil {
				raise(CodeBadOperand, nil, "match failed: %v", err)
			}
			return BoolValue(ok)
		},
	}
)

// methodTable returns the table for a builtin receiver, nil if the value
// has no builtins.
func methodTable(host *Value) map[string]builtinFunc {
	switch host.Value.(type) {
	case *Array:
		return arrayMethods
	case Map:
		return mapMethods
	case string:
		return stringMethods
	}
	return nil
}

// builtinMethod looks up name on the receiver's method table. The native
// it returns reads its receiver from the pending this at call time.
func builtinMethod(host *Value, name string) (*Value, bool) {
	table := methodTable(host)
	impl, ok := table[name]
	if !ok {
		return nil, false
	}
	var ret *Type = decl.UnknownType
	if host.Type != nil {
		if t, ok := decl.BuiltinMember(host.Type, name); ok {
			ret = t
		}
	}
	return &Value{Type: ret, Value: &NativeFunc{Name: name, Arity: -1, Fn: func(this *Value, args []*Value) *Value {
		if this == nil {
			this = host
		}
		return impl(this, args)
	}}}, true
}

func arg(args []*Value, i int) *Value {
	if i < len(args) {
		return args[i]
	}
	return NULL
}

// indexArg reads an integer argument that must lie in [0, limit).
func indexArg(args []*Value, i, limit int) int {
	n, ok := arg(args, i).Int()
	if !ok {
		raise(CodeBadOperand, nil, "index must be an integer, found %s", arg(args, i))
	}
	if n < 0 || n >= int64(limit) {
		raise(CodeIndexRange, nil, "index %d out of range [0, %d)", n, limit)
	}
	return int(n)
}

func sortedKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
