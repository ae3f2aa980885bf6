package decl

import (
	"fmt"
	"strings"
)

type CodePrinter interface {
	Indent(n int)
	Unindent(n int)
	Print(str string)
	Printf(fmt string, args ...any)
	Println(str string)
	String() string
}

func WithIndent(n int, cp CodePrinter, block func(cp CodePrinter)) {
	cp.Indent(n)
	defer cp.Unindent(n)
	block(cp)
}

type codePrinter struct {
	indent  int
	col     int
	builder strings.Builder
}

func (c *codePrinter) Indent(n int) {
	c.indent += n
}

func (c *codePrinter) Unindent(n int) {
	c.indent -= n
	if c.indent < 0 {
		c.indent = 0
	}
}

func (c *codePrinter) Print(str string) {
	lines := strings.Split(str, "\n")
	for idx, l := range lines {
		if c.col == 0 && l != "" {
			// new line has started so add the indent string
			c.builder.WriteString(strings.Repeat("  ", c.indent))
		}
		c.builder.WriteString(l)
		c.col += len(l)
		if idx < len(lines)-1 {
			c.builder.WriteRune('\n')
			c.col = 0
		}
	}
}

func (c *codePrinter) Println(str string) {
	c.Print(str + "\n")
}

func (c *codePrinter) Printf(format string, args ...any) {
	c.Print(fmt.Sprintf(format, args...))
}

func (c *codePrinter) String() string {
	return c.builder.String()
}

func NewCodePrinter() CodePrinter {
	return &codePrinter{}
}

// Dump prints the tree under node, one node per line with its id, scope
// and inferred type.
func Dump(cp CodePrinter, node Node) {
	flags := ""
	if node.Returnable() {
		flags = " ret"
	}
	scope := fmt.Sprintf("s%d", node.Scope())
	if node.OwnScope() != 0 {
		scope += fmt.Sprintf("->s%d", node.OwnScope())
	}
	cp.Printf("#%d %T %s [%s] :: %s%s\n", node.ID(), node, node, scope, node.Type(), flags)
	WithIndent(1, cp, func(cp CodePrinter) {
		for _, c := range node.Children() {
			Dump(cp, c)
		}
	})
}

// PPrint renders node with Dump.
func PPrint(node Node) string {
	cp := NewCodePrinter()
	Dump(cp, node)
	return cp.String()
}
