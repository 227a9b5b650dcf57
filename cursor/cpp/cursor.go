package cpp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/semcheck/cursor"
)

// node adapts one tree-sitter node into a cursor.
type node struct {
	u *unit
	n *sitter.Node
}

func (c *node) Kind() cursor.Kind {
	switch c.n.Type() {
	case "function_definition":
		if c.methodClass() != "" {
			return cursor.KindMethodDecl
		}
		return cursor.KindFunctionDecl
	case "parameter_declaration":
		return cursor.KindParamDecl
	case "declaration":
		if declaresFunction(c.n) {
			return cursor.KindOther
		}
		return cursor.KindVarDecl
	case "compound_statement":
		return cursor.KindCompoundStmt
	case "if_statement":
		return cursor.KindIfStmt
	case "for_statement", "for_range_loop":
		return cursor.KindForStmt
	case "while_statement", "do_statement":
		return cursor.KindWhileStmt
	case "switch_statement":
		return cursor.KindSwitchStmt
	case "break_statement":
		return cursor.KindBreakStmt
	case "assignment_expression", "binary_expression":
		return cursor.KindBinaryOperator
	case "call_expression":
		return cursor.KindCallExpr
	case "field_expression":
		return cursor.KindMemberRefExpr
	case "this":
		return cursor.KindThisExpr
	case "identifier":
		// An identifier that resolves to no declaration but names a field
		// of the enclosing method's class is an implicit member access.
		if c.resolve() == nil {
			if class := c.u.decls.fieldClass(c.n.StartByte()); class != "" {
				if _, ok := c.u.decls.fieldType(class, c.u.text(c.n)); ok {
					return cursor.KindMemberRefExpr
				}
			}
		}
		return cursor.KindDeclRefExpr
	case "qualified_identifier":
		return cursor.KindDeclRefExpr
	default:
		return cursor.KindOther
	}
}

// methodClass resolves the class a function definition belongs to: the
// lexically enclosing class specifier, or the scope of a qualified
// out-of-line declarator.
func (c *node) methodClass() string {
	for p := c.n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "class_specifier" || p.Type() == "struct_specifier" {
			if name := p.ChildByFieldName("name"); name != nil {
				return c.u.text(name)
			}
		}
	}
	if fd := functionDeclarator(c.n.ChildByFieldName("declarator")); fd != nil {
		if inner := fd.ChildByFieldName("declarator"); inner != nil && inner.Type() == "qualified_identifier" {
			if scope := inner.ChildByFieldName("scope"); scope != nil {
				return lastScopeComponent(c.u.text(scope))
			}
		}
	}
	return ""
}

func (c *node) Spelling() string {
	n := c.n
	switch n.Type() {
	case "function_definition":
		if fd := functionDeclarator(n.ChildByFieldName("declarator")); fd != nil {
			if name := declaratorName(fd.ChildByFieldName("declarator")); name != nil {
				return c.u.text(name)
			}
		}
		return ""
	case "parameter_declaration", "declaration":
		if names := declaratorNames(n, c.u.src); len(names) > 0 {
			return c.u.text(names[0])
		}
		return ""
	case "field_expression":
		if field := n.ChildByFieldName("field"); field != nil {
			return c.u.text(field)
		}
		return ""
	case "identifier", "field_identifier", "qualified_identifier":
		return c.u.text(n)
	case "call_expression":
		return c.calleeName()
	case "class_specifier", "struct_specifier", "namespace_definition":
		if name := n.ChildByFieldName("name"); name != nil {
			return c.u.text(name)
		}
		return ""
	default:
		return ""
	}
}

// calleeName renders the callee of a call expression. Method calls are
// qualified with the receiver's declared type so summaries of overloads on
// different classes stay apart.
func (c *node) calleeName() string {
	callee := c.n.ChildByFieldName("function")
	if callee == nil {
		return ""
	}
	switch callee.Type() {
	case "identifier":
		return c.u.text(callee)
	case "qualified_identifier":
		return c.u.text(callee)
	case "field_expression":
		field := ""
		if f := callee.ChildByFieldName("field"); f != nil {
			field = c.u.text(f)
		}
		if arg := callee.ChildByFieldName("argument"); arg != nil {
			if receiver := c.u.exprType(arg); receiver != "" {
				return receiver + "::" + field
			}
		}
		return field
	default:
		return ""
	}
}

// exprType infers the declared type of a simple expression. This is the
// provider-side typing clang exposes through cursor types; anything beyond
// variable, field and this references yields "".
func (u *unit) exprType(n *sitter.Node) string {
	switch n.Type() {
	case "identifier":
		if d := u.decls.lookup(u.text(n), n.StartByte()); d != nil {
			return d.typeName
		}
		if class := u.decls.fieldClass(n.StartByte()); class != "" {
			if t, ok := u.decls.fieldType(class, u.text(n)); ok {
				return t
			}
		}
		return ""
	case "this":
		return u.decls.fieldClass(n.StartByte())
	case "field_expression":
		arg := n.ChildByFieldName("argument")
		field := n.ChildByFieldName("field")
		if arg == nil || field == nil {
			return ""
		}
		if receiver := u.exprType(arg); receiver != "" {
			if t, ok := u.decls.fieldType(receiver, u.text(field)); ok {
				return t
			}
		}
		return ""
	case "parenthesized_expression":
		if inner := unwrap(n); inner != nil && inner != n {
			return u.exprType(inner)
		}
		return ""
	default:
		return ""
	}
}

func (c *node) USR() string {
	if c.n.Type() != "function_definition" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("c:@")
	if class := c.methodClass(); class != "" {
		sb.WriteString(class)
		sb.WriteString("::")
	}
	sb.WriteString(c.Spelling())
	if fd := functionDeclarator(c.n.ChildByFieldName("declarator")); fd != nil {
		if params := fd.ChildByFieldName("parameters"); params != nil {
			for i := 0; i < int(params.NamedChildCount()); i++ {
				param := params.NamedChild(i)
				if param.Type() != "parameter_declaration" {
					continue
				}
				sb.WriteByte('#')
				sb.WriteString(declaredType(param, c.u.src))
			}
		}
	}
	return sb.String()
}

func (c *node) SemanticParent() cursor.Cursor {
	if c.n.Type() != "function_definition" {
		return nil
	}
	for p := c.n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "class_specifier" || p.Type() == "struct_specifier" || p.Type() == "namespace_definition" {
			return c.u.cursor(p)
		}
	}
	if class := c.methodClass(); class != "" {
		return named{name: class}
	}
	return nil
}

func (c *node) Referenced() cursor.Cursor {
	if d := c.resolve(); d != nil {
		return c.u.cursor(d.node)
	}
	return nil
}

func (c *node) resolve() *decl {
	name := ""
	switch c.n.Type() {
	case "identifier":
		name = c.u.text(c.n)
	case "qualified_identifier":
		if inner := c.n.ChildByFieldName("name"); inner != nil {
			name = c.u.text(inner)
		}
	default:
		return nil
	}
	return c.u.decls.lookup(name, c.n.StartByte())
}

func (c *node) IsGlobal() bool {
	switch c.n.Type() {
	case "qualified_identifier":
		// scope-resolved references always name a non-local entity
		return true
	case "identifier":
		if d := c.resolve(); d != nil {
			return d.global
		}
		return false
	case "declaration":
		for p := c.n.Parent(); p != nil; p = p.Parent() {
			if p.Type() == "function_definition" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (c *node) Location() cursor.Location {
	point := c.n.StartPoint()
	return cursor.Location{File: c.u.file, Line: point.Row + 1, Column: point.Column + 1}
}

func (c *node) Tokens() []string {
	return tokenize(c.u.text(c.n))
}

func (c *node) TypeName() string {
	switch c.n.Type() {
	case "declaration", "parameter_declaration", "field_declaration":
		return declaredType(c.n, c.u.src)
	case "identifier":
		return c.u.exprType(c.n)
	case "field_expression":
		return c.u.exprType(c.n)
	case "qualified_identifier":
		if d := c.resolve(); d != nil {
			return d.typeName
		}
		return ""
	default:
		return ""
	}
}

func (c *node) Operator() string {
	if op := c.n.ChildByFieldName("operator"); op != nil {
		return c.u.text(op)
	}
	return ""
}

func (c *node) NumArguments() int {
	if c.n.Type() != "call_expression" {
		return -1
	}
	args := c.n.ChildByFieldName("arguments")
	if args == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if args.NamedChild(i).Type() != "comment" {
			count++
		}
	}
	return count
}

func (c *node) Argument(i int) cursor.Cursor {
	args := c.n.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	index := 0
	for j := 0; j < int(args.NamedChildCount()); j++ {
		child := args.NamedChild(j)
		if child.Type() == "comment" {
			continue
		}
		if index == i {
			if w := unwrap(child); w != nil {
				return c.u.cursor(w)
			}
			return nil
		}
		index++
	}
	return nil
}

func (c *node) Children() []cursor.Cursor {
	var out []cursor.Cursor
	add := func(n *sitter.Node) {
		if n == nil {
			return
		}
		if w := unwrap(n); w != nil {
			out = append(out, c.u.cursor(w))
		}
	}
	n := c.n
	switch n.Type() {
	case "function_definition":
		if fd := functionDeclarator(n.ChildByFieldName("declarator")); fd != nil {
			if params := fd.ChildByFieldName("parameters"); params != nil {
				for i := 0; i < int(params.NamedChildCount()); i++ {
					param := params.NamedChild(i)
					if param.Type() == "parameter_declaration" {
						add(param)
					}
				}
			}
		}
		add(n.ChildByFieldName("body"))
	case "declaration":
		// the children of a variable declaration are its initializers
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "init_declarator" {
				add(child.ChildByFieldName("value"))
			}
		}
	case "assignment_expression", "binary_expression":
		add(n.ChildByFieldName("left"))
		add(n.ChildByFieldName("right"))
	case "field_expression":
		add(n.ChildByFieldName("argument"))
	case "if_statement":
		add(n.ChildByFieldName("condition"))
		add(n.ChildByFieldName("consequence"))
		add(n.ChildByFieldName("alternative"))
	case "while_statement", "switch_statement":
		add(n.ChildByFieldName("condition"))
		add(n.ChildByFieldName("body"))
	case "do_statement":
		add(n.ChildByFieldName("body"))
		add(n.ChildByFieldName("condition"))
	case "for_statement":
		add(n.ChildByFieldName("initializer"))
		add(n.ChildByFieldName("condition"))
		add(n.ChildByFieldName("update"))
		add(n.ChildByFieldName("body"))
	case "call_expression":
		add(n.ChildByFieldName("function"))
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				add(args.NamedChild(i))
			}
		}
	default:
		for i := 0; i < int(n.NamedChildCount()); i++ {
			add(n.NamedChild(i))
		}
	}
	return out
}

// unwrap peels statement and grouping wrappers so the analyzer sees the
// expression clang would have presented directly.
func unwrap(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "comment":
			return nil
		case "expression_statement", "parenthesized_expression", "condition_clause", "else_clause":
			if value := n.ChildByFieldName("value"); value != nil {
				n = value
				continue
			}
			if n.NamedChildCount() == 1 {
				n = n.NamedChild(0)
				continue
			}
			if n.NamedChildCount() == 0 {
				return nil
			}
			return n
		default:
			return n
		}
	}
	return nil
}

// named is a synthetic cursor carrying only a spelling; it backs the
// semantic parent of out-of-line method definitions.
type named struct {
	name string
}

func (c named) Kind() cursor.Kind             { return cursor.KindOther }
func (c named) Spelling() string              { return c.name }
func (c named) USR() string                   { return "" }
func (c named) SemanticParent() cursor.Cursor { return nil }
func (c named) Referenced() cursor.Cursor     { return nil }
func (c named) IsGlobal() bool                { return false }
func (c named) Location() cursor.Location     { return cursor.Location{} }
func (c named) Tokens() []string              { return nil }
func (c named) TypeName() string              { return "" }
func (c named) Operator() string              { return "" }
func (c named) NumArguments() int             { return -1 }
func (c named) Argument(int) cursor.Cursor    { return nil }
func (c named) Children() []cursor.Cursor     { return nil }
