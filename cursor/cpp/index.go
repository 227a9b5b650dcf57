package cpp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// decl records one declaration together with the byte range in which its
// name is visible. Lookup picks the innermost visible declaration, which is
// enough scope sensitivity for reference resolution; flow-sensitive typing
// lives in the analyzer, not here.
type decl struct {
	name     string
	typeName string
	start    uint32
	end      uint32
	global   bool
	node     *sitter.Node
}

// methodRange associates a function body with the class whose fields are in
// scope inside it.
type methodRange struct {
	start, end uint32
	class      string
}

type declIndex struct {
	byName  map[string][]*decl
	classes map[string]map[string]string // class -> field -> type
	methods []methodRange
	size    uint32
}

func buildIndex(root *sitter.Node, src []byte) *declIndex {
	index := &declIndex{
		byName:  map[string][]*decl{},
		classes: map[string]map[string]string{},
		size:    root.EndByte(),
	}
	index.collect(root, src, "", false)
	return index
}

// collect walks the tree gathering declarations. class names the enclosing
// class specifier, inFunction tells whether we are below a function body.
func (x *declIndex) collect(n *sitter.Node, src []byte, class string, inFunction bool) {
	switch n.Type() {
	case "class_specifier", "struct_specifier":
		name := ""
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name = nameNode.Content(src)
		}
		if name != "" {
			if _, ok := x.classes[name]; !ok {
				x.classes[name] = map[string]string{}
			}
			class = name
		}
	case "field_declaration":
		if class != "" {
			x.collectField(n, src, class)
			return
		}
	case "function_definition":
		x.collectFunction(n, src, class)
		return
	case "declaration":
		if !declaresFunction(n) {
			x.collectVariable(n, src, inFunction)
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		x.collect(n.NamedChild(i), src, class, inFunction)
	}
}

func (x *declIndex) collectField(n *sitter.Node, src []byte, class string) {
	typeName := declaredType(n, src)
	for _, nameNode := range declaratorNames(n, src) {
		x.classes[class][nameNode.Content(src)] = typeName
	}
}

func (x *declIndex) collectFunction(n *sitter.Node, src []byte, class string) {
	declarator := n.ChildByFieldName("declarator")
	fnDecl := functionDeclarator(declarator)
	if fnDecl == nil {
		return
	}
	body := n.ChildByFieldName("body")

	// An out-of-line definition names its class in the declarator.
	methodClass := class
	if inner := fnDecl.ChildByFieldName("declarator"); inner != nil && inner.Type() == "qualified_identifier" {
		if scope := inner.ChildByFieldName("scope"); scope != nil {
			methodClass = lastScopeComponent(scope.Content(src))
		}
	}
	if body != nil && methodClass != "" {
		x.methods = append(x.methods, methodRange{start: body.StartByte(), end: body.EndByte(), class: methodClass})
	}

	// Parameters are visible across the whole definition.
	if params := fnDecl.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			param := params.NamedChild(i)
			if param.Type() != "parameter_declaration" {
				continue
			}
			names := declaratorNames(param, src)
			if len(names) == 0 {
				continue
			}
			x.add(&decl{
				name:     names[0].Content(src),
				typeName: declaredType(param, src),
				start:    n.StartByte(),
				end:      n.EndByte(),
				node:     param,
			})
		}
	}
	if body != nil {
		x.collect(body, src, class, true)
	}
}

func (x *declIndex) collectVariable(n *sitter.Node, src []byte, inFunction bool) {
	typeName := declaredType(n, src)
	end := x.size
	global := !inFunction
	if inFunction {
		if block := enclosingBlock(n); block != nil {
			end = block.EndByte()
		}
	}
	for _, nameNode := range declaratorNames(n, src) {
		x.add(&decl{
			name:     nameNode.Content(src),
			typeName: typeName,
			start:    n.StartByte(),
			end:      end,
			global:   global,
			node:     n,
		})
	}
	// Initializers can reference other declarations; nothing to collect
	// below a plain variable declaration.
}

func (x *declIndex) add(d *decl) {
	x.byName[d.name] = append(x.byName[d.name], d)
}

// lookup resolves name at byte position pos to the innermost visible
// declaration.
func (x *declIndex) lookup(name string, pos uint32) *decl {
	var best *decl
	for _, d := range x.byName[name] {
		if pos < d.start || pos > d.end {
			continue
		}
		if best == nil || d.end-d.start < best.end-best.start {
			best = d
		}
	}
	return best
}

// fieldClass returns the class whose fields are visible at pos, if any.
func (x *declIndex) fieldClass(pos uint32) string {
	best := ""
	bestLen := uint32(0)
	for _, m := range x.methods {
		if pos < m.start || pos > m.end {
			continue
		}
		if best == "" || m.end-m.start < bestLen {
			best = m.class
			bestLen = m.end - m.start
		}
	}
	return best
}

// fieldType resolves a field of class, walking no inheritance.
func (x *declIndex) fieldType(class, field string) (string, bool) {
	fields, ok := x.classes[class]
	if !ok {
		return "", false
	}
	t, ok := fields[field]
	return t, ok
}

// --- declarator helpers ---------------------------------------------------

// functionDeclarator unwraps pointer/reference declarators down to the
// function_declarator, or returns nil.
func functionDeclarator(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "function_declarator":
			return n
		case "pointer_declarator":
			n = n.ChildByFieldName("declarator")
			if n == nil {
				return nil
			}
		case "reference_declarator":
			// the grammar gives a reference's inner declarator no field name
			n = n.NamedChild(0)
			if n == nil {
				return nil
			}
		default:
			return nil
		}
	}
	return nil
}

func declaresFunction(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "init_declarator" {
			child = child.ChildByFieldName("declarator")
			if child == nil {
				continue
			}
		}
		if functionDeclarator(child) != nil {
			return true
		}
	}
	return false
}

// declaratorNames collects the identifier nodes a declaration introduces.
func declaratorNames(n *sitter.Node, src []byte) []*sitter.Node {
	var names []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "init_declarator" {
			child = child.ChildByFieldName("declarator")
			if child == nil {
				continue
			}
		}
		if name := declaratorName(child); name != nil {
			names = append(names, name)
		}
	}
	return names
}

func declaratorName(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier":
			return n
		case "pointer_declarator", "array_declarator", "init_declarator":
			n = n.ChildByFieldName("declarator")
		case "reference_declarator":
			// the grammar gives a reference's inner declarator no field name
			n = n.NamedChild(0)
		case "qualified_identifier":
			n = n.ChildByFieldName("name")
		default:
			return nil
		}
	}
	return nil
}

// declaredType renders the declared type of a declaration-like node with
// const, reference and pointer qualifiers stripped.
func declaredType(n *sitter.Node, src []byte) string {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return ""
	}
	return stripType(typeNode.Content(src))
}

func stripType(s string) string {
	s = strings.ReplaceAll(s, "const ", "")
	s = strings.ReplaceAll(s, "&", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.TrimPrefix(strings.TrimSpace(s), "struct ")
	return strings.TrimSpace(s)
}

func enclosingBlock(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "compound_statement" {
			return p
		}
	}
	return nil
}

func lastScopeComponent(scope string) string {
	if i := strings.LastIndex(scope, "::"); i >= 0 {
		return scope[i+2:]
	}
	return scope
}
