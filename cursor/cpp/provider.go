// Package cpp implements the cursor provider for C/C++ translation units on
// top of tree-sitter. The provider parses a unit once, indexes its
// declarations for reference resolution, and exposes the tree through the
// cursor interface the analyzer consumes.
package cpp

import (
	"errors"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	sittercpp "github.com/smacker/go-tree-sitter/cpp"

	"github.com/viant/semcheck/cursor"
)

// Provider parses C/C++ sources. It is not safe for concurrent use; the
// parallel driver creates one provider per worker.
type Provider struct {
	parser *sitter.Parser
}

func New() *Provider {
	parser := sitter.NewParser()
	parser.SetLanguage(sittercpp.GetLanguage())
	return &Provider{parser: parser}
}

// unit holds everything cursors of one translation unit share.
type unit struct {
	file  string
	src   []byte
	tree  *sitter.Tree
	decls *declIndex
}

// Parse builds the cursor tree for one translation unit.
func (p *Provider) Parse(filename string, source []byte) (cursor.Cursor, error) {
	tree := p.parser.Parse(nil, source)
	if tree == nil {
		return nil, errors.New("failed to parse translation unit")
	}
	u := &unit{
		file:  filename,
		src:   source,
		tree:  tree,
		decls: buildIndex(tree.RootNode(), source),
	}
	return u.cursor(tree.RootNode()), nil
}

func (u *unit) cursor(n *sitter.Node) *node {
	if n == nil {
		return nil
	}
	return &node{u: u, n: n}
}

func (u *unit) text(n *sitter.Node) string {
	return n.Content(u.src)
}

// tokenize splits a source range into lexical tokens: identifiers, numbers
// and punctuators. Adjacent symbol characters stay one token only while they
// spell a multi-character operator such as "==", "->" or "::".
func tokenize(text string) []string {
	operators := map[string]bool{
		"==": true, "!=": true, "<=": true, ">=": true, "&&": true, "||": true,
		"++": true, "--": true, "->": true, "::": true, "<<": true, ">>": true,
		"+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "&=": true,
		"|=": true, "^=": true, "<<=": true, ">>=": true, "->*": true, ".*": true,
	}
	var tokens []string
	var current strings.Builder
	kind := 0 // 0 none, 1 word, 2 symbol
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		kind = 0
	}
	for _, r := range text {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			if kind == 2 {
				flush()
			}
			kind = 1
			current.WriteRune(r)
		default:
			if kind == 1 || (kind == 2 && !operators[current.String()+string(r)]) {
				flush()
			}
			kind = 2
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
