// Package scan extracts statically resolvable module loads from source files
// using tree-sitter.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/autoinstall/internal/lang"
	"github.com/phobologic/autoinstall/internal/model"
)

// ParseError reports a file that is not syntactically valid.
type ParseError struct {
	File   string
	Line   int
	Column int
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.File, e.Line, e.Column, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Scanner finds require() calls in JavaScript sources.
// A Scanner owns a tree-sitter parser and must not be shared across goroutines.
type Scanner struct {
	lang   *lang.Language
	parser *sitter.Parser
	query  *sitter.Query
}

// New returns a Scanner for the JavaScript dialect.
func New() (*Scanner, error) {
	l, ok := lang.Languages[lang.JavaScript]
	if !ok {
		return nil, errors.New("javascript language not registered")
	}
	q, err := l.GetModuleQuery()
	if err != nil {
		return nil, fmt.Errorf("loading %s query: %w", l.Name, err)
	}
	return &Scanner{lang: l, parser: l.NewParser(), query: q}, nil
}

// Scan parses source and returns every external module it loads with a
// literal specifier. Relative paths and runtime builtins are dropped; names
// are normalized to their package root. file is recorded on each reference
// and in any ParseError.
func (s *Scanner) Scan(source []byte, file string) ([]model.ModuleReference, error) {
	if len(source) == 0 {
		return nil, nil
	}

	tree, err := s.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, &ParseError{File: file, Cause: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source, file)
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(s.query, root)

	var refs []model.ModuleReference

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode *sitter.Node
		for _, c := range match.Captures {
			if s.query.CaptureNameForId(c.Index) == "args" {
				nameNode = literalArgument(c.Node)
			}
		}
		if nameNode == nil {
			continue
		}

		spec, ok := stringValue(nameNode, source)
		if !ok || !s.external(spec) {
			continue
		}

		refs = append(refs, model.ModuleReference{
			Name:      RootName(spec),
			Specifier: spec,
			File:      file,
			Line:      int(nameNode.StartPoint().Row) + 1,
		})
	}

	return refs, nil
}

func (s *Scanner) external(spec string) bool {
	if spec == "" || IsLocal(spec) {
		return false
	}
	if strings.HasPrefix(spec, "node:") {
		return false
	}
	return !s.lang.IsBuiltin(RootName(spec))
}

// IsLocal reports whether spec names a relative or absolute path rather than
// a package.
func IsLocal(spec string) bool {
	return strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/")
}

// RootName strips subpaths from a package specifier:
// "@scope/name/sub" becomes "@scope/name" and "name/sub" becomes "name".
func RootName(spec string) string {
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") && len(parts) > 1 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// literalArgument returns the string node of an argument list holding
// exactly one argument besides comments, or nil.
func literalArgument(args *sitter.Node) *sitter.Node {
	var arg *sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		if arg != nil {
			return nil
		}
		arg = child
	}
	if arg == nil || arg.Type() != "string" {
		return nil
	}
	return arg
}

// stringValue decodes a string literal node from its fragments and escape
// sequences. It reports false for escapes it cannot decode.
func stringValue(n *sitter.Node, source []byte) (string, bool) {
	var b strings.Builder
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		text := lang.NodeText(child, source)
		switch child.Type() {
		case "string_fragment":
			b.WriteString(text)
		case "escape_sequence":
			r, ok := decodeEscape(text)
			if !ok {
				return "", false
			}
			b.WriteString(r)
		default:
			return "", false
		}
	}
	return b.String(), true
}

var simpleEscapes = map[byte]string{
	'n': "\n", 't': "\t", 'r': "\r", 'b': "\b",
	'f': "\f", 'v': "\v", '0': "\x00",
}

func decodeEscape(esc string) (string, bool) {
	if len(esc) < 2 || esc[0] != '\\' {
		return "", false
	}
	body := esc[1:]
	switch body[0] {
	case '\n', '\r':
		// Line continuation.
		return "", true
	case 'x':
		return codePoint(body[1:], 2)
	case 'u':
		hex := body[1:]
		if strings.HasPrefix(hex, "{") && strings.HasSuffix(hex, "}") {
			return codePoint(hex[1:len(hex)-1], 0)
		}
		return codePoint(hex, 4)
	}
	if r, ok := simpleEscapes[body[0]]; ok && len(body) == 1 {
		return r, true
	}
	if len(body) == 1 {
		return body, true
	}
	return "", false
}

// codePoint parses hex as a Unicode code point; width 0 allows any length.
func codePoint(hex string, width int) (string, bool) {
	if hex == "" || (width > 0 && len(hex) != width) {
		return "", false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || v > unicode.MaxRune {
		return "", false
	}
	return string(rune(v)), true
}

// syntaxError locates the first ERROR or MISSING node under root.
func syntaxError(root *sitter.Node, source []byte, file string) *ParseError {
	n := firstErrorNode(root)
	if n == nil {
		return &ParseError{File: file, Cause: errors.New("syntax error")}
	}

	var cause error
	if n.IsMissing() {
		cause = fmt.Errorf("missing %q", n.Type())
	} else {
		cause = fmt.Errorf("unexpected %q", snippet(lang.NodeText(n, source)))
	}

	pt := n.StartPoint()
	return &ParseError{
		File:   file,
		Line:   int(pt.Row) + 1,
		Column: int(pt.Column) + 1,
		Cause:  cause,
	}
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 40
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
