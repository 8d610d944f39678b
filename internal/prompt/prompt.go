// Package prompt renders the natural-language instructions sent to a
// language model from a validated input record.
//
// Templates use text/template syntax with the record's JSON field names as
// placeholders, including dotted paths into nested records:
//
//	Interests: {{.targetAudience.interests}}
//	{{if .targetKeyword}}Target Keyword: {{.targetKeyword}}{{end}}
//
// Every field reference is checked against the input descriptor when the
// template is built, so a template can never reference a field the input
// schema does not declare.
package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/phrazzld/copycraft-api/internal/schema"
)

var (
	// ErrUndeclaredField is returned when a template references a field the
	// input descriptor does not declare.
	ErrUndeclaredField = errors.New("template references undeclared field")

	// ErrUnsupportedAction is returned for template actions that rebind dot
	// or reach into the record without a checkable field path (range, with,
	// template calls, variables, index).
	ErrUnsupportedAction = errors.New("unsupported template action")

	// ErrUnresolvedPlaceholder is returned when a placeholder the template
	// would print has no value in the record.
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder in rendered prompt")
)

// guard is a simple {{if .path}} condition enclosing a reference. want is
// false inside the else branch.
type guard struct {
	path []string
	want bool
}

// reference is a field path the template evaluates. Printed references need
// a value; conditions only need their parent records to exist.
type reference struct {
	path    []string
	printed bool
	guards  []guard
}

// Template is a parsed, field-checked prompt template. It is immutable and
// safe for concurrent use.
type Template struct {
	name  string
	tmpl  *template.Template
	input *schema.Descriptor
	refs  []reference
}

// New parses text and checks every field reference against input.
func New(name, text string, input *schema.Descriptor) (*Template, error) {
	if input == nil || input.Kind != schema.KindObject {
		return nil, fmt.Errorf("prompt %s: input descriptor must describe an object", name)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: %w", name, err)
	}

	c := &checker{input: input}
	for _, t := range tmpl.Templates() {
		if t.Tree == nil {
			continue
		}
		if err := c.walk(t.Tree.Root, nil, true); err != nil {
			return nil, fmt.Errorf("prompt %s: %w", name, err)
		}
	}

	return &Template{name: name, tmpl: tmpl, input: input, refs: c.refs}, nil
}

// Must panics if err is non-nil. Use it for templates compiled into the
// binary, where a bad reference is a programming error.
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Render executes the template against record, which is usually the typed
// input record. The same record always renders the same prompt.
func (t *Template) Render(record any) (string, error) {
	data, err := toData(record)
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", t.name, err)
	}
	fillDeclared(data, t.input)

	if err := t.resolve(data); err != nil {
		return "", fmt.Errorf("prompt %s: %w", t.name, err)
	}

	var buf strings.Builder
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt %s: %w", t.name, err)
	}
	return buf.String(), nil
}

// resolve checks that every reference reachable for data has a value before
// the template runs, so a missing value is never printed as "<no value>".
func (t *Template) resolve(data map[string]any) error {
	for _, ref := range t.refs {
		if !reachable(data, ref.guards) {
			continue
		}
		end := len(ref.path)
		if !ref.printed {
			end--
		}
		for i := 1; i <= end; i++ {
			if lookup(data, ref.path[:i]) == nil {
				return fmt.Errorf("%w: {{.%s}}", ErrUnresolvedPlaceholder, strings.Join(ref.path[:i], "."))
			}
		}
	}
	return nil
}

func reachable(data map[string]any, guards []guard) bool {
	for _, g := range guards {
		truth, _ := template.IsTrue(lookup(data, g.path))
		if truth != g.want {
			return false
		}
	}
	return true
}

// lookup follows path through nested records and returns nil when any step
// is absent.
func lookup(data map[string]any, path []string) any {
	var v any = data
	for _, name := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[name]
	}
	return v
}

// toData converts a record into the map form templates address by JSON
// field name. Numbers stay json.Number so integers print without decimals.
func toData(record any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("record must encode as a JSON object: %w", err)
	}
	if data == nil {
		return nil, errors.New("record must not be nil")
	}
	return data, nil
}

// fillDeclared adds a nil entry for every declared field that the record
// omitted, so conditionals on absent optional fields evaluate to false
// instead of tripping missingkey=error.
func fillDeclared(data map[string]any, d *schema.Descriptor) {
	for _, f := range d.Fields {
		v, ok := data[f.Name]
		if !ok {
			data[f.Name] = nil
			continue
		}
		if f.Schema.Kind == schema.KindObject {
			if nested, ok := v.(map[string]any); ok {
				fillDeclared(nested, f.Schema)
			}
		}
	}
}

type checker struct {
	input *schema.Descriptor
	refs  []reference
}

// walk checks node and records its field references. printed is false
// while walking an if condition.
func (c *checker) walk(node parse.Node, guards []guard, printed bool) error {
	switch n := node.(type) {
	case nil:
		return nil
	case *parse.ListNode:
		if n == nil {
			return nil
		}
		for _, child := range n.Nodes {
			if err := c.walk(child, guards, printed); err != nil {
				return err
			}
		}
	case *parse.ActionNode:
		return c.walk(n.Pipe, guards, printed)
	case *parse.IfNode:
		return c.branch(&n.BranchNode, guards)
	case *parse.PipeNode:
		if n == nil {
			return nil
		}
		if len(n.Decl) > 0 {
			return fmt.Errorf("%w: %s", ErrUnsupportedAction, n.String())
		}
		for _, cmd := range n.Cmds {
			for _, arg := range cmd.Args {
				if err := c.walk(arg, guards, printed); err != nil {
					return err
				}
			}
		}
	case *parse.FieldNode:
		return c.field(n.Ident, guards, printed)
	case *parse.VariableNode:
		// Only $ is ever in scope, since declarations are rejected.
		if len(n.Ident) < 2 || n.Ident[0] != "$" {
			return fmt.Errorf("%w: %s", ErrUnsupportedAction, n.String())
		}
		return c.field(n.Ident[1:], guards, printed)
	case *parse.IdentifierNode:
		if n.Ident == "index" {
			return fmt.Errorf("%w: %s", ErrUnsupportedAction, n.Ident)
		}
	case *parse.DotNode:
		return fmt.Errorf("%w: bare dot", ErrUnsupportedAction)
	case *parse.ChainNode:
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, n.String())
	case *parse.RangeNode, *parse.WithNode, *parse.TemplateNode:
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, n.String())
	}
	return nil
}

func (c *checker) field(path []string, guards []guard, printed bool) error {
	if _, ok := c.input.Lookup(path...); !ok {
		return fmt.Errorf("%w: {{.%s}}", ErrUndeclaredField, strings.Join(path, "."))
	}
	c.refs = append(c.refs, reference{path: path, printed: printed, guards: guards})
	return nil
}

func (c *checker) branch(b *parse.BranchNode, guards []guard) error {
	if err := c.walk(b.Pipe, guards, false); err != nil {
		return err
	}

	path, simple := condition(b.Pipe)
	then, otherwise := guards, guards
	if simple {
		then = append(slices.Clip(guards), guard{path: path, want: true})
		otherwise = append(slices.Clip(guards), guard{path: path, want: false})
	}

	if err := c.walk(b.List, then, true); err != nil {
		return err
	}
	if b.ElseList != nil {
		return c.walk(b.ElseList, otherwise, true)
	}
	return nil
}

// condition reports the field path of a pipe that tests a single field.
func condition(pipe *parse.PipeNode) ([]string, bool) {
	if pipe == nil || len(pipe.Cmds) != 1 || len(pipe.Cmds[0].Args) != 1 {
		return nil, false
	}
	switch arg := pipe.Cmds[0].Args[0].(type) {
	case *parse.FieldNode:
		return arg.Ident, true
	case *parse.VariableNode:
		if len(arg.Ident) > 1 && arg.Ident[0] == "$" {
			return arg.Ident[1:], true
		}
	}
	return nil, false
}
