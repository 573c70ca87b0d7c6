package template

import (
	"bytes"
	"embed"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/ksyq12/wpstack/internal/errors"
)

// Template names.
const (
	NginxVHost = "nginx/wordpress.conf"
	NginxCache = "nginx/fastcgi-cache.conf"
	WPConfig   = "wordpress/wp-config.php"
)

//go:embed nginx/*.tmpl wordpress/*.tmpl
var files embed.FS

// Values maps placeholder names to their substitution.
type Values map[string]string

// RenderedConfig is the output of a render: the template it came from and
// the file content.
type RenderedConfig struct {
	Template string
	Content  string
}

// Bytes returns the content for writing to disk.
func (r *RenderedConfig) Bytes() []byte {
	return []byte(r.Content)
}

// load reads and parses a named template
func load(name string) (*template.Template, error) {
	content, err := files.ReadFile(name + ".tmpl")
	if err != nil {
		return nil, &errors.TemplateError{Template: name, Err: err}
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, &errors.TemplateError{Template: name, Err: err}
	}
	return tmpl, nil
}

// Render substitutes values into the named template. Every placeholder the
// template references must have a non-blank value.
func Render(name string, values Values) (*RenderedConfig, error) {
	tmpl, err := load(name)
	if err != nil {
		return nil, err
	}

	for _, key := range placeholders(tmpl) {
		if strings.TrimSpace(values[key]) == "" {
			return nil, errors.Template(name, key)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string(values)); err != nil {
		return nil, &errors.TemplateError{Template: name, Err: err}
	}

	return &RenderedConfig{Template: name, Content: buf.String()}, nil
}

// Placeholders returns the sorted placeholder names a template references.
func Placeholders(name string) ([]string, error) {
	tmpl, err := load(name)
	if err != nil {
		return nil, err
	}
	return placeholders(tmpl), nil
}

// Available returns all embedded template names
func Available() []string {
	return []string{NginxVHost, NginxCache, WPConfig}
}

func placeholders(tmpl *template.Template) []string {
	seen := map[string]bool{}
	if tmpl.Tree != nil {
		collect(tmpl.Tree.Root, seen)
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collect(node parse.Node, seen map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collect(child, seen)
		}
	case *parse.ActionNode:
		collect(n.Pipe, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			for _, arg := range cmd.Args {
				collect(arg, seen)
			}
		}
	case *parse.FieldNode:
		seen[n.Ident[0]] = true
	case *parse.IfNode:
		collect(n.Pipe, seen)
		collect(n.List, seen)
		collect(n.ElseList, seen)
	case *parse.RangeNode:
		collect(n.Pipe, seen)
		collect(n.List, seen)
		collect(n.ElseList, seen)
	case *parse.WithNode:
		collect(n.Pipe, seen)
		collect(n.List, seen)
		collect(n.ElseList, seen)
	}
}
