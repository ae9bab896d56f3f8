package gen

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

// Renderer turns a unit into file contents. It must be deterministic.
type Renderer interface {
	Render(u Unit) ([]byte, error)
}

// Meta describes a generation run to templates.
type Meta struct {
	Version string
	ISA     string
	Target  string
}

// Header returns the marker line of generated files, without a comment
// leader.
func (m Meta) Header() string {
	isa := m.ISA
	if isa == "" {
		isa = "an unnamed ISA"
	}
	return fmt.Sprintf("Code generated by adlc %s (target %s) from %s. DO NOT EDIT.", m.Version, m.Target, isa)
}

// TemplateRenderer renders units with text/template. Templates are the
// *.tmpl files at the root of a target's template FS.
type TemplateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer parses the templates of fsys. Besides the builtins
// they can call:
//
//	header "//"     the generated-file marker behind a comment leader
//	join            strings.Join
//	upper, lower    case mapping
//	pad s n         s padded with spaces to n bytes
func NewTemplateRenderer(fsys fs.FS, meta Meta) (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"header": func(leader string) string { return leader + " " + meta.Header() },
		"join":   strings.Join,
		"upper":  strings.ToUpper,
		"lower":  strings.ToLower,
		"pad": func(s string, n int) string {
			if len(s) >= n {
				return s
			}
			return s + strings.Repeat(" ", n-len(s))
		},
	}
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &TemplateRenderer{tmpl: t}, nil
}

func (r *TemplateRenderer) Render(u Unit) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, u.Template, u.Data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", u.Path, err)
	}
	return buf.Bytes(), nil
}
