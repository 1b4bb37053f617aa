// Package templates maps the supported solution languages to their file
// extension and starter source.
package templates

import (
	"fmt"
	"strings"
)

// Language is one entry of the closed language table.
type Language struct {
	ID        string
	Label     string
	Extension string
	// Template is written into new solution files. Empty means the file is
	// created empty.
	Template string
}

type Registry struct {
	langs []Language
	byID  map[string]Language
	byExt map[string]Language
}

// New builds a registry. Every language must carry an extension, since any
// language offered in a picker has to be creatable.
func New(langs []Language) (*Registry, error) {
	r := &Registry{
		byID:  make(map[string]Language, len(langs)),
		byExt: make(map[string]Language, len(langs)),
	}
	for _, l := range langs {
		id := strings.TrimSpace(l.ID)
		if id == "" {
			return nil, fmt.Errorf("language with empty id")
		}
		if !strings.HasPrefix(l.Extension, ".") || len(l.Extension) < 2 {
			return nil, fmt.Errorf("language %q: invalid extension %q", id, l.Extension)
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("language %q declared twice", id)
		}
		l.ID = id
		if l.Label == "" {
			l.Label = id
		}
		r.langs = append(r.langs, l)
		r.byID[id] = l
		if _, seen := r.byExt[l.Extension]; !seen {
			r.byExt[l.Extension] = l
		}
	}
	return r, nil
}

func MustNew(langs []Language) *Registry {
	r, err := New(langs)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = MustNew(builtinLanguages)

// Default returns the built-in table.
func Default() *Registry {
	return defaultRegistry
}

// Languages returns the languages in picker order.
func (r *Registry) Languages() []Language {
	return append([]Language(nil), r.langs...)
}

func (r *Registry) Lookup(id string) (Language, bool) {
	l, ok := r.byID[strings.TrimSpace(id)]
	return l, ok
}

func (r *Registry) Extension(id string) (string, bool) {
	l, ok := r.Lookup(id)
	if !ok {
		return "", false
	}
	return l.Extension, true
}

func (r *Registry) Template(id string) string {
	l, _ := r.Lookup(id)
	return l.Template
}

// ForExtension resolves a file extension (with the leading dot, any case).
func (r *Registry) ForExtension(ext string) (Language, bool) {
	l, ok := r.byExt[strings.ToLower(ext)]
	return l, ok
}

// DisplayName returns the human label for ext, or "" when unknown.
func (r *Registry) DisplayName(ext string) string {
	if l, ok := r.ForExtension(ext); ok {
		return l.Label
	}
	return ""
}
