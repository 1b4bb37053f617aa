package catalog

import (
	"regexp"
	"strings"
)

// SidecarName is the metadata file kept next to each problem's solutions.
const SidecarName = "README.md"

const DefaultDescription = "No description available."

// Sidecar is the parsed form of a problem README.
//
// Grammar, one construct per line:
//
//	# <id>. <title>            first level-1 heading; the id prefix is optional
//	Dificuldade: <word>        key lines, keys are case-insensitive
//	Categorias: [a, b]
//	Linguagens: [a, b]
//	## Descrição               body runs until the next level-1 or level-2
//	                           heading outside a code fence
//
// Anything else is ignored. Missing fields stay empty.
type Sidecar struct {
	HeadingID   string
	Title       string
	Difficulty  string
	Categories  []string
	Languages   []string
	Description string
}

var (
	headingPattern   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	numberedHeading  = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	descriptionTitle = map[string]bool{
		"descrição":   true,
		"descricao":   true,
		"description": true,
	}
)

type sidecarField int

const (
	fieldNone sidecarField = iota
	fieldDifficulty
	fieldCategories
	fieldLanguages
)

var sidecarKeys = map[string]sidecarField{
	"dificuldade": fieldDifficulty,
	"difficulty":  fieldDifficulty,
	"categorias":  fieldCategories,
	"categoria":   fieldCategories,
	"categories":  fieldCategories,
	"category":    fieldCategories,
	"linguagens":  fieldLanguages,
	"languages":   fieldLanguages,
}

func ParseSidecar(text string) Sidecar {
	var (
		s           Sidecar
		headingSeen bool
		inDesc      bool
		fence       string
		desc        []string
		seen        = map[sidecarField]bool{}
	)
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if inDesc {
			if marker := fenceMarker(line); marker != "" {
				switch {
				case fence == "":
					fence = marker
				case strings.HasPrefix(marker, fence[:1]) && len(marker) >= len(fence):
					fence = ""
				}
			}
			m := headingPattern.FindStringSubmatch(line)
			if fence != "" || m == nil || len(m[1]) > 2 {
				desc = append(desc, strings.TrimRight(raw, " \t"))
				continue
			}
		}
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			inDesc = false
			level, title := len(m[1]), strings.TrimSpace(m[2])
			switch {
			case level == 2 && descriptionTitle[strings.ToLower(title)]:
				inDesc = true
			case level == 1 && !headingSeen:
				headingSeen = true
				if n := numberedHeading.FindStringSubmatch(title); n != nil {
					s.HeadingID = n[1]
					s.Title = strings.TrimSpace(n[2])
				} else {
					s.Title = title
				}
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field := sidecarKeys[strings.ToLower(strings.TrimSpace(key))]
		if field == fieldNone || seen[field] {
			continue
		}
		seen[field] = true
		switch field {
		case fieldDifficulty:
			s.Difficulty = strings.TrimSpace(value)
		case fieldCategories:
			s.Categories = parseList(value)
		case fieldLanguages:
			s.Languages = parseList(value)
		}
	}
	s.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return s
}

// fenceMarker returns the run of backticks or tildes opening line, or "" when
// line is not a code fence.
func fenceMarker(line string) string {
	for _, c := range []string{"`", "~"} {
		n := len(line) - len(strings.TrimLeft(line, c))
		if n >= 3 {
			return line[:n]
		}
	}
	return ""
}

// parseList reads "[a, b]" or a bare "a, b" into trimmed, non-empty items.
func parseList(value string) []string {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// FormatSidecar renders s in the grammar ParseSidecar reads.
func FormatSidecar(s Sidecar) string {
	var b strings.Builder
	b.WriteString("# ")
	if s.HeadingID != "" {
		b.WriteString(s.HeadingID + ". ")
	}
	b.WriteString(s.Title)
	b.WriteString("\n\n")
	if s.Difficulty != "" {
		b.WriteString("Dificuldade: " + s.Difficulty + "\n")
	}
	b.WriteString("Categorias: [" + strings.Join(s.Categories, ", ") + "]\n")
	b.WriteString("Linguagens: [" + strings.Join(s.Languages, ", ") + "]\n")
	b.WriteString("\n## Descrição\n\n")
	if s.Description != "" {
		b.WriteString(s.Description + "\n")
	}
	return b.String()
}
