package catalog

import (
	"strconv"
	"strings"
	"time"
)

// Problem is one directory under the problems root. It is rebuilt from disk
// on every listing and never cached.
type Problem struct {
	ID         string
	Title      string
	Dir        string
	DirName    string
	Categories []string
}

// Number is the numeric value of the id, 0 when the id is not numeric.
func (p Problem) Number() int {
	n, err := strconv.Atoi(p.ID)
	if err != nil {
		return 0
	}
	return n
}

func (p Problem) DisplayID() string {
	if _, err := strconv.Atoi(p.ID); err != nil {
		return p.ID
	}
	return padID(p.ID)
}

func (p Problem) HasCategory(name string) bool {
	for _, c := range p.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Details is a problem together with everything parsed from its README.
type Details struct {
	Problem
	Difficulty  string
	Languages   []string
	Description string
	SidecarPath string
}

type Category struct {
	Name        string
	DisplayName string
}

// Solution is a source file that belongs to a problem, either at the top of
// the problem directory or one level down in a language directory.
type Solution struct {
	Language  string
	Path      string
	Filename  string
	Extension string
	Size      int64
	ModTime   time.Time
}

// NewProblem carries the answers of the create-problem flow.
type NewProblem struct {
	ID          string
	Title       string
	Category    string
	Language    string
	Difficulty  string
	Description string
}

// Created lists the paths written by CreateProblem.
type Created struct {
	Dir     string
	Sidecar string
	Stub    string
}

// padID left-pads a numeric id with zeros to four characters.
func padID(id string) string {
	if len(id) >= 4 {
		return id
	}
	return strings.Repeat("0", 4-len(id)) + id
}

// humanize turns a directory slug into a title: "two-pointers" -> "Two Pointers".
func humanize(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		rs := []rune(w)
		rs[0] = []rune(strings.ToUpper(string(rs[0])))[0]
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
