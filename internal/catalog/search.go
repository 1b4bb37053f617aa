package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is a search hit. Lower scores rank first.
type Match struct {
	Problem Problem
	Score   int
}

const (
	scoreExactID   = -2
	scoreSubstring = -1
)

// Search ranks problems against query: exact numeric id first, then title
// substrings, then titles within a small edit distance of the query.
func (r *Repository) Search(query string, limit int) ([]Match, error) {
	problems, err := r.ListProblems()
	if err != nil {
		return nil, err
	}
	return rank(problems, query, limit), nil
}

func rank(problems []Problem, query string, limit int) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	qNum, qErr := strconv.Atoi(q)
	tolerance := max(1, len([]rune(q))/3)

	var out []Match
	for _, p := range problems {
		title := strings.ToLower(p.Title)
		switch {
		case qErr == nil && isDigits(p.ID) && p.Number() == qNum:
			out = append(out, Match{Problem: p, Score: scoreExactID})
		case strings.Contains(title, q):
			out = append(out, Match{Problem: p, Score: scoreSubstring})
		default:
			best := levenshtein.ComputeDistance(q, title)
			for _, w := range strings.Fields(title) {
				if d := levenshtein.ComputeDistance(q, w); d < best {
					best = d
				}
			}
			if best <= tolerance {
				out = append(out, Match{Problem: p, Score: best})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Problem.Number() < out[j].Problem.Number()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
