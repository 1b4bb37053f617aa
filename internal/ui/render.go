package ui

import (
	"bytes"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
)

const ansiReset = "\x1b[0m"

// drawPanel boxes lines into exactly width x height cells. Lines may carry
// ANSI styling; they are measured and cut by display width.
func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h, v := "─", "│"
	tl, tr, bl, br := "┌", "┐", "└", "┘"
	if r.ascii {
		h, v = "-", "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := r.theme.PanelBorder.Render(tl + strings.Repeat(h, innerW) + tr)
	if title != "" && innerW > 4 {
		t := " " + trimForWidth(title, innerW-3) + " "
		rest := innerW - 1 - ansi.StringWidth(t)
		top = r.theme.PanelBorder.Render(tl+h) +
			r.theme.PanelTitle.Render(t) +
			r.theme.PanelBorder.Render(strings.Repeat(h, max(0, rest))+tr)
	}

	out := make([]string, 0, height)
	out = append(out, top)
	side := r.theme.PanelBorder.Render(v)
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, side+r.theme.PanelBody.Render(padANSI(line, innerW))+side)
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

// padANSI cuts or pads s to exactly width display cells.
func padANSI(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "…")
	}
	if strings.Contains(s, "\x1b[") {
		s += ansiReset
	}
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// wrapLines soft-wraps text to width and splits it into lines.
func wrapLines(text string, width int) []string {
	text = strings.TrimRight(strings.ReplaceAll(text, "\t", "    "), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(ansi.Wrap(text, max(1, width), ""), "\n")
}

// renderMarkdown renders through glamour, falling back to the raw text.
// Renderers are cached per wrap width.
func (r *Root) renderMarkdown(md string, width int) []string {
	width = max(20, width)
	tr, ok := r.markdown[width]
	if !ok {
		style := "dark"
		if r.ascii {
			style = "notty"
		}
		var err error
		tr, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			tr = nil
		}
		r.markdown[width] = tr
	}
	if tr == nil {
		return wrapLines(md, width)
	}
	out, err := tr.Render(md)
	if err != nil {
		return wrapLines(md, width)
	}
	return strings.Split(strings.Trim(out, "\n"), "\n")
}

// highlightCode colours src for a terminal, picking the lexer from the file
// name. Any chroma failure leaves the source plain.
func highlightCode(src, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Analyse(src)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return src
	}
	return buf.String()
}

// codeLines prefixes each source line with a 3-wide line number.
func (r *Root) codeLines(src, filename string) []string {
	src = strings.TrimRight(src, "\n")
	if strings.TrimSpace(src) == "" {
		return []string{r.theme.Muted.Render("(empty file)")}
	}
	text := src
	if !r.ascii {
		text = highlightCode(src, filename)
	}
	sep := " │ "
	if r.ascii {
		sep = " | "
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = r.theme.Gutter.Render(fmt.Sprintf("%3d", i+1)+sep) + line + ansiReset
	}
	return lines
}

func joinColumns(left, right string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
