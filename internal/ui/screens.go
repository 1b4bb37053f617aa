package ui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/dustin/go-humanize"

	"leetcli/internal/wizard"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k", "shift+tab"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j", "tab"), key.WithHelp("↓/j", "down")),
		Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup/pgdn", "scroll")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		Home:     key.NewBinding(key.WithKeys("home")),
		End:      key.NewBinding(key.WithKeys("end")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// footerKeys adapts a binding list to help.KeyMap.
type footerKeys []key.Binding

func (f footerKeys) ShortHelp() []key.Binding  { return f }
func (f footerKeys) FullHelp() [][]key.Binding { return [][]key.Binding{f} }

func relabel(b key.Binding, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(b.Keys()...), key.WithHelp(b.Help().Key, desc))
}

func (r *Root) footerBindings() footerKeys {
	k := r.keys
	switch r.screen {
	case ScreenHelp, ScreenStats:
		return footerKeys{k.Back, k.Quit}
	case ScreenWizard:
		if r.machine == nil {
			break
		}
		switch r.machine.Current().Kind {
		case wizard.KindText:
			return footerKeys{relabel(k.Enter, "submit"), k.Back, k.Quit}
		case wizard.KindSelect:
			return footerKeys{k.Up, k.Down, k.Enter, k.PageUp, k.Back, k.Quit}
		case wizard.KindAction:
			return footerKeys{k.Quit}
		default:
			return footerKeys{relabel(k.Enter, "continue"), k.Back, k.Quit}
		}
	}
	return footerKeys{k.Up, k.Down, k.Enter, k.Help, relabel(k.Back, "quit")}
}

func (r *Root) headerText(crumbs ...string) string {
	sep := " › "
	if r.ascii {
		sep = " > "
	}
	parts := []string{"leetcli"}
	for _, c := range crumbs {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, c)
		}
	}
	text := " " + strings.Join(parts, sep)
	if r.debug {
		text += fmt.Sprintf("   [%dx%d]", r.cols, r.rows)
	}
	return r.theme.Header.Width(r.cols).Render(trimForWidth(text, r.cols))
}

func (r *Root) statusText() string {
	r.help.SetWidth(r.cols)
	text := r.help.View(r.footerBindings())
	if r.statusFlash != "" {
		text = r.theme.Status.Render(r.statusFlash) + "  " + text
	}
	return padANSI(" "+text, r.cols)
}

func (r *Root) solvedRatio() float64 {
	if r.mainMenu.ProblemCount <= 0 {
		return 0
	}
	return min(1, float64(r.mainMenu.SolvedCount)/float64(r.mainMenu.ProblemCount))
}

func animateTick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

// animateIfNeeded starts the solved-bar spring when it is off target.
func (r *Root) animateIfNeeded() tea.Cmd {
	target := r.solvedRatio()
	if r.motionLevel == "off" {
		r.barPos, r.barVel = target, 0
		return nil
	}
	if r.animing || (abs(r.barPos-target) < 0.001 && abs(r.barVel) < 0.001) {
		return nil
	}
	r.animing = true
	return animateTick()
}

func (r *Root) stepAnimation() tea.Cmd {
	target := r.solvedRatio()
	r.barPos, r.barVel = r.spring.Update(r.barPos, r.barVel, target)
	if abs(r.barPos-target) < 0.001 && abs(r.barVel) < 0.001 {
		r.barPos, r.barVel = target, 0
		r.animing = false
		return nil
	}
	return animateTick()
}

func (r *Root) renderMainMenu() string {
	header := r.headerText()
	h := max(3, r.rows-2)
	items := r.mainMenuItems()
	r.mainMenuIndex = wrapIndex(r.mainMenuIndex, len(items))

	menu := make([]string, 0, len(items))
	for i, item := range items {
		if i == r.mainMenuIndex {
			menu = append(menu, r.theme.Cursor.Render("> "+item.Label))
			continue
		}
		menu = append(menu, "  "+item.Label)
	}

	if r.layout == LayoutCompact {
		lines := append(menu, "")
		lines = append(lines, r.overviewLines(r.cols-2)...)
		return header + "\n" + r.drawPanel("Menu", lines, r.cols, h) + "\n" + r.statusText()
	}
	leftW := max(30, r.cols/3)
	rightW := r.cols - leftW
	left := r.drawPanel("Menu", menu, leftW, h)
	right := r.drawPanel("Overview", r.overviewLines(rightW-2), rightW, h)
	return header + "\n" + joinColumns(left, right) + "\n" + r.statusText()
}

func (r *Root) overviewLines(width int) []string {
	st := r.mainMenu
	muted := r.theme.Muted
	var lines []string
	if st.Warning != "" {
		for _, l := range wrapLines(st.Warning, width) {
			lines = append(lines, r.theme.Warn.Render(l))
		}
		lines = append(lines, "")
	}
	lines = append(lines,
		muted.Render("Workspace  ")+r.theme.Info.Render(trimForWidth(firstNonEmptyStr(st.ProblemsDir, "-"), max(1, width-11))),
		fmt.Sprintf("Problems: %d   Categories: %d", st.ProblemCount, st.CategoryCount),
		fmt.Sprintf("Solved: %d/%d", st.SolvedCount, st.ProblemCount),
	)
	bar := r.solved
	bar.SetWidth(clamp(width-2, 10, 40))
	lines = append(lines, bar.ViewAs(r.barPos), "")
	lines = append(lines, fmt.Sprintf("Runs: %d   Passed: %d", st.Runs, st.Passes))
	if run := st.LastRun; run != nil {
		lines = append(lines, "Last run: "+r.runRowText(*run))
	}
	if st.LastProblem != "" {
		lines = append(lines, "Last problem: "+st.LastProblem)
	}

	items := r.mainMenuItems()
	if len(items) > 0 {
		lines = append(lines, "", r.theme.Accent.Render("Action"))
		lines = append(lines, wrapLines(actionDescription(items[r.mainMenuIndex].Action), width)...)
	}
	return lines
}

func (r *Root) outcomeStyle(outcome string) string {
	switch outcome {
	case "passed":
		return r.theme.Pass.Render(outcome)
	case "failed":
		return r.theme.Fail.Render(outcome)
	case "timeout", "unsupported":
		return r.theme.Warn.Render(outcome)
	}
	return outcome
}

func (r *Root) runRowText(run RunRow) string {
	text := fmt.Sprintf("%s %s %s", run.ProblemID, run.File, r.outcomeStyle(run.Outcome))
	if run.Duration > 0 {
		text += " " + run.Duration.Round(time.Millisecond).String()
	}
	if !run.When.IsZero() {
		text += r.theme.Muted.Render(" (" + humanize.Time(run.When) + ")")
	}
	return text
}

func (r *Root) renderStats() string {
	header := r.headerText("Stats")
	h := max(3, r.rows-2)
	st := r.stats
	var lines []string
	switch {
	case !r.statsLoaded:
		lines = append(lines, r.spin.View()+" Loading run history...")
	case st.Err != "":
		lines = append(lines, r.theme.Fail.Render(trimForWidth(st.Err, r.cols-2)))
	default:
		lines = append(lines,
			fmt.Sprintf("Runs: %d   Passed: %d   Failed: %d   Timed out: %d", st.Runs, st.Passes, st.Failures, st.Timeouts),
			fmt.Sprintf("Problems run: %d   Solved: %d", st.Problems, st.Solved),
			"",
			r.theme.Accent.Render("Recent runs"),
		)
		if len(st.Recent) == 0 {
			lines = append(lines, r.theme.Muted.Render("No runs recorded yet."))
		}
		for _, run := range st.Recent {
			lines = append(lines, "  "+r.runRowText(run))
		}
	}
	return header + "\n" + r.drawPanel("Stats", lines, r.cols, h) + "\n" + r.statusText()
}

func (r *Root) renderHelp() string {
	header := r.headerText("Help")
	h := max(3, r.rows-2)
	rows := [][2]string{
		{"↑/↓, k/j, tab", "move the cursor"},
		{"enter", "select, submit or continue"},
		{"esc", "go back one screen or leave the current flow"},
		{"pgup/pgdn, home/end", "scroll long descriptions, code and output"},
		{"?", "open this help from the main menu"},
		{"ctrl+c", "quit from anywhere"},
	}
	lines := []string{r.theme.Accent.Render("Keys"), ""}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("  %-22s %s", row[0], row[1]))
	}
	lines = append(lines, "", r.theme.Accent.Render("Screens"), "")
	for _, a := range []Action{ActionCreateProblem, ActionRunSolution, ActionBrowse, ActionSearch, ActionSetup, ActionStats} {
		label := actionLabel(a)
		if a == ActionStats {
			label = "Stats"
		}
		lines = append(lines, fmt.Sprintf("  %-22s ", label)+r.theme.Muted.Render(actionDescription(a)))
	}
	return header + "\n" + r.drawPanel("Help", lines, r.cols, h) + "\n" + r.statusText()
}

func (r *Root) renderTooSmall() string {
	width := max(1, r.cols)
	msg := fmt.Sprintf("Terminal too small: need at least 60x16, have %dx%d. Resize or press ctrl+c.", r.cols, r.rows)
	lines := wrapLines(msg, width)
	for i, l := range lines {
		lines[i] = r.theme.Warn.Render(l)
	}
	return strings.Join(lines, "\n")
}
