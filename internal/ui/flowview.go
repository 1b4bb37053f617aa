package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"leetcli/internal/wizard"
)

// mountFlow asks the controller for the flow behind action and starts a
// fresh machine for it. Only one flow is mounted at a time.
func (r *Root) mountFlow(action Action, arg string) tea.Cmd {
	if r.ctrl == nil {
		r.statusFlash = "Nothing is wired to this menu yet."
		return nil
	}
	flow, err := r.ctrl.Flow(action, arg)
	var m *wizard.Machine
	if err == nil {
		m, err = wizard.New(flow)
	}
	if err != nil {
		r.statusFlash = fmt.Sprintf("Cannot open %s: %v", strings.ToLower(actionLabel(action)), err)
		r.logger.Error("ui.flow_mount_failed", "flow", string(action), "error", err.Error())
		return nil
	}

	r.machine = m
	r.flow = action
	r.visits = -1
	r.cursors = map[wizard.StepID]int{}
	r.scroll = 0
	r.statusFlash = ""
	r.screen = ScreenWizard
	eff := m.Start(
		func(wizard.Answers) { r.closeFlow(m, true) },
		func() { r.closeFlow(m, false) },
	)
	return r.afterEffect(eff)
}

// closeFlow runs from inside Machine.Handle when a flow finishes.
func (r *Root) closeFlow(m *wizard.Machine, completed bool) {
	if r.machine != m {
		return
	}
	action := r.flow
	r.machine = nil
	r.flow = ""
	r.screen = ScreenMainMenu
	r.input.Blur()
	r.dispatchController(func(c Controller) { c.OnFlowDone(action, completed) })
}

func (r *Root) afterEffect(eff wizard.Effect) tea.Cmd {
	if r.machine == nil {
		return nil
	}
	cmd := r.syncStep()
	if eff.Action != nil {
		return tea.Batch(cmd, r.runAction(r.machine, eff.Action))
	}
	return cmd
}

// syncStep resets per-step widgets whenever the machine entered a step,
// including re-entry of the same step.
func (r *Root) syncStep() tea.Cmd {
	m := r.machine
	if m == nil || m.Visits() == r.visits {
		return nil
	}
	r.visits = m.Visits()
	r.scroll = 0
	r.bodyKey = ""

	s := m.Current()
	switch s.Kind {
	case wizard.KindText:
		r.input.SetValue(m.DefaultValue())
		r.input.Placeholder = s.Placeholder
		r.input.CursorEnd()
		return r.input.Focus()
	case wizard.KindSelect:
		r.input.Blur()
		n := len(m.Screen().Options)
		r.cursors[s.ID] = clamp(r.cursors[s.ID], 0, n-1)
	default:
		r.input.Blur()
	}
	return nil
}

func (r *Root) runAction(m *wizard.Machine, p *wizard.Pending) tea.Cmd {
	ctx := r.ctx
	run := func() (msg tea.Msg) {
		defer func() {
			if rec := recover(); rec != nil {
				msg = actionMsg{machine: m, token: p.Token, err: fmt.Errorf("%s panicked: %v", p.Step, rec)}
			}
		}()
		out, err := p.Run(ctx)
		return actionMsg{machine: m, token: p.Token, out: out, err: err}
	}
	spin := r.spin
	return tea.Batch(run, func() tea.Msg { return spin.Tick() })
}

func (r *Root) finishAction(msg actionMsg) tea.Cmd {
	if r.machine == nil || msg.machine != r.machine {
		return nil
	}
	return r.afterEffect(r.machine.Handle(wizard.ActionDone(msg.token, msg.out, msg.err)))
}

func (r *Root) actionRunning() bool {
	return r.machine != nil && r.machine.Pending() != nil
}

func (r *Root) textStepActive() bool {
	return r.screen == ScreenWizard && r.machine != nil && r.machine.Current().Kind == wizard.KindText
}

func (r *Root) handleWizardKey(msg tea.KeyPressMsg) tea.Cmd {
	m := r.machine
	if m == nil {
		r.screen = ScreenMainMenu
		return nil
	}
	s := m.Current()
	switch s.Kind {
	case wizard.KindText:
		switch {
		case key.Matches(msg, r.keys.Enter):
			return r.afterEffect(m.Handle(wizard.Submit(r.input.Value())))
		case key.Matches(msg, r.keys.Back):
			return r.afterEffect(m.Handle(wizard.Cancel()))
		}
		var cmd tea.Cmd
		r.input, cmd = r.input.Update(msg)
		return cmd
	case wizard.KindSelect:
		opts := m.Screen().Options
		cur := r.cursors[s.ID]
		switch {
		case key.Matches(msg, r.keys.Up):
			r.cursors[s.ID] = wrapIndex(cur-1, len(opts))
		case key.Matches(msg, r.keys.Down):
			r.cursors[s.ID] = wrapIndex(cur+1, len(opts))
		case key.Matches(msg, r.keys.Enter):
			if len(opts) == 0 {
				return nil
			}
			return r.afterEffect(m.Handle(wizard.Submit(opts[clamp(cur, 0, len(opts)-1)].Value)))
		case key.Matches(msg, r.keys.Back):
			return r.afterEffect(m.Handle(wizard.Cancel()))
		default:
			r.scrollBody(msg)
		}
	case wizard.KindDone, wizard.KindError:
		switch {
		case key.Matches(msg, r.keys.Enter):
			return r.afterEffect(m.Handle(wizard.Confirm()))
		case key.Matches(msg, r.keys.Back):
			return r.afterEffect(m.Handle(wizard.Cancel()))
		default:
			r.scrollBody(msg)
		}
	}
	// Action steps take no input until their result arrives.
	return nil
}

func (r *Root) scrollBody(msg tea.KeyPressMsg) {
	page := max(1, r.rows/2)
	switch {
	case key.Matches(msg, r.keys.PageUp):
		r.scroll = max(0, r.scroll-page)
	case key.Matches(msg, r.keys.PageDown):
		r.scroll += page
	case key.Matches(msg, r.keys.Home):
		r.scroll = 0
	case key.Matches(msg, r.keys.End):
		r.scroll = 1 << 30
	}
}

// bodyLines renders the screen body once per visit and width.
func (r *Root) bodyLines(sc wizard.Screen, width int) []string {
	cacheKey := fmt.Sprintf("%d/%d", r.visits, width)
	if cacheKey == r.bodyKey {
		return r.bodyCache
	}
	var lines []string
	if strings.TrimSpace(sc.Body) != "" {
		switch sc.Format {
		case wizard.BodyMarkdown:
			lines = r.renderMarkdown(sc.Body, width)
		case wizard.BodyCode:
			lines = r.codeLines(sc.Body, sc.Filename)
		default:
			lines = wrapLines(sc.Body, width)
		}
	}
	r.bodyKey = cacheKey
	r.bodyCache = lines
	return lines
}

// window returns the scrolled slice of lines that fits height and clamps
// the scroll offset into range.
func (r *Root) window(lines []string, height int) []string {
	if height <= 0 {
		return nil
	}
	r.scroll = clamp(r.scroll, 0, max(0, len(lines)-height))
	end := min(len(lines), r.scroll+height)
	return lines[r.scroll:end]
}

func scrollHint(total, offset, height int) string {
	if total <= height || height <= 0 {
		return ""
	}
	return fmt.Sprintf(" %d-%d/%d", offset+1, min(total, offset+height), total)
}

func (r *Root) renderWizard() string {
	m := r.machine
	s := m.Current()
	h := max(3, r.rows-2)
	header := r.headerText(actionLabel(r.flow), firstNonEmptyStr(s.Title, string(s.ID)))

	var body string
	switch s.Kind {
	case wizard.KindSelect:
		body = r.renderSelect(m, s, r.cols, h)
	case wizard.KindText:
		body = r.renderText(m, s, r.cols, h)
	case wizard.KindAction:
		body = r.renderAction(m, s, r.cols, h)
	default:
		body = r.renderTerminal(m, s, r.cols, h)
	}
	return header + "\n" + body + "\n" + r.statusText()
}

// stepHead is the prompt and meta rows shown above a select body.
func (r *Root) stepHead(m *wizard.Machine, sc wizard.Screen, width int) []string {
	var lines []string
	if p := strings.TrimSpace(m.Prompt()); p != "" {
		for _, l := range wrapLines(p, width) {
			lines = append(lines, r.theme.Accent.Render(l))
		}
	}
	if len(sc.Meta) > 0 {
		parts := make([]string, 0, len(sc.Meta))
		plain := 0
		for _, meta := range sc.Meta {
			value := firstNonEmptyStr(meta.Value, "-")
			parts = append(parts, r.theme.Muted.Render(meta.Label+": ")+r.theme.Tone(meta.Tone).Render(value))
			plain += len(meta.Label) + 2 + len(value) + 3
		}
		if plain <= width {
			lines = append(lines, strings.Join(parts, "   "))
		} else {
			lines = append(lines, parts...)
		}
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}
	return lines
}

func (r *Root) optionLines(sc wizard.Screen, cursor int) []string {
	if len(sc.Options) == 0 {
		return []string{r.theme.Muted.Render(firstNonEmptyStr(sc.Empty, "Nothing to choose from."))}
	}
	lines := make([]string, 0, len(sc.Options))
	for i, opt := range sc.Options {
		line := "  " + opt.Label
		if i == cursor {
			line = r.theme.Cursor.Render("> " + opt.Label)
		}
		if opt.Hint != "" {
			line += "  " + r.theme.Muted.Render(opt.Hint)
		}
		lines = append(lines, line)
	}
	return lines
}

// optionWindow keeps the cursor visible inside height rows.
func optionWindow(lines []string, cursor, height int) []string {
	if height <= 0 {
		return nil
	}
	if len(lines) <= height {
		return lines
	}
	start := clamp(cursor-height/2, 0, len(lines)-height)
	return lines[start : start+height]
}

func (r *Root) inlineLines(m *wizard.Machine, width int) []string {
	msg := strings.TrimSpace(m.InlineError())
	if msg == "" {
		return nil
	}
	mark := "✗ "
	if r.ascii {
		mark = "! "
	}
	var lines []string
	for _, l := range wrapLines(mark+msg, width) {
		lines = append(lines, r.theme.Fail.Render(l))
	}
	return lines
}

func (r *Root) renderSelect(m *wizard.Machine, s wizard.Step, w, h int) string {
	sc := m.Screen()
	cursor := r.cursors[s.ID]
	title := firstNonEmptyStr(s.Title, string(s.ID))
	innerH := h - 2
	hasBody := strings.TrimSpace(sc.Body) != ""

	if r.layout == LayoutWide && hasBody {
		rightW := min(44, max(28, w/3))
		leftW := w - rightW
		head := r.stepHead(m, sc, leftW-2)
		body := r.bodyLines(sc, leftW-2)
		bodyH := innerH - len(head)
		left := append(head, r.window(body, bodyH)...)
		right := append(r.inlineLines(m, rightW-2), r.optionLines(sc, cursor)...)
		right = optionWindow(right, cursor, innerH)
		return joinColumns(
			r.drawPanel(title+scrollHint(len(body), r.scroll, bodyH), left, leftW, h),
			r.drawPanel("Actions", right, rightW, h),
		)
	}

	head := r.stepHead(m, sc, w-2)
	opts := r.optionLines(sc, cursor)
	inline := r.inlineLines(m, w-2)
	lines := append([]string{}, head...)
	hint := ""
	if hasBody {
		optsH := min(len(opts), max(3, innerH/3))
		body := r.bodyLines(sc, w-2)
		bodyH := max(1, innerH-len(head)-len(inline)-optsH-1)
		lines = append(lines, r.window(body, bodyH)...)
		for len(lines) < len(head)+bodyH {
			lines = append(lines, "")
		}
		lines = append(lines, "")
		lines = append(lines, inline...)
		lines = append(lines, optionWindow(opts, cursor, optsH)...)
		hint = scrollHint(len(body), r.scroll, bodyH)
	} else {
		lines = append(lines, inline...)
		lines = append(lines, optionWindow(opts, cursor, innerH-len(lines))...)
	}
	return r.drawPanel(title+hint, lines, w, h)
}

func (r *Root) renderText(m *wizard.Machine, s wizard.Step, w, h int) string {
	var lines []string
	for _, l := range wrapLines(m.Prompt(), w-2) {
		lines = append(lines, r.theme.Accent.Render(l))
	}
	lines = append(lines, "", r.input.View(), "")
	lines = append(lines, r.inlineLines(m, w-2)...)
	return r.drawPanel(firstNonEmptyStr(s.Title, string(s.ID)), lines, w, h)
}

func (r *Root) renderAction(m *wizard.Machine, s wizard.Step, w, h int) string {
	prompt := firstNonEmptyStr(m.Prompt(), "Working...")
	lines := []string{
		r.spin.View() + " " + r.theme.Accent.Render(trimForWidth(prompt, w-6)),
		"",
		r.theme.Muted.Render("Please wait, this finishes on its own."),
	}
	return r.drawPanel(firstNonEmptyStr(s.Title, string(s.ID)), lines, w, h)
}

func (r *Root) renderTerminal(m *wizard.Machine, s wizard.Step, w, h int) string {
	mark, style := "✓ ", r.theme.Pass
	if s.Kind == wizard.KindError {
		mark, style = "✗ ", r.theme.Fail
	}
	if r.ascii {
		mark = "OK "
		if s.Kind == wizard.KindError {
			mark = "ERROR "
		}
	}
	title := firstNonEmptyStr(s.Title, string(s.ID))
	msg := wrapLines(m.Message(), w-2)
	bodyH := h - 2 - 2
	lines := []string{style.Render(mark + title)}
	lines = append(lines, r.window(msg, bodyH)...)
	return r.drawPanel(title+scrollHint(len(msg), r.scroll, bodyH), lines, w, h)
}
