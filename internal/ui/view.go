package ui

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"

	"leetcli/internal/wizard"
)

type applyMsg struct {
	fn func(*Root)
}

type animateMsg time.Time

// actionMsg carries the outcome of a pending wizard action back to Update.
// machine identifies the flow that issued it.
type actionMsg struct {
	machine *wizard.Machine
	token   int
	out     string
	err     error
}

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool
	ctx     context.Context

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	mainMenu      MainMenuState
	stats         StatsState
	statsLoaded   bool
	statusFlash   string
	mainMenuIndex int

	machine *wizard.Machine
	flow    Action
	visits  int
	cursors map[wizard.StepID]int
	scroll  int

	bodyKey   string
	bodyCache []string

	input    textinput.Model
	spin     spinner.Model
	help     help.Model
	keys     keyMap
	solved   progress.Model
	barPos   float64
	barVel   float64
	spring   harmonica.Spring
	animing  bool
	markdown map[int]*glamour.TermRenderer
	logger   *clog.Logger

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
	// Logger receives panic reports. Defaults to stderr at warn level.
	Logger *clog.Logger
}

func New(opts Options) *Root {
	logger := opts.Logger
	if logger == nil {
		logger = clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "leetcli-ui", Level: clog.WarnLevel})
		if opts.Debug {
			logger.SetLevel(clog.DebugLevel)
		}
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 6.0, 0.9)
	if motionLevel == "reduced" {
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.95)
	}
	solved := progress.New(
		progress.WithWidth(24),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6")),
		progress.WithScaled(true),
	)

	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 200
	in.SetWidth(60)

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		ctx:          context.Background(),
		screen:       ScreenMainMenu,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		cursors:      map[wizard.StepID]int{},
		input:        in,
		spin:         spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(theme.Accent)),
		help:         h,
		keys:         defaultKeyMap(),
		solved:       solved,
		spring:       spring,
		markdown:     map[int]*glamour.TermRenderer{},
		logger:       logger,
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return r.animateIfNeeded()
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.input.SetWidth(max(10, r.cols-12))
		r.bodyKey = ""
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case animateMsg:
		return r, r.stepAnimation()
	case actionMsg:
		return r, r.finishAction(msg)
	case spinner.TickMsg:
		if !r.actionRunning() {
			return r, nil
		}
		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	if r.textStepActive() {
		var cmd tea.Cmd
		r.input, cmd = r.input.Update(msg)
		return r, cmd
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}
	v := tea.NewView(r.render())
	v.AltScreen = true
	return v
}

func (r *Root) render() string {
	if r.layout == LayoutTooSmall {
		return r.renderTooSmall()
	}
	switch r.screen {
	case ScreenWizard:
		if r.machine != nil {
			return r.renderWizard()
		}
	case ScreenHelp:
		return r.renderHelp()
	case ScreenStats:
		return r.renderStats()
	}
	return r.renderMainMenu()
}

// Run blocks until the program exits. Cancelling ctx ends the program and
// every running action with it.
func (r *Root) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r, tea.WithContext(ctx))
	r.program = p
	r.running = true
	r.ctx = ctx
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(v *Root) {
		if screen == ScreenWizard && v.machine == nil {
			return
		}
		v.screen = screen
	})
}

func (r *Root) SetMainMenuState(state MainMenuState) {
	r.apply(func(v *Root) {
		v.mainMenu = state
		if v.motionLevel == "off" {
			v.barPos, v.barVel = v.solvedRatio(), 0
		}
	})
}

func (r *Root) SetStats(state StatsState) {
	r.apply(func(v *Root) {
		v.stats = state
		v.statsLoaded = true
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(v *Root) {
		v.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.keys.Quit) {
		return r, r.quit()
	}
	if r.layout == LayoutTooSmall {
		return r, nil
	}
	switch r.screen {
	case ScreenWizard:
		return r, r.handleWizardKey(msg)
	case ScreenHelp, ScreenStats:
		if key.Matches(msg, r.keys.Back, r.keys.Enter, r.keys.Help) {
			r.screen = ScreenMainMenu
		}
		return r, nil
	default:
		return r, r.handleMainMenuKey(msg)
	}
}

func (r *Root) handleMainMenuKey(msg tea.KeyPressMsg) tea.Cmd {
	items := r.mainMenuItems()
	switch {
	case key.Matches(msg, r.keys.Up):
		r.mainMenuIndex = wrapIndex(r.mainMenuIndex-1, len(items))
	case key.Matches(msg, r.keys.Down):
		r.mainMenuIndex = wrapIndex(r.mainMenuIndex+1, len(items))
	case key.Matches(msg, r.keys.Enter):
		return r.activateMainMenuSelection()
	case key.Matches(msg, r.keys.Help):
		r.screen = ScreenHelp
	case key.Matches(msg, r.keys.Back):
		return r.quit()
	}
	return nil
}

func (r *Root) quit() tea.Cmd {
	r.dispatchController(func(c Controller) { c.OnQuit() })
	return tea.Quit
}

type menuItem struct {
	Label  string
	Action Action
	Arg    string
}

func (r *Root) mainMenuItems() []menuItem {
	var items []menuItem
	if last := r.mainMenu.LastProblem; last != "" {
		items = append(items, menuItem{Label: "Continue with problem " + last, Action: ActionContinue, Arg: last})
	}
	return append(items,
		menuItem{Label: "Create problem", Action: ActionCreateProblem},
		menuItem{Label: "Run solution", Action: ActionRunSolution},
		menuItem{Label: "List problems", Action: ActionBrowse},
		menuItem{Label: "Search problems", Action: ActionSearch},
		menuItem{Label: "Environment setup", Action: ActionSetup},
		menuItem{Label: "Stats", Action: ActionStats},
		menuItem{Label: "Help", Action: ActionHelp},
		menuItem{Label: "Quit", Action: ActionQuit},
	)
}

func actionLabel(a Action) string {
	switch a {
	case ActionCreateProblem:
		return "Create problem"
	case ActionRunSolution:
		return "Run solution"
	case ActionBrowse:
		return "Problems"
	case ActionSearch:
		return "Search"
	case ActionContinue:
		return "Continue"
	case ActionSetup:
		return "Environment setup"
	default:
		return string(a)
	}
}

func actionDescription(a Action) string {
	switch a {
	case ActionContinue:
		return "Open the problem you looked at last."
	case ActionCreateProblem:
		return "Scaffold a numbered problem folder with a README and a first solution stub."
	case ActionRunSolution:
		return "Pick a problem and one of its solutions, then run it with the matching interpreter."
	case ActionBrowse:
		return "Browse problems by category, read descriptions, view and create solutions."
	case ActionSearch:
		return "Find problems by number or title. Small typos are tolerated."
	case ActionSetup:
		return "Create the problems/ and categories/ folders and check which interpreters are installed."
	case ActionStats:
		return "Review the history of solution runs."
	case ActionHelp:
		return "Keys and screens."
	case ActionQuit:
		return "Exit leetcli."
	}
	return "Use Enter to select an option."
}

func (r *Root) activateMainMenuSelection() tea.Cmd {
	items := r.mainMenuItems()
	if len(items) == 0 {
		return nil
	}
	item := items[wrapIndex(r.mainMenuIndex, len(items))]
	switch item.Action {
	case ActionQuit:
		return r.quit()
	case ActionHelp:
		r.screen = ScreenHelp
		return nil
	case ActionStats:
		r.statsLoaded = false
		r.screen = ScreenStats
		r.dispatchController(func(c Controller) { c.OnOpenStats() })
		return nil
	default:
		return r.mountFlow(item.Action, item.Arg)
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	step := ""
	if r.machine != nil {
		step = string(r.machine.Current().ID)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"screen", int(r.screen),
		"flow", string(r.flow),
		"step", step,
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "cozy_clean", "retro_terminal", "modern_arcade":
		return strings.TrimSpace(v)
	default:
		return "modern_arcade"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
