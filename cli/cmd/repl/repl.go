// Package repl is an interactive template realizer.
//
// Each line entered is compiled and realized against one long-lived
// session, so caller variables and global scratch values carry over from
// line to line. Esc switches to command mode for session management.
package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/pattern/lang"
	"github.com/ardnew/pattern/log"
)

// editDoneMsg is sent when the editor closes.
type editDoneMsg struct {
	source string
	ok     bool
	err    error
}

const (
	templatePrompt = "» "
	ctrlPrompt     = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode):

  help              Print this help
  names             List visible names
  vars              List caller variables
  set NAME VALUE    Set a caller variable to the realized VALUE
  unset NAME        Remove a caller variable
  tree              Show the compiled graph of the last template
  edit              Edit the last template in $EDITOR and realize it
  clear             Clear screen
  quit              Exit

Usage:
  Type a template such as "Hello {upper:{name}}!" and press Enter
  Completions appear as you type; Tab / Shift-Tab cycle through them
  Up/Down walk the history; Shift-Up/Shift-Down stay in the current mode
  Press Ctrl+C on an empty line or Ctrl+D to exit`

type inputMode int

const (
	modeTemplate inputMode = iota
	modeCtrl
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// Options configures a REPL run.
type Options struct {
	// Vars are the initial caller variables. The session modifies the map.
	Vars lang.Vars
	// Objects are the live objects visible to templates.
	Objects *lang.Objects
	// CacheDir holds the history file. Empty disables persistence.
	CacheDir string
	Logger   log.Logger
	// Template options applied to every line.
	Template []lang.Option
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *session
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches
	wordStart    int
	wordEnd      int
	suggIdx      int
	tabActive    bool
	preTabText   string
	preTabCursor int
	width        int
	quitting     bool
	mode         inputMode
	stash        [2]string // input of the inactive mode
}

// Run starts the REPL and blocks until the user quits.
func Run(ctx context.Context, opts Options) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var historyPath string
	if opts.CacheDir != "" {
		historyPath = filepath.Join(opts.CacheDir, baseHistory)
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		opts.Logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	opts.Logger.TraceContext(ctx, "repl start",
		slog.String("history", historyPath),
		slog.Int("history_len", history.Len()),
		slog.Int("vars", len(opts.Vars)),
	)

	s := newSession(opts.Vars, opts.Objects, opts.Logger, opts.Template...)

	_, err = tea.NewProgram(newModel(ctx, s, history), tea.WithContext(ctx)).Run()

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, s *session, history *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(templatePrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    s,
		logger:     s.logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeTemplate,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(templatePrompt) - 2

		return m, nil

	case editDoneMsg:
		switch {
		case errors.Is(msg.err, ErrEditDeclined):
			return m, tea.Println(hintStyle.Render("edit abandoned"))
		case msg.err != nil:
			return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
		case !msg.ok:
			return m, tea.Println(hintStyle.Render("edit cancelled"))
		}

		return m, m.realize(msg.source)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	fn := detectCall(input, byteOffset(input, m.input.Position()))

	switch {
	case m.historyIdx < m.history.Len():
		b.WriteString(hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())))

	case strings.TrimSpace(input) == "":
		if m.mode == modeTemplate {
			b.WriteString(hintStyle.Render("Type a template or press Esc for commands"))
		} else {
			b.WriteString(hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (Esc to return)"))
		}

	case m.mode == modeTemplate && fn.inCall && len(m.matches) == 0:
		f, _ := m.session.env.Function(fn.name)
		b.WriteString(renderSignatureHint(f, fn.argIndex))

	case len(m.matches) > 0:
		b.WriteString(m.renderCandidateBar())
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress", slog.String("key", msg.String()))

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refreshMatches(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			m.tabActive = false
			m.refreshMatches(true)

			return m, nil
		}

		return m.submit()

	case tea.KeyTab:
		return m.cycle(+1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.walkHistory(-1, false), nil

	case tea.KeyDown:
		return m.walkHistory(+1, false), nil

	case tea.KeyShiftUp:
		return m.walkHistory(-1, true), nil

	case tea.KeyShiftDown:
		return m.walkHistory(+1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			m.refreshMatches(false)

			return m, nil
		}

		if m.mode == modeTemplate {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeTemplate), nil
	}

	var cmd tea.Cmd

	typed := msg.Type == tea.KeyRunes

	if typed && m.tabActive && msg.String() == " " {
		m.tabActive = false
	}

	if !typed {
		m.tabActive = false
	}

	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refreshMatches(typed)

	return m, cmd
}

// cycle moves the tab selection by step, starting a cycle if none is
// active. A single candidate is accepted at once.
func (m model) cycle(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		m.replaceWord(m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + n) % n
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0

		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	m.replaceWord(m.matches[m.suggIdx].Str)

	return m
}

// replaceWord replaces the word being completed with s.
func (m *model) replaceWord(s string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.wordStart] + s + input[m.wordEnd:])
	m.input.SetCursor(utf8.RuneCountInString(input[:m.wordStart] + s))
	m.wordEnd = m.wordStart + len(s)
}

// refreshMatches recomputes the completions. With autoConfirm, a word that
// already equals its only candidate is accepted.
func (m *model) refreshMatches(autoConfirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.stash = [2]string{}
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.DebugContext(m.ctxFunc(), "history write failed", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.command(input)
	}

	return m, tea.Sequence(
		tea.Println(promptStyle.Render(templatePrompt)+inputStyle.Render(input)),
		m.realize(input),
	)
}

// realize prints the realized line, or its errors. Under the null policy
// the output is printed along with the errors it replaced.
func (m model) realize(line string) tea.Cmd {
	out, err := m.session.realize(m.ctxFunc(), line)

	var parseErr *lang.ParseError

	switch {
	case err == nil:
		return tea.Println(resultStyle.Render(out))
	case errors.As(err, &parseErr):
		return tea.Println(errorStyle.Render(err.Error()))
	case out != "":
		return tea.Sequence(
			tea.Println(resultStyle.Render(out)),
			tea.Println(errorStyle.Render("error: "+err.Error())),
		)
	}

	return tea.Println(errorStyle.Render("error: " + err.Error()))
}

func (m model) command(input string) (model, tea.Cmd) {
	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))
	ctx := m.ctxFunc()

	m.logger.TraceContext(ctx, "repl command", slog.String("command", name))

	lines := func(ss []string) tea.Cmd {
		if len(ss) == 0 {
			return tea.Println(hintStyle.Render("(none)"))
		}

		return tea.Println("  " + strings.Join(ss, "\n  "))
	}

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage))

	case "names":
		return m, tea.Sequence(echo, lines(m.session.names()))

	case "vars":
		return m, tea.Sequence(echo, lines(m.session.variables()))

	case "set":
		key, value, _ := strings.Cut(rest, " ")
		if err := m.session.set(ctx, key, strings.TrimSpace(value)); err != nil {
			return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
		}

		return m, echo

	case "unset":
		m.session.unset(rest)

		return m, echo

	case "tree":
		tree, err := m.session.tree()
		if err != nil {
			return m, tea.Sequence(echo, tea.Println(errorStyle.Render(err.Error())))
		}

		return m, tea.Sequence(echo, tea.Println(tree))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())
	}

	return m, tea.Println(errorStyle.Render("unknown command: " + name + " (try 'help')"))
}

// edit opens the last template in the user's editor.
func (m model) edit() tea.Cmd {
	c := &editCommand{
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
		opts:    m.session.opts,
	}

	if m.session.last != nil {
		c.source = m.session.last.Source()
	}

	return tea.Exec(c, func(err error) tea.Msg {
		return editDoneMsg{source: c.source, ok: c.done, err: err}
	})
}

// walkHistory moves through history by step. With sameMode, entries from
// the other mode are skipped; otherwise the mode follows the entry.
// Walking past the newest entry clears the input.
func (m model) walkHistory(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil || (sameMode && entry.Mode != m.mode) {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.CursorEnd()
		m.refreshMatches(false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refreshMatches(false)
	}

	return m
}

// switchToMode changes mode, keeping the unsubmitted input of each mode.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == mode {
		return m
	}

	m.stash[m.mode] = m.input.Value()
	m.mode = mode

	if mode == modeTemplate {
		m.input.Prompt = promptStyle.Render(templatePrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.stash[mode])
	m.input.CursorEnd()
	m.refreshMatches(false)

	return m
}
