// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dictype/internal/library"
	"github.com/verte-zerg/dictype/internal/logger"
	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/progress"
	"github.com/verte-zerg/dictype/internal/session"
	"github.com/verte-zerg/dictype/internal/speech"
	"github.com/verte-zerg/dictype/internal/stats"
)

type screen int

const (
	screenPicker screen = iota
	screenResume
	screenPractice
	screenSummary
)

// Initializer is the audio subsystem's lifecycle hook.
type Initializer interface {
	Init()
}

// Deps holds the collaborators of the UI.
type Deps struct {
	Libraries   *library.Store
	Checkpoints *progress.Store
	Engine      *session.Engine
	Speech      speech.Speaker
	Audio       Initializer
	History     stats.History
	Logger      *logger.Logger
}

// Options holds startup choices.
type Options struct {
	PracticeType model.PracticeType
	Library      string
}

type promptMsg struct{ prompt session.Prompt }

type rollbackMsg struct{ rollback session.Rollback }

type advanceMsg struct{ advance session.Advance }

// Model implements the Bubble Tea practice UI.
type Model struct {
	deps Deps
	log  *logger.Logger
	ctx  context.Context

	screen       screen
	practiceType model.PracticeType
	width        int
	height       int
	status       string
	audioReady   bool

	libs        []model.Library
	table       table.Model
	importing   bool
	importInput textinput.Model
	confirmDel  string

	pending progress.Snapshot
	initCmd tea.Cmd

	lastAcc  float64
	allAcc   float64
	hasLast  bool
	sessions int
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	promptStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	decisionStyle    = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A"))
)

// NewModel constructs the practice UI. A checkpoint found at startup is
// offered for resumption before anything else.
func NewModel(deps Deps, opts Options) *Model {
	if deps.Speech == nil {
		deps.Speech = speech.Nop{}
	}
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}
	m := &Model{
		deps:         deps,
		log:          log.WithPrefix("tui"),
		ctx:          context.Background(),
		practiceType: opts.PracticeType,
		table:        newLibraryTable(),
		importInput:  newImportInput(),
	}
	if m.practiceType == "" {
		m.practiceType = model.Dictation
	}
	m.reloadLibraries()
	m.loadFooterStats()

	if snap, ok := deps.Checkpoints.Load(m.ctx); ok {
		m.pending = snap
		m.screen = screenResume
		return m
	}
	if opts.Library != "" {
		m.initCmd = m.selectLibrary(opts.Library)
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.initCmd
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTable()
		return m, nil
	case tea.BlurMsg:
		if m.screen == screenPractice {
			m.checkpoint()
		}
		return m, nil
	case promptMsg:
		m.deps.Engine.Speak(msg.prompt)
		return m, nil
	case rollbackMsg:
		m.deps.Engine.ApplyRollback(msg.rollback)
		return m, nil
	case advanceMsg:
		fx, ok := m.deps.Engine.Fire(m.ctx, msg.advance)
		if !ok {
			return m, nil
		}
		return m, m.afterTransition(fx)
	case tea.KeyMsg:
		m.initAudio()
		if msg.Type == tea.KeyCtrlC {
			if m.screen == screenPractice {
				m.checkpoint()
			}
			m.deps.Speech.Stop()
			return m, tea.Quit
		}
		switch m.screen {
		case screenResume:
			return m.updateResume(msg)
		case screenPractice:
			return m.updatePractice(msg)
		case screenSummary:
			return m.updateSummary(msg)
		default:
			return m.updatePicker(msg)
		}
	}
	if m.importing {
		var cmd tea.Cmd
		m.importInput, cmd = m.importInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var body, footer string
	switch m.screen {
	case screenResume:
		body = m.viewResume()
	case screenPractice:
		body, footer = m.viewPractice()
	case screenSummary:
		body = m.viewSummary()
	default:
		body = m.viewPicker()
	}
	if m.status != "" {
		body += "\n\n" + statusStyle.Render(m.status)
	}
	if m.width == 0 || m.height == 0 {
		if footer != "" {
			return body + "\n" + footer
		}
		return body
	}
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	main := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body)
	return main + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) updateResume(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r", "enter":
		fx := m.deps.Engine.Resume(m.ctx, m.pending)
		m.pending = progress.Snapshot{}
		m.status = ""
		return m, m.afterTransition(fx)
	case "n":
		libraryID, scope := m.pending.LibraryID, m.pending.PracticeScope
		practiceType := m.pending.PracticeType
		m.pending = progress.Snapshot{}
		if err := m.deps.Checkpoints.Clear(m.ctx); err != nil {
			m.log.Warn("%v", err)
		}
		return m, m.start(libraryID, practiceType, scope)
	case "esc":
		m.pending = progress.Snapshot{}
		m.screen = screenPicker
		return m, nil
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) viewResume() string {
	snap := m.pending
	name := snap.LibraryName
	if name == "" {
		name = snap.LibraryID
	}
	lines := []string{
		titleStyle.Render("Unfinished session"),
		"",
		fmt.Sprintf("%s · %s · item %d of %d", name, snap.PracticeType, snap.CurrentIndex+1, len(snap.Queue)),
		fmt.Sprintf("Correct %d  Missed %d  Saved %s", snap.Stats.CorrectItems, snap.Stats.WrongItems, snap.Timestamp.Local().Format(time.Kitchen)),
		"",
		footerStyle.Render("r resume · n start over · esc libraries"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// start begins a fresh session and switches to the practice screen.
func (m *Model) start(libraryID string, practiceType model.PracticeType, scope model.PracticeScope) tea.Cmd {
	fx, err := m.deps.Engine.Start(m.ctx, libraryID, practiceType, scope)
	if err != nil {
		m.screen = screenPicker
		m.status = startError(err)
		return nil
	}
	m.status = ""
	return m.afterTransition(fx)
}

func startError(err error) string {
	switch {
	case errors.Is(err, session.ErrEmptyWrongBook):
		return "No wrong answers to review yet."
	case errors.Is(err, session.ErrScopeMisuse):
		return "Wrong-answer review only works on the wrong-answer collection."
	case errors.Is(err, session.ErrNoLibrary):
		return "Pick a library first."
	default:
		return fmt.Sprintf("Cannot start: %v", err)
	}
}

// afterTransition switches screens to match the engine and schedules its effects.
func (m *Model) afterTransition(fx session.Effects) tea.Cmd {
	if m.deps.Engine.State() == session.Completed {
		m.screen = screenSummary
		m.reloadLibraries()
		m.loadFooterStats()
		return nil
	}
	m.screen = screenPractice
	return m.schedule(fx)
}

func (m *Model) schedule(fx session.Effects) tea.Cmd {
	var cmds []tea.Cmd
	if fx.Prompt != nil {
		p := *fx.Prompt
		cmds = append(cmds, tea.Tick(p.Delay, func(time.Time) tea.Msg { return promptMsg{prompt: p} }))
	}
	if fx.Rollback != nil {
		rb := *fx.Rollback
		cmds = append(cmds, tea.Tick(rb.Delay, func(time.Time) tea.Msg { return rollbackMsg{rollback: rb} }))
	}
	if fx.Advance != nil {
		adv := *fx.Advance
		switch adv.Wait {
		case session.AfterSpeech:
			speaker := m.deps.Speech
			ctx := m.ctx
			cmds = append(cmds, func() tea.Msg {
				<-speaker.SpeakAsync(ctx, adv.Text)
				return advanceMsg{advance: adv}
			})
		default:
			cmds = append(cmds, tea.Tick(adv.Delay, func(time.Time) tea.Msg { return advanceMsg{advance: adv} }))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) checkpoint() {
	if err := m.deps.Engine.Checkpoint(m.ctx); err != nil {
		m.log.Warn("checkpoint failed: %v", err)
	}
}

func (m *Model) initAudio() {
	if m.audioReady || m.deps.Audio == nil {
		return
	}
	m.deps.Audio.Init()
	m.audioReady = true
}

func (m *Model) loadFooterStats() {
	if m.deps.History == nil {
		return
	}
	sessions, err := m.deps.History.ListSessions(m.ctx, model.HistoryFilter{})
	if err != nil {
		m.log.Warn("failed to load session stats: %v", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastAcc = stats.SessionAccuracy(last.CorrectItems, last.WrongItems)
	m.hasLast = true
	var correct, wrong int
	for _, s := range sessions {
		correct += s.CorrectItems
		wrong += s.WrongItems
	}
	m.allAcc = stats.SessionAccuracy(correct, wrong)
	m.sessions = len(sessions)
}
