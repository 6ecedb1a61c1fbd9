package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/session"
)

func (m *Model) updatePractice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	engine := m.deps.Engine
	switch msg.Type {
	case tea.KeyEsc:
		engine.Leave(m.ctx)
		m.screen = screenPicker
		m.reloadLibraries()
		return m, nil
	case tea.KeyTab:
		engine.RevealHint()
		return m, nil
	case tea.KeyCtrlP:
		engine.Replay()
		return m, nil
	}

	if engine.State() == session.AwaitingDecision {
		switch msg.Type {
		case tea.KeyUp:
			return m, m.afterTransition(engine.Decide(m.ctx, true))
		case tea.KeyDown:
			return m, m.afterTransition(engine.Decide(m.ctx, false))
		}
		return m, nil
	}

	engine.HideHint()
	value := engine.Display()
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		runes := []rune(value)
		if len(runes) == 0 {
			return m, nil
		}
		value = string(runes[:len(runes)-1])
	case tea.KeySpace:
		value += " "
	case tea.KeyRunes:
		value += string(msg.Runes)
	default:
		return m, nil
	}
	_, fx := engine.Input(m.ctx, value)
	return m, m.afterTransition(fx)
}

func (m *Model) viewPractice() (string, string) {
	engine := m.deps.Engine
	item, ok := engine.Current()
	if !ok {
		return "", ""
	}
	lib := engine.Library()
	header := footerStyle.Render(fmt.Sprintf("%s · %s · %d/%d",
		lib.Name, engine.PracticeType(), engine.Index()+1, engine.Len()))

	var prompt string
	switch {
	case engine.PracticeType() == model.Translation:
		prompt = promptStyle.Render(item.Chinese)
	case engine.Answered():
		prompt = promptStyle.Render(item.Chinese)
	default:
		prompt = footerStyle.Render("Listen and type what you hear")
	}

	contentWidth := m.width * 7 / 10
	answer := wrapStyledRunes(
		buildStyledRunes([]rune(item.English), []rune(engine.Display()), engine.Chars(), engine.HintShown() || engine.Answered()),
		contentWidth,
	)

	lines := []string{header, "", prompt, "", answer}
	if engine.State() == session.AwaitingDecision {
		lines = append(lines, "", decisionStyle.Render("Got it right. ↑ remove from wrong answers · ↓ keep"))
	} else {
		lines = append(lines, "", footerStyle.Render(m.practiceKeys()))
	}

	footer := renderFooter(footerData{
		index:    engine.Index(),
		total:    engine.Len(),
		stats:    engine.Stats(),
		hasLast:  m.hasLast,
		lastAcc:  m.lastAcc,
		allAcc:   m.allAcc,
		sessions: m.sessions,
	})
	return lipgloss.JoinVertical(lipgloss.Center, lines...), footer
}

func (m *Model) practiceKeys() string {
	if m.deps.Engine.PracticeType() == model.Translation {
		return "tab hint · esc save and leave"
	}
	return "tab hint · ctrl+p replay · esc save and leave"
}
