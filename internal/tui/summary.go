package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/stats"
)

// maxSummaryItems bounds the missed items listed after a session.
const maxSummaryItems = 8

func (m *Model) updateSummary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	engine := m.deps.Engine
	switch msg.String() {
	case "r":
		lib := engine.Library()
		return m, m.start(lib.ID, engine.PracticeType(), engine.Scope())
	case "w":
		return m, m.start(model.WrongLibraryID, engine.PracticeType(), model.ScopeWrong)
	case "q":
		return m, tea.Quit
	case "esc", "enter":
		m.screen = screenPicker
		m.reloadLibraries()
	}
	return m, nil
}

func (m *Model) viewSummary() string {
	engine := m.deps.Engine
	lib := engine.Library()
	if engine.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(lib.Name),
			"",
			"Nothing to practice here: the library has no sentences.",
			"",
			footerStyle.Render("esc libraries · q quit"),
		)
	}

	s := engine.Stats()
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s complete", lib.Name)),
		"",
		fmt.Sprintf("Correct   %d", s.CorrectItems),
		fmt.Sprintf("Missed    %d", s.WrongItems),
		fmt.Sprintf("Accuracy  %.1f%%", stats.SessionAccuracy(s.CorrectItems, s.WrongItems)*100),
	}
	wrong := engine.WrongThisSession()
	if len(wrong) > 0 {
		lines = append(lines, "", promptStyle.Render("To review"))
		for i, item := range wrong {
			if i == maxSummaryItems {
				lines = append(lines, footerStyle.Render(fmt.Sprintf("… and %d more", len(wrong)-i)))
				break
			}
			lines = append(lines, fmt.Sprintf("%s  %s", item.English, footerStyle.Render(item.Chinese)))
		}
	}
	lines = append(lines, "", footerStyle.Render("r again · w review wrong answers · esc libraries · q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
