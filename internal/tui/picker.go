package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dictype/internal/importer"
	"github.com/verte-zerg/dictype/internal/model"
)

const pickerTableHeight = 10

func newLibraryTable() table.Model {
	columns := []table.Column{
		{Title: "Library", Width: 28},
		{Title: "Sentences", Width: 10},
		{Title: "Words", Width: 6},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(pickerTableHeight),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#6E6E6E")).
		BorderBottom(true).
		Bold(true)
	styles.Cell = styles.Cell.Foreground(lipgloss.Color("#F0F0F0"))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A")).
		Bold(false)
	t.SetStyles(styles)
	return t
}

func newImportInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "File: "
	input.Placeholder = "path to .json or .txt"
	input.CharLimit = 512
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) resizeTable() {
	if m.width <= 0 {
		return
	}
	width := min(m.width-4, 60)
	if width < 30 {
		width = 30
	}
	m.table.SetWidth(width)
	m.importInput.Width = width - len(m.importInput.Prompt) - 1
}

func (m *Model) reloadLibraries() {
	libs, err := m.deps.Libraries.Libraries(m.ctx)
	if err != nil {
		m.log.Error("failed to load libraries: %v", err)
		m.status = fmt.Sprintf("Cannot load libraries: %v", err)
		return
	}
	m.libs = libs
	rows := make([]table.Row, 0, len(libs))
	for _, lib := range libs {
		rows = append(rows, table.Row{
			lib.Name,
			strconv.Itoa(lib.CountType(model.ItemSentence)),
			strconv.Itoa(lib.CountType(model.ItemWord)),
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *Model) selectedLibrary() (model.Library, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.libs) {
		return model.Library{}, false
	}
	return m.libs[idx], true
}

// selectLibrary starts practice on id, offering to resume a saved session of
// the same library first.
func (m *Model) selectLibrary(id string) tea.Cmd {
	if snap, ok := m.deps.Checkpoints.Load(m.ctx); ok && snap.LibraryID == id {
		m.pending = snap
		m.screen = screenResume
		return nil
	}
	return m.start(id, m.practiceType, model.ScopeLibrary)
}

func (m *Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.importing {
		return m.updateImport(msg)
	}
	if m.confirmDel != "" {
		id := m.confirmDel
		m.confirmDel = ""
		if msg.String() == "y" {
			if err := m.deps.Libraries.DeleteLibrary(m.ctx, id); err != nil {
				m.status = fmt.Sprintf("Cannot delete: %v", err)
			} else {
				m.status = ""
			}
			m.reloadLibraries()
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		lib, ok := m.selectedLibrary()
		if !ok {
			return m, nil
		}
		return m, m.selectLibrary(lib.ID)
	case "w":
		return m, m.start(model.WrongLibraryID, m.practiceType, model.ScopeWrong)
	case "t":
		if m.practiceType == model.Translation {
			m.practiceType = model.Dictation
		} else {
			m.practiceType = model.Translation
		}
		return m, nil
	case "i":
		m.importing = true
		m.importInput.Reset()
		m.status = ""
		return m, m.importInput.Focus()
	case "d":
		lib, ok := m.selectedLibrary()
		if !ok {
			return m, nil
		}
		if lib.IsWrongLibrary() {
			m.status = "The wrong-answer collection cannot be deleted."
			return m, nil
		}
		m.confirmDel = lib.ID
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) updateImport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.importing = false
		m.importInput.Blur()
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.importInput.Value())
		m.importing = false
		m.importInput.Blur()
		if path == "" {
			return m, nil
		}
		m.status = m.importFile(path)
		m.reloadLibraries()
		return m, nil
	}
	var cmd tea.Cmd
	m.importInput, cmd = m.importInput.Update(msg)
	return m, cmd
}

func (m *Model) importFile(path string) string {
	libs, err := importer.ReadLibraryFile(path, "")
	if err != nil {
		m.log.Warn("import %s failed: %v", path, err)
		return fmt.Sprintf("Import failed: %v", err)
	}
	res, err := m.deps.Libraries.Import(m.ctx, libs)
	if err != nil {
		return fmt.Sprintf("Import failed: %v", err)
	}
	msg := fmt.Sprintf("Imported %d libraries, %d items", res.Libraries, res.Items)
	if res.WrongItems > 0 {
		msg += fmt.Sprintf(", %d wrong answers", res.WrongItems)
	}
	if len(res.Skipped) > 0 {
		msg += fmt.Sprintf(" (skipped existing: %s)", strings.Join(res.Skipped, ", "))
	}
	m.log.Info("%s from %s", msg, path)
	return msg
}

func (m *Model) viewPicker() string {
	lines := []string{
		titleStyle.Render("dictype"),
		"",
		m.table.View(),
		"",
	}
	switch {
	case m.importing:
		lines = append(lines, m.importInput.View(), footerStyle.Render("enter import · esc cancel"))
	case m.confirmDel != "":
		name := m.confirmDel
		if lib, ok := m.selectedLibrary(); ok {
			name = lib.Name
		}
		lines = append(lines, promptStyle.Render(fmt.Sprintf("Delete %q? y/n", name)))
	default:
		lines = append(lines,
			fmt.Sprintf("Mode: %s", promptStyle.Render(string(m.practiceType))),
			footerStyle.Render("enter practice · w review wrong answers · t switch mode · i import · d delete · q quit"),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
