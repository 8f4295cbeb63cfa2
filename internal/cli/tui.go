package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/mindmapper/pkg/storage"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// ArtifactListModel is the bubbletea model for picking a stored image.
type ArtifactListModel struct {
	Entries  []storage.Entry
	Cursor   int
	Selected *storage.Entry
	Height   int
	Offset   int
}

func newArtifactListModel(entries []storage.Entry) ArtifactListModel {
	return ArtifactListModel{Entries: entries, Height: 15}
}

func (m ArtifactListModel) Init() tea.Cmd { return nil }

func (m ArtifactListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "home", "g":
			m.move(-len(m.Entries))
		case "end", "G":
			m.move(len(m.Entries))
		case "enter":
			if m.Cursor < len(m.Entries) {
				picked := m.Entries[m.Cursor]
				m.Selected = &picked
			}
			return m, tea.Quit
		}
	}
	return m, nil
}

// move shifts the cursor by delta, clamped to the list, and scrolls the
// window so the cursor stays visible.
func (m *ArtifactListModel) move(delta int) {
	if len(m.Entries) == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Entries)-1)
	switch {
	case m.Cursor < m.Offset:
		m.Offset = m.Cursor
	case m.Cursor >= m.Offset+m.Height:
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m ArtifactListModel) rows(now time.Time) [][]string {
	end := min(m.Offset+m.Height, len(m.Entries))
	rows := make([][]string, 0, max(end-m.Offset, 0))
	for i, e := range m.Entries[m.Offset:end] {
		marker := "  "
		if m.Offset+i == m.Cursor {
			marker = "▸ "
		}
		rows = append(rows, []string{marker, truncate(e.Name, 40), humanSize(e.SizeBytes), formatAge(e.CreatedTime, now)})
	}
	return rows
}

func (m ArtifactListModel) View() string {
	selected := lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listDimStyle).
		Headers("", "Name", "Size", "Created").
		Rows(m.rows(time.Now())...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case m.Offset+row == m.Cursor:
				return selected
			case col >= 2:
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	return StyleTitle.Render("Pick an image") + "\n" +
		listDimStyle.Render("↑/↓ move  g/G first/last  ⏎ open  q quit") + "\n\n" +
		t.Render() + "\n\n" +
		listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Entries)))
}

// formatAge renders t relative to now for recent times and as a clock time
// otherwise.
func formatAge(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("Jan 2 15:04")
	}
}
