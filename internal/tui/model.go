package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"infobot/internal/history"
)

// Bot is the TUI-facing subset of the knowledge base service.
type Bot interface {
	QueryKnowledgeBase(ctx context.Context, query string) string
}

// quickQuestions are offered on Tab for users who don't know where to start.
var quickQuestions = []string{
	"What courses does KCT offer?",
	"Tell me about admissions",
	"What are the facilities?",
	"How is the placement record?",
	"What about hostel facilities?",
	"Tell me about faculty",
	"What are the fees?",
	"Campus life at KCT",
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	bot        Bot
	input      textinput.Model
	viewport   viewport.Model
	session    *history.Session
	historyDir string
	status     string
	quickIdx   int
	ready      bool
}

// New creates a chat model backed by the given bot.
func New(bot Bot, historyDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "e.g., What courses does KCT offer?"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		bot:        bot,
		input:      ti,
		viewport:   vp,
		session:    history.NewSession(),
		historyDir: historyDir,
		status:     "Ask me anything about Kumaraguru College of Technology. Tab cycles quick questions, Ctrl+L clears.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, qh := inputBoxStyle.GetFrameSize()
		_, ch := chatBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-chatBoxStyle.GetHorizontalFrameSize())
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			_ = history.Save(m.historyDir, m.session)
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.session.Append("user", q)
			reply := m.bot.QueryKnowledgeBase(context.Background(), q)
			m.session.Append("assistant", reply)
			m.input.SetValue("")
			m.status = "Tab cycles quick questions, Ctrl+L clears, Ctrl+C quits."
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, nil
		case "tab":
			m.input.SetValue(quickQuestions[m.quickIdx])
			m.input.CursorEnd()
			m.quickIdx = (m.quickIdx + 1) % len(quickQuestions)
			return m, nil
		case "ctrl+l":
			_ = history.Save(m.historyDir, m.session)
			m.session = history.NewSession()
			m.status = "Chat cleared."
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("KCT InfoBot") + "\n" +
		subtitleStyle.Render("Your assistant for Kumaraguru College of Technology")
	transcript := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.session.Messages) == 0 {
		return emptyStyle.Render("Your conversation will appear here...")
	}
	var b strings.Builder
	width := max(20, m.viewport.Width-4)
	for i, msg := range m.session.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.Role == "user" {
			b.WriteString(userHeaderStyle.Render("YOU ASKED  " + msg.Timestamp))
			b.WriteString("\n")
			b.WriteString(userMsgStyle.Width(width).Render(msg.Content))
		} else {
			b.WriteString(botHeaderStyle.Render("KCT ASSISTANT  " + msg.Timestamp))
			b.WriteString("\n")
			b.WriteString(botMsgStyle.Width(width).Render(msg.Content))
		}
	}
	return b.String()
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	chatBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	emptyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	userHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	userMsgStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	botHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	botMsgStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)
