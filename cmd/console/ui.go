package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/fairytale-engine/internal/bot"
	"github.com/jwebster45206/fairytale-engine/internal/handlers"
)

const (
	AgentName       = "Storyteller"
	PlaceHolderText = "Type a command, e.g. /randomize or /continue ..."
)

type entryRole int

const (
	roleUser entryRole = iota
	roleBot
	roleInfo
	roleError
)

type entry struct {
	role    entryRole
	content string
}

// ConsoleUI is the BubbleTea model for the story console. The left panel is
// the conversation, the right panel shows the user's profile.
type ConsoleUI struct {
	config    *ConsoleConfig
	client    *http.Client
	profile   *handlers.ProfileView
	history   []entry
	lastReply string

	chat     viewport.Model
	meta     viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	ready    bool
	width    int
	height   int
	waiting  bool
	quitting bool
	// fetched is set once the API answered a profile request.
	fetched bool
}

type commandReplyMsg struct {
	reply *bot.Reply
	err   error
}

type profileMsg struct {
	profile *handlers.ProfileView
	err     error
}

var (
	chatPanelStyle = lipgloss.NewStyle().Padding(2, 0, 1, 3)
	metaPanelStyle = lipgloss.NewStyle().Padding(2, 2, 0, 0)

	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	botStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	youStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(1, 2).
			Width(50)
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	in := textarea.New()
	in.Placeholder = PlaceHolderText
	in.Prompt = dimStyle.Render("> ")
	// room for a full-length topic after /set_topic
	in.CharLimit = 600
	in.ShowLineNumbers = false
	in.SetHeight(2)
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle

	chat := viewport.New(50, 20)
	chat.MouseWheelEnabled = true

	return ConsoleUI{
		config:  cfg,
		client:  client,
		input:   in,
		spinner: sp,
		chat:    chat,
		meta:    viewport.New(20, 20),
	}
}

// panelWidths splits the terminal between the chat and profile panels.
func (m ConsoleUI) panelWidths() (chat, meta int) {
	chat = m.width*3/4 - 4
	meta = m.width - chat - 6
	return chat, meta
}

func (m *ConsoleUI) resize(width, height int) {
	m.width, m.height = width, height
	chatWidth, metaWidth := m.panelWidths()

	m.chat.Width = chatWidth - 2
	m.chat.Height = height - 7
	m.meta.Width = metaWidth - 2
	m.meta.Height = height - 4
	m.input.SetWidth(chatWidth - 4)
	m.ready = true
}

func renderProfile(p *handlers.ProfileView, fetched bool, userID string) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("STORY") + "\n\n")
	b.WriteString("User:\n" + userID + "\n\n")

	if p == nil {
		if fetched {
			b.WriteString(dimStyle.Render("No story yet. Try /randomize.") + "\n")
		} else {
			b.WriteString(busyStyle.Render("Loading profile...") + "\n")
		}
		return b.String()
	}

	field := func(label, value string) {
		if value == "" {
			value = dimStyle.Render("not set")
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", label, value)
	}
	field("Topic", p.Params.Topic)
	field("Moral", p.Params.Moral)
	field("Author", p.Params.Author)
	field("Progress", fmt.Sprintf("%s, stage %d/%d", p.State, p.StageCursor, p.TotalStages))
	field("Plan", fmt.Sprintf("%s (%s)\nusage %d/%d", p.Settings.Tier, p.Settings.ModelName, p.UsageCount, p.Settings.UsageLimit))
	field("Archive", fmt.Sprintf("%d stories", p.ArchiveCount))

	b.WriteString("Keys:\n")
	b.WriteString("• Enter: send\n")
	b.WriteString("• Ctrl+Y: copy last reply\n")
	b.WriteString("• Esc: quit\n")
	b.WriteString("• /help: commands\n")
	return b.String()
}

// refreshChat re-renders the conversation for the current panel width.
func (m *ConsoleUI) refreshChat() {
	width := m.chat.Width - 6

	var b strings.Builder
	b.WriteString(headingStyle.Render("FAIRYTALE ENGINE") + "\n\n")
	b.WriteString("Use /randomize to start a random story, or /help for all commands.\n\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", max(width-6, 1))) + "\n\n")

	for _, e := range m.history {
		switch e.role {
		case roleUser:
			b.WriteString(youStyle.Render("You: ") + wordwrap.String(e.content, width-5))
		case roleBot:
			prefix := AgentName + ": "
			b.WriteString(botStyle.Render(prefix) + wordwrap.String(e.content, width-len(prefix)))
		case roleInfo:
			b.WriteString(noteStyle.Render(wordwrap.String(e.content, width)))
		case roleError:
			b.WriteString(failStyle.Render("Error: " + e.content))
		}
		b.WriteString("\n\n")
	}

	if m.waiting {
		b.WriteString(m.spinner.View() + busyStyle.Render(" "+AgentName+" is writing...") + "\n")
	}

	m.chat.SetContent(b.String())
	m.chat.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.fetchProfile())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m.updateQuitDialog(msg)
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshChat()
		m.meta.SetContent(renderProfile(m.profile, m.fetched, m.config.UserID))

	case tea.MouseMsg:
		var chatCmd, metaCmd tea.Cmd
		m.chat, chatCmd = m.chat.Update(msg)
		m.meta, metaCmd = m.meta.Update(msg)
		return m, tea.Batch(chatCmd, metaCmd)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, nil
		case tea.KeyCtrlY:
			m.copyLastReply()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		}

	case commandReplyMsg:
		m.waiting = false
		if msg.err != nil {
			m.history = append(m.history, entry{role: roleError, content: msg.err.Error()})
		} else {
			m.applyReply(msg.reply)
		}
		m.refreshChat()
		return m, m.fetchProfile()

	case profileMsg:
		if msg.err == nil {
			m.profile = msg.profile
			m.fetched = true
		}
		m.meta.SetContent(renderProfile(m.profile, m.fetched, m.config.UserID))

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.refreshChat()
			cmds = append(cmds, cmd)
		}
	}

	var inputCmd, chatCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.chat, chatCmd = m.chat.Update(msg)
	cmds = append(cmds, inputCmd, chatCmd)

	return m, tea.Batch(cmds...)
}

// submit sends the typed line to the API. /quit and /clear stay local.
func (m ConsoleUI) submit() (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	m.input.Reset()

	switch strings.ToLower(line) {
	case "/quit", "/exit":
		m.quitting = true
		return m, nil
	case "/clear":
		m.history = nil
		m.refreshChat()
		return m, nil
	}

	m.history = append(m.history, entry{role: roleUser, content: line})
	m.waiting = true
	m.refreshChat()
	return m, tea.Batch(m.postCommand(line), m.spinner.Tick)
}

func (m *ConsoleUI) applyReply(reply *bot.Reply) {
	for _, msg := range reply.Messages {
		if msg == bot.GeneratingMessage {
			m.history = append(m.history, entry{role: roleInfo, content: msg})
			continue
		}
		m.history = append(m.history, entry{role: roleBot, content: msg})
		m.lastReply = msg
	}

	if reply.Attachment == nil {
		return
	}
	path, err := saveAttachment(m.config.ArchiveDir, reply.Attachment)
	if err != nil {
		m.history = append(m.history, entry{role: roleError, content: err.Error()})
		return
	}
	m.history = append(m.history, entry{role: roleInfo, content: "Saved " + reply.Attachment.Filename + " to " + path})
	m.lastReply = reply.Attachment.Content
}

func (m *ConsoleUI) copyLastReply() {
	if m.lastReply == "" {
		return
	}
	if err := clipboard.WriteAll(m.lastReply); err != nil {
		m.history = append(m.history, entry{role: roleError, content: "clipboard unavailable: " + err.Error()})
	} else {
		m.history = append(m.history, entry{role: roleInfo, content: "Copied the last reply to the clipboard."})
	}
	m.refreshChat()
}

func (m ConsoleUI) postCommand(line string) tea.Cmd {
	return func() tea.Msg {
		reply, err := sendCommand(m.client, m.config.APIBaseURL, m.config.UserID, line)
		return commandReplyMsg{reply: reply, err: err}
	}
}

func (m ConsoleUI) fetchProfile() tea.Cmd {
	return func() tea.Msg {
		p, err := getProfile(m.client, m.config.APIBaseURL, m.config.UserID)
		return profileMsg{profile: p, err: err}
	}
}

func (m ConsoleUI) updateQuitDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "y", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.quitting = false
		return m, textarea.Blink
	}
	return m, nil
}

func (m ConsoleUI) View() string {
	if m.quitting {
		if m.width == 0 || m.height == 0 {
			return "Loading..."
		}
		body := lipgloss.JoinVertical(lipgloss.Center,
			headingStyle.Render("Quit?"),
			"",
			"Your story stays on the server until it is reset.",
			"",
			dimStyle.Render("Y to quit, N to keep writing"),
		)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialogStyle.Render(body))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth, metaWidth := m.panelWidths()
	left := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chat.View(),
			"",
			dimStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.input.View(),
		),
	)
	right := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.meta.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}
