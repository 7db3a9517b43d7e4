// Terminal dashboard for the Stafford GPT backend.
//
// Usage:
//
//	export API_BASE_URL="http://localhost:8000"
//	go run cmd/cli/main.go
//
// Keys:
//
//	tab     - Cycle between chat, uploads and documents
//	ctrl+t  - Toggle conversation mode (customer/internal)
//	ctrl+l  - Clear the active conversation
//	ctrl+r  - Refresh the document list
//	ctrl+d  - Remove the selected upload
//	ctrl+c  - Quit
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hishamahamad/stafford-gpt-ui/pkg/catalog"
	"github.com/hishamahamad/stafford-gpt-ui/pkg/chat"
	"github.com/hishamahamad/stafford-gpt-ui/pkg/config"
	"github.com/hishamahamad/stafford-gpt-ui/pkg/gateway"
	"github.com/hishamahamad/stafford-gpt-ui/pkg/upload"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	customerBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("4")).
			Padding(0, 1)

	internalBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("1")).
			Padding(0, 1)

	senderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	citationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).PaddingLeft(2)

	cursorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	selectedItemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	readyStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	phaseStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true).Padding(0, 1) // Red
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type view int

const (
	viewChat view = iota
	viewUploads
	viewDocuments
)

type errMsg struct{ err error }
type chatUpdateMsg chat.Mode
type uploadUpdateMsg string
type docsRefreshedMsg struct{}

type model struct {
	ctx      context.Context
	manager  *chat.Manager
	registry *upload.Registry
	docs     *catalog.View

	chatUpdates   <-chan chat.Mode
	uploadUpdates <-chan string

	view      view
	cursor    int // uploads list selection
	docFilter string
	width     int
	height    int
	err       error

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	progress progress.Model
	renderer *glamour.TermRenderer
}

func initialModel(ctx context.Context, manager *chat.Manager, registry *upload.Registry, docs *catalog.View) model {
	ta := textarea.New()
	ta.Placeholder = "Ask a question..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 500

	ta.SetWidth(80)
	ta.SetHeight(3)

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = senderStyle

	// Use "light" style to avoid terminal queries that leak into input
	r, _ := glamour.NewTermRenderer(
		glamour.WithStandardStyle("light"),
		glamour.WithWordWrap(80),
	)

	m := model{
		ctx:           ctx,
		manager:       manager,
		registry:      registry,
		docs:          docs,
		chatUpdates:   manager.Subscribe(),
		uploadUpdates: registry.Subscribe(),
		view:          viewChat,
		viewport:      vp,
		textarea:      ta,
		spinner:       sp,
		progress:      progress.New(progress.WithDefaultGradient()),
		renderer:      r,
	}
	m.viewport.SetContent(m.renderChat())
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		waitForChatUpdate(m.chatUpdates),
		waitForUploadUpdate(m.uploadUpdates),
		m.refreshDocs(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.textarea.SetWidth(msg.Width)
		m.viewport.Height = msg.Height - m.textarea.Height() - 4 // Header + footer + margin
		if m.viewport.Height < 0 {
			m.viewport.Height = 0
		}

		// Recreate renderer with new width
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithStandardStyle("light"),
			glamour.WithWordWrap(m.width-4),
		)
		m.progress.Width = m.width - 40
		if m.progress.Width < 10 {
			m.progress.Width = 10
		}
		m.viewport.SetContent(m.renderChat())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyTab:
			m.view = (m.view + 1) % 3
			m.cursor = 0
			m.err = nil
			switch m.view {
			case viewChat:
				m.textarea.Placeholder = "Ask a question..."
			case viewUploads:
				m.textarea.Placeholder = "Path to a file to upload..."
			case viewDocuments:
				m.textarea.Placeholder = "Filter documents..."
			}
			return m, nil

		case tea.KeyCtrlT:
			if m.view == viewChat {
				next := chat.ModeInternal
				if m.manager.Active() == chat.ModeInternal {
					next = chat.ModeCustomer
				}
				m.manager.SwitchMode(next)
				m.viewport.SetContent(m.renderChat())
				m.viewport.GotoBottom()
			}
			return m, nil

		case tea.KeyCtrlL:
			if m.view == viewChat {
				m.manager.Clear(m.manager.Active())
			}
			return m, nil

		case tea.KeyCtrlR:
			if m.view == viewDocuments {
				return m, m.refreshDocs()
			}
			return m, nil

		case tea.KeyCtrlD:
			if m.view == viewUploads {
				records := m.registry.Records()
				if m.cursor < len(records) {
					m.registry.Remove(records[m.cursor].ID)
				}
			}
			return m, nil

		case tea.KeyUp:
			if m.view == viewUploads {
				if m.cursor > 0 {
					m.cursor--
				}
				return m, nil
			}

		case tea.KeyDown:
			if m.view == viewUploads {
				if n := len(m.registry.Records()); m.cursor < n-1 {
					m.cursor++
				}
				return m, nil
			}

		case tea.KeyEnter:
			switch m.view {
			case viewChat:
				m.err = nil
				return m.submitQuery()
			case viewUploads:
				m.err = nil
				return m.submitFile()
			case viewDocuments:
				m.docFilter = strings.TrimSpace(m.textarea.Value())
				m.textarea.Reset()
				return m, nil
			}
		}

	case chatUpdateMsg:
		slog.Debug("TUI received chat update", "mode", chat.Mode(msg))
		if chat.Mode(msg) == m.manager.Active() {
			m.viewport.SetContent(m.renderChat())
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, waitForChatUpdate(m.chatUpdates))

	case uploadUpdateMsg:
		if n := len(m.registry.Records()); m.cursor >= n && n > 0 {
			m.cursor = n - 1
		}
		cmds = append(cmds, waitForUploadUpdate(m.uploadUpdates))

	case docsRefreshedMsg:
		// View() pulls from the catalog directly; nothing to store here.

	case spinner.TickMsg:
		var spCmd tea.Cmd
		m.spinner, spCmd = m.spinner.Update(msg)
		cmds = append(cmds, spCmd)
		if m.view == viewChat && m.manager.InFlight(m.manager.Active()) {
			m.viewport.SetContent(m.renderChat())
			m.viewport.GotoBottom()
		}

	case errMsg:
		m.err = msg.err
	}

	var tiCmd, vpCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, tiCmd, vpCmd)

	return m, tea.Batch(cmds...)
}

// Actions

func (m model) submitQuery() (model, tea.Cmd) {
	mode := m.manager.Active()
	text := m.textarea.Value()

	err := m.manager.Send(m.ctx, mode, text)
	switch err {
	case nil:
		m.textarea.Reset()
	case chat.ErrEmptyQuery, chat.ErrQueryInFlight:
		// Silent skip: keep whatever is typed, produce no message.
	default:
		m.err = err
	}
	return m, nil
}

func (m model) submitFile() (model, tea.Cmd) {
	path := strings.TrimSpace(m.textarea.Value())
	if path == "" {
		return m, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		m.err = fmt.Errorf("cannot read %s: %w", path, err)
		return m, nil
	}
	if info.IsDir() {
		m.err = fmt.Errorf("%s is a directory", path)
		return m, nil
	}

	m.textarea.Reset()
	m.registry.AddFiles([]upload.FileDescriptor{{Name: filepath.Base(path), Size: info.Size()}})
	return m, nil
}

func (m model) refreshDocs() tea.Cmd {
	return func() tea.Msg {
		if err := m.docs.Refresh(m.ctx); err != nil {
			slog.Error("Document refresh failed", "error", err)
		}
		return docsRefreshedMsg{}
	}
}

func waitForChatUpdate(ch <-chan chat.Mode) tea.Cmd {
	return func() tea.Msg {
		mode, ok := <-ch
		if !ok {
			return nil
		}
		return chatUpdateMsg(mode)
	}
}

func waitForUploadUpdate(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		id, ok := <-ch
		if !ok {
			return nil
		}
		return uploadUpdateMsg(id)
	}
}

// Rendering

func (m model) renderChat() string {
	var sb strings.Builder

	for _, msg := range m.manager.Messages(m.manager.Active()) {
		switch msg.Role {
		case chat.RoleUser:
			sb.WriteString(userStyle.Render("You: "))
		case chat.RoleAssistant:
			sb.WriteString(senderStyle.Render("Assistant: "))
		default:
			sb.WriteString(systemStyle.Render("System: "))
		}
		sb.WriteString("\n")

		if msg.Pending {
			sb.WriteString(m.spinner.View() + " thinking...\n")
			continue
		}

		content := msg.Content
		if msg.Role == chat.RoleAssistant && m.renderer != nil {
			if rendered, err := m.renderer.Render(msg.Content); err == nil {
				content = rendered
			}
		}
		sb.WriteString(content)
		sb.WriteString("\n")

		for _, c := range msg.Citations {
			line := fmt.Sprintf("├ %s (%.2f)", c.Source, c.Score)
			if c.Internal {
				line += " [internal]"
			}
			sb.WriteString(citationStyle.Render(line))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (m model) renderUploads() string {
	records := m.registry.Records()
	if len(records) == 0 {
		return systemStyle.Render("No uploads yet. Enter a file path below and press Enter.")
	}

	var lines []string
	for i, rec := range records {
		cursor := " "
		name := fmt.Sprintf("%s (%s)", rec.Name, humanSize(rec.Size))
		if i == m.cursor {
			cursor = ">"
			name = selectedItemStyle.Render(name)
		}

		var status string
		switch rec.Phase {
		case upload.PhaseReady:
			status = readyStyle.Render("ready")
		case upload.PhaseError:
			status = errorStyle.Render("error: " + rec.Error)
		default:
			status = fmt.Sprintf("%s %s",
				phaseStyle.Render(string(rec.Phase)),
				m.progress.ViewAs(float64(rec.Progress)/100))
		}

		lines = append(lines, fmt.Sprintf("%s %s  %s", cursorStyle.Render(cursor), name, status))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) renderDocuments() string {
	var banner string
	if err := m.docs.Err(); err != nil {
		banner = errorStyle.Render(fmt.Sprintf("Failed to load documents: %v", err)) + "\n\n"
	}

	docs := m.docs.Filter(m.docFilter, "", "")
	if len(docs) == 0 {
		note := "No documents."
		if m.docFilter != "" {
			note = fmt.Sprintf("No documents match %q.", m.docFilter)
		}
		return banner + systemStyle.Render(note)
	}

	var lines []string
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("%s  %s/%s  %d chunks  %s",
			selectedItemStyle.Render(d.Source),
			d.DocType, d.Namespace,
			d.ChunksCount,
			systemStyle.Render(d.CreatedAt.Format("2006-01-02"))))
	}

	header := fmt.Sprintf("%d of %d documents", len(docs), m.docs.Total())
	if m.docFilter != "" {
		header += fmt.Sprintf(" (filter: %q)", m.docFilter)
	}

	return banner + systemStyle.Render(header) + "\n\n" + lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) View() string {
	var errorView string
	if m.err != nil {
		errorView = errorStyle.Width(m.width).Render(fmt.Sprintf("Error: %v", m.err))
	}

	badge := customerBadge.Render("customer")
	if m.manager.Active() == chat.ModeInternal {
		badge = internalBadge.Render("internal")
	}

	switch m.view {
	case viewUploads:
		header := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("Stafford GPT - Uploads"))
		footer := footerStyle.Render("enter: add file  ctrl+d: remove  tab: next view  ctrl+c: quit")
		return lipgloss.JoinVertical(lipgloss.Left,
			header, "", m.renderUploads(), "", errorView, m.textarea.View(), footer)

	case viewDocuments:
		header := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("Stafford GPT - Documents"))
		footer := footerStyle.Render("enter: apply filter  ctrl+r: refresh  tab: next view  ctrl+c: quit")
		return lipgloss.JoinVertical(lipgloss.Left,
			header, "", m.renderDocuments(), "", errorView, m.textarea.View(), footer)
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("Stafford GPT - Chat"), " ", badge)
	footer := footerStyle.Render("enter: send  ctrl+t: switch mode  ctrl+l: clear  tab: next view  ctrl+c: quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header, "", m.viewport.View(), "", errorView, m.textarea.View(), footer)
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// --- Main ---

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Setup Logging
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer f.Close()

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel})
	slog.SetDefault(slog.New(handler))
	slog.Info("Logging initialized", "level", cfg.LogLevel, "baseURL", cfg.BaseURL)

	// 2. Wire up the backend client and state owners
	client := gateway.New(cfg.BaseURL)
	manager := chat.NewManager(client)
	registry := upload.NewRegistry(upload.DefaultConfig())
	docs := catalog.NewView(client)

	// 3. Start Program
	p := tea.NewProgram(initialModel(ctx, manager, registry, docs))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
