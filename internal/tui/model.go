package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/chat"
	"github.com/diogo/researchcopilot/internal/config"
	apierrors "github.com/diogo/researchcopilot/internal/errors"
	"github.com/diogo/researchcopilot/internal/history"
	"github.com/diogo/researchcopilot/internal/models"
	"github.com/diogo/researchcopilot/internal/render"
	"github.com/diogo/researchcopilot/internal/stream"
)

const (
	sidebarWidth   = 28
	headerHeight   = 4
	inputHeight    = 6
	statusHeight   = 1
	layoutPadding  = 2
	maxPickerItems = 8
)

// Message types for the TUI
type (
	projectsLoadedMsg struct {
		projects []models.Project
		err      error
	}
	messagesLoadedMsg struct {
		projectID string
		messages  []models.Message
		err       error
	}
	projectCreatedMsg struct {
		project *models.Project
		err     error
	}
	streamFragmentMsg struct {
		id     uint64
		text   string
		events <-chan tea.Msg
	}
	streamDoneMsg struct {
		id     uint64
		result stream.Result
		err    error
	}
	personasLoadedMsg struct {
		personas []config.Persona
		err      error
	}
)

// Options configures a chat session
type Options struct {
	// InitialProject is a project reference (name, ID, index or @last)
	// selected once the list arrives
	InitialProject string
	Persona        *config.Persona
	Render         render.Options
	Personas       PersonaStore
}

// Model represents the TUI state
type Model struct {
	ctx    context.Context
	client api.BackendClient
	state  *chat.State
	opts   Options

	// UI components
	viewport  viewport.Model
	textarea  textarea.Model
	spinner   spinner.Model
	nameInput textinput.Model

	// Stream plumbing
	events       <-chan tea.Msg
	cancelStream context.CancelFunc

	creatingProject bool
	initialApplied  bool
	sessionExpired  bool
	notice          string

	// Persona picker
	personaName      string
	selectingPersona bool
	personasLoading  bool
	personaList      []config.Persona
	personaCursor    int
	personaFilter    string

	ready  bool
	width  int
	height int
}

// NewModel creates a chat model bound to client
func NewModel(ctx context.Context, client api.BackendClient, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Escribí tu mensaje..."
	ta.CharLimit = 8000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	ti := textinput.New()
	ti.Placeholder = "Nombre del proyecto"
	ti.CharLimit = 120

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	if opts.Personas == nil {
		opts.Personas = NewPersonaStore()
	}
	if opts.Render.Style == "" {
		opts.Render = render.DefaultOptions()
	}

	state := chat.NewState()
	state.BeginLoadProjects()

	m := Model{
		ctx:         ctx,
		client:      client,
		state:       state,
		opts:        opts,
		textarea:    ta,
		nameInput:   ti,
		spinner:     s,
		personaName: config.DefaultPersonaName,
	}
	if opts.Persona != nil {
		m.applyPersona(*opts.Persona)
	}
	return m
}

// State exposes the view model, mainly for tests
func (m Model) State() *chat.State {
	return m.state
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.loadProjects(),
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.selectingPersona {
		return m.updatePersonaSelection(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.creatingProject {
			return m.updateProjectName(msg)
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case projectsLoadedMsg:
		if msg.err != nil {
			m.state.FailLoadProjects(msg.err)
			m.noteAuth(msg.err)
			break
		}
		selected := m.state.SetProjects(msg.projects)
		if !m.initialApplied {
			m.initialApplied = true
			if m.selectInitial() {
				selected = true
			}
		}
		if selected {
			cmds = append(cmds, m.loadMessages())
		}
		m.refresh()

	case messagesLoadedMsg:
		if msg.err != nil {
			m.state.FailLoadMessages(msg.projectID, msg.err)
			m.noteAuth(msg.err)
		} else if m.state.SetMessages(msg.projectID, msg.messages) {
			m.refresh()
			m.viewport.GotoBottom()
		}

	case projectCreatedMsg:
		if msg.err != nil {
			m.state.SetError(msg.err)
			m.noteAuth(msg.err)
			break
		}
		m.abortStream()
		m.state.AddProject(*msg.project)
		m.refresh()

	case streamFragmentMsg:
		if !m.state.ApplyFragment(msg.id, msg.text) {
			return m, nil
		}
		m.refresh()
		m.viewport.GotoBottom()
		return m, waitForStreamEvent(msg.events)

	case streamDoneMsg:
		err := msg.err
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if m.state.FinishStream(msg.id, err) {
			slog.Debug("stream_finished", "fragments", msg.result.Fragments, "sentinels", msg.result.Sentinels, "error", err)
			m.noteAuth(err)
			m.releaseStream()
			m.refresh()
			m.viewport.GotoBottom()
		}

	case spinner.TickMsg:
		if m.busy() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if _, ok := msg.(tea.KeyMsg); ok && !m.state.Streaming {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes shortcuts. handled is false when the key should reach
// the textarea.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.abortStream()
		return m, tea.Quit, true

	case "esc":
		if m.state.Streaming {
			id := m.state.StreamID()
			m.abortStream()
			m.state.FinishStream(id, nil)
			m.refresh()
			return m, nil, true
		}
		return m, tea.Quit, true

	case "ctrl+n":
		m.creatingProject = true
		m.nameInput.SetValue("")
		m.textarea.Blur()
		cmd := m.nameInput.Focus()
		return m, cmd, true

	case "ctrl+r":
		m.state.BeginLoadProjects()
		return m, tea.Batch(m.loadProjects(), m.spinner.Tick), true

	case "ctrl+p":
		cmd := m.openPersonaPicker()
		return m, cmd, true

	case "ctrl+y":
		m.copyLastReply()
		return m, nil, true

	case "tab":
		cmd := m.cycleProject(1)
		return m, cmd, true

	case "shift+tab":
		cmd := m.cycleProject(-1)
		return m, cmd, true

	case "enter":
		cmd := m.submit()
		return m, cmd, true
	}
	return m, nil, false
}

// submit sends the textarea content, or runs a slash command
func (m *Model) submit() tea.Cmd {
	input := strings.TrimSpace(m.textarea.Value())
	switch input {
	case "/exit", "/quit":
		m.abortStream()
		return tea.Quit
	case "/persona", "/personas":
		m.textarea.Reset()
		return m.openPersonaPicker()
	case "/new":
		m.textarea.Reset()
		m.creatingProject = true
		m.textarea.Blur()
		return m.nameInput.Focus()
	}

	send, ok := m.state.BeginSend(input)
	if !ok {
		return nil
	}
	m.textarea.Reset()
	m.notice = ""
	m.state.OpenReply(send.StreamID)
	m.refresh()
	m.viewport.GotoBottom()

	return tea.Batch(m.startStream(send), m.spinner.Tick)
}

// startStream runs the request on a goroutine and forwards every fragment
// through a channel drained by waitForStreamEvent
func (m *Model) startStream(send chat.Send) tea.Cmd {
	m.abortStreamContext()
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelStream = cancel
	m.events = streamReply(ctx, m.client, send)
	return waitForStreamEvent(m.events)
}

func streamReply(ctx context.Context, client api.BackendClient, send chat.Send) <-chan tea.Msg {
	events := make(chan tea.Msg)
	go func() {
		defer close(events)
		res, err := client.StreamChat(ctx, send.Request, func(ev stream.Event) {
			select {
			case events <- streamFragmentMsg{id: send.StreamID, text: ev.Text, events: events}:
			case <-ctx.Done():
			}
		})
		select {
		case events <- streamDoneMsg{id: send.StreamID, result: res, err: err}:
		case <-ctx.Done():
		}
	}()
	return events
}

func waitForStreamEvent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// abortStream stops the running request without touching the state
func (m *Model) abortStream() {
	m.abortStreamContext()
	m.events = nil
}

func (m *Model) abortStreamContext() {
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
}

func (m *Model) releaseStream() {
	m.cancelStream = nil
	m.events = nil
}

func (m *Model) cycleProject(delta int) tea.Cmd {
	n := len(m.state.Projects)
	if n == 0 {
		return nil
	}
	idx := 0
	for i, p := range m.state.Projects {
		if p.ID == m.state.ActiveID {
			idx = i
			break
		}
	}
	next := m.state.Projects[(idx+delta+n)%n]
	if next.ID == m.state.ActiveID {
		return nil
	}
	m.abortStream()
	if !m.state.Select(next.ID) {
		return nil
	}
	m.refresh()
	return m.loadMessages()
}

func (m *Model) selectInitial() bool {
	if m.opts.InitialProject == "" {
		return false
	}
	p, err := history.ResolveIn(m.state.Projects, m.opts.InitialProject)
	if err != nil {
		m.notice = err.Error()
		return false
	}
	return m.state.Select(p.ID)
}

func (m Model) updateProjectName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.abortStream()
		return m, tea.Quit
	case "esc":
		m.creatingProject = false
		m.nameInput.Blur()
		cmd := m.textarea.Focus()
		return m, cmd
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		m.creatingProject = false
		m.nameInput.Blur()
		cmd := m.textarea.Focus()
		return m, tea.Batch(m.createProject(name), cmd)
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) loadProjects() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		projects, err := client.ListProjects(ctx)
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

func (m *Model) loadMessages() tea.Cmd {
	projectID := m.state.ActiveID
	if projectID == "" {
		return nil
	}
	m.state.BeginLoadMessages()
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		msgs, err := client.ListMessages(ctx, projectID)
		return messagesLoadedMsg{projectID: projectID, messages: msgs, err: err}
	}
}

func (m Model) createProject(name string) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		p, err := client.CreateProject(ctx, name)
		return projectCreatedMsg{project: p, err: err}
	}
}

// noteAuth signs the view out after a 401. The error banner is kept.
func (m *Model) noteAuth(err error) {
	if !apierrors.IsAuthError(err) {
		return
	}
	m.sessionExpired = true
	m.abortStream()
	m.state.Reset()
	m.refresh()
}

func (m *Model) copyLastReply() {
	msgs := m.state.Transcript.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != models.RoleAssistant {
			continue
		}
		if err := clipboard.WriteAll(msgs[i].Content); err != nil {
			m.notice = "No se pudo copiar: " + err.Error()
		} else {
			m.notice = "Respuesta copiada"
		}
		return
	}
}

func (m Model) busy() bool {
	return m.state.Streaming || m.state.LoadingProjects || m.state.LoadingMessages
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := max(height-headerHeight-inputHeight-statusHeight-layoutPadding, 5)
	contentWidth := m.mainWidth()

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.nameInput.Width = contentWidth - 8
	m.refresh()
}

func (m Model) mainWidth() int {
	return max(m.width-sidebarWidth-6, 20)
}

// refresh rebuilds the viewport from the transcript
func (m *Model) refresh() {
	var content strings.Builder
	bubbleWidth := max(m.viewport.Width-6, 10)
	msgs := m.state.Transcript.Publish()
	streamingLast := m.state.Transcript.IsOpen()

	opts := m.opts.Render
	opts.Width = bubbleWidth - 4

	for i, msg := range msgs {
		if i > 0 {
			content.WriteString("\n")
		}
		text := msg.Content
		switch {
		case msg.Role != models.RoleAssistant:
		case streamingLast && i == len(msgs)-1:
			if text == "" {
				text = m.spinner.View()
			}
		default:
			text = render.Reply(text, opts)
		}
		content.WriteString(roleLabel(msg.Role) + "\n")
		content.WriteString(bubbleStyle(msg.Role).Width(bubbleWidth).Render(text))
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Iniciando...")
	}
	if m.selectingPersona {
		return m.renderPersonaPicker()
	}

	contentWidth := m.mainWidth()
	var sections []string

	sections = append(sections, headerStyle.Width(contentWidth).Render(m.renderHeader()))

	var messagesContent string
	switch {
	case m.state.LoadingMessages:
		messagesContent = loadingStyle.Render(m.spinner.View() + " Cargando historial...")
	case m.state.Transcript.Len() == 0:
		messagesContent = m.renderWelcome()
	default:
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(m.renderInput()))
	sections = append(sections, m.renderStatusBar(contentWidth))

	if banner := m.renderBanner(); banner != "" {
		sections = append(sections, banner)
	}

	main := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), main)
}

func (m Model) renderHeader() string {
	parts := []string{titleStyle.Render("✦ Research Copilot")}
	if p := m.state.Active(); p != nil {
		parts = append(parts, hintStyle.Render("  •  "), subtitleStyle.Render(p.Name))
	}
	if m.personaName != "" && m.personaName != config.DefaultPersonaName {
		parts = append(parts, hintStyle.Render("  •  "), subtitleStyle.Render("persona: "+m.personaName))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (m Model) renderSidebar() string {
	inner := sidebarWidth - 4
	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Proyectos"))
	b.WriteString("\n")

	switch {
	case m.state.LoadingProjects && len(m.state.Projects) == 0:
		b.WriteString(loadingStyle.Render(m.spinner.View() + " Cargando"))
	case len(m.state.Projects) == 0:
		b.WriteString(hintStyle.Render("Sin proyectos.\nctrl+n para crear uno"))
	default:
		for _, p := range m.state.Projects {
			name := runewidth.Truncate(p.Name, inner-2, "…")
			if p.ID == m.state.ActiveID {
				b.WriteString(cursorStyle.Render("▸ ") + sidebarSelectedStyle.Render(name))
			} else {
				b.WriteString("  " + sidebarItemStyle.Render(name))
			}
			b.WriteString("\n")
		}
	}

	return sidebarStyle.
		Width(sidebarWidth - 2).
		Height(max(m.height-2, 3)).
		Render(b.String())
}

func (m Model) renderInput() string {
	if m.creatingProject {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("Nuevo proyecto"),
			m.nameInput.View(),
		)
	}
	if m.state.Streaming {
		return loadingStyle.Render(m.spinner.View() + " Copilot está respondiendo...")
	}
	label := "Vos"
	if m.state.Active() == nil {
		label = "Elegí o creá un proyecto para chatear"
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		inputLabelStyle.Render(label),
		m.textarea.View(),
	)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := max(m.viewport.Width-4, 10)

	subtitle := "Escribí un mensaje para empezar"
	if m.state.Active() == nil {
		subtitle = "Creá un proyecto con ctrl+n"
	}
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		welcomeIconStyle.Width(width).Render("✦"),
		"",
		welcomeTitleStyle.Width(width).Render("Research Copilot"),
		"",
		hintStyle.Width(width).Align(lipgloss.Center).Render(subtitle),
	)

	topPadding := max((m.viewport.Height-lipgloss.Height(content))/2, 0)
	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Enviar"},
		{"Tab", "Proyecto"},
		{"^N", "Nuevo"},
		{"^P", "Persona"},
		{"^R", "Recargar"},
		{"Esc", "Salir"},
	}
	if m.state.Streaming {
		shortcuts[len(shortcuts)-1].desc = "Detener"
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

func (m Model) renderBanner() string {
	var lines []string
	if m.state.Err != "" {
		lines = append(lines, bannerStyle.Render("⚠ "+m.state.Err))
	}
	if m.sessionExpired {
		lines = append(lines, hintStyle.PaddingLeft(2).Render("Ejecutá 'researchcopilot login' para volver a ingresar"))
	}
	if m.notice != "" {
		lines = append(lines, hintStyle.PaddingLeft(1).Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

// openPersonaPicker shows the persona overlay and loads the list
func (m *Model) openPersonaPicker() tea.Cmd {
	m.selectingPersona = true
	m.personasLoading = true
	m.personaCursor = 0
	m.personaFilter = ""
	store := m.opts.Personas
	return func() tea.Msg {
		personas, err := store.List()
		return personasLoadedMsg{personas: personas, err: err}
	}
}

func (m *Model) applyPersona(p config.Persona) {
	m.personaName = p.Name
	m.state.SystemPrompt = ""
	if sys, ok := p.SystemMessage(); ok {
		m.state.SystemPrompt = sys.Content
	}
}

// updatePersonaSelection handles updates when the persona picker is open
func (m Model) updatePersonaSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case personasLoadedMsg:
		m.personasLoading = false
		if msg.err != nil {
			m.selectingPersona = false
			m.state.SetError(msg.err)
		} else {
			m.personaList = msg.personas
		}

	case streamFragmentMsg, streamDoneMsg, projectsLoadedMsg, messagesLoadedMsg, projectCreatedMsg:
		// Keep the conversation flowing behind the overlay
		m.selectingPersona = false
		next, cmd := m.Update(msg)
		nm := next.(Model)
		nm.selectingPersona = true
		return nm, cmd

	case tea.KeyMsg:
		filtered := m.filteredPersonas()
		switch msg.String() {
		case "ctrl+c":
			m.abortStream()
			return m, tea.Quit

		case "esc":
			m.closePersonaPicker()

		case "up":
			if len(filtered) > 0 {
				m.personaCursor = (m.personaCursor - 1 + len(filtered)) % len(filtered)
			}

		case "down":
			if len(filtered) > 0 {
				m.personaCursor = (m.personaCursor + 1) % len(filtered)
			}

		case "enter":
			if m.personaCursor < len(filtered) {
				m.applyPersona(filtered[m.personaCursor])
				m.closePersonaPicker()
			}

		case "backspace":
			if m.personaFilter != "" {
				r := []rune(m.personaFilter)
				m.personaFilter = string(r[:len(r)-1])
				m.personaCursor = 0
			}

		default:
			if msg.Type == tea.KeyRunes {
				m.personaFilter += string(msg.Runes)
				m.personaCursor = 0
			}
		}
	}

	return m, nil
}

func (m *Model) closePersonaPicker() {
	m.selectingPersona = false
	m.personaList = nil
	m.personaCursor = 0
	m.personaFilter = ""
}

// filteredPersonas returns the persona list filtered by personaFilter
func (m Model) filteredPersonas() []config.Persona {
	if m.personaFilter == "" {
		return m.personaList
	}
	filter := strings.ToLower(m.personaFilter)
	var filtered []config.Persona
	for _, p := range m.personaList {
		if strings.Contains(strings.ToLower(p.Name), filter) ||
			strings.Contains(strings.ToLower(p.Description), filter) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// renderPersonaPicker renders the persona selection overlay
func (m Model) renderPersonaPicker() string {
	width := max(m.width-8, 40)

	var content strings.Builder
	content.WriteString(titleStyle.Render("Elegí una persona"))
	content.WriteString(hintStyle.Render(fmt.Sprintf("  (actual: %s)", m.personaName)))
	content.WriteString("\n\n")

	if m.personaFilter != "" {
		content.WriteString(inputLabelStyle.Render("🔍 ") + m.personaFilter + "_\n\n")
	}

	filtered := m.filteredPersonas()
	switch {
	case m.personasLoading:
		content.WriteString(loadingStyle.Render("  Cargando personas..."))
	case len(filtered) == 0:
		content.WriteString(hintStyle.Render("  Ninguna persona coincide"))
	default:
		start := 0
		if m.personaCursor >= maxPickerItems {
			start = m.personaCursor - maxPickerItems + 1
		}
		end := min(start+maxPickerItems, len(filtered))

		if start > 0 {
			content.WriteString(hintStyle.Render("  ↑ más arriba") + "\n")
		}
		for i := start; i < end; i++ {
			p := filtered[i]
			cursor := "  "
			nameStyle := sidebarItemStyle
			if i == m.personaCursor {
				cursor = cursorStyle.Render("▸ ")
				nameStyle = sidebarSelectedStyle
			}
			line := cursor + nameStyle.Render(p.Name)
			if p.Description != "" {
				maxDesc := width - runewidth.StringWidth(p.Name) - 12
				if maxDesc > 10 {
					line += hintStyle.Render(" - " + runewidth.Truncate(p.Description, maxDesc, "..."))
				}
			}
			content.WriteString(line + "\n")
		}
		if end < len(filtered) {
			content.WriteString(hintStyle.Render("  ↓ más abajo") + "\n")
		}
	}

	content.WriteString("\n")
	content.WriteString(hintStyle.Render("↑↓ mover • Enter elegir • Esc cancelar • escribí para filtrar"))

	box := pickerStyle.Width(width).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// Run starts the chat TUI and blocks until the user quits
func Run(ctx context.Context, client api.BackendClient, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		NewModel(ctx, client, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
