package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/diogo/iqrachat/internal/api"
	"github.com/diogo/iqrachat/internal/attachment"
	"github.com/diogo/iqrachat/internal/export"
	"github.com/diogo/iqrachat/internal/models"
	"github.com/diogo/iqrachat/internal/render"
	"github.com/diogo/iqrachat/internal/scroll"
	"github.com/diogo/iqrachat/internal/session"
)

// Message types for the TUI
type (
	replyMsg struct {
		req   *session.Request
		reply string
		err   error
	}
	exportedMsg struct {
		path string
		err  error
	}
	copiedMsg struct {
		err error
	}
)

// Options configures the chat program
type Options struct {
	Render render.Options
	// ExportDir receives downloaded transcripts
	ExportDir string
	// ScrollThreshold is the near-bottom distance in lines
	ScrollThreshold int
	// Attachment is held for the first submission
	Attachment *models.Attachment
	Logger     zerolog.Logger
	Clipboard  func(string) error
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Render == (render.Options{}) {
		o.Render = render.DefaultOptions()
	}
	if o.ExportDir == "" {
		o.ExportDir = "."
	}
	if o.Clipboard == nil {
		o.Clipboard = clipboard.WriteAll
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// preview is the export overlay state
type preview struct {
	doc   *export.Document
	pages []string
	turns []models.Turn
	index int
}

// Model is the chat screen. It is used by pointer so the session's
// input-clear hook and the scroll controller's view can reach the widgets.
type Model struct {
	ctx        context.Context
	opts       Options
	logger     zerolog.Logger
	session    *session.Session
	dispatcher *session.Dispatcher
	scroller   *scroll.Controller
	sched      *loopScheduler

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	ready       bool
	preview     *preview
	notice      string
	noticeIsErr bool

	// Dimensions
	width  int
	height int
}

// NewModel creates the chat model around a querier
func NewModel(ctx context.Context, querier api.Querier, opts Options) *Model {
	opts = opts.withDefaults()

	m := &Model{
		ctx:    ctx,
		opts:   opts,
		logger: opts.Logger,
		sched:  newLoopScheduler(),
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle
	ta.Focus()
	m.textarea = ta

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = loadingStyle
	m.spinner = sp

	m.session = session.New(
		session.WithLogger(opts.Logger),
		session.WithInputClearer(func() { m.textarea.Reset() }),
	)
	m.dispatcher = session.NewDispatcher(m.session, querier, session.WithDispatcherLogger(opts.Logger))
	m.scroller = scroll.NewController(transcriptView{m: m},
		scroll.WithScheduler(m.sched),
		scroll.WithThreshold(opts.ScrollThreshold),
		scroll.WithLogger(opts.Logger),
	)

	if !opts.Attachment.IsZero() {
		m.session.Attach(opts.Attachment)
	}

	return m
}

// Session returns the chat session
func (m *Model) Session() *session.Session {
	return m.session
}

// Init shows the greeting and starts the cursor blink
func (m *Model) Init() tea.Cmd {
	m.session.EnsureWelcome()
	return textarea.Blink
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.preview != nil {
			return m, m.updatePreview(msg)
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			m.teardown()
			return m, tea.Quit
		case "ctrl+n":
			m.newChat()
			return m, nil
		case "ctrl+e":
			m.openPreview()
			return m, nil
		case "pgup":
			m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
			return m, m.userScrolled()
		case "pgdown":
			m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
			return m, m.userScrolled()
		case "enter":
			return m, m.submit()
		}

		before := m.textarea.Value()
		m.textarea, cmd = m.textarea.Update(msg)
		if m.textarea.Value() != before {
			m.session.ClearError()
		}
		return m, cmd

	case tea.MouseMsg:
		if msg.Button != tea.MouseButtonWheelUp && msg.Button != tea.MouseButtonWheelDown {
			return m, nil
		}
		m.viewport, cmd = m.viewport.Update(msg)
		return m, tea.Batch(cmd, m.userScrolled())

	case replyMsg:
		outcome := m.dispatcher.Complete(msg.req, msg.reply, msg.err)
		m.logger.Debug().Str("outcome", outcome.String()).Msg("request completed")
		m.refresh()
		return m, nil

	case timerFiredMsg:
		m.sched.fire(msg.id)
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Export failed: %v", msg.err), true)
		} else {
			m.setNotice("Saved "+msg.path, false)
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Copy failed: %v", msg.err), true)
		} else {
			m.setNotice("Transcript copied to clipboard", false)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.session.Busy() {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 3 // title line with border
	inputHeight := 5  // label, textarea, border
	statusHeight := 2 // shortcuts and feedback line
	borders := 2

	vpHeight := height - headerHeight - inputHeight - statusHeight - borders
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := width - 4

	turns := m.session.Turns()
	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.textarea.SetWidth(contentWidth - 4)
		m.ready = true
		m.viewport.SetContent(m.renderTurns(turns))
		m.scroller.Mount(len(turns))
		return
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = vpHeight
	m.textarea.SetWidth(contentWidth - 4)
	m.viewport.SetContent(m.renderTurns(turns))
}

// submit handles the enter key: slash commands first, then a chat submission.
// The key does nothing while a reply is outstanding.
func (m *Model) submit() tea.Cmd {
	input := m.textarea.Value()

	if handled := m.runCommand(input); handled {
		return nil
	}
	if m.session.Busy() {
		return nil
	}

	req, err := m.dispatcher.Begin(input)
	m.notice = ""
	m.refresh()
	if err != nil {
		return nil
	}

	return tea.Batch(m.spinner.Tick, m.send(req))
}

// send runs the request off the event loop
func (m *Model) send(req *session.Request) tea.Cmd {
	d := m.dispatcher
	ctx := m.ctx
	return func() tea.Msg {
		reply, err := d.Execute(ctx, req)
		return replyMsg{req: req, reply: reply, err: err}
	}
}

func (m *Model) runCommand(input string) bool {
	trimmed := strings.TrimSpace(input)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "/attach":
		if m.session.Busy() {
			m.setNotice("Wait for the current reply before attaching a file", true)
			return true
		}
		path := strings.TrimSpace(strings.TrimPrefix(trimmed, "/attach"))
		if path == "" {
			m.setNotice("Usage: /attach <path>", true)
			return true
		}
		att, err := attachment.FromPath(path)
		if err != nil {
			m.setNotice(err.Error(), true)
			return true
		}
		m.session.Attach(att)
		m.textarea.Reset()
		m.setNotice("Attached "+att.Name, false)
		return true

	case "/detach":
		if m.session.Busy() {
			m.setNotice("Wait for the current reply before detaching", true)
			return true
		}
		m.session.Detach()
		m.textarea.Reset()
		m.setNotice("Attachment removed", false)
		return true
	}

	return false
}

func (m *Model) newChat() {
	m.session.Reset()
	m.session.EnsureWelcome()
	m.notice = ""
	m.refresh()
	m.logger.Debug().Msg("new chat started")
}

// refresh re-renders the transcript and lets the scroll controller react to growth
func (m *Model) refresh() {
	turns := m.session.Turns()
	if m.ready {
		m.viewport.SetContent(m.renderTurns(turns))
	}
	m.scroller.OnTurnCount(len(turns))
}

func (m *Model) userScrolled() tea.Cmd {
	m.scroller.OnScroll()
	return m.sched.drain()
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeIsErr = isErr
}

func (m *Model) teardown() {
	m.scroller.Teardown()
	m.sched.stopAll()
}

func (m *Model) openPreview() {
	turns := m.session.Turns()
	doc := export.Layout(turns, export.DefaultOptions())
	doc.Created = m.opts.Now()

	m.preview = &preview{
		doc:   doc,
		pages: export.Preview(doc, func(s string) string { return previewBoldStyle.Render(s) }),
		turns: turns,
	}
	m.notice = ""
}

func (m *Model) updatePreview(msg tea.KeyMsg) tea.Cmd {
	p := m.preview

	switch msg.String() {
	case "ctrl+c":
		m.teardown()
		return tea.Quit
	case "esc", "q":
		m.preview = nil
		m.notice = ""
	case "left", "h", "pgup":
		if p.index > 0 {
			p.index--
		}
	case "right", "l", "pgdown":
		if p.index < len(p.pages)-1 {
			p.index++
		}
	case "d":
		return m.download(p.doc)
	case "y":
		return m.copyTranscript(p.turns)
	}
	return nil
}

func (m *Model) download(doc *export.Document) tea.Cmd {
	dir := m.opts.ExportDir
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return exportedMsg{err: err}
		}
		path := filepath.Join(dir, export.FileName(doc.Created))
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{err: err}
		}
		if err := export.WritePDF(f, doc); err != nil {
			_ = f.Close()
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path, err: f.Close()}
	}
}

func (m *Model) copyTranscript(turns []models.Turn) tea.Cmd {
	clip := m.opts.Clipboard
	text := export.Markdown(turns)
	return func() tea.Msg {
		return copiedMsg{err: clip(text)}
	}
}

// View renders the TUI
func (m *Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if m.preview != nil {
		return m.renderPreview()
	}

	contentWidth := m.width - 4
	snap := m.session.Snapshot()

	var sections []string

	header := headerStyle.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center,
			titleStyle.Render("✦ IqraChat"),
			hintStyle.Render("  •  AI assistant"),
		),
	)
	sections = append(sections, header)

	sections = append(sections, messagesAreaStyle.Width(contentWidth).Render(m.viewport.View()))

	var input string
	if snap.Busy {
		input = m.spinner.View() + loadingStyle.Render(" AI is thinking...")
	} else {
		label := inputLabelStyle.Render("You")
		if !snap.Attachment.IsZero() {
			label += attachmentStyle.Render(fmt.Sprintf("  📎 %s (%s)", snap.Attachment.Name, humanSize(snap.Attachment.Size)))
		}
		input = lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View())
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(input))

	sections = append(sections, m.renderStatusBar(contentWidth))

	switch {
	case snap.LastError != nil:
		sections = append(sections, FormatError(snap.LastError))
	case m.notice != "":
		sections = append(sections, m.renderNotice())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTurns(turns []models.Turn) string {
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	var content strings.Builder
	for i, turn := range turns {
		if i > 0 {
			content.WriteString("\n")
		}

		if turn.IsUser() {
			content.WriteString(userLabelStyle.Render("● You") + "\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(turn.Content))
		} else {
			label := "✦ AI"
			if turn.IsFile {
				label += " 📄"
			}
			content.WriteString(assistantLabelStyle.Render(label) + "\n")

			rendered := render.MarkdownOrPlain(turn.Content, m.opts.Render.WithWidth(bubbleWidth-4))
			style := assistantBubbleStyle
			if turn.IsWelcome {
				style = welcomeBubbleStyle
			}
			content.WriteString(style.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	return content.String()
}

func (m *Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+N", "New chat"},
		{"Ctrl+E", "Export"},
		{"PgUp/PgDn", "Scroll"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

func (m *Model) renderNotice() string {
	if m.noticeIsErr {
		return errorStyle.Render("⚠ " + m.notice)
	}
	return noticeStyle.Render("✓ " + m.notice)
}

func (m *Model) renderPreview() string {
	p := m.preview

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("PDF Preview"),
		hintStyle.Render(fmt.Sprintf("  •  page %d of %d", p.index+1, len(p.pages))),
	)

	page := previewPageStyle
	if m.height > 8 {
		page = page.MaxHeight(m.height - 4)
	}

	hints := statusKeyStyle.Render("d") + statusDescStyle.Render(" Download PDF  ") +
		statusKeyStyle.Render("y") + statusDescStyle.Render(" Copy  ") +
		statusKeyStyle.Render("←/→") + statusDescStyle.Render(" Page  ") +
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Close")

	sections := []string{header, page.Render(p.pages[p.index]), hints}
	if m.notice != "" {
		sections = append(sections, m.renderNotice())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
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

// Run starts the interactive chat
func Run(ctx context.Context, querier api.Querier, opts Options) error {
	m := NewModel(ctx, querier, opts)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	m.teardown()
	return err
}
