package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/iqrachat/internal/api"
	apierrors "github.com/diogo/iqrachat/internal/errors"
	"github.com/diogo/iqrachat/internal/models"
	"github.com/diogo/iqrachat/internal/render"
	"github.com/diogo/iqrachat/internal/scroll"
)

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) write(s string) error {
	c.text = s
	return nil
}

func newTestModel(t *testing.T, q api.Querier) (*Model, *fakeClipboard) {
	t.Helper()
	clip := &fakeClipboard{}
	m := NewModel(context.Background(), q, Options{
		Render:          render.DefaultOptions().WithStyle("notty"),
		ExportDir:       t.TempDir(),
		ScrollThreshold: 3,
		Clipboard:       clip.write,
		Now:             func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) },
	})
	m.Init()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, clip
}

// collect runs cmd and flattens batches into their messages. Cursor blink
// and spinner ticks are dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func replyFrom(t *testing.T, cmd tea.Cmd) replyMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if r, ok := msg.(replyMsg); ok {
			return r
		}
	}
	t.Fatal("no reply message produced")
	return replyMsg{}
}

func typeAndSubmit(m *Model, text string) tea.Cmd {
	m.textarea.SetValue(text)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_WelcomeOnInit(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})

	turns := m.Session().Turns()
	require.Len(t, turns, 1)
	assert.True(t, turns[0].IsWelcome)

	m.Init()
	assert.Len(t, m.Session().Turns(), 1, "welcome is not repeated")
	assert.Contains(t, m.View(), "assistant")
}

func TestModel_SubmitAndReply(t *testing.T) {
	mock := &api.MockClient{Reply: "hi there"}
	m, _ := newTestModel(t, mock)

	cmd := typeAndSubmit(m, "hello")
	require.NotNil(t, cmd)

	assert.True(t, m.Session().Busy())
	assert.Empty(t, m.textarea.Value(), "input cleared on submit")
	assert.Contains(t, m.View(), "thinking")

	m.Update(replyFrom(t, cmd))

	turns := m.Session().Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, models.UserTurn("hello"), turns[1])
	assert.Equal(t, models.AssistantTurn("hi there", false), turns[2])
	assert.False(t, m.Session().Busy())
	assert.Contains(t, m.View(), "there")
}

func TestModel_EnterIgnoredWhileBusy(t *testing.T) {
	mock := &api.MockClient{Reply: "ok"}
	m, _ := newTestModel(t, mock)

	first := typeAndSubmit(m, "one")
	second := typeAndSubmit(m, "two")

	assert.Nil(t, second)
	assert.Equal(t, "two", m.textarea.Value(), "text stays for after the reply")
	assert.Len(t, m.Session().Turns(), 2)

	m.Update(replyFrom(t, first))
	assert.Equal(t, 1, mock.Calls())
}

func TestModel_EmptyInputShowsMessage(t *testing.T) {
	mock := &api.MockClient{}
	m, _ := newTestModel(t, mock)

	cmd := typeAndSubmit(m, "   ")
	assert.Nil(t, cmd)
	assert.Equal(t, 0, mock.Calls())
	assert.Contains(t, m.View(), "Please enter a message")
}

func TestModel_RateLimitedShowsFriendlyText(t *testing.T) {
	mock := &api.MockClient{Err: apierrors.NewAPIError(429, "ep", "slow down")}
	m, _ := newTestModel(t, mock)

	cmd := typeAndSubmit(m, "hello")
	m.Update(replyFrom(t, cmd))

	view := m.View()
	assert.Contains(t, view, apierrors.UserMessage(apierrors.KindRateLimited))
	assert.NotContains(t, view, "slow down")
	assert.Len(t, m.Session().Turns(), 2)
}

func TestModel_NewChatDiscardsStaleReply(t *testing.T) {
	mock := &api.MockClient{Reply: "late"}
	m, _ := newTestModel(t, mock)

	cmd := typeAndSubmit(m, "question")
	m.textarea.SetValue("draft")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Empty(t, m.textarea.Value())
	assert.True(t, m.Session().Busy(), "the old request is still outstanding")

	m.textarea.SetValue("second")
	_, second := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, second, "no second request while the first is in flight")

	m.Update(replyFrom(t, cmd))
	assert.False(t, m.Session().Busy())
	assert.Equal(t, 1, mock.Calls())

	turns := m.Session().Turns()
	require.Len(t, turns, 1)
	assert.True(t, turns[0].IsWelcome)
}

func TestModel_TypingClearsError(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})

	typeAndSubmit(m, "   ")
	require.NotNil(t, m.Session().LastError())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.NotNil(t, m.Session().LastError(), "cursor keys leave the error")

	m.Update(key('h'))
	assert.Nil(t, m.Session().LastError())
	assert.NotContains(t, m.View(), "Please enter a message")
}

func TestModel_AttachCommand(t *testing.T) {
	mock := &api.MockClient{Reply: "# Summary"}
	m, _ := newTestModel(t, mock)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some notes"), 0o600))

	assert.Nil(t, typeAndSubmit(m, "/attach "+path))
	require.NotNil(t, m.Session().Attachment())
	assert.Equal(t, "notes.txt", m.Session().Attachment().Name)
	assert.Contains(t, m.View(), "notes.txt")

	cmd := typeAndSubmit(m, "summarize")
	m.Update(replyFrom(t, cmd))

	assert.Equal(t, "notes.txt", mock.LastRequest().Attachment.Name)
	turns := m.Session().Turns()
	assert.True(t, turns[len(turns)-1].IsFile)
	assert.Nil(t, m.Session().Attachment())
}

func TestModel_AttachRejectsUnsupported(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})

	path := filepath.Join(t.TempDir(), "tool.exe")
	require.NoError(t, os.WriteFile(path, []byte("MZ"), 0o600))

	typeAndSubmit(m, "/attach "+path)
	assert.Nil(t, m.Session().Attachment())
	assert.True(t, m.noticeIsErr)

	typeAndSubmit(m, "/attach")
	assert.Contains(t, m.notice, "Usage")
}

func TestModel_DetachCommand(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})
	m.Session().Attach(&models.Attachment{Name: "a.txt", Size: 1})

	typeAndSubmit(m, "/detach")
	assert.Nil(t, m.Session().Attachment())
	assert.Empty(t, m.textarea.Value())
}

func TestModel_PreviewCopyAndDownload(t *testing.T) {
	mock := &api.MockClient{Reply: "hi there"}
	m, clip := newTestModel(t, mock)

	cmd := typeAndSubmit(m, "hello")
	m.Update(replyFrom(t, cmd))

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	require.NotNil(t, m.preview)
	view := m.View()
	assert.Contains(t, view, "PDF Preview")
	assert.Contains(t, view, "You: hello")
	assert.Contains(t, view, "AI: hi there")

	_, copyCmd := m.Update(key('y'))
	for _, msg := range collect(copyCmd) {
		m.Update(msg)
	}
	assert.Contains(t, clip.text, "## You\n\nhello")
	assert.Contains(t, m.notice, "copied")

	_, dlCmd := m.Update(key('d'))
	for _, msg := range collect(dlCmd) {
		m.Update(msg)
	}
	assert.False(t, m.noticeIsErr, m.notice)

	files, err := filepath.Glob(filepath.Join(m.opts.ExportDir, "chat-transcript-*.pdf"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "chat-transcript-2024-05-06T07-08-09Z.pdf", filepath.Base(files[0]))

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.preview)
	assert.Len(t, m.Session().Turns(), 3, "export does not touch the session")
}

func TestModel_PreviewPaging(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})
	for i := 0; i < 80; i++ {
		m.Session().AppendTurn(models.UserTurn("line of conversation"))
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	require.Greater(t, len(m.preview.pages), 1)

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.preview.index)

	for i := 0; i < 10; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	assert.Equal(t, len(m.preview.pages)-1, m.preview.index)
}

func TestModel_ScrollIntent(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})
	for i := 0; i < 60; i++ {
		m.Session().AppendTurn(models.UserTurn("filler"))
	}
	m.refresh()
	require.True(t, m.viewport.AtBottom())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.NotNil(t, cmd, "settle timer scheduled")
	assert.Equal(t, scroll.StateUserScrolling, m.scroller.State())

	offset := m.viewport.YOffset
	m.Session().AppendTurn(models.UserTurn("new while reading"))
	m.refresh()
	assert.Equal(t, offset, m.viewport.YOffset, "no auto-scroll while the user reads history")

	m.Update(timerFiredMsg{id: m.sched.next})
	assert.Equal(t, scroll.StateIdle, m.scroller.State())
	assert.False(t, m.scroller.ShouldAutoScroll(), "settled away from the bottom")
}

func TestModel_FollowsNewTurnsAtBottom(t *testing.T) {
	m, _ := newTestModel(t, &api.MockClient{})
	for i := 0; i < 60; i++ {
		m.Session().AppendTurn(models.UserTurn("filler"))
		m.refresh()
	}
	assert.True(t, m.viewport.AtBottom())
}

func TestLoopScheduler(t *testing.T) {
	s := newLoopScheduler()
	fired := 0

	t1 := s.AfterFunc(time.Millisecond, func() { fired++ })
	s.AfterFunc(time.Millisecond, func() { fired += 10 })
	require.NotNil(t, s.drain())
	assert.Nil(t, s.drain(), "queue emptied")

	assert.True(t, t1.Stop())
	assert.False(t, t1.Stop())

	s.fire(1)
	s.fire(2)
	s.fire(2)
	assert.Equal(t, 10, fired)

	s.AfterFunc(time.Millisecond, func() { fired += 100 })
	s.stopAll()
	s.fire(3)
	assert.Equal(t, 10, fired)
}

func TestFormatError(t *testing.T) {
	assert.Empty(t, FormatError(nil))
	assert.Contains(t, FormatError(apierrors.NewAPIError(429, "ep", "x")), "429")
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "2.0 KB", humanSize(2048))
	assert.Equal(t, "1.5 MB", humanSize(3<<19))
}
