package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diogo/iqrachat/internal/attachment"
	"github.com/diogo/iqrachat/internal/export"
	"github.com/diogo/iqrachat/internal/logging"
	"github.com/diogo/iqrachat/internal/render"
	"github.com/diogo/iqrachat/internal/session"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorWarning  = lipgloss.Color("#f7768e")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spinnerChar, msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	fmt.Fprintf(s.out, "%s %s\n", checkmark, successStyle.Render(message))
}

func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

type queryOptions struct {
	output     string
	attach     string
	copy       bool
	transcript string
}

// runQuery sends a single prompt through a fresh session and prints the reply.
// Without a terminal only the raw reply text is written.
func runQuery(ctx context.Context, d *Dependencies, prompt string, opts queryOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Console: true,
		Out:     d.Stderr,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	querier, err := d.NewQuerier(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	if c, ok := querier.(interface{ Close() }); ok {
		defer c.Close()
	}

	sess := session.New(session.WithLogger(logger))
	if opts.attach != "" {
		att, err := attachment.FromPath(opts.attach)
		if err != nil {
			return err
		}
		sess.Attach(att)
	}
	dispatcher := session.NewDispatcher(sess, querier, session.WithDispatcherLogger(logger))

	decorated := d.IsTTY()

	var spin *spinner
	if decorated {
		spin = newSpinner(d.Stderr, "AI is thinking")
		spin.start()
	}

	start := d.Now()
	if _, err := dispatcher.Submit(ctx, prompt); err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return err
	}
	if spin != nil {
		spin.stopWithSuccess("Done")
	}
	logger.Debug().Dur("elapsed", d.Now().Sub(start)).Msg("query finished")

	turns := sess.Turns()
	text := turns[len(turns)-1].Content

	if opts.transcript != "" {
		if err := writeTranscript(opts.transcript, sess, d.Now()); err != nil {
			return err
		}
	}

	if opts.copy || cfg.CopyToClipboard {
		if err := d.Clipboard(text); err != nil {
			fmt.Fprintln(d.Stderr, warningStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else if decorated {
			fmt.Fprintln(d.Stderr, successStyle.Render("✓ Copied to clipboard"))
		}
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if decorated {
			fmt.Fprintln(d.Stderr, successStyle.Render(fmt.Sprintf("✓ Response saved to %s", opts.output)))
		}
		return nil
	}

	if !decorated {
		fmt.Fprintln(d.Stdout, text)
		return nil
	}

	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(d.Stdout, assistantLabelStyle.Render("✦ AI"))
	rendered := render.MarkdownOrPlain(text, render.FromConfig(cfg.Markdown).WithWidth(contentWidth))
	fmt.Fprintln(d.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))

	return nil
}

func writeTranscript(path string, sess *session.Session, at time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	if err := export.EncodeTranscript(f, sess.Turns(), at); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
