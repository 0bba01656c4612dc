// Package export renders a conversation into a paginated, fixed-layout
// document. The same Document drives the on-screen preview and the PDF
// download so the two never diverge.
package export

import (
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/diogo/iqrachat/internal/models"
)

// Role prefixes written in front of each turn
const (
	PrefixAssistant = "AI: "
	PrefixUser      = "You: "
)

// DefaultTitle is printed at the top of the first page
const DefaultTitle = "Chat Conversation"

// Options controls page geometry. All lengths are in points.
type Options struct {
	PageWidth    float64
	PageHeight   float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64

	FontSize   float64
	LineHeight float64
	// WrapWidth is the line budget in characters
	WrapWidth int

	Title     string
	TitleSize float64
}

// DefaultOptions returns an A4 portrait layout
func DefaultOptions() Options {
	return Options{
		PageWidth:    595.28,
		PageHeight:   841.89,
		MarginTop:    30,
		MarginBottom: 30,
		MarginLeft:   30,
		FontSize:     12,
		LineHeight:   18,
		WrapWidth:    90,
		Title:        DefaultTitle,
		TitleSize:    24,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PageWidth <= 0 {
		o.PageWidth = d.PageWidth
	}
	if o.PageHeight <= 0 {
		o.PageHeight = d.PageHeight
	}
	if o.MarginTop <= 0 {
		o.MarginTop = d.MarginTop
	}
	if o.MarginBottom <= 0 {
		o.MarginBottom = d.MarginBottom
	}
	if o.MarginLeft <= 0 {
		o.MarginLeft = d.MarginLeft
	}
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	if o.LineHeight <= 0 {
		o.LineHeight = d.LineHeight
	}
	if o.WrapWidth <= 0 {
		o.WrapWidth = d.WrapWidth
	}
	if o.TitleSize <= 0 {
		o.TitleSize = d.TitleSize
	}
	return o
}

// bottom is the lowest cursor position a line may start at
func (o Options) bottom() float64 {
	return o.PageHeight - o.MarginBottom
}

// titleHeight is the vertical space the title takes on page one
func (o Options) titleHeight() float64 {
	if o.Title == "" {
		return 0
	}
	return 2 * o.LineHeight
}

// Line is one output line positioned on a page
type Line struct {
	Text string
	// Y is the top of the line, measured from the top of the page
	Y    float64
	Bold bool
	Role models.Role
}

// Page is one fixed-height page
type Page struct {
	Number int
	Lines  []Line
}

// Document is the laid-out transcript
type Document struct {
	Title   string
	Options Options
	Pages   []Page
	// Created is stamped into the PDF metadata; zero leaves it to the writer
	Created time.Time
}

// LineCount returns the number of lines over all pages
func (d *Document) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}

// Layout paginates turns. It is a pure function of its inputs.
func Layout(turns []models.Turn, opts Options) *Document {
	opts = opts.withDefaults()

	doc := &Document{Title: opts.Title, Options: opts}
	page := Page{Number: 1}
	cursor := opts.MarginTop + opts.titleHeight()
	pageTop := cursor

	newPage := func() {
		doc.Pages = append(doc.Pages, page)
		page = Page{Number: page.Number + 1}
		cursor = opts.MarginTop
		pageTop = cursor
	}

	for _, turn := range turns {
		lines := turnLines(turn, opts.WrapWidth)
		height := float64(len(lines)) * opts.LineHeight

		if cursor+height > opts.bottom() && cursor > pageTop {
			newPage()
		}

		for _, l := range lines {
			// a turn taller than a page continues on the next one
			if cursor+opts.LineHeight > opts.bottom() && cursor > pageTop {
				newPage()
			}
			l.Y = cursor
			page.Lines = append(page.Lines, l)
			cursor += opts.LineHeight
		}
		cursor += opts.LineHeight / 2
	}

	doc.Pages = append(doc.Pages, page)
	return doc
}

func prefixFor(role models.Role) string {
	if role == models.RoleAssistant {
		return PrefixAssistant
	}
	return PrefixUser
}

// turnLines composes the role prefix with the content and wraps it
func turnLines(turn models.Turn, width int) []Line {
	var segments []segment
	if turn.IsFile {
		segments = parseMarkup(turn.Content)
	} else {
		for _, p := range strings.Split(turn.Content, "\n") {
			segments = append(segments, segment{Text: p})
		}
	}
	if len(segments) == 0 {
		segments = []segment{{}}
	}
	segments[0].Text = prefixFor(turn.Role) + segments[0].Text

	var lines []Line
	for _, seg := range segments {
		for _, text := range wrapText(seg.Text, width) {
			lines = append(lines, Line{Text: text, Bold: seg.Bold, Role: turn.Role})
		}
	}
	return lines
}

// wrapText breaks on word boundaries first, then hard-wraps words longer
// than the budget
func wrapText(s string, width int) []string {
	s = strings.TrimRight(s, " \t\r")
	if s == "" {
		return []string{""}
	}
	wrapped := wrap.String(wordwrap.String(s, width), width)
	out := strings.Split(wrapped, "\n")
	for i := range out {
		out[i] = strings.TrimRight(out[i], " ")
	}
	return out
}
