package tui

import (
	"errors"

	"github.com/diogo/iqrachat/internal/scroll"
)

var errViewportNotReady = errors.New("viewport not ready")

// transcriptView exposes the chat viewport to the scroll controller.
// Distances are measured in lines.
type transcriptView struct {
	m *Model
}

func (v transcriptView) Metrics() scroll.Metrics {
	vp := &v.m.viewport
	return scroll.Metrics{
		ScrollHeight:   vp.TotalLineCount(),
		Offset:         vp.YOffset,
		ViewportHeight: vp.Height,
	}
}

// ScrollIntoView brings the last line into view. A terminal viewport has no
// smooth scrolling, so this is a bottom jump that refuses an unsized view.
func (v transcriptView) ScrollIntoView() error {
	if !v.m.ready || v.m.viewport.Height <= 0 {
		return errViewportNotReady
	}
	v.m.viewport.GotoBottom()
	return nil
}

func (v transcriptView) JumpToBottom() {
	vp := &v.m.viewport
	bottom := vp.TotalLineCount() - vp.Height
	if bottom < 0 {
		bottom = 0
	}
	vp.YOffset = bottom
}
