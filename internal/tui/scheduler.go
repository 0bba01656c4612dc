package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/iqrachat/internal/scroll"
)

// timerFiredMsg delivers a scheduled callback back into Update
type timerFiredMsg struct {
	id int
}

// loopScheduler runs scroll timers on the bubbletea event loop. AfterFunc
// queues a tea.Tick; the callback runs when the tick message reaches Update,
// so scroll state is only ever touched from the loop.
type loopScheduler struct {
	next    int
	pending map[int]func()
	queued  []tea.Cmd
}

func newLoopScheduler() *loopScheduler {
	return &loopScheduler{pending: make(map[int]func())}
}

type loopTimer struct {
	s  *loopScheduler
	id int
}

func (t loopTimer) Stop() bool {
	_, ok := t.s.pending[t.id]
	delete(t.s.pending, t.id)
	return ok
}

func (s *loopScheduler) AfterFunc(d time.Duration, f func()) scroll.Timer {
	s.next++
	id := s.next
	s.pending[id] = f
	s.queued = append(s.queued, tea.Tick(d, func(time.Time) tea.Msg {
		return timerFiredMsg{id: id}
	}))
	return loopTimer{s: s, id: id}
}

// drain returns the ticks queued since the last call
func (s *loopScheduler) drain() tea.Cmd {
	if len(s.queued) == 0 {
		return nil
	}
	cmds := s.queued
	s.queued = nil
	return tea.Batch(cmds...)
}

// fire runs a callback unless its timer was stopped
func (s *loopScheduler) fire(id int) {
	f, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)
	f()
}

// stopAll drops every pending callback
func (s *loopScheduler) stopAll() {
	s.pending = make(map[int]func())
	s.queued = nil
}
