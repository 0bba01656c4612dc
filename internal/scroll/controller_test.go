package scroll

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	metrics   Metrics
	intoView  int
	jumps     int
	intoErr   error
	intoPanic bool
}

func (v *fakeView) Metrics() Metrics { return v.metrics }

func (v *fakeView) ScrollIntoView() error {
	v.intoView++
	if v.intoPanic {
		panic("no smooth scrolling here")
	}
	if v.intoErr != nil {
		return v.intoErr
	}
	v.metrics.Offset = v.metrics.ScrollHeight - v.metrics.ViewportHeight
	return nil
}

func (v *fakeView) JumpToBottom() {
	v.jumps++
	v.metrics.Offset = v.metrics.ScrollHeight - v.metrics.ViewportHeight
}

func (v *fakeView) scrolls() int { return v.intoView + v.jumps }

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fire runs the callback once; a fired timer is no longer active
func (t *fakeTimer) fire() {
	t.stopped = true
	t.f()
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) active() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// fireActive fires every pending timer, oldest first
func (s *fakeScheduler) fireActive() {
	for _, t := range s.active() {
		t.fire()
	}
}

// fireAll runs every timer, including stopped ones, the way a late event
// loop delivery would
func (s *fakeScheduler) fireAll() {
	for _, t := range s.timers {
		t.f()
	}
}

func newTestController(view *fakeView) (*Controller, *fakeScheduler) {
	sched := &fakeScheduler{}
	return NewController(view, WithScheduler(sched)), sched
}

func atBottom() *fakeView {
	return &fakeView{metrics: Metrics{ScrollHeight: 1000, Offset: 800, ViewportHeight: 200}}
}

func TestNearBottom(t *testing.T) {
	tests := []struct {
		name    string
		metrics Metrics
		want    bool
	}{
		{"at bottom", Metrics{ScrollHeight: 1000, Offset: 800, ViewportHeight: 200}, true},
		{"exactly threshold", Metrics{ScrollHeight: 1000, Offset: 650, ViewportHeight: 200}, true},
		{"just past threshold", Metrics{ScrollHeight: 1000, Offset: 649, ViewportHeight: 200}, false},
		{"top", Metrics{ScrollHeight: 1000, Offset: 0, ViewportHeight: 200}, false},
		{"content shorter than view", Metrics{ScrollHeight: 50, Offset: 0, ViewportHeight: 200}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(&fakeView{metrics: tt.metrics})
			assert.Equal(t, tt.want, c.NearBottom())
		})
	}
}

func TestCustomThreshold(t *testing.T) {
	view := &fakeView{metrics: Metrics{ScrollHeight: 100, Offset: 70, ViewportHeight: 20}}
	assert.False(t, NewController(view, WithThreshold(5)).NearBottom())
	assert.True(t, NewController(view, WithThreshold(10)).NearBottom())
}

func TestDefaults(t *testing.T) {
	c := NewController(atBottom())
	assert.True(t, c.ShouldAutoScroll())
	assert.Equal(t, StateIdle, c.State())
	assert.True(t, c.LastScroll().IsZero())
}

func TestMount_ForcesScrollOnce(t *testing.T) {
	view := &fakeView{metrics: Metrics{ScrollHeight: 1000, Offset: 0, ViewportHeight: 200}}
	c, _ := newTestController(view)

	c.Mount(3)
	assert.Equal(t, 1, view.scrolls())
	assert.Equal(t, 800, view.metrics.Offset)

	c.Mount(3)
	assert.Equal(t, 1, view.scrolls())

	assert.False(t, c.OnTurnCount(3), "same count after mount does not scroll")
}

func TestOnTurnCount_FollowsWhenIdle(t *testing.T) {
	view := atBottom()
	c, _ := newTestController(view)
	c.Mount(0)
	before := view.scrolls()

	assert.True(t, c.OnTurnCount(1))
	assert.Equal(t, before+1, view.scrolls())
}

func TestOnTurnCount_OnlyOnGrowth(t *testing.T) {
	view := atBottom()
	c, _ := newTestController(view)
	c.Mount(2)
	before := view.scrolls()

	assert.False(t, c.OnTurnCount(2), "re-render with the same turns")
	assert.False(t, c.OnTurnCount(0), "cleared store")
	assert.True(t, c.OnTurnCount(1), "growth after clear")
	assert.Equal(t, before+1, view.scrolls())
}

func TestOnTurnCount_SuppressedWhileUserScrolling(t *testing.T) {
	view := atBottom()
	c, sched := newTestController(view)
	c.Mount(1)
	before := view.scrolls()

	c.OnScroll()
	require.Equal(t, StateUserScrolling, c.State())

	assert.False(t, c.OnTurnCount(2))
	assert.Equal(t, before, view.scrolls())
	require.Len(t, sched.active(), 1)
	assert.Equal(t, DefaultDebounce, sched.active()[0].d)
}

func TestSettle_AwayFromBottomStopsFollowing(t *testing.T) {
	view := atBottom()
	c, sched := newTestController(view)
	c.Mount(1)

	view.metrics.Offset = 0
	c.OnScroll()
	sched.fireActive()

	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.ShouldAutoScroll())

	before := view.scrolls()
	assert.False(t, c.OnTurnCount(2))
	assert.Equal(t, before, view.scrolls())
}

func TestSettle_BackAtBottomResumesFollowing(t *testing.T) {
	view := atBottom()
	c, sched := newTestController(view)
	c.Mount(1)

	view.metrics.Offset = 0
	c.OnScroll()
	sched.fireActive()
	require.False(t, c.ShouldAutoScroll())

	view.metrics.Offset = 790
	c.OnScroll()
	require.Len(t, sched.active(), 1, "the settled timer is not pending any more")
	sched.fireActive()

	assert.True(t, c.ShouldAutoScroll())
	assert.True(t, c.OnTurnCount(2))
}

func TestOnScroll_ResetsSingleTimer(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	view := atBottom()
	sched := &fakeScheduler{}
	c := NewController(view, WithScheduler(sched), WithClock(func() time.Time { return now }))

	c.OnScroll()
	now = now.Add(50 * time.Millisecond)
	c.OnScroll()
	now = now.Add(50 * time.Millisecond)
	c.OnScroll()

	assert.Len(t, sched.timers, 3)
	assert.Len(t, sched.active(), 1, "previous timers are cancelled")
	assert.Equal(t, now, c.LastScroll())

	// superseded callbacks delivered late must not end the gesture
	sched.timers[0].f()
	sched.timers[1].f()
	assert.Equal(t, StateUserScrolling, c.State())

	sched.timers[2].f()
	assert.Equal(t, StateIdle, c.State())
}

func TestScrollFallback(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		view := &fakeView{metrics: Metrics{ScrollHeight: 1000, ViewportHeight: 200}, intoErr: errors.New("unsupported")}
		c, _ := newTestController(view)

		c.Mount(0)
		assert.Equal(t, 1, view.jumps)
		assert.Equal(t, 800, view.metrics.Offset)
	})

	t.Run("panic", func(t *testing.T) {
		view := &fakeView{metrics: Metrics{ScrollHeight: 1000, ViewportHeight: 200}, intoPanic: true}
		c, _ := newTestController(view)

		assert.NotPanics(t, func() { c.Mount(0) })
		assert.Equal(t, 1, view.jumps)
		assert.Equal(t, 800, view.metrics.Offset)
	})
}

func TestTeardown(t *testing.T) {
	view := atBottom()
	c, sched := newTestController(view)
	c.Mount(0)

	c.OnScroll()
	c.Teardown()

	assert.Empty(t, sched.active(), "pending timer cancelled")

	sched.fireAll()
	assert.Equal(t, StateUserScrolling, c.State(), "late fire ignored after teardown")

	before := view.scrolls()
	c.OnScroll()
	assert.Len(t, sched.timers, 1, "no timers armed after teardown")
	assert.False(t, c.OnTurnCount(5))
	assert.Equal(t, before, view.scrolls())
}

func TestRealScheduler(t *testing.T) {
	done := make(chan struct{})
	timer := RealScheduler{}.AfterFunc(time.Millisecond, func() { close(done) })
	require.NotNil(t, timer)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	stopped := RealScheduler{}.AfterFunc(time.Hour, func() {})
	assert.True(t, stopped.Stop())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "user-scrolling", StateUserScrolling.String())
}
