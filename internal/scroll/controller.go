// Package scroll decides when the transcript view follows new turns and when
// it leaves the user alone because they are reading earlier history.
package scroll

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultThreshold is the near-bottom distance in the viewport's own unit
	DefaultThreshold = 150
	// DefaultDebounce is how long after the last scroll signal the user is
	// considered done scrolling
	DefaultDebounce = 150 * time.Millisecond
)

// State is the scroll-intent state
type State int

const (
	StateIdle State = iota
	StateUserScrolling
)

func (s State) String() string {
	if s == StateUserScrolling {
		return "user-scrolling"
	}
	return "idle"
}

// Metrics describes the viewport geometry
type Metrics struct {
	ScrollHeight   int
	Offset         int
	ViewportHeight int
}

// DistanceFromBottom is how far the visible window is from the end
func (m Metrics) DistanceFromBottom() int {
	return m.ScrollHeight - m.Offset - m.ViewportHeight
}

// Viewport is the view being followed
type Viewport interface {
	Metrics() Metrics
	// ScrollIntoView moves the newest turn into view (may animate)
	ScrollIntoView() error
	// JumpToBottom sets the offset to its maximum immediately
	JumpToBottom()
}

// Controller is the Idle/UserScrolling state machine driven by a single
// cancellable timer.
type Controller struct {
	mu sync.Mutex

	view      Viewport
	scheduler Scheduler
	threshold int
	debounce  time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	shouldAutoScroll bool
	isUserScrolling  bool
	lastScroll       time.Time

	timer      Timer
	generation uint64
	lastCount  int
	mounted    bool
	torn       bool
}

// Option configures a Controller
type Option func(*Controller)

// WithScheduler replaces the wall-clock timer source
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithThreshold sets the near-bottom distance
func WithThreshold(threshold int) Option {
	return func(c *Controller) {
		if threshold >= 0 {
			c.threshold = threshold
		}
	}
}

// WithDebounce sets the scroll-settle delay
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithClock overrides the time source used for the last scroll instant
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a controller following view
func NewController(view Viewport, opts ...Option) *Controller {
	c := &Controller{
		view:             view,
		scheduler:        RealScheduler{},
		threshold:        DefaultThreshold,
		debounce:         DefaultDebounce,
		now:              time.Now,
		logger:           zerolog.Nop(),
		shouldAutoScroll: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current scroll-intent state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isUserScrolling {
		return StateUserScrolling
	}
	return StateIdle
}

// ShouldAutoScroll reports whether new turns are currently followed
func (c *Controller) ShouldAutoScroll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldAutoScroll
}

// LastScroll returns when the last scroll signal arrived
func (c *Controller) LastScroll() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastScroll
}

// NearBottom reports whether the view is within the threshold of the end
func (c *Controller) NearBottom() bool {
	return c.view.Metrics().DistanceFromBottom() <= c.threshold
}

// OnScroll records a raw scroll signal and re-arms the settle timer
func (c *Controller) OnScroll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.torn {
		return
	}

	c.isUserScrolling = true
	c.lastScroll = c.now()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.generation++
	gen := c.generation
	c.timer = c.scheduler.AfterFunc(c.debounce, func() { c.settle(gen) })
}

// settle ends a scroll gesture. Fires from a superseded or stopped timer are ignored.
func (c *Controller) settle(gen uint64) {
	near := c.NearBottom()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.torn || gen != c.generation {
		return
	}
	c.timer = nil
	c.isUserScrolling = false
	c.shouldAutoScroll = near
	c.logger.Debug().Bool("near_bottom", near).Msg("scroll settled")
}

// Mount performs the forced initial scroll and records the turn count baseline.
// Only the first call scrolls.
func (c *Controller) Mount(turnCount int) {
	c.mu.Lock()
	if c.mounted || c.torn {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.lastCount = turnCount
	c.mu.Unlock()

	c.scrollToNewest()
}

// OnTurnCount is called whenever the transcript is rendered. It scrolls only
// when the count grew and the user is not reading history. It reports whether
// a scroll was issued.
func (c *Controller) OnTurnCount(n int) bool {
	c.mu.Lock()
	grew := n > c.lastCount
	c.lastCount = n
	follow := grew && !c.torn && c.shouldAutoScroll && !c.isUserScrolling
	c.mu.Unlock()

	if follow {
		c.scrollToNewest()
	}
	return follow
}

// Teardown stops the pending timer; the controller ignores all later signals
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.torn = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// scrollToNewest tries the smooth path and falls back to a jump
func (c *Controller) scrollToNewest() {
	if err := c.tryScrollIntoView(); err != nil {
		c.logger.Debug().Err(err).Msg("scroll into view failed, jumping to bottom")
		c.view.JumpToBottom()
	}
}

func (c *Controller) tryScrollIntoView() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scroll into view panicked: %v", r)
		}
	}()
	return c.view.ScrollIntoView()
}
