package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererPool hands out one TermRenderer per caller at a time.
// glamour.TermRenderer is not safe for concurrent Render calls.
type rendererPool struct {
	mu    sync.Mutex
	pools map[Options]*sync.Pool
}

var pool = &rendererPool{pools: make(map[Options]*sync.Pool)}

func (p *rendererPool) poolFor(opts Options) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	sp, ok := p.pools[opts]
	if !ok {
		sp = &sync.Pool{}
		p.pools[opts] = sp
	}
	return sp
}

func (p *rendererPool) get(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := p.poolFor(opts).Get().(*glamour.TermRenderer); ok {
		return r, nil
	}
	return newRenderer(opts)
}

func (p *rendererPool) put(opts Options, r *glamour.TermRenderer) {
	if r != nil {
		p.poolFor(opts).Put(r)
	}
}

func (p *rendererPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pools)
}

func (p *rendererPool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pools = make(map[Options]*sync.Pool)
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}
