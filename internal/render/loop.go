// Package render provides the single rendering execution context.
//
// Render requests come from timer goroutines and the serial queue; they are
// coalesced and handed, one at a time, to a draw function running on the
// loop's own goroutine. Draws never overlap, and a request that arrives
// while a draw is in progress always causes one more draw, so the display
// converges on the latest count once things go quiet.
package render

import (
	"context"
	"sync/atomic"
)

// Frame is passed to every draw. It carries no count: the draw function
// re-reads whatever it displays.
type Frame struct {
	Seq     uint64 // 1-based draw number
	Animate bool   // false once animations were suppressed
}

// DrawFunc paints one frame. It runs on the loop goroutine.
type DrawFunc func(Frame)

// Loop is a coalescing render context. It implements refresh.Notifier and
// refresh.AnimationSuppressor.
type Loop struct {
	draw     DrawFunc
	requests chan struct{}

	animationsOff atomic.Bool
	requested     atomic.Uint64
	drawn         atomic.Uint64
}

// NewLoop creates a Loop that calls draw for each coalesced request.
// Run must be called for anything to be drawn.
func NewLoop(draw DrawFunc) *Loop {
	return &Loop{
		draw:     draw,
		requests: make(chan struct{}, 1),
	}
}

// Render requests a redraw. It never blocks; requests made before the
// loop gets to them collapse into one draw.
func (l *Loop) Render() {
	l.requested.Add(1)
	select {
	case l.requests <- struct{}{}:
	default:
	}
}

// SuppressAnimations makes every later frame carry Animate=false.
func (l *Loop) SuppressAnimations() {
	l.animationsOff.Store(true)
}

// AnimationsEnabled reports whether frames still animate.
func (l *Loop) AnimationsEnabled() bool {
	return !l.animationsOff.Load()
}

// Run draws until ctx is cancelled. It must be called at most once.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.requests:
			seq := l.drawn.Add(1)
			l.draw(Frame{Seq: seq, Animate: !l.animationsOff.Load()})
		}
	}
}

// Requested returns how many renders were requested.
func (l *Loop) Requested() uint64 {
	return l.requested.Load()
}

// Drawn returns how many frames were drawn.
func (l *Loop) Drawn() uint64 {
	return l.drawn.Load()
}
