// Package progress renders one terminal progress bar per download.
package progress

import (
	"io"
	"sync"

	"github.com/edward-yakop/go-fetch/internal/core"

	"github.com/vbauerster/mpb/v6"
	"github.com/vbauerster/mpb/v6/decor"
)

const (
	barWidth  = 40
	nameWidth = 30
)

// Tracker creates progress bars written to a single output.
// Each bar gets its own mpb container, so status lines printed between two
// downloads never interleave with a live bar.
type Tracker struct {
	out io.Writer
	mu  sync.Mutex
}

// New returns a Tracker rendering to out. A nil out discards the rendering.
func New(out io.Writer) *Tracker {
	if out == nil {
		out = io.Discard
	}
	return &Tracker{out: out}
}

var _ core.Progress = &Tracker{}

// Bar follows the bytes written for one file.
type Bar struct {
	container *mpb.Progress
	bar       *mpb.Bar
	release   func()
	once      sync.Once
}

// Track starts a bar named name. total is the expected size in bytes, zero
// or less when unknown. position orders bars rendered at the same time.
func (t *Tracker) Track(name string, total int64, position int) core.ProgressBar {
	t.mu.Lock()

	container := mpb.New(
		mpb.WithOutput(t.out),
		mpb.WithWidth(barWidth),
	)
	bar := container.AddBar(total,
		mpb.BarPriority(position),
		mpb.PrependDecorators(
			decor.Name(shorten(name, nameWidth), decor.WC{W: nameWidth + 1, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.AverageSpeed(decor.UnitKiB, "% .1f", decor.WCSyncSpace),
			decor.Percentage(decor.WC{W: 5}),
		),
	)

	return &Bar{
		container: container,
		bar:       bar,
		release:   t.mu.Unlock,
	}
}

// IncrBy advances the bar by n bytes.
func (b *Bar) IncrBy(n int) {
	b.bar.IncrBy(n)
}

// Finish marks the bar complete, also when the total was unknown, and waits
// until it is rendered.
func (b *Bar) Finish() {
	b.once.Do(func() {
		b.bar.SetTotal(-1, true)
		b.wait()
	})
}

// Abort stops the bar where it is and waits until it is rendered.
func (b *Bar) Abort() {
	b.once.Do(func() {
		b.bar.Abort(false)
		b.wait()
	})
}

func (b *Bar) wait() {
	b.container.Wait()
	b.release()
}

func shorten(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return "..." + string(r[len(r)-max+3:])
}
