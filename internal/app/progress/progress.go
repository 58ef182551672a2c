// Package progress renders index build progress on a terminal.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type Config struct {
	Enabled bool
	Writer  io.Writer
}

// Manager owns a set of bars; a disabled manager hands out no-op bars
type Manager struct {
	container *mpb.Progress
	enabled   bool
	mu        sync.Mutex
}

type Bar struct {
	bar     *mpb.Bar
	enabled bool
	total   int64
}

func NewManager(config Config) *Manager {
	if !config.Enabled {
		return &Manager{enabled: false}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	container := mpb.New(
		mpb.WithOutput(writer),
		mpb.WithRefreshRate(120*time.Millisecond),
	)

	return &Manager{
		container: container,
		enabled:   true,
	}
}

// CreateBar adds a bar counting frames
func (m *Manager) CreateBar(total int, description string) *Bar {
	if !m.enabled || m.container == nil {
		return &Bar{enabled: false}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bar := m.container.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(description+" ", decor.WC{W: len(description) + 1, C: decor.DindentRight}),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.NewPercentage("%.1f", decor.WCSyncSpace),
			decor.OnComplete(
				decor.AverageETA(decor.ET_STYLE_GO, decor.WCSyncWidth), " done",
			),
		),
	)

	return &Bar{bar: bar, enabled: true, total: int64(total)}
}

// Track returns a callback suitable for an index build progress signal.
// The bar total follows the total reported by the build.
func (b *Bar) Track() func(done, total int) {
	return func(done, total int) {
		if !b.enabled || b.bar == nil {
			return
		}
		if t := int64(total); t > 0 && t != b.total {
			b.total = t
			b.bar.SetTotal(t, false)
		}
		b.bar.SetCurrent(int64(done))
	}
}

func (b *Bar) Increment() {
	if b.enabled && b.bar != nil {
		b.bar.Increment()
	}
}

// Complete marks the bar done at its current count
func (b *Bar) Complete() {
	if b.enabled && b.bar != nil {
		b.bar.SetTotal(b.bar.Current(), true)
	}
}

// Abort removes the bar after a failed build
func (b *Bar) Abort() {
	if b.enabled && b.bar != nil {
		b.bar.Abort(true)
	}
}

func (m *Manager) Wait() {
	if m.enabled && m.container != nil {
		m.container.Wait()
	}
}
