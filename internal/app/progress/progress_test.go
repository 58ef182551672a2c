package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledManagerIsNoop(t *testing.T) {
	m := NewManager(Config{Enabled: false})
	bar := m.CreateBar(10, "Indexing")

	track := bar.Track()
	track(5, 10)
	bar.Increment()
	bar.Complete()
	bar.Abort()
	m.Wait()

	assert.False(t, bar.enabled)
}

func TestTrackAdvancesBar(t *testing.T) {
	var out bytes.Buffer
	m := NewManager(Config{Enabled: true, Writer: &out})
	bar := m.CreateBar(4, "Indexing vid")

	track := bar.Track()
	for done := 1; done <= 4; done++ {
		track(done, 4)
	}
	assert.Equal(t, int64(4), bar.bar.Current())
	bar.Complete()
	m.Wait()

	assert.True(t, bar.bar.Completed())
}
