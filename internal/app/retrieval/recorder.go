package retrieval

import (
	"time"

	"video-qa/internal/app/model"
)

// Search paths reported to the Recorder
const (
	PathSingle = "single"
	PathMulti  = "multi"
)

// Recorder receives engine events; metrics.Metrics implements it
type Recorder interface {
	CacheHit(role model.Role)
	CacheMiss(role model.Role)
	VariantFailed(role model.Role)
	SearchObserved(role model.Role, path string, elapsed time.Duration, results int)
	SynthesisFallback(reason string)
	BuildObserved(outcome string, elapsed time.Duration, frames int)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(model.Role)                                   {}
func (nopRecorder) CacheMiss(model.Role)                                  {}
func (nopRecorder) VariantFailed(model.Role)                              {}
func (nopRecorder) SearchObserved(model.Role, string, time.Duration, int) {}
func (nopRecorder) SynthesisFallback(string)                              {}
func (nopRecorder) BuildObserved(string, time.Duration, int)              {}

// NopRecorder discards every event
func NopRecorder() Recorder { return nopRecorder{} }
