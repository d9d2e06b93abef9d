// Package metric exposes pipeline counters with expvar. Counters are
// grouped by pipeline purpose and are safe to update from real-time
// context: updates are atomic and don't allocate.
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/dsp/signal"
)

const pipelinesLabel = "dsp.pipelines"

const (
	// BlockCounter measures number of applied blocks.
	BlockCounter = "Blocks"
	// SampleCounter measures number of frames.
	SampleCounter = "Samples"
	// ProcessingCounter measures time spent in processing.
	ProcessingCounter = "Processing"
	// DurationCounter counts what's the duration of signal.
	DurationCounter = "Duration"
	// PipelineCounter counts number of metered pipelines.
	PipelineCounter = "Pipelines"
)

var (
	purposes = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		BlockCounter,
		SampleCounter,
		ProcessingCounter,
		DurationCounter,
		PipelineCounter,
	}
)

// Get metrics values for provided purpose.
func Get(purpose string) map[string]string {
	return getCounters(purpose)
}

// GetAll returns counters for all measured purposes.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	purposes.Lock()
	defer purposes.Unlock()
	for purpose := range purposes.m {
		m[purpose] = getCounters(purpose)
	}
	return m
}

func getCounters(purpose string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(purpose, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// MeasureFunc captures metrics when block of frames is processed.
type MeasureFunc func(frames int64, elapsed time.Duration)

// Meter creates new meter closure to capture pipeline counters.
func Meter(purpose string, sampleRate int) MeasureFunc {
	metric := purposes.get(purpose)
	metric.pipelines.Add(1)
	var (
		frames         int64
		framesDuration time.Duration
	)
	return func(n int64, elapsed time.Duration) {
		metric.processing.add(elapsed)
		metric.blocks.Add(1)
		metric.samples.Add(n)
		// recalculate duration only when number of frames has changed
		if frames != n {
			frames = n
			framesDuration = signal.DurationOf(sampleRate, n)
		}
		metric.duration.add(framesDuration)
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(purpose string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[purpose]; ok {
		// return existing metric if available
		return metric
	}
	metric := newMetric(purpose)
	m.m[purpose] = metric
	return metric
}

type metric struct {
	pipelines  *expvar.Int
	blocks     *expvar.Int
	samples    *expvar.Int
	processing *duration
	duration   *duration
}

func newMetric(purpose string) metric {
	m := metric{
		pipelines:  expvar.NewInt(key(purpose, PipelineCounter)),
		blocks:     expvar.NewInt(key(purpose, BlockCounter)),
		samples:    expvar.NewInt(key(purpose, SampleCounter)),
		processing: &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(purpose, ProcessingCounter), m.processing)
	expvar.Publish(key(purpose, DurationCounter), m.duration)
	return m
}

func key(purpose, counter string) string {
	return fmt.Sprintf("%s.%s.%s", pipelinesLabel, purpose, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)))
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}
