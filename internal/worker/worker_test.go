package worker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"pipelined.dev/dsp/internal/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOrder(t *testing.T) {
	w := worker.New()
	defer w.Stop()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		assert.NoError(t, w.Post(func() { got = append(got, i) }))
	}
	assert.NoError(t, w.Sync())
	assert.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestNested(t *testing.T) {
	w := worker.New()
	defer w.Stop()

	var got []string
	assert.NoError(t, w.Post(func() {
		got = append(got, "outer")
		assert.NoError(t, w.Post(func() { got = append(got, "inner") }))
	}))
	assert.NoError(t, w.Sync())
	assert.NoError(t, w.Sync())
	assert.Equal(t, []string{"outer", "inner"}, got)
}

func TestStop(t *testing.T) {
	w := worker.New()
	executed := 0
	for i := 0; i < 10; i++ {
		assert.NoError(t, w.Post(func() { executed++ }))
	}
	w.Stop()
	assert.Equal(t, 10, executed)
	assert.ErrorIs(t, w.Post(func() {}), worker.ErrStopped)
	assert.ErrorIs(t, w.Sync(), worker.ErrStopped)
	// second stop is a no-op.
	w.Stop()
}
