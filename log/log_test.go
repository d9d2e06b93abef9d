package log_test

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"pipelined.dev/dsp/log"
)

func TestShared(t *testing.T) {
	s := log.NewShared("graph")
	assert.Equal(t, "graph", s.Entry().Data["component"])

	l, hook := test.NewNullLogger()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.Entry().Debug("concurrent")
		}
	}()
	go func() {
		defer wg.Done()
		s.Set(l)
	}()
	wg.Wait()

	s.Entry().Error("replaced")
	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, "replaced", entry.Message)
		assert.Equal(t, "graph", entry.Data["component"])
	}
}
