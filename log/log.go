package log

import (
	"os"
	"strconv"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("DSP_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Component returns an entry of the logger tagged with component name.
// New logger is created if l is nil.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	if l == nil {
		l = GetLogger()
	}
	return l.WithField("component", name)
}

// Shared is a component entry of a package. It can be replaced while
// other goroutines are logging.
type Shared struct {
	name  string
	entry atomic.Pointer[logrus.Entry]
}

// NewShared returns shared entry of a new logger.
func NewShared(name string) *Shared {
	s := Shared{name: name}
	s.Set(nil)
	return &s
}

// Set replaces the logger. New logger is created if l is nil.
func (s *Shared) Set(l *logrus.Logger) {
	s.entry.Store(Component(l, s.name))
}

// Entry returns current entry.
func (s *Shared) Entry() *logrus.Entry {
	return s.entry.Load()
}
