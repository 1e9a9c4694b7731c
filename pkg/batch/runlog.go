package batch

import (
	"strings"
	"sync"

	"github.com/go-kit/log"
)

// RunLog is a logger that keeps a logfmt transcript of everything logged through it
// and forwards records to the next logger
type RunLog struct {
	next log.Logger

	mu      sync.Mutex
	content strings.Builder
	capture log.Logger
}

func NewRunLog(next log.Logger) *RunLog {
	if next == nil {
		next = log.NewNopLogger()
	}

	l := &RunLog{next: next}
	l.capture = log.NewLogfmtLogger(&l.content)
	return l
}

func (l *RunLog) Log(keyvals ...any) error {
	l.mu.Lock()
	err := l.capture.Log(keyvals...)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	return l.next.Log(keyvals...)
}

func (l *RunLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.content.String()
}
