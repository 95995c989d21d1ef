package klog

import (
	"container/ring"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Ring is a fixed-size logger that keeps the most recent N lines in memory.
// Used by the console collaborator (internal/console) to show recent kernel
// log output without requiring a backing file.
type Ring struct {
	mu   sync.Mutex
	r    *ring.Ring
	size int
}

func NewRing(size int) *Ring {
	return &Ring{r: ring.New(size), size: size}
}

// Println mimics golang's log.Logger.Output, prepending a timestamp.
func (l *Ring) Println(v ...interface{}) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var buf []byte
	h, m, s := now.Clock()
	buf = strconv.AppendInt(buf, int64(h), 10)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, int64(m), 10)
	buf = append(buf, ':')
	buf = strconv.AppendInt(buf, int64(s), 10)
	buf = append(buf, ' ')
	buf = append(buf, fmt.Sprintln(v...)...)

	l.r = l.r.Next()
	l.r.Value = string(buf)
}

// Dump returns the retained lines, oldest first.
func (l *Ring) Dump() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string
	l.r.Next().Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(string))
		}
	})
	return out
}
