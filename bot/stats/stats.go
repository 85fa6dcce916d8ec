package stats

import (
	"sync/atomic"
	"time"
)

type Stats struct {
	MessagesSent atomic.Int64
	MessagesRcv  atomic.Int64
	startTime    time.Time
}

func New() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) Uptime() string {
	return time.Since(s.startTime).Truncate(time.Second).String()
}
