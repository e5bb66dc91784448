package listener

import (
	"bytes"
	"sync"
)

// maxOutputBytes bounds the combined stdout+stderr captured for one command.
// Crossing it fails the command rather than truncating, so the dashboard
// never stores a silently incomplete result.
const maxOutputBytes = 1 << 20 // 1 MiB

// outputQuota is the byte budget shared by both streams of one command. The
// first write to cross the limit trips the quota and fires onExceeded, which
// the executor wires to the process's cancel function.
type outputQuota struct {
	mu         sync.Mutex
	remaining  int
	tripped    bool
	onExceeded func()
}

func newOutputQuota(limit int, onExceeded func()) *outputQuota {
	if limit <= 0 {
		limit = maxOutputBytes
	}
	return &outputQuota{remaining: limit, onExceeded: onExceeded}
}

// take reserves n bytes. It reports false once the quota is exhausted.
func (q *outputQuota) take(n int) bool {
	q.mu.Lock()
	if q.tripped {
		q.mu.Unlock()
		return false
	}
	if n > q.remaining {
		q.tripped = true
		q.mu.Unlock()
		if q.onExceeded != nil {
			q.onExceeded()
		}
		return false
	}
	q.remaining -= n
	q.mu.Unlock()
	return true
}

func (q *outputQuota) exceeded() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tripped
}

// capturedStream records one output stream against the shared quota. Writes
// past the quota are swallowed, not errored, so the process's pipe copier
// never blocks while the executor is killing the process.
type capturedStream struct {
	quota *outputQuota
	buf   bytes.Buffer
}

func newCapturedStream(quota *outputQuota) *capturedStream {
	return &capturedStream{quota: quota}
}

func (s *capturedStream) Write(p []byte) (int, error) {
	if s.quota.take(len(p)) {
		s.buf.Write(p)
	}
	return len(p), nil
}

func (s *capturedStream) String() string {
	return s.buf.String()
}
