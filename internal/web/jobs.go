package web

import (
	"bytes"
	"sync"
	"time"

	"github.com/nir0k/pixtrail/internal/app"
)

// job is one processed directory kept for download until the server stops.
type job struct {
	ID       string
	InputDir string
	Dir      string
	Result   app.Result
	Start    time.Time
	End      time.Time
	log      *logBuffer
}

// logBuffer collects a job's log lines. It is written by the pipeline while
// HTTP handlers may read it.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*job)}
}

func (s *jobStore) put(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

func (s *jobStore) get(id string) (*job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}
