package app

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nir0k/pixtrail/internal/testsupport"
)

type recordingLogger struct {
	mu       sync.Mutex
	infos    []string
	warnings []string
	errors   []string
}

func (l *recordingLogger) Infof(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warningf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func photoAt(t *testing.T, dir, name string, lat, lon float64, minute int) {
	t.Helper()
	testsupport.WritePhoto(t, filepath.Join(dir, name), testsupport.Photo{
		Taken: time.Date(2024, 7, 14, 9, minute, 0, 0, time.UTC),
		GPS:   testsupport.DecimalGPS(lat, lon),
	})
}

func plainPhoto(t *testing.T, dir, name string) {
	t.Helper()
	testsupport.WritePhoto(t, filepath.Join(dir, name), testsupport.Photo{
		Taken: time.Date(2024, 7, 14, 9, 0, 0, 0, time.UTC),
	})
}
