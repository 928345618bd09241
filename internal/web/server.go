package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nir0k/pixtrail/internal/app"
	"github.com/nir0k/pixtrail/internal/gpx"
	"github.com/nir0k/pixtrail/internal/media"
	"github.com/pkg/browser"
	"github.com/samber/lo"
)

//go:embed static
var staticFiles embed.FS

var (
	// ErrBusy is returned when a job is requested while another one runs.
	ErrBusy = errors.New("already running")
	// ErrBadRequest marks malformed client input.
	ErrBadRequest = errors.New("bad request")
)

// Options configures the web interface.
type Options struct {
	Host        string
	Port        int
	OpenBrowser bool
	LogLevel    string
	Creator     string
	// WorkDir holds per-job output directories; empty uses a fresh temp dir.
	WorkDir string
}

// ProcessRequest represents user input from the browser.
type ProcessRequest struct {
	InputDir  string `json:"inputDir"`
	Recursive bool   `json:"recursive"`
}

type boundsResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type jobResponse struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	FileName   string          `json:"fileName,omitempty"`
	PointCount int             `json:"pointCount"`
	Images     int             `json:"images"`
	NoGPS      int             `json:"noGps"`
	Unreadable int             `json:"unreadable"`
	Warnings   []string        `json:"warnings"`
	Bounds     *boundsResponse `json:"bounds,omitempty"`
}

// Server runs conversions requested from the browser.
type Server struct {
	opts Options
	log  app.Logger
	jobs *jobStore

	mu      sync.Mutex
	running bool
	workDir string

	upgrader websocket.Upgrader
}

// New builds a server. log receives server-level messages; each job also gets
// its own in-memory log.
func New(opts Options, log app.Logger) *Server {
	if strings.TrimSpace(opts.Host) == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "info"
	}
	// the zero Upgrader rejects handshakes whose Origin host differs from the
	// request host, so other sites cannot drive scans through the browser
	return &Server{
		opts: opts,
		log:  log,
		jobs: newJobStore(),
	}
}

// Addr is the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Handler returns the HTTP routes of the web interface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	mux.HandleFunc("GET /api/jobs/{id}/gpx", s.handleDownload)
	mux.HandleFunc("GET /api/jobs/{id}/log", s.handleLog)
	mux.HandleFunc("GET /api/ws", s.handleWebsocket)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and removes the job directories.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	url := "http://" + ln.Addr().String() + "/"
	s.log.Infof("Web interface listening on %s", url)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	if s.opts.OpenBrowser {
		if err := browser.OpenURL(url); err != nil {
			s.log.Warningf("Could not open browser: %v", err)
		}
	}

	defer s.cleanup()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Infof("Shutting down web interface")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) cleanup() {
	s.mu.Lock()
	dir := s.workDir
	s.mu.Unlock()
	if dir != "" && s.opts.WorkDir == "" {
		if err := os.RemoveAll(dir); err != nil {
			s.log.Warningf("Could not remove %s: %v", dir, err)
		}
	}
}

func (s *Server) jobRoot() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workDir != "" {
		return s.workDir, nil
	}
	if s.opts.WorkDir != "" {
		if err := os.MkdirAll(s.opts.WorkDir, 0o755); err != nil {
			return "", err
		}
		s.workDir = s.opts.WorkDir
		return s.workDir, nil
	}
	dir, err := os.MkdirTemp("", "pixtrail-web-*")
	if err != nil {
		return "", err
	}
	s.workDir = dir
	return dir, nil
}

// process runs one conversion into a private job directory.
func (s *Server) process(ctx context.Context, req ProcessRequest, progress app.ProgressFunc) (*job, error) {
	req.InputDir = strings.TrimSpace(req.InputDir)
	if req.InputDir == "" {
		return nil, fmt.Errorf("%w: inputDir is required", ErrBadRequest)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	root, err := s.jobRoot()
	if err != nil {
		return nil, fmt.Errorf("prepare work dir: %w", err)
	}

	j := &job{
		ID:       uuid.NewString(),
		InputDir: req.InputDir,
		Start:    time.Now(),
		log:      &logBuffer{},
	}
	j.Dir = filepath.Join(root, j.ID)
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare job dir: %w", err)
	}

	// no log file: the logger cannot be closed, and the job log lives in memory
	logInstance, err := app.NewLogger(app.LogOptions{Level: s.opts.LogLevel}, j.log)
	if err != nil {
		return nil, err
	}

	proc := &app.Processor{Log: logInstance, Creator: s.opts.Creator, Progress: progress}
	output := filepath.Join(j.Dir, app.OutputName(req.InputDir))

	s.log.Infof("Job %s: processing %s recursive=%t", j.ID, req.InputDir, req.Recursive)
	res, err := proc.ProcessAndGenerate(ctx, req.InputDir, output, req.Recursive)
	j.Result = res
	j.End = time.Now()
	s.jobs.put(j)
	if err != nil {
		s.log.Warningf("Job %s failed: %v", j.ID, err)
		return j, err
	}
	s.log.Infof("Job %s finished: %s", j.ID, res.Status)
	return j, nil
}

func (s *Server) response(j *job) jobResponse {
	res := j.Result
	out := jobResponse{
		ID:         j.ID,
		Status:     res.Status.String(),
		Message:    res.Message(),
		PointCount: res.PointCount,
		Images:     res.Images,
		NoGPS:      res.NoGPS,
		Unreadable: res.Unreadable,
		Warnings:   lo.Map(res.Warnings, func(w app.Warning, _ int) string { return w.String() }),
	}
	if !res.Success() {
		return out
	}
	out.FileName = filepath.Base(res.OutputPath)
	track, err := gpx.LoadTrack(res.OutputPath)
	if err != nil {
		s.log.Warningf("Job %s: reading back %s: %v", j.ID, res.OutputPath, err)
		return out
	}
	if start, end := track.Bounds(); !start.IsZero() {
		out.Bounds = &boundsResponse{Start: start, End: end}
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(staticFiles, "static/index.html")
	if err != nil {
		http.Error(w, "index not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	// a JSON content type cannot be sent cross-site without a preflight
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "Content-Type must be application/json"})
		return
	}

	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	j, err := s.process(r.Context(), req, nil)
	if err != nil && j == nil {
		writeError(w, err)
		return
	}
	if err != nil {
		writeJSON(w, statusFor(err), s.response(j))
		return
	}
	writeJSON(w, http.StatusOK, s.response(j))
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	j, ok := s.jobs.get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.response(j))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	j, ok := s.jobs.get(r.PathValue("id"))
	if !ok || !j.Result.Success() {
		http.NotFound(w, r)
		return
	}
	name := filepath.Base(j.Result.OutputPath)
	w.Header().Set("Content-Type", "application/gpx+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, j.Result.OutputPath)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	j, ok := s.jobs.get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(j.log.String()))
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warningf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	var req ProcessRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.log.Warningf("WebSocket read error: %v", err)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	emitter := newProgressEmitter(conn)
	j, err := s.process(r.Context(), req, emitter.update)
	switch {
	case j == nil:
		emitter.send(event{Type: "error", Error: err.Error()})
	default:
		resp := s.response(j)
		ev := event{Type: "result", Job: &resp}
		if err != nil {
			ev.Error = err.Error()
		}
		emitter.send(ev)
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, media.ErrNotDirectory):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
