package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/subglot/subglot/internal/config"
	"github.com/subglot/subglot/internal/matcher"
	"github.com/subglot/subglot/internal/progress"
	"github.com/subglot/subglot/internal/service"
	"github.com/subglot/subglot/internal/tmdb"
)

type cacheStore interface {
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

type translationRunner interface {
	Run(ctx context.Context, pairs []matcher.Pair, overrides map[string]any) ([]service.Result, error)
	Busy() bool
}

type Server struct {
	runner      translationRunner
	settings    *config.SettingsManager
	cache       cacheStore
	broadcaster *progress.Broadcaster
	searcher    tmdb.Searcher

	uploadDir     string
	translatedDir string

	uiEnabled   bool
	uiStaticDir string

	maxUploadBytes int64

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithSearcher(searcher tmdb.Searcher) Option {
	return func(s *Server) {
		s.searcher = searcher
	}
}

func WithMaxUploadBytes(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.maxUploadBytes = limit
		}
	}
}

func NewServer(
	runner translationRunner,
	settings *config.SettingsManager,
	cache cacheStore,
	broadcaster *progress.Broadcaster,
	uploadDir, translatedDir string,
	opts ...Option,
) *Server {
	s := &Server{
		runner:         runner,
		settings:       settings,
		cache:          cache,
		broadcaster:    broadcaster,
		uploadDir:      uploadDir,
		translatedDir:  translatedDir,
		maxUploadBytes: 512 << 20,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/upload_files/", s.handleUploadFiles)
	s.mux.HandleFunc("/translate/", s.handleTranslate)
	s.mux.HandleFunc("/config/", s.handleConfig)
	s.mux.HandleFunc("/models/", s.handleModels)
	s.mux.HandleFunc("/tmdb/info", s.handleTMDBInfo)
	s.mux.HandleFunc("/logs/stream/", s.handleLogStream)
	s.mux.HandleFunc("/download/", s.handleDownload)
	s.mux.HandleFunc("/clear_cache", s.handleClearCache)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
