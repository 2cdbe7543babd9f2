package dashboard

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

// HTTPConfig represents the config of the Server
type HTTPConfig struct {
	Bind string `yaml:"bind"`
}

// Server exposes the latest dashboard frame over HTTP. It implements Sink:
// each presentation cycle replaces the frame served by /snapshot.
type Server struct {
	config HTTPConfig

	mu    sync.RWMutex
	frame Frame
	ready bool

	srv    *http.Server
	logger *zap.SugaredLogger
}

// Render stores the frame for subsequent requests
func (s *Server) Render(frame Frame) error {
	s.mu.Lock()
	s.frame = frame
	s.ready = true
	s.mu.Unlock()

	return nil
}

// NewRouter builds the HTTP routes of the Server
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/snapshot", s.snapshotHandler).Methods("GET")

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) snapshotHandler(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	frame := s.frame
	ready := s.ready
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")

	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no frame rendered yet"})

		return
	}

	if err := json.NewEncoder(w).Encode(frame); err != nil {
		s.logger.Errorf("Server: failed to encode snapshot: %s", err)
	}
}

// Start the Server in the background. Listen errors after startup are
// logged, not fatal.
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:         s.config.Bind,
		Handler:      handlers.LoggingHandler(os.Stdout, s.NewRouter()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	s.logger.Infof("Server: listening on %s", s.config.Bind)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Server: %s", err)
		}
	}()
}

// Shutdown the Server
func (s *Server) Shutdown() error {
	if s.srv == nil {
		return nil
	}

	s.logger.Infof("Server: shutting down")

	return s.srv.Close()
}

// NewServer creates a new Server
func NewServer(config HTTPConfig, logger *zap.SugaredLogger) *Server {
	return &Server{
		config: config,
		logger: logger,
	}
}
