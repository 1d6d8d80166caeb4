package api

import (
	"encoding/json"
	"net/http"

	"github.com/rubiojr/esview/pkg/config"
	"github.com/rubiojr/esview/pkg/log"
	"github.com/rubiojr/esview/pkg/viewer"
)

// Env gives handlers the configuration and viewer currently in effect. The
// web server swaps both when the configuration file is reloaded.
type Env interface {
	Config() *config.Config
	Viewer() *viewer.Service
}

type Server struct {
	env    Env
	logger *log.Logger
}

func NewServer(env Env) *Server {
	return &Server{
		env:    env,
		logger: log.ForService("api"),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.logger.Errorf("Error encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
