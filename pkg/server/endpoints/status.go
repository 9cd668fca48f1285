package endpoints

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pu0238/vote-me/pkg/config"
	"github.com/pu0238/vote-me/pkg/server"
	"github.com/pu0238/vote-me/pkg/store"
)

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	AppName string `json:"app_name"`
	Network string `json:"network"`
	Error   string `json:"error,omitempty"`
}

// RegisterStatusEndpoints registers the status page and the metrics
// endpoint.
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus(s.HealthStore, s.Config)).Methods("GET")
	s.Router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func handleStatus(healthStore store.HealthStore, cfg *config.VoteMeConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("VOTEME_VERSION_DISPLAY")
		if version == "" {
			version = "0.1.0"
		}

		response := StatusResponse{
			Status:  "ok",
			Version: version,
			AppName: cfg.AppName,
			Network: cfg.Network,
		}
		code := http.StatusOK

		if err := healthStore.CheckConnectivity(r.Context()); err != nil {
			response.Status = "error"
			response.Error = "storage connectivity check failed"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(response)
	}
}
