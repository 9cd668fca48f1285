package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/pu0238/vote-me/pkg/caller"
	"github.com/pu0238/vote-me/pkg/config"
	"github.com/pu0238/vote-me/pkg/server/middleware"
	"github.com/pu0238/vote-me/pkg/service"
	"github.com/pu0238/vote-me/pkg/store"
)

type Server struct {
	Service     *service.Service
	HealthStore store.HealthStore
	Caller      caller.Provider
	Config      *config.VoteMeConfig
	Router      *mux.Router
	srv         *http.Server
}

func NewServer(
	svc *service.Service,
	health store.HealthStore,
	provider caller.Provider,
	cfg *config.VoteMeConfig,
	host string,
	port string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	router.Use(middleware.RequestContext)
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Oracle calls are bounded by oracle_timeout, well below these.
		WriteTimeout: 45 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Service:     svc,
		HealthStore: health,
		Caller:      provider,
		Config:      cfg,
		Router:      router,
		srv:         srv,
	}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
