package endpoints

import (
	"github.com/pu0238/vote-me/pkg/server"
)

// RegisterAll registers all API endpoints on the server.
func RegisterAll(srv *server.Server) {
	RegisterUsersEndpoints(srv)
	RegisterVotingsEndpoints(srv)
	RegisterStatusEndpoints(srv)
}
