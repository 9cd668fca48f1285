package endpoints

import (
	"net/http"

	"github.com/pu0238/vote-me/pkg/model"
	"github.com/pu0238/vote-me/pkg/server"
	"github.com/pu0238/vote-me/pkg/server/middleware"
	"github.com/pu0238/vote-me/pkg/service"
)

// CreateVotingRequest is the body of PUT /votings/{name}.
type CreateVotingRequest struct {
	Description string `json:"description"`
}

// VoteRequest is the body of POST /votings/{name}/votes.
type VoteRequest struct {
	Vote string `json:"vote"`
}

// RegisterVotingsEndpoints registers the voting ledger endpoints.
func RegisterVotingsEndpoints(s *server.Server) {
	svc := s.Service

	s.Router.HandleFunc("/votings", handleListVotings(svc)).Methods("GET")
	s.Router.Handle("/votings/{name}", middleware.RequireToken(handleCreateVoting(svc))).Methods("PUT")
	s.Router.Handle("/votings/{name}/votes", middleware.RequireToken(handleCastVote(svc))).Methods("POST")
}

func handleListVotings(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		votings, err := svc.ListVotings(r.Context())
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, votings)
	}
}

func handleCreateVoting(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := pathVar(r, "name")
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}

		var req CreateVotingRequest
		if err := decodeBody(w, r, &req); err != nil {
			respondWithOperationError(w, r, err)
			return
		}

		tok := middleware.TokenFromContext(r.Context())
		if err := svc.CreateVoting(r.Context(), tok, name, req.Description); err != nil {
			respondWithOperationError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCastVote(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := pathVar(r, "name")
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}

		var req VoteRequest
		if err := decodeBody(w, r, &req); err != nil {
			respondWithOperationError(w, r, err)
			return
		}
		choice, err := model.ChoiceString(req.Vote)
		if err != nil {
			respondWithOperationError(w, r, errMalformedBody)
			return
		}

		tok := middleware.TokenFromContext(r.Context())
		v, err := svc.CastVote(r.Context(), tok, name, choice)
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, v)
	}
}
