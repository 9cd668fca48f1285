package endpoints

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/pu0238/vote-me/pkg/server"
	"github.com/pu0238/vote-me/pkg/server/middleware"
	"github.com/pu0238/vote-me/pkg/service"
)

// RegisterRequest is the body of POST /users/{username}.
type RegisterRequest struct {
	Salt string `json:"salt"`
}

// RegisterUsersEndpoints registers identity registration, salt lookup and
// login.
func RegisterUsersEndpoints(s *server.Server) {
	svc := s.Service
	callerIdentity := middleware.NewCallerIdentity(s.Caller)

	s.Router.Handle("/users/{username}", callerIdentity.Middleware(handleRegister(svc))).Methods("POST")
	s.Router.HandleFunc("/users/{username}/salt", handleSalt(svc)).Methods("GET")
	s.Router.Handle("/users/{username}/login", callerIdentity.Middleware(handleLogin(svc))).Methods("POST")
}

func handleRegister(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := pathVar(r, "username")
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}

		var req RegisterRequest
		if err := decodeBody(w, r, &req); err != nil {
			respondWithOperationError(w, r, err)
			return
		}
		if req.Salt == "" {
			respondWithOperationError(w, r, errMalformedBody)
			return
		}

		tok, err := svc.Register(r.Context(), username, req.Salt)
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}
		respondWithText(w, http.StatusCreated, tok)
	}
}

func handleSalt(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := pathVar(r, "username")
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}

		salt, err := svc.Salt(r.Context(), username)
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}
		respondWithText(w, http.StatusOK, salt)
	}
}

func handleLogin(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := pathVar(r, "username")
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}

		tok, err := svc.Login(r.Context(), username)
		if err != nil {
			respondWithOperationError(w, r, err)
			return
		}
		respondWithText(w, http.StatusOK, tok)
	}
}

// pathVar returns the unescaped route variable. The router matches on
// the encoded path.
func pathVar(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(mux.Vars(r)[name])
	if err != nil || v == "" {
		return "", errMalformedBody
	}
	return v, nil
}
