package endpoints

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pu0238/vote-me/pkg/caller"
	"github.com/pu0238/vote-me/pkg/ledger"
	"github.com/pu0238/vote-me/pkg/oracle"
	"github.com/pu0238/vote-me/pkg/store"
	"github.com/pu0238/vote-me/pkg/token"
)

var errMalformedBody = errors.New("malformed request body")

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

// statusFor maps operation errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, caller.ErrAnonymous), errors.Is(err, token.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, oracle.ErrOracle):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrAdminPending):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithOperationError writes err with its mapped status. Internal
// errors are logged and replaced by a generic message.
func respondWithOperationError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case http.StatusInternalServerError:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		msg = "internal error"
	case http.StatusUnauthorized:
		// Every token failure looks the same to clients.
		if errors.Is(err, token.ErrInvalidToken) {
			msg = token.ErrInvalidToken.Error()
		}
	case http.StatusBadGateway:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
		msg = store.ErrAdminPending.Error()
	}
	respondWithError(w, code, msg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		return errMalformedBody
	}
	return nil
}
