package remote

import (
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pu0238/vote-me/pkg/derivation"
	"github.com/pu0238/vote-me/pkg/oracle"
)

const maxRequestBody = 64 << 10

// Handler serves an oracle.Oracle over the remote protocol. Requests for a
// different key id, or sign requests carrying fewer than fee cycles, are
// rejected before the oracle is called.
type Handler struct {
	oracle oracle.Oracle
	keyID  oracle.KeyID
	fee    uint64
	router *mux.Router
}

// NewHandler returns a handler for o.
func NewHandler(o oracle.Oracle, keyID oracle.KeyID, fee uint64) *Handler {
	h := &Handler{oracle: o, keyID: keyID, fee: fee, router: mux.NewRouter()}
	h.router.HandleFunc(PublicKeyEndpoint, h.handlePublicKey).Methods("POST")
	h.router.HandleFunc(SignEndpoint, h.handleSign).Methods("POST")
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	var req PublicKeyRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.KeyID != h.keyID {
		http.Error(w, "unknown key id", http.StatusBadRequest)
		return
	}

	pubHex, err := h.oracle.PublicKey(r.Context(), derivation.Path(req.DerivationPath))
	if err != nil {
		log.Printf("oracle: public key request %s failed: %v", r.Header.Get(RequestIDHeader), err)
		http.Error(w, "public key unavailable", http.StatusInternalServerError)
		return
	}
	pub, err := hex.DecodeString(pubHex)
	if err != nil {
		http.Error(w, "public key unavailable", http.StatusInternalServerError)
		return
	}
	writeReply(w, PublicKeyReply{PublicKey: pub})
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.KeyID != h.keyID {
		http.Error(w, "unknown key id", http.StatusBadRequest)
		return
	}
	if len(req.MessageHash) != 32 {
		http.Error(w, "message hash must be 32 bytes", http.StatusBadRequest)
		return
	}
	if req.Cycles < h.fee {
		http.Error(w, "insufficient cycles", http.StatusPaymentRequired)
		return
	}

	var digest [32]byte
	copy(digest[:], req.MessageHash)
	sig, err := h.oracle.Sign(r.Context(), derivation.Path(req.DerivationPath), digest)
	if err != nil {
		log.Printf("oracle: sign request %s failed: %v", r.Header.Get(RequestIDHeader), err)
		http.Error(w, "signing failed", http.StatusInternalServerError)
		return
	}
	writeReply(w, SignReply{Signature: sig})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "unreadable request", http.StatusBadRequest)
		return false
	}
	if err := decMode.Unmarshal(data, v); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeReply(w http.ResponseWriter, v interface{}) {
	data, err := encMode.Marshal(v)
	if err != nil {
		http.Error(w, "encode reply", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
