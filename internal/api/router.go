// Package api exposes the decoder over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/juju/errors"

	"github.com/gregLibert/emv-qr/pkg/emv"
)

// Handler serves decode requests.
type Handler struct {
	decoder    *emv.Decoder
	log        emv.Logger
	maxPayload int
}

// NewHandler creates a Handler rejecting payloads longer than maxPayload characters.
func NewHandler(decoder *emv.Decoder, log emv.Logger, maxPayload int) *Handler {
	return &Handler{decoder: decoder, log: log, maxPayload: maxPayload}
}

// NewRouter wires the routes:
//
//	GET  /health
//	POST /decode   {"payload": "..."}
//	GET  /decode?payload=...
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "OK"); err != nil {
			h.log.Warn("[api] write health response: %v", err)
		}
	}).Methods(http.MethodGet)
	r.HandleFunc("/decode", h.DecodeJSON).Methods(http.MethodPost)
	r.HandleFunc("/decode", h.DecodeQuery).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path))
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("no route for %s", r.URL.Path))
	})
	return r
}

// Serve runs the HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, log emv.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Debug("[api] listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Annotatef(err, "listen on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Annotate(err, "shutdown")
		}
		return nil
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("[api] encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}
