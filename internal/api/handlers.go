package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/juju/errors"
)

// DecodeRequest is the body of POST /decode.
type DecodeRequest struct {
	Payload string `json:"payload"`
}

// DecodeJSON handles POST /decode.
func (h *Handler) DecodeJSON(w http.ResponseWriter, r *http.Request) {
	// a UTF-8 character takes at most 4 bytes, plus room for the JSON envelope
	body := http.MaxBytesReader(w, r.Body, int64(h.maxPayload)*4+1024)
	defer body.Close()

	var req DecodeRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		if err == io.EOF {
			h.writeError(w, http.StatusBadRequest, "empty request body")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	h.decode(w, req.Payload)
}

// DecodeQuery handles GET /decode?payload=...
func (h *Handler) DecodeQuery(w http.ResponseWriter, r *http.Request) {
	h.decode(w, r.URL.Query().Get("payload"))
}

func (h *Handler) decode(w http.ResponseWriter, payload string) {
	if strings.TrimSpace(payload) == "" {
		h.writeError(w, http.StatusBadRequest, "missing payload")
		return
	}
	if n := utf8.RuneCountInString(payload); n > h.maxPayload {
		h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("payload has %d characters, limit is %d", n, h.maxPayload))
		return
	}

	qr := h.decoder.Decode(payload)
	h.log.Debug("[api] decoded %d fields, %d merchant accounts (source %s)", len(qr.Fields), len(qr.MerchantAccounts), qr.Source)
	h.writeJSON(w, http.StatusOK, qr)
}
