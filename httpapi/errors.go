package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// errorResponse is the body of every rejected request: the typed code and
// offending field path, never a free-form message (spec §7 "every failed
// append returns the error code and the offending field path").
type errorResponse struct {
	Code  kernelerrors.Code `json:"code"`
	Field string            `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeKernelError(w http.ResponseWriter, kerr *kernelerrors.KernelError) {
	writeJSON(w, kerr.HTTPStatus(), errorResponse{Code: kerr.Code, Field: kerr.Field})
}

func writeBadRequest(w http.ResponseWriter, field string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: kernelerrors.BadSchema, Field: field})
}

// writeInternalError never echoes the underlying error text to the client
// (spec §7: "no free-form messages cross the kernel boundary"); callers
// log the real error themselves before invoking this.
func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Code: kernelerrors.IOError})
}
