// Package httputil renders the JSON envelopes shared by every HTTP handler.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "authgate/pkg/domain-errors"
)

// errorResponse is the wire shape of every error. Field is present only for
// failures attributed to a request field; fields lists all of them when a
// single request trips more than one.
type errorResponse struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description,omitempty"`
	Field            string   `json:"field,omitempty"`
	Fields           []string `json:"fields,omitempty"`
}

// WriteJSON encodes payload with the given status. Encoding failures are
// swallowed: the status line is already committed by then.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError renders err as a JSON error envelope. Domain errors map their
// code to a status; anything else is treated as internal. Internal errors
// never expose their description so upstream details cannot leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		de = dErrors.New(dErrors.CodeInternal, err.Error())
	}

	resp := errorResponse{Error: string(de.Code)}
	if de.Code != dErrors.CodeInternal {
		resp.ErrorDescription = de.Description
		resp.Field = de.Field
		resp.Fields = de.Fields
	}

	WriteJSON(w, dErrors.ToHTTPStatus(de.Code), resp)
}
