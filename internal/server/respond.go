package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/reconcile"
)

// loginPath is where clients are sent when the session is gone.
const loginPath = "/login"

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status   int    `json:"status"`
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Detail   string `json:"detail,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// outcomeView reports the local effect of a mutation.
type outcomeView struct {
	Outcome   string `json:"outcome"`
	SyncError string `json:"sync_error,omitempty"`
}

func outcomeOf(res reconcile.Result) outcomeView {
	v := outcomeView{Outcome: res.Outcome.String()}
	if res.SyncErr != nil {
		v.SyncError = apperr.UserMessage(res.SyncErr)
	}
	return v
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		if apperr.CodeOf(err) == apperr.CodeSubmissionInFlight {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindRemoteRejected:
		switch apperr.CodeOf(err) {
		case apperr.CodeForbidden, apperr.CodeNotAdmin:
			return http.StatusForbidden
		}
		return http.StatusUnprocessableEntity
	case apperr.KindNetworkUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindNotFound:
		return http.StatusNotFound
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

// parseID extracts a path parameter by name and parses it as int64.
func parseID(r *http.Request, param string) (int64, error) {
	v := r.PathValue(param)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(apperr.CodeInvalidRequest, fmt.Sprintf("invalid %s: %s", param, v))
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation(apperr.CodeInvalidRequest, fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: %v", err)
	}
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeErr writes err in the standard envelope. Unauthenticated responses
// point the client at the login page.
func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		log.Printf("ERROR %d: %v", status, err)
	}
	body := APIError{
		Status:  status,
		Error:   http.StatusText(status),
		Code:    apperr.CodeOf(err),
		Message: apperr.UserMessage(err),
		Detail:  err.Error(),
	}
	if status == http.StatusUnauthorized {
		body.Redirect = loginPath
	}
	writeJSON(w, status, body)
}
