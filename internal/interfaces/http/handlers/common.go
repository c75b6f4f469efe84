// Package handlers implements the HTTP layer's run-control endpoints: thin
// adapters from chi routes to one internal/runtime.Session per request body.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/turtacn/mfa-engine/internal/infrastructure/auth/keycloak"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// getUserIDFromContext extracts the caller's subject from request context,
// set by keycloak.AuthMiddleware.
func getUserIDFromContext(r *http.Request) string {
	id, _ := keycloak.UserIDFromContext(r.Context())
	return id
}

// parsePagination extracts page and page_size from query parameters.
func parsePagination(r *http.Request) (int, int) {
	page := 1
	pageSize := 20

	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return page, pageSize
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, statusCode int, err error) {
	resp := ErrorResponse{
		Code:    http.StatusText(statusCode),
		Message: err.Error(),
	}
	writeJSON(w, statusCode, resp)
}

// writeAppError maps an mfaerr.Code to its HTTP status and writes it.
func writeAppError(w http.ResponseWriter, err error) {
	switch mfaerr.GetCode(err) {
	case mfaerr.CodeCompoundNotFound, mfaerr.CodeReactionNotFound, mfaerr.CodeGeneNotFound,
		mfaerr.CodeCompartmentNotFound, mfaerr.CodeNotFound:
		writeError(w, http.StatusNotFound, err)
	case mfaerr.CodeInvalidParam, mfaerr.CodeParameterContradiction, mfaerr.CodeBoundsInverted,
		mfaerr.CodeBalanceViolation, mfaerr.CodeMissingEnergy, mfaerr.CodeGeneLogicInvalid:
		writeError(w, http.StatusBadRequest, err)
	case mfaerr.CodeConflict:
		writeError(w, http.StatusConflict, err)
	case mfaerr.CodeUnauthorized:
		writeError(w, http.StatusUnauthorized, err)
	case mfaerr.CodeForbidden:
		writeError(w, http.StatusForbidden, err)
	case mfaerr.CodeTimeout, mfaerr.CodeSolveTimeout:
		writeError(w, http.StatusGatewayTimeout, err)
	case mfaerr.CodeNotImplemented:
		writeError(w, http.StatusNotImplemented, err)
	default:
		writeError(w, http.StatusInternalServerError, mfaerr.New(mfaerr.CodeInternal, "internal server error"))
	}
}
