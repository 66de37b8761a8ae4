package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/harborchat/harbor/pkg/httpx"
)

// apiError is the wire shape for every error response the service emits.
type apiError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g., "invalid_credentials")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this apiError to an HTTP response writer.
func (e *apiError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	errInvalidRequest = &apiError{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_request",
		Description: "the request body is missing or malformed",
	}
	errInvalidCredentials = &apiError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "invalid_credentials",
		Description: "email or password is incorrect",
	}
	errDuplicateAccount = &apiError{
		StatusCode:  http.StatusConflict,
		Code:        "duplicate_account",
		Description: "an account with that email already exists",
	}
	errMissingCredential = &apiError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "missing_credential",
		Description: "no refresh token was presented",
	}
	errInvalidRefresh = &apiError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "invalid_refresh",
		Description: "the refresh token is invalid or expired",
	}
	errIdentityGone = &apiError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "identity_gone",
		Description: "the account behind this session no longer exists",
	}
	errUnauthenticated = &apiError{
		StatusCode:  http.StatusUnauthorized,
		Code:        "unauthenticated",
		Description: "a valid access token is required",
	}
	errUserNotFound = &apiError{
		StatusCode:  http.StatusNotFound,
		Code:        "user_not_found",
		Description: "no such user",
	}
	errServerError = &apiError{
		StatusCode:  http.StatusInternalServerError,
		Code:        "server_error",
		Description: "something went wrong on our side",
	}
)
