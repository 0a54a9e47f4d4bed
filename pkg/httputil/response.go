package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/buildright/sitegate/pkg/ratelimit"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the standardized API error body.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// WriteErrorMessage writes a JSON error response with a custom message.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// WriteErrorCode writes a JSON error response carrying a machine-readable code.
func WriteErrorCode(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Message: message, Error: code})
}

// WriteBadRequest writes a bad request error (400).
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized error (401).
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteErrorCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", message)
}

// WriteForbidden writes a forbidden error (403).
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteErrorCode(w, http.StatusForbidden, "FORBIDDEN", message)
}

// WriteNotFound writes a not found error (404).
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusNotFound, message)
}

// WriteInternalError writes an internal server error (500) without leaking
// the underlying error to the caller.
func WriteInternalError(w http.ResponseWriter) {
	WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
}

// SuccessResponse is the standardized API success envelope.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteSuccess writes a 200 response with the success envelope.
func WriteSuccess(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message, Data: data})
}

// WriteCreated writes a 201 response with the success envelope.
func WriteCreated(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Success: true, Message: message, Data: data})
}

// RateLimitErrorResponse is the body of a 429 response. RetryAfter is in
// seconds and is the only machine-readable countdown the API exposes.
type RateLimitErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// SetRateLimitHeaders attaches the X-RateLimit-* headers for a verdict.
func SetRateLimitHeaders(w http.ResponseWriter, limit, remaining int, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// WriteRateLimited writes a 429 response with rate headers, Retry-After, and
// the standard body. code distinguishes the exhausted scope, e.g.
// LOGIN_EMAIL_RATE_LIMIT_EXCEEDED.
func WriteRateLimited(w http.ResponseWriter, code, message string, res ratelimit.Result) {
	retryAfter := int(res.RetryAfter(time.Now()).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	SetRateLimitHeaders(w, res.Limit, res.Remaining, res.ResetAt)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	WriteJSON(w, http.StatusTooManyRequests, RateLimitErrorResponse{
		Success:    false,
		Message:    message,
		Error:      code,
		RetryAfter: retryAfter,
	})
}

// SetSecurityHeaders attaches the fixed security header set for API responses.
func SetSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")
}
