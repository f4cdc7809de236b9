// Package auth defines the public contracts of the Skyhook authorization
// manager: the credential record and secure store, the platform presenter
// surface the host app implements, the token-exchange transport, and the
// result/error types delivered to flow completions.
package auth

import (
	"errors"
	"fmt"
)

// ErrorCode is the closed set of OAuth 2.0 error codes the manager surfaces,
// extended with the two client-side codes `inconsistent_state` and `unknown`.
type ErrorCode string

const (
	// ErrorUnauthorizedClient indicates the client is not authorized to use this flow.
	ErrorUnauthorizedClient ErrorCode = "unauthorized_client"
	// ErrorAccessDenied indicates the user or server refused the request.
	ErrorAccessDenied ErrorCode = "access_denied"
	// ErrorUnsupportedResponseType indicates the server does not support the requested response type.
	ErrorUnsupportedResponseType ErrorCode = "unsupported_response_type"
	// ErrorInvalidScope indicates a malformed or unknown scope was requested.
	ErrorInvalidScope ErrorCode = "invalid_scope"
	// ErrorServerError indicates an internal failure on the authorization server.
	ErrorServerError ErrorCode = "server_error"
	// ErrorTemporarilyUnavailable indicates the server is overloaded or in maintenance.
	ErrorTemporarilyUnavailable ErrorCode = "temporarily_unavailable"
	// ErrorInconsistentState indicates the redirect's CSRF state did not match the persisted one.
	ErrorInconsistentState ErrorCode = "inconsistent_state"
	// ErrorUnknown is the fallback for unrecognized server-supplied codes and malformed redirects.
	ErrorUnknown ErrorCode = "unknown"
)

// ErrorCodeFromString maps a raw server-supplied error code string onto the
// closed ErrorCode set, falling back to ErrorUnknown for anything it does
// not recognize.
func ErrorCodeFromString(raw string) ErrorCode {
	switch ErrorCode(raw) {
	case ErrorUnauthorizedClient, ErrorAccessDenied, ErrorUnsupportedResponseType,
		ErrorInvalidScope, ErrorServerError, ErrorTemporarilyUnavailable,
		ErrorInconsistentState:
		return ErrorCode(raw)
	default:
		return ErrorUnknown
	}
}

// OAuth2Error is an OAuth protocol failure surfaced to the caller through the
// completion callback. It is never returned as a plain Go error from the
// redirect handler.
type OAuth2Error struct {
	// Code is the mapped OAuth error code.
	Code ErrorCode `json:"error"`
	// Description is the human-readable description supplied by the server, if any.
	Description string `json:"error_description,omitempty"`
}

// NewOAuth2Error builds an OAuth2Error from a raw server code and description.
func NewOAuth2Error(rawCode, description string) *OAuth2Error {
	return &OAuth2Error{Code: ErrorCodeFromString(rawCode), Description: description}
}

// Error returns a string representation of the OAuth error.
func (e *OAuth2Error) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("oauth error: %s", e.Code)
}

// FlowError represents a precondition failure that stops an authorization
// flow before any URL is presented.
type FlowError struct {
	// Type identifies the failure class.
	Type string
	// Message is the message shown to the user or developer.
	Message string
	// Retryable reports whether re-invoking the flow with identical
	// arguments can succeed (network errors yes, misconfiguration no).
	Retryable bool
}

// Error returns a string representation of the flow error.
func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Common flow error values.
var (
	// ErrNetworkUnavailable indicates no network connection was available
	// when the flow started. Presented with Cancel/Retry actions.
	ErrNetworkUnavailable = &FlowError{
		Type:      "network_unavailable",
		Message:   "Try again once you have an internet connection.",
		Retryable: true,
	}

	// ErrAppNotRegistered indicates the host app is not registered for its
	// own custom URL scheme. Developer-facing and fatal to the flow.
	ErrAppNotRegistered = &FlowError{
		Type:      "app_not_registered",
		Message:   "The app is not registered to handle its redirect URL scheme. Register the scheme and rebuild.",
		Retryable: false,
	}
)

// IsFlowError checks if an error is a FlowError.
func IsFlowError(err error) bool {
	var flowError *FlowError
	return errors.As(err, &flowError)
}

// IsOAuth2Error checks if an error is an OAuth2Error.
func IsOAuth2Error(err error) bool {
	var oauthError *OAuth2Error
	return errors.As(err, &oauthError)
}

// UserFacingMessage maps an error onto a message suitable for an end-user
// dialog, hiding protocol details.
func UserFacingMessage(err error) string {
	var oauthErr *OAuth2Error
	if errors.As(err, &oauthErr) {
		switch oauthErr.Code {
		case ErrorAccessDenied:
			return "Authorization was cancelled or denied."
		case ErrorServerError, ErrorTemporarilyUnavailable:
			return "The authorization server is unavailable. Please try again later."
		case ErrorInconsistentState:
			return "The authorization flow was interrupted. Please start over."
		default:
			if oauthErr.Description != "" {
				return fmt.Sprintf("Authorization failed: %s", oauthErr.Description)
			}
			return "Authorization failed. Please try again."
		}
	}
	var flowErr *FlowError
	if errors.As(err, &flowErr) {
		return flowErr.Message
	}
	return "An unexpected error occurred. Please try again."
}
