package auth

// AuthResult is the terminal outcome of one authorization attempt, delivered
// exactly once through the completion callback. Exactly one of the three
// shapes is populated: a token (success), Canceled, or Err.
type AuthResult struct {
	// Token is the credential obtained on success.
	Token *AccessToken
	// Canceled reports that the user dismissed or abandoned the flow.
	Canceled bool
	// Err is the OAuth failure when the flow terminated in error.
	Err *OAuth2Error
}

// CompletionFunc receives the terminal result of an authorization attempt.
type CompletionFunc func(*AuthResult)

// SuccessResult wraps a credential in a success outcome.
func SuccessResult(token *AccessToken) *AuthResult {
	return &AuthResult{Token: token}
}

// CancelResult is the user-cancellation outcome. Cancellation is not an error.
func CancelResult() *AuthResult {
	return &AuthResult{Canceled: true}
}

// ErrorResult builds a failure outcome with an already-mapped code.
func ErrorResult(code ErrorCode, description string) *AuthResult {
	return &AuthResult{Err: &OAuth2Error{Code: code, Description: description}}
}
