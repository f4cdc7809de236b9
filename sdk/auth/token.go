package auth

// AccessToken is the durable credential record produced by a completed
// authorization flow. One record exists per user identifier; re-authorizing
// the same UID overwrites the previous record.
type AccessToken struct {
	// AccessToken is the opaque bearer string used to authenticate API requests.
	AccessToken string `json:"access_token"`

	// UID is the user identifier the credential belongs to. It doubles as the
	// storage key in the secure store.
	UID string `json:"uid"`

	// RefreshToken is present only for short-lived tokens.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenExpirationTimestamp is the access token expiry in epoch seconds.
	// Zero means the token carries no expiry.
	TokenExpirationTimestamp int64 `json:"token_expiration_timestamp,omitempty"`
}

// ShortLived reports whether the record carries refresh material, i.e. the
// provider issued a short-lived access token.
func (t *AccessToken) ShortLived() bool {
	return t.RefreshToken != ""
}
