package skyhook

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	codeVerifierLength  = 128
	codeVerifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// CodeChallengeMethodS256 is the only challenge method this client uses.
	CodeChallengeMethodS256 = "S256"
)

// PKCECodes holds one attempt's PKCE parameters following RFC 7636. The
// verifier never leaves the process; only the derived challenge is placed on
// the wire, so a network observer cannot reconstruct the verifier.
type PKCECodes struct {
	// CodeVerifier is a 128-character random alphanumeric string, generated
	// fresh per authorization attempt.
	CodeVerifier string
	// CodeChallenge is the SHA-256 digest of the verifier, base64url-encoded
	// without padding.
	CodeChallenge string
	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string
}

// GeneratePKCECodes generates a fresh PKCE verifier and its derived
// challenge.
func GeneratePKCECodes() (*PKCECodes, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return &PKCECodes{
		CodeVerifier:        verifier,
		CodeChallenge:       deriveCodeChallenge(verifier),
		CodeChallengeMethod: CodeChallengeMethodS256,
	}, nil
}

// generateCodeVerifier creates a cryptographically random alphanumeric
// string of codeVerifierLength characters. Rejection sampling keeps the
// character distribution uniform.
func generateCodeVerifier() (string, error) {
	out := make([]byte, 0, codeVerifierLength)
	buf := make([]byte, 64)
	// 248 is the largest multiple of len(codeVerifierCharset) below 256.
	const limit = 248
	for len(out) < codeVerifierLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, codeVerifierCharset[int(b)%len(codeVerifierCharset)])
			if len(out) == codeVerifierLength {
				break
			}
		}
	}
	return string(out), nil
}

// deriveCodeChallenge hashes the verifier with SHA-256 and encodes the
// digest using URL-safe base64 without padding.
func deriveCodeChallenge(codeVerifier string) string {
	hash := sha256.Sum256([]byte(codeVerifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
