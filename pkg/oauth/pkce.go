package oauth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// VerifierLength is the number of characters in a PKCE code verifier.
	// RFC 7636 allows 43-128 characters from the unreserved set.
	VerifierLength = 64

	// ChallengeMethodS256 is the only challenge method we send.
	ChallengeMethodS256 = "S256"

	verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// PKCEChallenge holds a verifier and the challenge derived from it.
type PKCEChallenge struct {
	// CodeVerifier is kept by the client and sent only on code exchange.
	CodeVerifier string

	// CodeChallenge is the S256 digest of the verifier, base64url without padding.
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string
}

// GeneratePKCE generates a new alphanumeric code verifier and its S256 challenge.
func GeneratePKCE() (*PKCEChallenge, error) {
	verifier, err := randomAlphanumeric(VerifierLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	return &PKCEChallenge{
		CodeVerifier:        verifier,
		CodeChallenge:       ChallengeFromVerifier(verifier),
		CodeChallengeMethod: ChallengeMethodS256,
	}, nil
}

// ChallengeFromVerifier computes the S256 code challenge for a verifier.
func ChallengeFromVerifier(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// GenerateState generates the anti-CSRF state parameter. It is independent
// of the verifier.
func GenerateState() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return id.String(), nil
}

func randomAlphanumeric(n int) (string, error) {
	max := big.NewInt(int64(len(verifierAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = verifierAlphabet[idx.Int64()]
	}
	return string(out), nil
}
