package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

var alphanumeric = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func TestGeneratePKCE(t *testing.T) {
	pkce, err := GeneratePKCE()
	if err != nil {
		t.Fatalf("GeneratePKCE() error = %v", err)
	}

	if len(pkce.CodeVerifier) != VerifierLength {
		t.Errorf("CodeVerifier length = %d, want %d", len(pkce.CodeVerifier), VerifierLength)
	}

	if !alphanumeric.MatchString(pkce.CodeVerifier) {
		t.Errorf("CodeVerifier %q is not alphanumeric", pkce.CodeVerifier)
	}

	if pkce.CodeChallengeMethod != "S256" {
		t.Errorf("CodeChallengeMethod = %q, want %q", pkce.CodeChallengeMethod, "S256")
	}

	hash := sha256.Sum256([]byte(pkce.CodeVerifier))
	expectedChallenge := base64.RawURLEncoding.EncodeToString(hash[:])
	if pkce.CodeChallenge != expectedChallenge {
		t.Errorf("CodeChallenge = %q, want %q", pkce.CodeChallenge, expectedChallenge)
	}
}

func TestGeneratePKCE_ChallengeIsUnpaddedBase64URL(t *testing.T) {
	pkce, err := GeneratePKCE()
	if err != nil {
		t.Fatalf("GeneratePKCE() error = %v", err)
	}

	if pkce.CodeChallenge != oauth2.S256ChallengeFromVerifier(pkce.CodeVerifier) {
		t.Errorf("challenge does not match S256 of verifier")
	}

	for _, c := range pkce.CodeChallenge {
		if c == '=' || c == '+' || c == '/' {
			t.Fatalf("challenge %q is not unpadded base64url", pkce.CodeChallenge)
		}
	}
}

func TestGeneratePKCE_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pkce, err := GeneratePKCE()
		if err != nil {
			t.Fatalf("GeneratePKCE() error = %v", err)
		}

		if seen[pkce.CodeVerifier] {
			t.Error("Generated duplicate CodeVerifier")
		}
		seen[pkce.CodeVerifier] = true
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}

	if _, err := uuid.Parse(state); err != nil {
		t.Errorf("state %q is not a UUID: %v", state, err)
	}
}

func TestGenerateState_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("GenerateState() error = %v", err)
		}

		if seen[state] {
			t.Error("Generated duplicate state")
		}
		seen[state] = true
	}
}

func TestChallengeFromVerifier_KnownVector(t *testing.T) {
	// RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got := ChallengeFromVerifier(verifier); got != want {
		t.Errorf("ChallengeFromVerifier() = %q, want %q", got, want)
	}
}
