package partnerapi

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"dispatch/internal/pkg/errs"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// tokenLifetime is how long each signed token is valid.
	tokenLifetime = 300 * time.Second

	// refreshMargin is the minimum remaining validity of a handed-out token.
	// A cached token with less life than this is replaced.
	refreshMargin = 15 * time.Second

	// versionHeader tags the token with the partner's expected JWT dialect.
	versionHeaderKey   = "dd-ver"
	versionHeaderValue = "DD-JWT-V1"

	audience = "doordash"
)

// Credentials are the three secrets the partner issues per integration.
// All three are required; GetToken fails with errs.ConfigError when any is
// missing or blank.
type Credentials struct {
	DeveloperID   string
	KeyID         string
	SigningSecret string
}

// Diagnostic describes the key credential by length and prefix only, safe for
// logs and error messages.
func (c Credentials) Diagnostic() string {
	prefix := c.KeyID
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return fmt.Sprintf("key_id has length %d, prefix %q", len(c.KeyID), prefix)
}

// CredentialSigner builds and caches short-lived signed tokens for partner API
// calls. Tokens are HS256 JWTs signed with the base64url-decoded signing
// secret; the cache hands a token out only while it has at least refreshMargin
// of validity left.
type CredentialSigner struct {
	creds Credentials
	clk   clock.Clock

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewCredentialSigner creates a signer for the given credentials. The clock is
// injected so cache expiry is testable with virtual time.
func NewCredentialSigner(creds Credentials, clk clock.Clock) *CredentialSigner {
	return &CredentialSigner{
		creds: creds,
		clk:   clk,
	}
}

// Credentials returns the configured credentials for diagnostics.
func (s *CredentialSigner) Credentials() Credentials {
	return s.creds
}

// GetToken returns a signed token with at least refreshMargin of remaining
// validity, reusing the cached one when possible. The cache mutation is the
// only side effect.
func (s *CredentialSigner) GetToken() (string, error) {
	if err := s.validateCredentials(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	if s.token != "" && now.Before(s.expiry.Add(-refreshMargin)) {
		return s.token, nil
	}

	token, expiry, err := s.sign(now)
	if err != nil {
		return "", err
	}

	s.token = token
	s.expiry = expiry
	return token, nil
}

func (s *CredentialSigner) validateCredentials() error {
	switch {
	case strings.TrimSpace(s.creds.DeveloperID) == "":
		return errs.NewConfigError("partner developer_id")
	case strings.TrimSpace(s.creds.KeyID) == "":
		return errs.NewConfigError("partner key_id")
	case strings.TrimSpace(s.creds.SigningSecret) == "":
		return errs.NewConfigError("partner signing_secret")
	}
	return nil
}

func (s *CredentialSigner) sign(now time.Time) (string, time.Time, error) {
	key, err := decodeSigningSecret(s.creds.SigningSecret)
	if err != nil {
		return "", time.Time{}, errs.NewConfigErrorWithCause("partner signing_secret", err)
	}

	expiry := now.Add(tokenLifetime)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": audience,
		"iss": s.creds.DeveloperID,
		"kid": s.creds.KeyID,
		"iat": now.Unix(),
		"exp": expiry.Unix(),
		"jti": uuid.NewString(),
	})
	token.Header["kid"] = s.creds.KeyID
	token.Header[versionHeaderKey] = versionHeaderValue

	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiry, nil
}

// decodeSigningSecret decodes the partner-issued base64url secret, tolerating
// both padded and unpadded forms.
func decodeSigningSecret(secret string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(secret, "="))
}
