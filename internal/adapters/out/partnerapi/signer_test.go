package partnerapi_test

import (
	"encoding/base64"
	"testing"
	"time"

	"dispatch/internal/adapters/out/partnerapi"
	"dispatch/internal/pkg/errs"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredentials() partnerapi.Credentials {
	return partnerapi.Credentials{
		DeveloperID:   "dev-123",
		KeyID:         "key-456",
		SigningSecret: base64.RawURLEncoding.EncodeToString([]byte("super-secret-signing-key")),
	}
}

func TestCredentialSigner_GetToken(t *testing.T) {
	t.Run("should sign a well-formed token", func(t *testing.T) {
		creds := testCredentials()
		signer := partnerapi.NewCredentialSigner(creds, clock.NewMock())

		token, err := signer.GetToken()

		require.NoError(t, err)
		require.NotEmpty(t, token)

		parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
			return []byte("super-secret-signing-key"), nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
		require.NoError(t, err)

		assert.Equal(t, "key-456", parsed.Header["kid"])
		assert.Equal(t, "DD-JWT-V1", parsed.Header["dd-ver"])

		claims, ok := parsed.Claims.(jwt.MapClaims)
		require.True(t, ok)
		assert.Equal(t, "doordash", claims["aud"])
		assert.Equal(t, "dev-123", claims["iss"])
		assert.Equal(t, "key-456", claims["kid"])
		assert.NotEmpty(t, claims["jti"])

		iat, _ := claims.GetIssuedAt()
		exp, _ := claims.GetExpirationTime()
		assert.Equal(t, 300*time.Second, exp.Sub(iat.Time))
	})

	t.Run("should reuse a cached token while fresh", func(t *testing.T) {
		clk := clock.NewMock()
		signer := partnerapi.NewCredentialSigner(testCredentials(), clk)

		first, err := signer.GetToken()
		require.NoError(t, err)

		clk.Add(280 * time.Second)

		second, err := signer.GetToken()
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("should refresh inside the expiry margin", func(t *testing.T) {
		clk := clock.NewMock()
		signer := partnerapi.NewCredentialSigner(testCredentials(), clk)

		first, err := signer.GetToken()
		require.NoError(t, err)

		clk.Add(290 * time.Second)

		second, err := signer.GetToken()
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("should accept a padded signing secret", func(t *testing.T) {
		creds := testCredentials()
		creds.SigningSecret = base64.URLEncoding.EncodeToString([]byte("padded-secret-value"))
		signer := partnerapi.NewCredentialSigner(creds, clock.NewMock())

		token, err := signer.GetToken()

		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("should fail with missing credentials", func(t *testing.T) {
		for name, creds := range map[string]partnerapi.Credentials{
			"developer id":   {KeyID: "k", SigningSecret: "c2VjcmV0"},
			"key id":         {DeveloperID: "d", SigningSecret: "c2VjcmV0"},
			"signing secret": {DeveloperID: "d", KeyID: "k"},
		} {
			signer := partnerapi.NewCredentialSigner(creds, clock.NewMock())

			_, err := signer.GetToken()

			require.Error(t, err, name)
			require.ErrorIs(t, err, errs.ErrConfigIsInvalid, name)
		}
	})
}

func TestCredentials_Diagnostic(t *testing.T) {
	t.Run("should describe the key by length and prefix", func(t *testing.T) {
		creds := partnerapi.Credentials{KeyID: "key-456-long"}

		assert.Equal(t, `key_id has length 12, prefix "key-"`, creds.Diagnostic())
	})

	t.Run("should handle short keys", func(t *testing.T) {
		creds := partnerapi.Credentials{KeyID: "ab"}

		assert.Equal(t, `key_id has length 2, prefix "ab"`, creds.Diagnostic())
	})
}
