package auth

import (
	"github.com/gasflow/backend/internal/application/tenantbilling"
)

// APIKeyCipher adapts the key helpers to the application port
type APIKeyCipher struct{}

// NewAPIKeyCipher creates a new APIKeyCipher
func NewAPIKeyCipher() APIKeyCipher {
	return APIKeyCipher{}
}

// Generate creates a new random API key
func (APIKeyCipher) Generate() (token, prefix, secretHash string, err error) {
	key, err := GenerateAPIKey()
	if err != nil {
		return "", "", "", err
	}
	return key.Token, key.Prefix, key.SecretHash, nil
}

// Split parses a presented token
func (APIKeyCipher) Split(token string) (prefix, secret string, err error) {
	return SplitAPIKey(token)
}

// Verify compares a presented secret against the stored hash
func (APIKeyCipher) Verify(secretHash, secret string) bool {
	return VerifyAPIKeySecret(secretHash, secret)
}

// Ensure APIKeyCipher implements the application port
var _ tenantbilling.APIKeyCipher = APIKeyCipher{}
