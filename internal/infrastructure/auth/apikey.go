package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// API keys look like "gfk_<prefix>_<secret>": the prefix is stored in
// the clear for lookup, the secret only as a bcrypt hash.
const (
	apiKeyScheme  = "gfk"
	prefixBytes   = 6
	secretBytes   = 24
	apiKeySegs    = 3
	bcryptKeyCost = bcrypt.DefaultCost
)

// GeneratedKey is the one-time result of key generation. The plaintext
// token is shown to the caller once and never persisted.
type GeneratedKey struct {
	Token      string
	Prefix     string
	SecretHash string
}

// GenerateAPIKey creates a new random API key and its bcrypt hash
func GenerateAPIKey() (*GeneratedKey, error) {
	prefix, err := randomHex(prefixBytes)
	if err != nil {
		return nil, err
	}
	secret, err := randomHex(secretBytes)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptKeyCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash API key secret: %w", err)
	}

	return &GeneratedKey{
		Token:      fmt.Sprintf("%s_%s_%s", apiKeyScheme, prefix, secret),
		Prefix:     prefix,
		SecretHash: string(hash),
	}, nil
}

// SplitAPIKey parses a presented token into prefix and secret
func SplitAPIKey(token string) (prefix, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(token), "_")
	if len(parts) != apiKeySegs || parts[0] != apiKeyScheme || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed API key")
	}
	return parts[1], parts[2], nil
}

// VerifyAPIKeySecret compares a presented secret against the stored
// hash. bcrypt comparison is constant-time on the hash input.
func VerifyAPIKeySecret(secretHash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)) == nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
