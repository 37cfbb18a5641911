package tenantbilling

// APIKeyCipher generates and verifies API key material. The
// implementation lives in infrastructure/auth.
type APIKeyCipher interface {
	// Generate returns a fresh token, its lookup prefix and the hash to
	// store. The token is shown to the caller once.
	Generate() (token, prefix, secretHash string, err error)
	// Split parses a presented token into prefix and secret
	Split(token string) (prefix, secret string, err error)
	// Verify compares a presented secret against the stored hash
	Verify(secretHash, secret string) bool
}
