package mfa

// Encryptor encrypts and decrypts secrets bound to a scope.
type Encryptor interface {
	// Encrypt returns ciphertext for the given plaintext and scope.
	Encrypt(plaintext []byte, scope Scope) (ciphertext []byte, err error)
	// Decrypt returns plaintext for the given ciphertext and scope.
	Decrypt(ciphertext []byte, scope Scope) (plaintext []byte, err error)
}

// KeyProvider supplies raw AES keys. For AES-256-GCM, keys must be 32 bytes.
// Implementations may return per-tenant or per-environment keys.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}
