package hash

// Hash is the contract shared by the hashers in this package.
type Hash interface {
	// Hash returns the hashed representation of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches the stored hashed value.
	Verify(hashed, str string) bool
}
