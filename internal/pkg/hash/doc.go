// Package hash groups one-way hashing behind a small interface: HMAC-SHA256
// for deterministic lookup tokens (setup sessions, challenges) and Argon2id
// for secrets that must resist offline guessing (backup codes).
package hash
