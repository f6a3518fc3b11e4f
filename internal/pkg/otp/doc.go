// Package otp wraps time-based one-time password generation and validation
// for phone devices. Device secrets are stored as hex strings and decoded
// here, so callers never deal with base32.
package otp
