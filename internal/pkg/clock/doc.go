// Package clock abstracts the current time behind a tiny interface so that
// time-sensitive logic (token windows, expirations) stays testable.
package clock
