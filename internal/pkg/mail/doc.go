// Package mail defines the contracts for sending email messages.
//
// Use cases work with the Mail interface and Message payload; the concrete
// delivery mechanism (SMTP, API provider, etc) is implemented in this
// package. Delivery receipts for carrier email gateways flow through here.
package mail
