// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Token delivery events and carrier receipts travel through the Messaging
// interface, so the underlying system (Kafka, NATS, NSQ, Google Pub/Sub) can
// be swapped via configuration without touching use-case code.
package messaging
