package entity

import (
	"time"

	"github.com/dominichul/phonefactor/internal/pkg/valueobject"
)

// ReceiptStatus is the outcome of one delivery attempt.
type ReceiptStatus int16

const (
	ReceiptStatusUnknown ReceiptStatus = 0
	ReceiptStatusSent    ReceiptStatus = 1
	ReceiptStatusFailed  ReceiptStatus = 2
)

func (rs ReceiptStatus) String() string {
	switch rs {
	case ReceiptStatusSent:
		return "sent"
	case ReceiptStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Receipt records one consumed phone-token event and how its delivery went.
// Metadata holds schemaless delivery context (extension, failure reason).
// The token itself is never stored.
type Receipt struct {
	ID        int64
	DeviceID  int64
	UserID    int64
	Method    string
	Number    string
	Driver    string
	Status    ReceiptStatus
	Metadata  valueobject.JSONMap
	CreatedAt time.Time
}
