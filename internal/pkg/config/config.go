package config

import (
	"io"
	"time"
)

// TimeConfig retrieves duration values stored as plain integers.
type TimeConfig interface {
	// GetSecond returns the value for key interpreted as seconds.
	GetSecond(key string) time.Duration

	// GetMinute returns the value for key interpreted as minutes.
	GetMinute(key string) time.Duration

	// GetHour returns the value for key interpreted as hours.
	GetHour(key string) time.Duration

	// GetDay returns the value for key interpreted as days (24h).
	GetDay(key string) time.Duration
}

// SignedIntConfig retrieves signed integer values.
type SignedIntConfig interface {
	// GetInt returns the value for key as an int, or the zero value when the
	// key is missing or not numeric.
	GetInt(key string) int

	// GetInt32 returns the value for key as an int32.
	GetInt32(key string) int32

	// GetInt64 returns the value for key as an int64.
	GetInt64(key string) int64
}

// UnsignedIntConfig retrieves unsigned integer values.
type UnsignedIntConfig interface {
	// GetUint returns the value for key as a uint.
	GetUint(key string) uint

	// GetUint16 returns the value for key as a uint16.
	GetUint16(key string) uint16

	// GetUint32 returns the value for key as a uint32.
	GetUint32(key string) uint32

	// GetUint64 returns the value for key as a uint64.
	GetUint64(key string) uint64
}

// FloatConfig retrieves floating-point values.
type FloatConfig interface {
	// GetFloat32 returns the value for key as a float32.
	GetFloat32(key string) float32

	// GetFloat64 returns the value for key as a float64.
	GetFloat64(key string) float64
}

// Config is the read surface the rest of the application depends on.
// Implementations handle retrieval and type conversion, returning zero
// values for missing or malformed keys.
type Config interface {
	io.Closer
	TimeConfig
	SignedIntConfig
	UnsignedIntConfig
	FloatConfig

	// GetBool returns the value for key as a bool.
	GetBool(key string) bool

	// GetString returns the value for key as a string.
	GetString(key string) string

	// GetBinary returns the value for key decoded from base64.
	GetBinary(key string) []byte

	// GetArray returns the value for key split on commas.
	GetArray(key string) []string

	// GetMap returns the value for key parsed from "k1:v1,k2:v2" pairs.
	GetMap(key string) map[string]string
}
