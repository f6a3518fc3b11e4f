package uid

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates 63-bit time-sortable numeric IDs. Primary keys for
// phone devices and delivery receipts use these so rows sort by creation.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator for the given node number (0-1023).
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &Snowflake{node: node}, nil
}

// Generate returns the next ID as int64.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
