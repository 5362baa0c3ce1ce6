package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewRequestID generates a new globally unique KSUID string, used to tag
// log lines belonging to a single HTTP request.
func NewRequestID() string {
	return ksuid.New().String()
}

// NewID generates a time-ordered int64 snowflake ID suitable for primary
// keys. The node ID comes from the SNOWFLAKE_NODE environment variable and
// defaults to 1 when unset or unparseable.
func NewID() int64 {
	nodeOnce.Do(func() {
		nodeID := int64(1)
		if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				nodeID = parsed
			}
		}
		n, err := snowflake.NewNode(nodeID)
		if err != nil {
			// node IDs outside [0,1023] are misconfiguration; fall back to 1
			n, _ = snowflake.NewNode(1)
		}
		node = n
	})
	return node.Generate().Int64()
}
