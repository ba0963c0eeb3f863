package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string. Used for user
// account IDs, which are opaque strings.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

func snowflakeNode() (*snowflake.Node, error) {
	nodeOnce.Do(func() {
		id := int64(1)
		if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				id = parsed
			}
		}
		node, nodeErr = snowflake.NewNode(id)
	})
	return node, nodeErr
}

// NewSnowflakeID generates a time-ordered int64 ID. Used for order and
// product IDs so they sort by creation time. Node ID comes from the
// SNOWFLAKE_NODE environment variable, defaulting to 1.
func NewSnowflakeID() (int64, error) {
	n, err := snowflakeNode()
	if err != nil {
		return 0, err
	}
	return n.Generate().Int64(), nil
}
