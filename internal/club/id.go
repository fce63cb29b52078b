package club

import (
	"strconv"
	"time"
)

// NewEntityID returns an id derived from the high-resolution clock.
// Uniqueness is good enough for single-entity creation within one
// collection; bulk creation must add its own suffix (see GenerateMeetings).
func NewEntityID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
