package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID builds a sortable unique identifier. The nanosecond prefix
// keeps ids roughly chronological in the JSON files, which makes the
// stored collections easier to inspect by hand.
func NewID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.New().String()[:8])
}
