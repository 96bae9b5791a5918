package queue

import (
	"errors"
	"fmt"
)

// ErrPersistence marks a durable-store read/write fault (disk, quota,
// corruption). Management operations propagate it to their caller; the
// reconciliation pass absorbs it per item.
var ErrPersistence = errors.New("persistence failure")

func persistenceErr(operation string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, operation, err)
}
