package errors

import "errors"

// ErrOptimisticLock is returned when a versioned row was modified by another writer.
var ErrOptimisticLock = errors.New("record was modified concurrently, reload and retry")
