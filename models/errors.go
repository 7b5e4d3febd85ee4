package models

import "errors"

// Domain validation failures. All of these indicate a caller/precondition
// violation, are surfaced synchronously, and are never retried. Call sites
// wrap them with fmt.Errorf("...: %w", Err...) to attach the entity id and
// the attempted value.
var (
	ErrInvalidMovement           = errors.New("invalid movement")
	ErrInsufficientAvailable     = errors.New("insufficient available quantity")
	ErrAllocationNotFound        = errors.New("allocation not found")
	ErrInvalidSplitQuantity      = errors.New("invalid split quantity")
	ErrBatchOverAllocated        = errors.New("batch over allocated")
	ErrOpenAllocationsBlockMerge = errors.New("open allocations block merge")
	ErrInactiveBatch             = errors.New("inactive batch")
	ErrUnknownStage              = errors.New("unknown stage")
	ErrUnknownStatus             = errors.New("unknown purchase order status")
	ErrIllegalTransition         = errors.New("illegal status transition")
)
