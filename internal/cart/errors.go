package cart

import "fmt"

// IndexError indicates a position outside the cart. The operation was a no-op.
type IndexError struct {
	Op    string // "remove" or "update"
	Index int    // the position requested
	Len   int    // the number of items at the time
}

func (e *IndexError) Error() string {
	if e.Len == 0 {
		return fmt.Sprintf("cannot %s item %d: cart is empty", e.Op, e.Index)
	}
	return fmt.Sprintf("cannot %s item %d: cart has %d items", e.Op, e.Index, e.Len)
}

// PersistError indicates the cart changed in memory but the snapshot could
// not be written. It is a warning, not a failure of the operation.
type PersistError struct {
	Key string // the slot that was not written
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("cart saved in memory only: failed to persist slot %s: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
