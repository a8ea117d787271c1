package linkstore

import "errors"

var (
	// ErrNotFound means the link id is not in the store.
	ErrNotFound = errors.New("link not found")

	// ErrSameAccount means master and slave refer to the same account.
	ErrSameAccount = errors.New("master and slave accounts must differ")

	// ErrDuplicatePair means an enabled link already exists for the
	// (master, slave) pair.
	ErrDuplicatePair = errors.New("enabled link already exists for this master/slave pair")

	// ErrClosed means the store has been shut down.
	ErrClosed = errors.New("link store is closed")
)
