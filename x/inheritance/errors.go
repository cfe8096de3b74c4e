package inheritance

import (
	"github.com/iov-one/bequest/errors"
)

// Inheritance reserves 1000~1009 error codes
var (
	ErrDuplicateParticipant = errors.Register(1000, "duplicate participant")
	ErrSelfReference        = errors.Register(1001, "self reference")
	ErrAllocationExceeded   = errors.Register(1002, "allocation exceeded")
	ErrNothingToDistribute  = errors.Register(1003, "nothing to distribute")
)

// ErrNotAuthorized is returned when the caller is not a registered validator
// of the plan or not its owner.
var ErrNotAuthorized = errors.ErrUnauthorized
