package app

import "github.com/iov-one/bequest/errors"

// ErrNoSuchPath is returned when no handler is registered for the path of a
// message.
var ErrNoSuchPath = errors.Register(20, "path not registered")
