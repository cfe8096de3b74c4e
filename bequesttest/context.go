package bequesttest

import (
	"context"

	"github.com/iov-one/bequest"
)

// CallerCtx returns a context that attributes all operations to the given
// account.
func CallerCtx(caller bequest.Address) bequest.Context {
	return bequest.WithCaller(context.Background(), caller)
}
