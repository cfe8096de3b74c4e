package bequest

import (
	"context"

	"github.com/tendermint/tendermint/libs/log"
)

// Context is the context passed to every handler. It carries the logger and
// the account the operation is attributed to.
//
// There should exist two functions for every XYZ of type T
// that we want to support in Context:
//
//	WithXYZ(Context, T) Context
//	GetXYZ(Context) (val T, ok bool)
type Context = context.Context

type contextKey int

const (
	contextKeyLogger contextKey = iota
	contextKeyCaller
	contextKeyRequestID
)

// DefaultLogger is used for all context that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

// WithLogger sets the logger for this context
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// WithCaller attributes all operations run with the returned context to the
// given account. The account must be authenticated by the collaborator that
// creates the context, it is never verified here.
func WithCaller(ctx Context, caller Address) Context {
	return context.WithValue(ctx, contextKeyCaller, caller)
}

// GetCaller returns the account the operation is attributed to.
func GetCaller(ctx Context) (Address, bool) {
	val, ok := ctx.Value(contextKeyCaller).(Address)
	if !ok || len(val) == 0 {
		return nil, false
	}
	return val, true
}

// WithRequestID tags the context with an identifier used to correlate log
// lines and journal entries.
func WithRequestID(ctx Context, id string) Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// GetRequestID returns the request identifier, if one was set.
func GetRequestID(ctx Context) (string, bool) {
	val, ok := ctx.Value(contextKeyRequestID).(string)
	return val, ok && val != ""
}
