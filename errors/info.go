package errors

import (
	"errors"
	"fmt"
)

const (
	// SuccessCode is reported for a nil error.
	SuccessCode uint32 = 0

	// InternalCode groups every error that was not created from a
	// registered kind. Such errors carry implementation details and their
	// message is hidden unless running in debug mode.
	InternalCode uint32 = 1

	internalLog = "internal error"
)

// Info returns the code and message that can be presented to a client.
//
// Messages of internal errors are replaced with a generic "internal error"
// unless debug is set. A recovered panic never exposes its message outside
// of debug mode.
func Info(err error, debug bool) (uint32, string) {
	code := Code(err)
	switch {
	case code == SuccessCode:
		return code, ""
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == InternalCode:
		return code, internalLog
	case ErrPanic.Is(err):
		return code, ErrPanic.desc
	}
	return code, err.Error()
}

type coder interface {
	Code() uint32
}

// Code returns the code of the registered kind that err was created from.
// The whole cause chain is searched. InternalCode is returned when no kind
// can be found.
func Code(err error) uint32 {
	if isNilErr(err) {
		return SuccessCode
	}
	for {
		if c, ok := err.(coder); ok {
			return c.Code()
		}
		c, ok := err.(causer)
		if !ok {
			return InternalCode
		}
		err = c.Cause()
	}
}

// IsInternal returns true if err was not created from any registered kind.
func IsInternal(err error) bool {
	return Code(err) == InternalCode
}

// Redact replaces internal and panic errors with a generic internal error
// instance, leaving only errors of registered kinds. It returns err
// unchanged in debug mode.
func Redact(err error, debug bool) error {
	if debug {
		return err
	}
	if ErrPanic.Is(err) || IsInternal(err) {
		return errors.New(internalLog)
	}
	return err
}
