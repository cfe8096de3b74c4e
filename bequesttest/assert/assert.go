package assert

import (
	"reflect"
	"testing"

	"github.com/iov-one/bequest/errors"
)

// Tester is the minimal subset of testing.TB needed to run most assert commands
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
}

// Nil fails the test if given value is not nil.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// Use %+v so that if we are printing an error that supports
		// stack traces then a full stack trace is shown.
		t.Fatalf("want a nil value, got %+v", value)
	}
}

func isNil(value interface{}) (isnil bool) {
	if value == nil {
		return true
	}

	defer func() {
		if recover() != nil {
			isnil = false
		}
	}()

	// The argument must be a chan, func, interface, map, pointer, or slice
	// value; if it is not, IsNil panics.
	isnil = reflect.ValueOf(value).IsNil()

	return isnil
}

// Equal fails the test if two values are not equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal \nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Panics will run given function and recover any panic. It will fail the test
// if given function call did not panic.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// IsErr fails the test unless got is of the same kind as want. A nil want
// expects no error. When want is a registered kind, any number of wrapping
// layers around got is accepted.
func IsErr(t testing.TB, want, got error) {
	t.Helper()

	if want == got {
		return
	}
	if want == nil {
		t.Fatalf("want no error, got %+v", got)
	}
	if kind, ok := want.(*errors.Error); ok {
		if !kind.Is(got) {
			t.Fatalf("want %q (code %d), got code %d: %+v",
				kind, kind.Code(), errors.Code(got), got)
		}
		return
	}

	type comparator interface {
		Is(error) bool
	}
	if c, ok := want.(comparator); ok && c.Is(got) {
		return
	}
	t.Fatalf("want %q, got %+v", want, got)
}
