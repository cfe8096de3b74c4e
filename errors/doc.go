/*
Package errors implements the error kinds used across the ledger.

Every error returned to a caller wraps exactly one root error declared with
Register. The root error classifies the failure (not found, invalid state,
duplicate participant, ...) and carries a stable code, so a client can tell
the kinds apart without parsing messages.

New kinds are declared once with Register(code, description); a code can be
registered only once. Create errors with ErrXxx.New, ErrXxx.Newf or Wrap, and
test the kind with ErrXxx.Is(err), which unwraps any number of layers. Info
and Redact decide what part of an error may leave the process.

The first wrap of a root error records a stack trace. Declaring a package
level error with New instead of Register records a useless one.

	%s   the error message
	%v   the message and the [file:line] where the error was created
	%+v  the message and the full stack trace
*/
package errors
