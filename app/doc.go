/*
Package app glues the extensions together into a Ledger.

The Ledger routes every message to its handler, serializes all operations
on the same plan, and applies each of them to a cache wrap of the committed
store so that it either fully commits or leaves no trace. Committed
operations are recorded in a journal.
*/
package app
