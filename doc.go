/*

Package bequest defines the primitives shared by the inheritance ledger:
account addresses and conditions, storage interfaces, messages, handlers and
the values carried in a context (logger and authenticated caller).

The ledger itself is assembled from the extension in x/inheritance, payout
bookkeeping in x/cash and the service in package app. Look into this package
to get a brief overview of the interfaces that glue them together.

*/

package bequest
