/*
Package journal keeps an append only log of all operations committed by the
ledger together with the value transfers they caused.

The journal is an audit trail. It is never read by the state machine and a
failure to record an entry does not revert the operation it describes.
*/
package journal
