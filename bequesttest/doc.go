// Package bequesttest provides helpers for testing packages built on top of
// the ledger primitives.
package bequesttest
