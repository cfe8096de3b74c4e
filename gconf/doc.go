/*
Package gconf implements a configuration store intended to be used as a
per-package, in-database configuration.

Configuration is read from the "conf" section of the genesis file once, when
the ledger state is initialized, validated and written under a singleton key
owned by the package. Handlers load it from the store on demand so that every
operation uses the configuration committed together with the state it
operates on.
*/
package gconf
