package bequest

import (
	"encoding/json"

	"github.com/iov-one/bequest/errors"
)

// Msg is a single operation requested by a caller. The path is used to
// route it to the handler responsible for processing it.
type Msg interface {
	Validater

	// Path returns the routing path for this message.
	Path() string
}

// Handler is a core engine that can process a few specific messages.
// Deliver must either apply all changes of the message to the store and
// return nil, or return an error. On error the caller discards every write
// done to the store.
type Handler interface {
	Deliver(ctx Context, store KVStore, msg Msg) (*DeliverResult, error)
}

// Registry is an interface to register your handler,
// the setup side of a Router
type Registry interface {
	Handle(m Msg, h Handler)
}

// DeliverResult captures the outcome of a successfully delivered message.
type DeliverResult struct {
	// Data is an optional, message specific result.
	Data []byte
	// Log is a human readable summary of what happened.
	Log string
	// Transfers lists all value movements performed by the operation, in
	// the order they were applied.
	Transfers []Transfer
}

// Transfer describes value credited to an account by the ledger.
type Transfer struct {
	From   Address `json:"from"`
	To     Address `json:"to"`
	Amount uint64  `json:"amount"`
	Memo   string  `json:"memo"`
}

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "options %q: %s", key, err)
	}
	return nil
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// Validater is any struct that can be validated.
// Not the same as a Validator, which votes on a plan.
type Validater interface {
	Validate() error
}

// Persistent supports Marshal and Unmarshal
//
// This is separated from Marshal, as this almost always requires
// a pointer, and functions that only need to marshal bytes can
// use the Marshaller interface to access non-pointers.
type Persistent interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}
