package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/iov-one/bequest"
)

// Entry describes a single committed operation.
type Entry struct {
	ID        string             `json:"id"`
	RequestID string             `json:"request_id,omitempty"`
	Time      time.Time          `json:"time"`
	Path      string             `json:"path"`
	Owner     bequest.Address    `json:"owner"`
	Caller    bequest.Address    `json:"caller,omitempty"`
	Log       string             `json:"log"`
	Transfers []bequest.Transfer `json:"transfers"`
}

// NewEntry returns an entry with a fresh identifier, timestamped now.
func NewEntry(path string, owner, caller bequest.Address, res *bequest.DeliverResult) Entry {
	e := Entry{
		ID:     uuid.New().String(),
		Time:   time.Now().UTC(),
		Path:   path,
		Owner:  owner,
		Caller: caller,
	}
	if res != nil {
		e.Log = res.Log
		e.Transfers = res.Transfers
	}
	return e
}

// Journal records committed operations.
type Journal interface {
	// Record appends the entry.
	Record(ctx context.Context, e Entry) error

	// Entries returns the most recent entries concerning the plan of the
	// owner, oldest first. All entries are returned if owner is nil. A
	// limit of zero or less means no limit.
	Entries(ctx context.Context, owner bequest.Address, limit int) ([]Entry, error)

	// Close releases all resources.
	Close() error
}

// Nop is a journal that forgets everything.
type Nop struct{}

var _ Journal = Nop{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) Entries(context.Context, bequest.Address, int) ([]Entry, error) {
	return []Entry{}, nil
}

func (Nop) Close() error { return nil }
