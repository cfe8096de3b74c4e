package cash

import (
	"math"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
)

// Controller records value credited to accounts.
type Controller interface {
	// Credit adds amount to the receipt of recipient from source. Crediting
	// zero is a no-op.
	Credit(db bequest.KVStore, source, recipient bequest.Address, amount uint64) error
	// Balance returns the total value credited to the account.
	Balance(db bequest.ReadOnlyKVStore, account bequest.Address) (uint64, error)
	// Receipts returns all receipts of the account.
	Receipts(db bequest.ReadOnlyKVStore, account bequest.Address) ([]*Receipt, error)
}

// BaseController is the default Controller implementation.
type BaseController struct {
	bucket ReceiptBucket
}

var _ Controller = BaseController{}

// NewController returns a controller using the default receipt bucket.
func NewController() BaseController {
	return BaseController{bucket: NewReceiptBucket()}
}

// Credit records amount as paid from source to recipient.
func (c BaseController) Credit(db bequest.KVStore, source, recipient bequest.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	r, err := c.bucket.GetReceipt(db, recipient, source)
	if err != nil {
		return errors.Wrap(err, "load receipt")
	}
	if r == nil {
		r = &Receipt{
			Metadata:  &bequest.Metadata{Schema: 1},
			Recipient: recipient,
			Source:    source,
		}
	}
	if r.Amount > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "receipt of %s from %s", recipient, source)
	}
	r.Amount += amount
	r.Payouts++
	if err := c.bucket.SaveReceipt(db, r); err != nil {
		return errors.Wrap(err, "save receipt")
	}
	return nil
}

// Balance sums all receipts of the account.
func (c BaseController) Balance(db bequest.ReadOnlyKVStore, account bequest.Address) (uint64, error) {
	receipts, err := c.Receipts(db, account)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, r := range receipts {
		if total > math.MaxUint64-r.Amount {
			return 0, errors.Wrapf(errors.ErrOverflow, "balance of %s", account)
		}
		total += r.Amount
	}
	return total, nil
}

// Receipts returns all receipts of the account ordered by source.
func (c BaseController) Receipts(db bequest.ReadOnlyKVStore, account bequest.Address) ([]*Receipt, error) {
	if err := account.Validate(); err != nil {
		return nil, errors.Wrap(err, "account")
	}
	return c.bucket.Receipts(db, account)
}
