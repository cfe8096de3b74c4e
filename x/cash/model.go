package cash

import (
	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/orm"
)

// BucketName is where we store the receipts
const BucketName = "rcpt"

// Receipt accumulates all value credited to Recipient from Source.
type Receipt struct {
	Metadata  *bequest.Metadata `json:"metadata"`
	Recipient bequest.Address   `json:"recipient"`
	Source    bequest.Address   `json:"source"`
	// Amount is the total value credited.
	Amount uint64 `json:"amount"`
	// Payouts is the number of credits summed in Amount.
	Payouts uint32 `json:"payouts"`
}

var _ orm.Model = (*Receipt)(nil)

// Validate ensures the receipt is well formed.
func (r *Receipt) Validate() error {
	if err := r.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := r.Recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	if err := r.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if r.Amount == 0 {
		return errors.Wrap(errors.ErrModel, "receipt without value")
	}
	if r.Payouts == 0 {
		return errors.Wrap(errors.ErrModel, "receipt without payouts")
	}
	return nil
}

// Marshal serializes the receipt.
func (r *Receipt) Marshal() ([]byte, error) {
	return orm.MarshalBinary(r)
}

// Unmarshal loads the receipt from its serialized form.
func (r *Receipt) Unmarshal(raw []byte) error {
	return orm.UnmarshalBinary(raw, r)
}

// receiptKey returns the primary key of a receipt. Recipient comes first so
// that all receipts of an account can be found with a prefix scan.
func receiptKey(recipient, source bequest.Address) []byte {
	key := make([]byte, 0, len(recipient)+len(source))
	key = append(key, recipient...)
	return append(key, source...)
}

// ReceiptBucket is a type-safe wrapper around orm.Bucket
type ReceiptBucket struct {
	orm.Bucket
}

// NewReceiptBucket initializes a ReceiptBucket with default name
func NewReceiptBucket() ReceiptBucket {
	return ReceiptBucket{
		Bucket: orm.NewBucket(BucketName, orm.NewSimpleObj(nil, new(Receipt))),
	}
}

// GetReceipt returns the receipt for given pair or nil.
func (b ReceiptBucket) GetReceipt(db bequest.ReadOnlyKVStore, recipient, source bequest.Address) (*Receipt, error) {
	obj, err := b.Get(db, receiptKey(recipient, source))
	if err != nil || obj == nil {
		return nil, err
	}
	return asReceipt(obj)
}

// Receipts returns all receipts of given recipient ordered by source.
func (b ReceiptBucket) Receipts(db bequest.ReadOnlyKVStore, recipient bequest.Address) ([]*Receipt, error) {
	objs, err := b.PrefixScan(db, recipient)
	if err != nil {
		return nil, err
	}
	res := make([]*Receipt, 0, len(objs))
	for _, obj := range objs {
		// Addresses have a fixed length, anything else is not a receipt
		// of this recipient.
		if len(obj.Key()) != len(recipient)+bequest.AddressLength {
			continue
		}
		r, err := asReceipt(obj)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, nil
}

// SaveReceipt writes the receipt under its pair key.
func (b ReceiptBucket) SaveReceipt(db bequest.KVStore, r *Receipt) error {
	return b.Save(db, orm.NewSimpleObj(receiptKey(r.Recipient, r.Source), r))
}

func asReceipt(obj orm.Object) (*Receipt, error) {
	r, ok := obj.Value().(*Receipt)
	if !ok {
		return nil, errors.Wrapf(errors.ErrModel, "invalid type: %T", obj.Value())
	}
	return r, nil
}
