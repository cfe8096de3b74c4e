package orm

import (
	"github.com/iov-one/bequest/errors"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

// MarshalBinary serializes a model using the amino binary encoding.
func MarshalBinary(v interface{}) ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrModel, err.Error())
	}
	return bz, nil
}

// UnmarshalBinary loads the amino binary encoding into ptr.
func UnmarshalBinary(bz []byte, ptr interface{}) error {
	if err := cdc.UnmarshalBinaryBare(bz, ptr); err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	return nil
}
