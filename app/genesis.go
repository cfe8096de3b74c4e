package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
)

// LoadGenesis reads the genesis file, a JSON object with one section per
// extension.
func LoadGenesis(filePath string) (bequest.Options, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "loading genesis file: %s", err)
	}
	var opts bequest.Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "unmarshaling genesis file: %s", err)
	}
	return opts, nil
}

// ChainInitializers lets you initialize many extensions with one function.
func ChainInitializers(inits ...bequest.Initializer) bequest.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []bequest.Initializer
}

// FromGenesis passes opts to all initializers in the list, aborting at the
// first error.
func (c chainInitializer) FromGenesis(opts bequest.Options, kv bequest.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
