package inheritance

import (
	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/gconf"
)

// Initializer fulfils the bequest.Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ bequest.Initializer = (*Initializer)(nil)

// FromGenesis stores the configuration found in the "conf" section and all
// plans listed in the "inheritance" section. A missing configuration is not
// an error, the default one is used.
func (*Initializer) FromGenesis(opts bequest.Options, db bequest.KVStore) error {
	def := DefaultConfiguration()
	if err := gconf.InitConfigOrDefault(db, opts, packageName, &Configuration{}, &def); err != nil {
		return err
	}

	var genesis struct {
		Plans []Plan `json:"plans"`
	}
	if err := opts.ReadOptions(packageName, &genesis); err != nil {
		return err
	}
	bucket := NewPlanBucket()
	for i := range genesis.Plans {
		p := &genesis.Plans[i]
		if p.Metadata == nil {
			p.Metadata = &bequest.Metadata{Schema: 1}
		}
		p.EscrowAddress = EscrowCondition(p.Owner).Address()
		exists, err := bucket.Has(db, p.Owner)
		if err != nil {
			return err
		}
		if exists {
			return errors.Wrapf(errors.ErrAlreadyExists, "genesis plan %d of %s", i, p.Owner)
		}
		if err := bucket.SavePlan(db, p); err != nil {
			return errors.Wrapf(err, "genesis plan %d", i)
		}
	}
	return nil
}
