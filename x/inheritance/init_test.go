package inheritance

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/bequesttest/assert"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/store"
)

func TestGenesis(t *testing.T) {
	genesis := fmt.Sprintf(`{
		"conf": {
			"inheritance": {"auto_distribute": true, "default_model": "fixed_amount"}
		},
		"inheritance": {
			"plans": [
				{
					"owner": %q,
					"status": "active",
					"model": "proportional",
					"escrowed_value": 100,
					"required_confirmations": 1,
					"beneficiaries": [{"address": %q, "share": 10000}],
					"validators": [{"address": %q}]
				}
			]
		}
	}`, owner, alice, val1)

	var opts bequest.Options
	if err := json.Unmarshal([]byte(genesis), &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}
	db := store.MemStore()
	var ini Initializer
	assert.Nil(t, ini.FromGenesis(opts, db))

	conf, err := LoadConfiguration(db)
	assert.Nil(t, err)
	assert.Equal(t, Configuration{AutoDistribute: true, DefaultModel: ModelFixedAmount}, conf)

	p, err := NewPlanBucket().GetPlan(db, owner)
	assert.Nil(t, err)
	assert.Equal(t, EscrowCondition(owner).Address(), p.EscrowAddress)
	assert.Equal(t, uint64(100), p.EscrowedValue)

	owners, err := NewPlanBucket().OwnersForValidator(db, val1)
	assert.Nil(t, err)
	assert.Equal(t, []bequest.Address{owner}, owners)

	// loading the same plan twice is refused
	assert.IsErr(t, errors.ErrAlreadyExists, ini.FromGenesis(opts, db))
}

func TestGenesisWithoutConfiguration(t *testing.T) {
	db := store.MemStore()
	var ini Initializer
	assert.Nil(t, ini.FromGenesis(bequest.Options{}, db))

	conf, err := LoadConfiguration(db)
	assert.Nil(t, err)
	assert.Equal(t, DefaultConfiguration(), conf)
}

func TestGenesisInvalidPlan(t *testing.T) {
	genesis := fmt.Sprintf(`{"inheritance": {"plans": [
		{"owner": %q, "status": "active", "model": "proportional", "required_confirmations": 0}
	]}}`, owner)

	var opts bequest.Options
	if err := json.Unmarshal([]byte(genesis), &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}
	var ini Initializer
	assert.IsErr(t, errors.ErrModel, ini.FromGenesis(opts, store.MemStore()))
}

func TestConfiguration(t *testing.T) {
	db := store.MemStore()

	conf, err := LoadConfiguration(db)
	assert.Nil(t, err)
	assert.Equal(t, DefaultConfiguration(), conf)

	assert.IsErr(t, errors.ErrInvalidParameter, SaveConfiguration(db, Configuration{AutoDistribute: true}))

	want := Configuration{AutoDistribute: true, DefaultModel: ModelFixedAmount}
	assert.Nil(t, SaveConfiguration(db, want))
	conf, err = LoadConfiguration(db)
	assert.Nil(t, err)
	assert.Equal(t, want, conf)
}
