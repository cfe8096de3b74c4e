package main

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/x/inheritance"
	"github.com/tendermint/tendermint/libs/log"
)

const genesisFile = "genesis.json"

// GenInitOptions returns the genesis content written by init.
func GenInitOptions(conf inheritance.Configuration) (bequest.Options, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(map[string]interface{}{
		"inheritance": conf,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	plans, err := json.Marshal(map[string]interface{}{
		"plans": []inheritance.Plan{},
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	return bequest.Options{
		"conf":        raw,
		"inheritance": plans,
	}, nil
}

// InitCmd writes the genesis file into the home directory. An existing file
// is never overwritten.
func InitCmd(logger log.Logger, home string, args []string) error {
	var (
		autoDistribute bool
		model          string
	)
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.BoolVar(&autoDistribute, "auto_distribute", false, "distribute the escrow when the quorum is reached")
	fs.StringVar(&model, "model", "proportional", "default payout model, proportional or fixed_amount")
	if err := fs.Parse(args); err != nil {
		return err
	}

	conf := inheritance.Configuration{AutoDistribute: autoDistribute}
	if err := conf.DefaultModel.UnmarshalJSON([]byte(`"` + model + `"`)); err != nil {
		return err
	}
	opts, err := GenInitOptions(conf)
	if err != nil {
		return err
	}

	path := filepath.Join(home, genesisFile)
	if _, err := os.Stat(path); err == nil {
		logger.Info("Found genesis file", "path", path)
		return nil
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	raw, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrHuman, err.Error())
	}
	if err := ioutil.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	logger.Info("Generated genesis file", "path", path)
	return nil
}
