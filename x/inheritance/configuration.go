package inheritance

import (
	"encoding/json"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/gconf"
)

const packageName = "inheritance"

// Configuration of the inheritance extension.
type Configuration struct {
	// AutoDistribute distributes the escrow as part of the confirmation
	// that reaches quorum.
	AutoDistribute bool `json:"auto_distribute"`
	// DefaultModel is used for plans created without an explicit model.
	DefaultModel Model `json:"default_model"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// DefaultConfiguration is used when no configuration was stored.
func DefaultConfiguration() Configuration {
	return Configuration{DefaultModel: ModelProportional}
}

// Validate ensures the configuration is usable.
func (c *Configuration) Validate() error {
	if err := c.DefaultModel.Validate(); err != nil {
		return errors.Wrap(err, "default model")
	}
	return nil
}

// Marshal serializes the configuration. JSON is used so that the stored
// value reads the same as the genesis section it comes from.
func (c *Configuration) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal loads the configuration.
func (c *Configuration) Unmarshal(raw []byte) error {
	if err := json.Unmarshal(raw, c); err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	return nil
}

// loadConf returns the stored configuration or the default one.
func loadConf(db bequest.ReadOnlyKVStore) (Configuration, error) {
	var conf Configuration
	def := DefaultConfiguration()
	if err := gconf.LoadOrDefault(db, packageName, &conf, &def); err != nil {
		return conf, errors.Wrap(err, "load configuration")
	}
	return conf, nil
}

// LoadConfiguration returns the configuration in effect for given state.
func LoadConfiguration(db bequest.ReadOnlyKVStore) (Configuration, error) {
	return loadConf(db)
}

// SaveConfiguration validates and stores the configuration.
func SaveConfiguration(db bequest.KVStore, conf Configuration) error {
	return gconf.Save(db, packageName, &conf)
}
