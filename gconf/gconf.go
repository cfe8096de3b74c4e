package gconf

import (
	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
)

// Configuration is a package configuration that can be persisted.
type Configuration interface {
	bequest.Validater
	bequest.Persistent
}

// Key returns the database key under which configuration of given package
// is stored.
func Key(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save validates the configuration and writes it under the package key.
func Save(db bequest.KVStore, pkg string, conf Configuration) error {
	key := Key(pkg)
	if err := conf.Validate(); err != nil {
		return errors.Wrapf(err, "validation: key %q", key)
	}
	raw, err := conf.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal: key %q", key)
	}
	if err := db.Set(key, raw); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "set %q: %s", key, err)
	}
	return nil
}

// Load reads the configuration of given package into dst. It fails with
// ErrNotFound if the package was never configured.
func Load(db bequest.ReadOnlyKVStore, pkg string, dst Configuration) error {
	key := Key(pkg)
	raw, err := db.Get(key)
	switch {
	case err != nil:
		return errors.Wrapf(errors.ErrDatabase, "get %q: %s", key, err)
	case raw == nil:
		return errors.Wrapf(errors.ErrNotFound, "key %q", key)
	}
	if err := dst.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "unmarshal: key %q", key)
	}
	return nil
}

// LoadOrDefault works like Load, but a package that was never configured
// gets def copied into dst.
func LoadOrDefault(db bequest.ReadOnlyKVStore, pkg string, dst, def Configuration) error {
	err := Load(db, pkg, dst)
	if !errors.ErrNotFound.Is(err) {
		return err
	}
	raw, err := def.Marshal()
	if err != nil {
		return errors.Wrap(err, "marshal default")
	}
	return dst.Unmarshal(raw)
}

// InitConfig takes opts["conf"][pkg], parses it into conf, validates it and
// stores it under the package key. It fails with ErrNotFound when the
// genesis carries no configuration for the package.
func InitConfig(db bequest.KVStore, opts bequest.Options, pkg string, conf Configuration) error {
	var section bequest.Options
	if err := opts.ReadOptions("conf", &section); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if section[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no configuration in genesis for %q package", pkg)
	}
	if err := section.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read configuration for %s", pkg)
	}
	if err := Save(db, pkg, conf); err != nil {
		return errors.Wrapf(err, "save configuration for %s", pkg)
	}
	return nil
}

// InitConfigOrDefault works like InitConfig, but stores def when the genesis
// does not configure the package.
func InitConfigOrDefault(db bequest.KVStore, opts bequest.Options, pkg string, conf, def Configuration) error {
	err := InitConfig(db, opts, pkg, conf)
	if !errors.ErrNotFound.Is(err) {
		return err
	}
	return Save(db, pkg, def)
}
