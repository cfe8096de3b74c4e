package orm

import (
	"bytes"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
)

// Index is a secondary index maintained together with a bucket.
type Index interface {
	// Name returns the name of this index.
	Name() string

	// Update updates the index. It should be called when any of the bucket
	// entities has changed in the store.
	//
	// prev == nil means insert
	// next == nil means delete
	// both == nil is error
	// if both != nil and prev.Key() != next.Key() this is an error
	Update(db bequest.KVStore, prev Object, next Object) error

	// Keys returns all entity keys that were indexed under given value,
	// in ascending order.
	Keys(db bequest.ReadOnlyKVStore, value []byte) ([][]byte, error)
}

const idxPrefix = "_i."

// Indexer calculates the secondary index key for a given object
type Indexer func(Object) ([]byte, error)

// MultiKeyIndexer calculates the secondary index keys for a given object
type MultiKeyIndexer func(Object) ([][]byte, error)

// NewNativeIndex returns an index implementation that is using a database
// native storage and query in order to maintain and provide access to an
// index.
//
// Every indexed value and referenced key pair is stored under
//
//	_i.<name>:<value><key>
//
// with the referenced key as the value, so that each entry can be
// written and removed independently of all others.
func NewNativeIndex(name string, indexer MultiKeyIndexer) Index {
	return &nativeIndex{
		name:    name,
		prefix:  []byte(idxPrefix + name + ":"),
		indexer: indexer,
	}
}

func asMultiKeyIndexer(indexer Indexer) MultiKeyIndexer {
	return func(obj Object) ([][]byte, error) {
		key, err := indexer(obj)
		switch {
		case err != nil:
			return nil, err
		case key == nil:
			return nil, nil
		}
		return [][]byte{key}, nil
	}
}

type nativeIndex struct {
	name    string
	prefix  []byte
	indexer MultiKeyIndexer
}

func (ix *nativeIndex) Name() string {
	return ix.name
}

// entryKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (ix *nativeIndex) entryKey(value, pk []byte) []byte {
	out := make([]byte, 0, len(ix.prefix)+len(value)+len(pk))
	out = append(out, ix.prefix...)
	out = append(out, value...)
	return append(out, pk...)
}

func (ix *nativeIndex) Update(db bequest.KVStore, prev Object, next Object) error {
	if next == nil && prev == nil {
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil object")
	}
	if next != nil && prev != nil && !bytes.Equal(next.Key(), prev.Key()) {
		return errors.Wrap(errors.ErrHuman, "cannot modify the primary key of an object")
	}

	var oldValues, newValues [][]byte
	if prev != nil {
		values, err := ix.indexer(prev)
		if err != nil {
			return errors.Wrap(err, "indexer")
		}
		oldValues = values
	}
	if next != nil {
		values, err := ix.indexer(next)
		if err != nil {
			return errors.Wrap(err, "indexer")
		}
		newValues = values
	}

	for _, v := range subtract(oldValues, newValues) {
		if len(v) == 0 {
			continue
		}
		if err := db.Delete(ix.entryKey(v, prev.Key())); err != nil {
			return errors.Wrap(err, "db delete")
		}
	}
	for _, v := range subtract(newValues, oldValues) {
		if len(v) == 0 {
			continue
		}
		if err := db.Set(ix.entryKey(v, next.Key()), next.Key()); err != nil {
			return errors.Wrap(err, "db set")
		}
	}
	return nil
}

func (ix *nativeIndex) Keys(db bequest.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	if len(value) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "index value")
	}
	lookup := ix.entryKey(value, nil)
	it, err := db.Iterator(prefixRange(lookup))
	if err != nil {
		return nil, errors.Wrap(err, "iterator")
	}
	defer it.Close()

	var keys [][]byte
	for ; it.Valid(); it.Next() {
		pk := it.Value()
		// A longer indexed value may share the lookup prefix. Such entry
		// does not end with the key it references.
		if !bytes.Equal(it.Key()[len(lookup):], pk) {
			continue
		}
		keys = append(keys, append([]byte(nil), pk...))
	}
	return keys, nil
}

// subtract returns all elements of minuend that are not in subtrahend.
func subtract(minuend [][]byte, subtrahend [][]byte) [][]byte {
	if minuend == nil {
		return nil
	}
	r := make([][]byte, 0, len(minuend))
OUTER:
	for _, m := range minuend {
		for _, s := range subtrahend {
			if bytes.Equal(m, s) {
				continue OUTER
			}
		}
		r = append(r, m)
	}
	return r
}
