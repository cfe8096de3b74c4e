package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/bequest/errors"
)

const (
	// DefaultFreeListSize is the size we hold for free node in btree
	DefaultFreeListSize = btree.DefaultFreeListSize

	// btreeDegree is the degree of every cache tree. Cache wraps live for
	// a single operation and hold few keys, so a small degree is enough.
	btreeDegree = 2
)

// MemStore returns an in-memory store without persistence, used in tests.
func MemStore() CacheableKVStore {
	var e emptyStore
	return NewBTreeCacheWrap(e, newOpBatch(e), nil)
}

///////////////////////////////////////////////
// Actual CacheWrap implementation

// BTreeCacheWrap places a btree cache over a KVStore
type BTreeCacheWrap struct {
	bt    *btree.BTree
	free  *btree.FreeList
	back  ReadOnlyKVStore
	batch Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap initializes a BTree to cache around this
// kv store. Use ReadOnlyKVStore to emphasize that all writes
// must go through the Batch.
//
// free may be nil, but set to an existing list to reuse it
// for memory savings
func NewBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:    btree.NewWithFreeList(btreeDegree, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap layers another BTree on top of this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a non-atomic batch that eventually may write to
// this cache wrap
func (b BTreeCacheWrap) NewBatch() Batch {
	return newOpBatch(b)
}

// Write syncs with the underlying store.
// And then cleans up
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard invalidates this CacheWrap and releases all data
func (b BTreeCacheWrap) Discard() {
	// clean up the btree -> freelist
	for b.bt.DeleteMin() != nil {
	}
}

// Set writes to the BTree and to the batch
func (b BTreeCacheWrap) Set(key, value []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrInput, "nil key")
	}
	b.bt.ReplaceOrInsert(newSetItem(key, value))
	return b.batch.Set(key, value)
}

// Delete deletes from the BTree and to the batch
func (b BTreeCacheWrap) Delete(key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrInput, "nil key")
	}
	b.bt.ReplaceOrInsert(newDeletedItem(key))
	return b.batch.Delete(key)
}

// Get reads from btree if there, else backing store
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch t := res.(type) {
		case setItem:
			return t.value, nil
		case deletedItem:
			return nil, nil
		default:
			return nil, errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", res)
		}
	}
	return b.back.Get(key)
}

// Has reads from btree if there, else backing store
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch res.(type) {
		case setItem:
			return true, nil
		case deletedItem:
			return false, nil
		default:
			return false, errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", res)
		}
	}
	return b.back.Has(key)
}

// Iterator over a domain of keys in ascending order.
// Combines results from btree and backing store
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parent, err := b.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	local := rangeBtree(b.bt, start, end)
	return NewSliceIterator(mergeItems(drain(parent), local, true)), nil
}

// ReverseIterator over a domain of keys in descending order.
// Combines results from btree and backing store
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	parent, err := b.back.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	local := rangeBtree(b.bt, start, end)
	for i, j := 0, len(local)-1; i < j; i, j = i+1, j-1 {
		local[i], local[j] = local[j], local[i]
	}
	return NewSliceIterator(mergeItems(drain(parent), local, false)), nil
}

// rangeBtree returns all cached items within [start, end) in ascending
// order. A nil bound leaves that side of the range open.
func rangeBtree(bt *btree.BTree, start, end []byte) []btree.Item {
	var res []btree.Item
	collect := func(i btree.Item) bool {
		res = append(res, i)
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return res
}

// drain reads all remaining models from the iterator and closes it.
func drain(it Iterator) []Model {
	defer it.Close()
	var res []Model
	for ; it.Valid(); it.Next() {
		res = append(res, Model{Key: it.Key(), Value: it.Value()})
	}
	return res
}

// mergeItems combines the parent content with the cached writes. Both
// inputs must be sorted in the same direction. Cached items take precedence
// over the parent for the same key and deleted items hide the key.
func mergeItems(parent []Model, local []btree.Item, ascending bool) []Model {
	res := make([]Model, 0, len(parent)+len(local))
	before := func(a, b []byte) bool {
		cmp := bytes.Compare(a, b)
		if ascending {
			return cmp < 0
		}
		return cmp > 0
	}

	var i, j int
	for i < len(parent) || j < len(local) {
		if j == len(local) {
			res = append(res, parent[i])
			i++
			continue
		}
		lkey := local[j].(keyer).Key()
		if i < len(parent) && before(parent[i].Key, lkey) {
			res = append(res, parent[i])
			i++
			continue
		}
		if i < len(parent) && bytes.Equal(parent[i].Key, lkey) {
			// shadowed by the cache
			i++
		}
		if s, ok := local[j].(setItem); ok {
			res = append(res, Model{Key: s.key, Value: s.value})
		}
		j++
	}
	return res
}

/////////////////////////////////////////////////////////
// Items to write to btree

// we enforce all data in our btree implements keyer so we
// can compare nicely
type keyer interface {
	Key() []byte
}

// bkey implements keyer and btree.Item
// and may be used for queries or embedded in data to store
type bkey struct {
	key []byte
}

var _ keyer = bkey{}
var _ btree.Item = bkey{}

func (k bkey) Key() []byte {
	return k.key
}

// Less returns true iff second argument is greater than first
//
// panics if the item to compare doesn't implement keyer.
func (k bkey) Less(item btree.Item) bool {
	cmp := item.(keyer).Key()
	return bytes.Compare(k.key, cmp) < 0
}

type deletedItem struct {
	bkey
}

func newDeletedItem(key []byte) deletedItem {
	return deletedItem{bkey{key}}
}

type setItem struct {
	bkey
	value []byte
}

func newSetItem(key, value []byte) setItem {
	return setItem{bkey{key}, value}
}
