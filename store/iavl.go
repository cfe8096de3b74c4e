package store

import (
	"sync"

	"github.com/iov-one/bequest/errors"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// DefaultCacheSize is the number of iavl nodes kept in memory.
const DefaultCacheSize = 10000

// CommitStore is a versioned, merkle-ized store backed by an iavl tree.
//
// Reads always see the last committed version. Writes are collected in a
// cache wrap and applied in a single step when it is written, producing
// exactly one new tree version. Reads may run in parallel with each other
// but never observe a partially applied write.
type CommitStore struct {
	mu   sync.RWMutex
	db   dbm.DB
	tree *iavl.MutableTree
	last CommitID
}

var _ CommitKVStore = (*CommitStore)(nil)

// NewCommitStore returns a store persisting its tree in the given database.
// Call LoadLatestVersion before using it on a database that may hold data.
func NewCommitStore(db dbm.DB, cacheSize int) *CommitStore {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &CommitStore{
		db:   db,
		tree: iavl.NewMutableTree(db, cacheSize),
	}
}

// NewMemCommitStore returns a commit store that keeps everything in memory.
func NewMemCommitStore() *CommitStore {
	return NewCommitStore(dbm.NewMemDB(), 0)
}

// OpenCommitStore opens (or creates) a goleveldb database called name in
// dir and loads the latest version from it.
func OpenCommitStore(name, dir string) (*CommitStore, error) {
	db := dbm.NewDB(name, dbm.GoLevelDBBackend, dir)
	s := NewCommitStore(db, 0)
	if err := s.LoadLatestVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// LoadLatestVersion loads the most recent version persisted in the database.
func (s *CommitStore) LoadLatestVersion() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.tree.Load()
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	s.last = CommitID{Version: version, Hash: s.tree.Hash()}
	return nil
}

// LatestVersion returns the version and root hash of the last commit.
func (s *CommitStore) LatestVersion() CommitID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Close releases the underlying database.
func (s *CommitStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.Close()
	return nil
}

// CacheWrap returns a scratch pad on top of the last committed state.
// Calling Write on it commits all collected operations as a new version.
func (s *CommitStore) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(s, &commitBatch{store: s}, nil)
}

// Get returns the committed value for the key or nil.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	if key == nil {
		return nil, errors.Wrap(errors.ErrInput, "nil key")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, value := s.tree.Get(key)
	return value, nil
}

// Has returns true if a committed value exists for the key.
func (s *CommitStore) Has(key []byte) (bool, error) {
	if key == nil {
		return false, errors.Wrap(errors.ErrInput, "nil key")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Has(key), nil
}

// Iterator returns all committed models within [start, end) in ascending
// order.
func (s *CommitStore) Iterator(start, end []byte) (Iterator, error) {
	return s.iterate(start, end, true), nil
}

// ReverseIterator returns all committed models within [start, end) in
// descending order.
func (s *CommitStore) ReverseIterator(start, end []byte) (Iterator, error) {
	return s.iterate(start, end, false), nil
}

func (s *CommitStore) iterate(start, end []byte, ascending bool) Iterator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []Model
	s.tree.IterateRange(start, end, ascending, func(key, value []byte) bool {
		res = append(res, Model{Key: key, Value: value})
		return false
	})
	return NewSliceIterator(res)
}

// commit applies all operations to the tree and saves a new version. On
// failure the working tree is rolled back to the last saved version.
func (s *CommitStore) commit(ops []op) error {
	if len(ops) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range ops {
		if o.del {
			s.tree.Remove(o.key)
			continue
		}
		value := o.value
		if value == nil {
			value = []byte{}
		}
		s.tree.Set(o.key, value)
	}
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		s.tree.Rollback()
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	s.last = CommitID{Version: version, Hash: hash}
	return nil
}

// commitBatch collects operations from a cache wrap and commits them to
// the store in one step.
type commitBatch struct {
	store *CommitStore
	ops   []op
}

var _ Batch = (*commitBatch)(nil)

func (b *commitBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, op{key: key, value: value})
	return nil
}

func (b *commitBatch) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: key, del: true})
	return nil
}

func (b *commitBatch) Write() error {
	ops := b.ops
	b.ops = nil
	return b.store.commit(ops)
}
