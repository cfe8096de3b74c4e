package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/iov-one/bequest/bequesttest/assert"
	dbm "github.com/tendermint/tendermint/libs/db"
)

func TestCommitStoreVersions(t *testing.T) {
	s := NewMemCommitStore()
	assert.Nil(t, s.LoadLatestVersion())
	assert.Equal(t, int64(0), s.LatestVersion().Version)

	cache := s.CacheWrap()
	assert.Nil(t, cache.Set([]byte("plan"), []byte("one")))

	// not visible before write
	got, err := s.Get([]byte("plan"))
	assert.Nil(t, err)
	assert.Nil(t, got)

	assert.Nil(t, cache.Write())
	first := s.LatestVersion()
	assert.Equal(t, int64(1), first.Version)
	if len(first.Hash) == 0 {
		t.Fatal("missing root hash")
	}

	got, err = s.Get([]byte("plan"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("one"), got)

	// an empty write does not create a version
	assert.Nil(t, s.CacheWrap().Write())
	assert.Equal(t, int64(1), s.LatestVersion().Version)

	cache = s.CacheWrap()
	assert.Nil(t, cache.Delete([]byte("plan")))
	assert.Nil(t, cache.Write())
	assert.Equal(t, int64(2), s.LatestVersion().Version)

	has, err := s.Has([]byte("plan"))
	assert.Nil(t, err)
	assert.Equal(t, false, has)
}

func TestCommitStoreReload(t *testing.T) {
	db := dbm.NewMemDB()

	s := NewCommitStore(db, 0)
	assert.Nil(t, s.LoadLatestVersion())
	cache := s.CacheWrap()
	assert.Nil(t, cache.Set([]byte("a"), []byte("1")))
	assert.Nil(t, cache.Set([]byte("b"), []byte("2")))
	assert.Nil(t, cache.Write())
	want := s.LatestVersion()

	reopened := NewCommitStore(db, 0)
	assert.Nil(t, reopened.LoadLatestVersion())
	assert.Equal(t, want, reopened.LatestVersion())

	it, err := reopened.Iterator(nil, nil)
	assert.Nil(t, err)
	got := drain(it)
	assert.Equal(t, []Model{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	}, got)

	it, err = reopened.ReverseIterator(nil, nil)
	assert.Nil(t, err)
	got = drain(it)
	assert.Equal(t, 2, len(got))
	assert.Equal(t, []byte("b"), got[0].Key)
}

func TestCommitStoreParallelWrites(t *testing.T) {
	s := NewMemCommitStore()
	assert.Nil(t, s.LoadLatestVersion())

	const writers = 20
	var wg sync.WaitGroup
	errc := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cache := s.CacheWrap()
			key := []byte(fmt.Sprintf("owner-%02d", i))
			if err := cache.Set(key, []byte("plan")); err != nil {
				errc <- err
				return
			}
			errc <- cache.Write()
		}(i)
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		assert.Nil(t, err)
	}

	assert.Equal(t, int64(writers), s.LatestVersion().Version)
	it, err := s.Iterator([]byte("owner-"), []byte("owner."))
	assert.Nil(t, err)
	assert.Equal(t, writers, len(drain(it)))
}
