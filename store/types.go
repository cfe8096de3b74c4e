// nolint
package store

import "github.com/iov-one/bequest"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = bequest.ReadOnlyKVStore
type SetDeleter = bequest.SetDeleter
type KVStore = bequest.KVStore
type Batch = bequest.Batch
type Iterator = bequest.Iterator
type CacheableKVStore = bequest.CacheableKVStore
type KVCacheWrap = bequest.KVCacheWrap
type CommitKVStore = bequest.CommitKVStore
type CommitID = bequest.CommitID
