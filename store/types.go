package store

import "github.com/iov-one/threshold"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = threshold.ReadOnlyKVStore
type SetDeleter = threshold.SetDeleter
type KVStore = threshold.KVStore
type Batch = threshold.Batch
type Iterator = threshold.Iterator
type CacheableKVStore = threshold.CacheableKVStore
type KVCacheWrap = threshold.KVCacheWrap

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}
