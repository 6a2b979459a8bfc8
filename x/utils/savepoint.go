package utils

import (
	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
)

// Savepoint will isolate all data written by fn, and commit or roll back
// to the savepoint based on if fn returned an error.
//
// Nothing fn wrote is visible in db before fn returns successfully, and
// nothing is left behind when it fails. Savepoints nest.
func Savepoint(db threshold.CacheableKVStore, fn func(threshold.CacheableKVStore) error) error {
	cache := db.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "writing savepoint")
	}
	return nil
}
