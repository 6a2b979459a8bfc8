package orm

import (
	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
)

// Model is implemented by everything stored in a bucket.
type Model interface {
	Validate() error
}

// Bucket is a namespace in the KVStore. All keys saved through a bucket are
// prefixed with its name, so buckets never see each other's data.
type Bucket struct {
	prefix []byte
}

// NewBucket creates a bucket storing keys under "<name>:".
func NewBucket(name string) Bucket {
	if name == "" {
		panic("bucket name must not be empty")
	}
	return Bucket{prefix: []byte(name + ":")}
}

// DBKey returns the key under which given bucket key is stored.
func (b Bucket) DBKey(key []byte) []byte {
	return append(append([]byte(nil), b.prefix...), key...)
}

// Get loads the model stored under key into dest. It returns false if
// there is no such key.
func (b Bucket) Get(db threshold.ReadOnlyKVStore, key []byte, dest Model) (bool, error) {
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := Unmarshal(raw, dest); err != nil {
		return false, errors.Wrapf(err, "key %X", key)
	}
	return true, nil
}

// Has returns true if the bucket holds a value under key.
func (b Bucket) Has(db threshold.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(b.DBKey(key))
}

// Save validates and writes the model under key.
func (b Bucket) Save(db threshold.KVStore, key []byte, m Model) error {
	if err := m.Validate(); err != nil {
		return errors.Wrapf(err, "invalid %T", m)
	}
	raw, err := Marshal(m)
	if err != nil {
		return err
	}
	return db.Set(b.DBKey(key), raw)
}

// Delete removes the key from the bucket. Deleting a missing key is a noop.
func (b Bucket) Delete(db threshold.KVStore, key []byte) error {
	return db.Delete(b.DBKey(key))
}

// Iterate calls fn for every key stored under given key prefix, in
// ascending order. The key passed to fn has the bucket prefix removed.
// Returning an error from fn stops the iteration and returns that error.
func (b Bucket) Iterate(db threshold.ReadOnlyKVStore, prefix []byte, fn func(key, raw []byte) error) error {
	start, end := PrefixRange(b.DBKey(prefix))
	iter, err := db.Iterator(start, end)
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.Valid() {
		key := iter.Key()[len(b.prefix):]
		if err := fn(key, iter.Value()); err != nil {
			return err
		}
		if err := iter.Next(); err != nil {
			return err
		}
	}
	return nil
}
