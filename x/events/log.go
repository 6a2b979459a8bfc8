package events

import (
	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/orm"
)

const bucketName = "events"

// Log is the append-only sequence of records. It holds no state itself,
// all records live in the store passed to each call.
type Log struct {
	bucket orm.Bucket
	seq    orm.Sequence
}

// NewLog returns a log using the default bucket.
func NewLog() *Log {
	return &Log{
		bucket: orm.NewBucket(bucketName),
		seq:    orm.NewSequence(bucketName, "seq"),
	}
}

// Append assigns the next sequence number to the record and stores it.
func (l *Log) Append(db threshold.KVStore, r Record) (uint64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	seq, err := l.seq.Reserve(db)
	if err != nil {
		return 0, errors.Wrap(err, "event sequence")
	}
	r.Seq = seq
	if err := l.bucket.Save(db, orm.EncodeID(seq), &r); err != nil {
		return 0, errors.Wrapf(err, "event %d", seq)
	}
	return seq, nil
}

// Len returns the number of records in the log.
func (l *Log) Len(db threshold.ReadOnlyKVStore) (uint64, error) {
	return l.seq.Latest(db)
}

// Since calls fn with every record whose sequence is greater or equal to
// from, in log order. Returning an error from fn stops the iteration.
func (l *Log) Since(db threshold.ReadOnlyKVStore, from uint64, fn func(Record) error) error {
	_, end := orm.PrefixRange(l.bucket.DBKey(nil))
	start := l.bucket.DBKey(orm.EncodeID(from))
	iter, err := db.Iterator(start, end)
	if err != nil {
		return err
	}
	// Records are collected before fn runs, fn may write to the same store.
	var records []Record
	for iter.Valid() {
		var r Record
		if err := orm.Unmarshal(iter.Value(), &r); err != nil {
			iter.Close()
			return errors.Wrapf(err, "event key %X", iter.Key())
		}
		records = append(records, r)
		if err := iter.Next(); err != nil {
			iter.Close()
			return err
		}
	}
	iter.Close()

	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// All returns every record from given position on.
func (l *Log) All(db threshold.ReadOnlyKVStore, from uint64) ([]Record, error) {
	var out []Record
	err := l.Since(db, from, func(r Record) error {
		out = append(out, r)
		return nil
	})
	return out, err
}
