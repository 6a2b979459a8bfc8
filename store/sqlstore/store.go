/*
Package sqlstore provides a durable KVStore backed by a single SQLite
table. Cache wraps created on top of it are flushed in one SQL
transaction, so an operation either lands on disk completely or not at
all.
*/
package sqlstore

import (
	"database/sql"

	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/store"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	k BLOB PRIMARY KEY,
	v BLOB NOT NULL
) WITHOUT ROWID;
`

// Store is a KVStore persisting all data in a SQLite database file.
type Store struct {
	db *sql.DB
}

var _ store.CacheableKVStore = (*Store)(nil)

// Open returns a store using the database file at given path. The file is
// created if it does not exist. Use ":memory:" for a throw away database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", path, err)
	}
	// SQLite allows one writer, and an in memory database exists only
	// for a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "create schema: %s", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Get returns nil iff key doesn't exist.
func (s *Store) Get(key []byte) ([]byte, error) {
	var value []byte
	switch err := s.db.QueryRow(`SELECT v FROM kv WHERE k = ?`, key).Scan(&value); err {
	case nil:
		return value, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, errors.Wrapf(errors.ErrDatabase, "get: %s", err)
	}
}

// Has checks if a key exists.
func (s *Store) Has(key []byte) (bool, error) {
	value, err := s.Get(key)
	return value != nil, err
}

// Set writes a single key outside of any batch.
func (s *Store) Set(key, value []byte) error {
	return set(s.db, key, value)
}

// Delete removes a single key outside of any batch.
func (s *Store) Delete(key []byte) error {
	return del(s.db, key)
}

// Iterator loads all pairs within [start, end) in ascending order. Nil
// boundaries are open.
func (s *Store) Iterator(start, end []byte) (store.Iterator, error) {
	return s.scan(start, end, "ASC")
}

// ReverseIterator loads all pairs within [start, end) in descending order.
func (s *Store) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return s.scan(start, end, "DESC")
}

func (s *Store) scan(start, end []byte, order string) (store.Iterator, error) {
	query := `SELECT k, v FROM kv WHERE 1 = 1`
	var args []interface{}
	if start != nil {
		query += ` AND k >= ?`
		args = append(args, start)
	}
	if end != nil {
		query += ` AND k < ?`
		args = append(args, end)
	}
	query += ` ORDER BY k ` + order

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "scan: %s", err)
	}
	defer rows.Close()

	var data []store.Model
	for rows.Next() {
		var m store.Model
		if err := rows.Scan(&m.Key, &m.Value); err != nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "scan row: %s", err)
		}
		data = append(data, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "scan rows: %s", err)
	}
	return store.NewSliceIterator(data), nil
}

// NewBatch returns a batch that writes all its operations in a single
// transaction.
func (s *Store) NewBatch() store.Batch {
	return &batch{db: s.db}
}

// CacheWrap returns a btree scratch pad that is flushed to the database in
// a single transaction when written.
func (s *Store) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

type batch struct {
	db  *sql.DB
	ops []store.Op
}

func (b *batch) Set(key, value []byte) error {
	b.ops = append(b.ops, store.SetOp(key, value))
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, store.DelOp(key))
	return nil
}

// Write applies all collected operations atomically.
func (b *batch) Write() error {
	if len(b.ops) == 0 {
		return nil
	}
	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "begin: %s", err)
	}
	for _, op := range b.ops {
		if op.IsSetOp() {
			err = set(tx, op.Key(), op.Value())
		} else {
			err = del(tx, op.Key())
		}
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "commit: %s", err)
	}
	b.ops = nil
	return nil
}

// execer is implemented by both sql.DB and sql.Tx
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func set(db execer, key, value []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrDatabase, "nil key")
	}
	if value == nil {
		value = []byte{}
	}
	_, err := db.Exec(`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "set: %s", err)
	}
	return nil
}

func del(db execer, key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrDatabase, "nil key")
	}
	if _, err := db.Exec(`DELETE FROM kv WHERE k = ?`, key); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "delete: %s", err)
	}
	return nil
}
