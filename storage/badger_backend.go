package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v2"
)

func TestBadgerDB() *badger.DB {
	option := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(option)
	if err != nil {
		panic(err)
	}
	return db
}

type BadgerBackend struct {
	db *badger.DB
}

func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

func (backend *BadgerBackend) Close() error {
	return backend.db.Close()
}

func (backend *BadgerBackend) txnGet(key []byte) ([]byte, error) {
	var buf []byte
	err := backend.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &NotFoundError{Key: key}
	}
	return buf, err
}

func (backend *BadgerBackend) txnPut(key, buf []byte) error {
	err := backend.db.Update(func(txn *badger.Txn) error {
		err := txn.Set(key, buf)
		return err
	})
	return err
}

func (backend *BadgerBackend) txnDelete(key []byte) error {
	err := backend.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		return err
	})
	return err
}

func (backend *BadgerBackend) Get(key []byte) ([]byte, error) {
	return backend.txnGet(key)
}

func (backend *BadgerBackend) Put(key, value []byte) error {
	return backend.txnPut(key, value)
}

func (backend *BadgerBackend) Delete(key []byte) error {
	return backend.txnDelete(key)
}

func (backend *BadgerBackend) IterateSegment(
	segmentID int64, lambda func(cacheKey, value []byte) error) error {

	prefix := SnapshotKey(segmentID, nil)
	iterOpts := badger.IteratorOptions{Prefix: prefix}
	err := backend.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Seek(nil); iter.Valid(); iter.Next() {
			item := iter.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			err = lambda(CacheKeyFromKey(item.Key()), value)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return err
}
