package kv

import (
	"context"
	"errors"
	"net/url"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
)

// MemoryStore is an in-process store over a go-datastore map datastore.
// Nothing survives the process.
type MemoryStore struct {
	ds datastore.Datastore
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return NewDatastoreStore(dssync.MutexWrap(datastore.NewMapDatastore()))
}

// NewDatastoreStore adapts any go-datastore implementation to Store.
func NewDatastoreStore(ds datastore.Datastore) *MemoryStore {
	return &MemoryStore{ds: ds}
}

// dsKey maps key to a single datastore path segment. datastore.NewKey would
// clean it, folding "a//b" into "a/b".
func dsKey(key string) datastore.Key {
	return datastore.RawKey("/" + url.PathEscape(key))
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	v, err := s.ds.Get(ctx, dsKey(key))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return append([]byte{}, v...), nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	// the map datastore keeps the slice, so hand it a private copy
	return s.ds.Put(ctx, dsKey(key), append([]byte{}, value...))
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.ds.Delete(ctx, dsKey(key))
}

func (s *MemoryStore) Close() error {
	return s.ds.Close()
}
