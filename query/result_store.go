package query

import (
	"encoding/binary"
	"errors"
	"fmt"

	hll "github.com/axiomhq/hyperloglog"
	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/rpless/druid/aggregation"
	"github.com/rpless/druid/storage"
)

// ResultStore caches combined aggregate snapshots per (segment, aggregation),
// keyed by the factory's deterministic cache key. Reads go through an
// in-process ristretto cache before hitting the backend; backend reads pass
// through the factory's Deserialize.
type ResultStore struct {
	backend      storage.Backend
	cacheEnabled bool
	cache        *ristretto.Cache
	log          *zap.Logger
}

func NewResultStore(backend storage.Backend, cacheEnabled bool, log *zap.Logger) *ResultStore {
	if log == nil {
		log = zap.NewNop()
	}
	cache, _ := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     1 << 28,
		BufferItems: 64,
	})

	return &ResultStore{
		backend:      backend,
		cacheEnabled: cacheEnabled,
		cache:        cache,
		log:          log,
	}
}

func (store *ResultStore) Put(
	segmentID int64,
	factory aggregation.AggregatorFactory,
	value interface{}) error {

	buf, err := encodeSnapshot(value)
	if err != nil {
		return err
	}
	key := storage.SnapshotKey(segmentID, factory.CacheKey())
	if store.cacheEnabled {
		store.cache.Set(key, value, 1)
	}
	return store.backend.Put(key, buf)
}

// Get returns the stored snapshot for (segmentID, factory), or found=false
// when none exists. Values read from the backend are deserialized with the
// factory before being returned.
func (store *ResultStore) Get(
	segmentID int64,
	factory aggregation.AggregatorFactory) (interface{}, bool, error) {

	key := storage.SnapshotKey(segmentID, factory.CacheKey())
	if store.cacheEnabled {
		value, found := store.cache.Get(key)
		if found {
			return value, true, nil
		}
	}

	buf, err := store.backend.Get(key)
	if err != nil {
		notFound := &storage.NotFoundError{}
		if errors.As(err, &notFound) {
			return nil, false, nil
		}
		store.log.Error("snapshot read failed",
			zap.Int64("segmentID", segmentID), zap.Error(err))
		return nil, false, err
	}

	value := factory.Deserialize(decodeSnapshot(factory, buf))
	if store.cacheEnabled {
		store.cache.Set(key, value, 1)
	}
	return value, true, nil
}

func (store *ResultStore) Delete(
	segmentID int64,
	factory aggregation.AggregatorFactory) error {

	key := storage.SnapshotKey(segmentID, factory.CacheKey())
	if store.cacheEnabled {
		store.cache.Del(key)
	}
	return store.backend.Delete(key)
}

func (store *ResultStore) Close() error {
	store.cache.Close()
	return store.backend.Close()
}

// encodeSnapshot serializes an intermediate aggregate value. Long-state
// aggregations lay out as 8 little-endian bytes, exactly the arena slot
// form; sketches use their own binary encoding.
func encodeSnapshot(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case int64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(v))
		return buf, nil
	case *hll.Sketch:
		return v.MarshalBinary()
	}
	return nil, fmt.Errorf("unsupported snapshot value %T", value)
}

// decodeSnapshot recovers the raw stored form: long-slot aggregations decode
// to int64, everything else stays opaque bytes for the factory's
// Deserialize to interpret.
func decodeSnapshot(factory aggregation.AggregatorFactory, buf []byte) interface{} {
	if factory.MaxIntermediateSize() == 8 && len(buf) == 8 {
		return int64(binary.LittleEndian.Uint64(buf))
	}
	return buf
}
