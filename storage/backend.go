package storage

import (
	"encoding/binary"
	"sync"
)

// Snapshot keys pack <8 bytes of segment ID> <aggregation cache key>. The
// cache key already starts with the aggregation kind's tag byte, so keys for
// different aggregations over the same segment never collide.
func SnapshotKey(segmentID int64, cacheKey []byte) []byte {
	buf := make([]byte, 8+len(cacheKey))
	binary.LittleEndian.PutUint64(buf[:8], uint64(segmentID))
	copy(buf[8:], cacheKey)
	return buf
}

func SegmentIDFromKey(buf []byte) int64 {
	return int64(binary.LittleEndian.Uint64(buf[:8]))
}

func CacheKeyFromKey(buf []byte) []byte {
	return buf[8:]
}

// Backend persists combined aggregate snapshots keyed by snapshot key.
type Backend interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// IterateSegment visits every snapshot stored for one segment.
	IterateSegment(segmentID int64, lambda func(cacheKey, value []byte) error) error
	Close() error
}

// NotFoundError is returned by Get when no snapshot exists for the key.
type NotFoundError struct {
	Key []byte
}

func (e *NotFoundError) Error() string {
	return "no snapshot stored for key"
}

type InMemoryBackend struct {
	snapshotMap      map[string][]byte
	snapshotMapMutex sync.Mutex
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		snapshotMap: make(map[string][]byte),
	}
}

func (backend *InMemoryBackend) Get(key []byte) ([]byte, error) {
	backend.snapshotMapMutex.Lock()
	defer backend.snapshotMapMutex.Unlock()
	buf, ok := backend.snapshotMap[string(key)]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	return buf, nil
}

func (backend *InMemoryBackend) Put(key, value []byte) error {
	backend.snapshotMapMutex.Lock()
	defer backend.snapshotMapMutex.Unlock()
	backend.snapshotMap[string(key)] = value
	return nil
}

func (backend *InMemoryBackend) Delete(key []byte) error {
	backend.snapshotMapMutex.Lock()
	defer backend.snapshotMapMutex.Unlock()
	delete(backend.snapshotMap, string(key))
	return nil
}

func (backend *InMemoryBackend) IterateSegment(
	segmentID int64, lambda func(cacheKey, value []byte) error) error {

	backend.snapshotMapMutex.Lock()
	defer backend.snapshotMapMutex.Unlock()
	for k, v := range backend.snapshotMap {
		buf := []byte(k)
		if SegmentIDFromKey(buf) != segmentID {
			continue
		}
		if err := lambda(CacheKeyFromKey(buf), v); err != nil {
			return err
		}
	}
	return nil
}

func (backend *InMemoryBackend) Close() error {
	backend.snapshotMapMutex.Lock()
	defer backend.snapshotMapMutex.Unlock()
	backend.snapshotMap = nil
	return nil
}
