package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const lockSuffix = ":lock"

// MemoryStore keeps sessions in process memory. Suitable for a single replica.
type MemoryStore struct {
	cache   *cache.Cache
	ttl     time.Duration
	lockTTL time.Duration
}

// NewMemoryStore creates a store whose entries expire after ttl of inactivity.
// lockTTL bounds how long a crashed request can hold a session lock.
func NewMemoryStore(ttl, lockTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		cache:   cache.New(ttl, 10*time.Minute),
		ttl:     ttl,
		lockTTL: lockTTL,
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	if v, ok := m.cache.Get(id); ok {
		stored := v.(State)
		stored.Exports = append([]ExportRow(nil), stored.Exports...)
		return &stored, nil
	}
	return New(id), nil
}

func (m *MemoryStore) Save(_ context.Context, state *State) error {
	state.UpdatedAt = time.Now()
	snapshot := *state
	snapshot.Exports = append([]ExportRow(nil), state.Exports...)
	m.cache.Set(state.ID, snapshot, m.ttl)
	return nil
}

func (m *MemoryStore) Acquire(_ context.Context, id string) error {
	// Add fails when the key exists, which makes it an atomic test-and-set.
	if err := m.cache.Add(id+lockSuffix, struct{}{}, m.lockTTL); err != nil {
		return ErrBusy
	}
	return nil
}

func (m *MemoryStore) Release(_ context.Context, id string) error {
	m.cache.Delete(id + lockSuffix)
	return nil
}
