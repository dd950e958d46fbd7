package sessionstore

import (
	"context"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/cache"
)

// Memory keeps slots in an in-process TTL cache. Slots are lost on restart
// and are not shared between replicas.
type Memory struct {
	slots  *cache.InMemory[string]
	sealer *Sealer
}

// NewMemory creates an in-memory slot store whose entries expire after ttl.
func NewMemory(ttl time.Duration, sealer *Sealer) *Memory {
	return &Memory{slots: cache.New[string](ttl), sealer: sealer}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	sealed, ok := m.slots.Get(key)
	if !ok {
		return "", false, nil
	}
	token, err := m.sealer.Open(key, sealed)
	if err != nil {
		m.slots.Delete(key)
		return "", false, err
	}
	return token, true, nil
}

func (m *Memory) Set(_ context.Context, key, token string, ttl time.Duration) error {
	sealed, err := m.sealer.Seal(key, token)
	if err != nil {
		return err
	}
	m.slots.SetWithTTL(key, sealed, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.slots.Delete(key)
	return nil
}

// Ping always succeeds for the in-memory store.
func (m *Memory) Ping(context.Context) error {
	return nil
}
