package guard

import (
	"context"
	"hash/fnv"
	"sync"
)

const memoryShards = 64

type memoryShard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// MemoryGuard is an in-process Guard sharded by key hash, for single-node
// deployments and tests. Bookings for different doctors or times land on
// independent shards and never contend.
type MemoryGuard struct {
	shards [memoryShards]memoryShard
}

func NewMemoryGuard() *MemoryGuard {
	g := &MemoryGuard{}
	for i := range g.shards {
		g.shards[i].held = make(map[string]struct{})
	}
	return g
}

func (g *MemoryGuard) shard(key string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &g.shards[h.Sum32()%memoryShards]
}

func (g *MemoryGuard) TryReserve(_ context.Context, key Key) error {
	k := key.String()
	s := g.shard(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.held[k]; ok {
		return ErrKeyReserved
	}
	s.held[k] = struct{}{}
	return nil
}

func (g *MemoryGuard) Release(_ context.Context, key Key) error {
	k := key.String()
	s := g.shard(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.held, k)
	return nil
}
