package inode

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry hands out inode numbers for folder paths. Numbers are kept
// in a bounded LRU so repeated lookups of hot paths present a stable
// inode without the registry growing with the tree. An evicted path
// simply gets a fresh number on its next lookup.
type Registry struct {
	mu sync.Mutex

	next    uint64
	numbers *lru.Cache[string, uint64]
}

func NewRegistry(size int) (*Registry, error) {
	numbers, err := lru.New[string, uint64](size)
	if err != nil {
		return nil, err
	}

	return &Registry{
		next:    1,
		numbers: numbers,
	}, nil
}

// Get returns the inode number registered for path, allocating one when
// none is cached. The root path always maps to inode 1.
func (registry *Registry) Get(path string) uint64 {
	if path == "/" {
		return 1
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if number, ok := registry.numbers.Get(path); ok {
		return number
	}

	registry.next++
	registry.numbers.Add(path, registry.next)

	return registry.next
}

// Forget drops the number registered for path, after the folder was
// removed or renamed away.
func (registry *Registry) Forget(path string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.numbers.Remove(path)
}
