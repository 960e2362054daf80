package expr

import (
	"container/list"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// programCache is a fixed-capacity LRU cache of compiled expr-lang
// programs keyed by the raw expression text a node parameter carried.
// Compilation is the expensive step (parse + type-check); a workflow
// that re-resolves the same template on every node execution or every
// loop iteration should not pay that cost twice.
type programCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key     string
	program *vm.Program
}

func newProgramCache(capacity int) *programCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &programCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *programCache) get(key string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).program, true
}

func (c *programCache) put(key string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*cacheEntry).program = program
		return
	}

	el := c.ll.PushFront(&cacheEntry{key: key, program: program})
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

func (c *programCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
