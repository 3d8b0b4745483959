package memcache

import (
	"container/list"
	"context"
	"sync"

	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/repository"
)

var _ repository.AggregateCache = (*AggregateLRU)(nil)

type lruEntry struct {
	key  string
	aggs []model.UserAggregate
}

// AggregateLRU is a process-local AggregateCache bounded to size entries.
type AggregateLRU struct {
	mu    sync.Mutex
	size  int
	ll    *list.List
	items map[string]*list.Element
}

func NewAggregateLRU(size int) *AggregateLRU {
	if size <= 0 {
		size = 64
	}
	return &AggregateLRU{size: size, ll: list.New(), items: make(map[string]*list.Element)}
}

func (c *AggregateLRU) Get(_ context.Context, key string) ([]model.UserAggregate, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruEntry).aggs, true, nil
}

func (c *AggregateLRU) Set(_ context.Context, key string, aggs []model.UserAggregate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).aggs = aggs
		c.ll.MoveToFront(el)
		return nil
	}
	c.items[key] = c.ll.PushFront(&lruEntry{key: key, aggs: aggs})
	for c.ll.Len() > c.size {
		old := c.ll.Back()
		c.ll.Remove(old)
		delete(c.items, old.Value.(*lruEntry).key)
	}
	return nil
}

func (c *AggregateLRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
