package cache

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrKeyExists     = errors.New("key already exists in cache")
	ErrInvalidWeight = errors.New("weight must be positive")
	ErrExceedsBudget = errors.New("weight exceeds cache budget")
)

// Cache is a weight-bounded, least recently used cache.
type Cache interface {
	SetVerbose(verbose bool)
	GetWeight() int
	GetBudget() int
	Len() int

	// Insert adds a new item, evicting least recently used items until the
	// cache is back within its budget.
	Insert(key string, value interface{}, weight int) error

	// Retrieve returns the item for key and marks it as most recently used.
	Retrieve(key string) (interface{}, bool)

	Clear()
}

type cacheNode struct {
	next   *cacheNode
	prev   *cacheNode
	key    string
	value  interface{}
	weight int
}

type cache struct {
	log *logrus.Entry

	mu      sync.Mutex
	head    *cacheNode
	tail    *cacheNode
	lookup  map[string]*cacheNode
	weight  int
	budget  int
	verbose bool
}

// NewCache returns a cache that holds at most budget units of weight.
func NewCache(budget int) Cache {
	return &cache{
		log:    logrus.StandardLogger().WithField("type", "cache/lru"),
		lookup: make(map[string]*cacheNode),
		budget: budget,
	}
}

func (c *cache) SetVerbose(verbose bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.verbose = verbose
}

func (c *cache) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weight
}

func (c *cache) GetBudget() int {
	return c.budget
}

func (c *cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.lookup)
}

func (c *cache) Insert(key string, value interface{}, weight int) error {
	if weight <= 0 {
		return ErrInvalidWeight
	}
	if weight > c.budget {
		return errors.Wrapf(ErrExceedsBudget, "weight %d, budget %d", weight, c.budget)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.lookup[key]; found {
		return ErrKeyExists
	}

	node := &cacheNode{
		key:    key,
		value:  value,
		weight: weight,
	}
	c.pushFront(node)
	c.lookup[key] = node
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		delete(c.lookup, evicted.key)
		c.weight -= evicted.weight

		if c.verbose {
			c.log.WithFields(logrus.Fields{
				"method":       "Insert",
				"key":          evicted.key,
				"weight":       evicted.weight,
				"spare_weight": c.budget - c.weight,
			}).Debug("evicted cache entry")
		}
	}

	return nil
}

func (c *cache) Retrieve(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, found := c.lookup[key]
	if !found {
		return nil, false
	}

	if node != c.head {
		c.unlink(node)
		c.pushFront(node)
	}

	return node.value, true
}

func (c *cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[string]*cacheNode)
	c.weight = 0
}

func (c *cache) pushFront(node *cacheNode) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *cache) unlink(node *cacheNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}

	node.next = nil
	node.prev = nil
}
