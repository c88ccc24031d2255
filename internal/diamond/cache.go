package diamond

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/value"
)

// cacheEntry pairs a cached result with the canonical key string that
// produced its hash, so that a hash collision (expected to be
// vanishingly rare at 64 bits, but checked for rather than assumed
// away) is detected instead of silently returning the wrong diamond's
// value.
type cacheEntry struct {
	canonical string
	result    value.Belief
}

// Cache memoizes diamond evaluations keyed by (canonicalized edgelist,
// join node, fingerprint of the outer beliefs of the diamond's
// conditioning nodes). Beliefs of the other relevant nodes are not part
// of the key. It is safe for concurrent use since the driver may
// evaluate independent diamonds within one iteration set in parallel.
type Cache struct {
	mu      sync.Mutex
	entries map[uint64][]cacheEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64][]cacheEntry)}
}

// Get looks up a previously computed result for the given canonical
// key, returning (nil, false) on a miss.
func (c *Cache) Get(canonical string) (value.Belief, bool) {
	hash := xxhash.Sum64String(canonical)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries[hash] {
		if e.canonical == canonical {
			return e.result, true
		}
	}
	return nil, false
}

// Put stores result under canonical's hash, appending to the bucket on
// a hash collision rather than overwriting a differently-keyed entry.
func (c *Cache) Put(canonical string, result value.Belief) {
	hash := xxhash.Sum64String(canonical)
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket := c.entries[hash]
	for i, e := range bucket {
		if e.canonical == canonical {
			bucket[i].result = result
			return
		}
	}
	c.entries[hash] = append(bucket, cacheEntry{canonical: canonical, result: result})
}

// canonicalKey builds a deterministic string key from a diamond's
// edgelist and the current outer beliefs of its conditioning nodes:
// those beliefs are exactly what the enumeration in Evaluate branches
// on, so two evaluations with the same structure and the same
// conditioning beliefs are guaranteed to produce the same result.
func canonicalKey(d *model.Diamond, outer *model.BeliefStore) (string, error) {
	edges := append([]model.Edge(nil), d.Edgelist...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Src != edges[j].Src {
			return edges[i].Src < edges[j].Src
		}
		return edges[i].Dst < edges[j].Dst
	})

	var b strings.Builder
	fmt.Fprintf(&b, "join=%s;edges=", d.JoinNode)
	for _, e := range edges {
		fmt.Fprintf(&b, "%s,", e)
	}

	nodes := append([]model.Node(nil), d.HighestNodes...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	b.WriteString(";cond=")
	for _, n := range nodes {
		belief, ok := outer.Get(n)
		if !ok {
			return "", fmt.Errorf("diamond: conditioning node %s not resolved in outer store", n)
		}
		wire, err := value.Marshal(belief)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s=%s,", n, wire)
	}
	return b.String(), nil
}
