package matching

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// IDGenerator produces compact, monotonically increasing match ids without
// the allocation overhead of fmt.Sprintf. Grounded on the same pooled
// strings.Builder + atomic counter pattern used for order/trade ids in
// ccyyhlg-lightning-exchange's matching/id_generator.go.
type IDGenerator struct {
	prefix      string
	counter     uint64
	builderPool sync.Pool
}

// NewIDGenerator creates a generator that prefixes every id with prefix,
// e.g. "m-" for match ids.
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{
		prefix: prefix,
		builderPool: sync.Pool{
			New: func() any { return &strings.Builder{} },
		},
	}
}

// Next returns the next id in the sequence, formatted as "<prefix><n>".
func (g *IDGenerator) Next() string {
	n := atomic.AddUint64(&g.counter, 1)

	b := g.builderPool.Get().(*strings.Builder)
	b.Reset()
	b.WriteString(g.prefix)
	b.WriteString(strconv.FormatUint(n, 10))
	id := b.String()
	g.builderPool.Put(b)

	return id
}
