// Package gateway implements the edge component of spec.md §4.7: a
// deterministic symbol-to-shard lookup plus the reverse-proxy glue that
// forwards order traffic to the owning shard. Grounded on
// rishavpaul-system-design's rate-limiter/gateway/main.go, minus its
// token-bucket rate limiting (out of scope, see DESIGN.md).
package gateway

import "errors"

// ErrUnknownSymbol is returned when a symbol has no owning shard.
var ErrUnknownSymbol = errors.New("UNKNOWN_SYMBOL")

// ErrMisconfigured is returned when a symbol maps to a shard id with no
// registered base URL.
var ErrMisconfigured = errors.New("MISCONFIGURED")

// Router resolves a symbol to its owning shard's id and base URL. Despite
// what the source historically called this kind of component ("consistent
// hash router"), it performs no hashing: it is a static, explicit lookup
// table built once at startup and must be deterministic across restarts
// given identical configuration (spec.md §4.7, §9). Rebalancing,
// weighting, and replication are out of scope.
type Router struct {
	shardURLs    map[string]string   // shardId -> baseUrl
	symbolShards map[string]string   // symbol -> shardId, derived
}

// NewRouter builds the derived symbol->shardId index from the two
// configured maps.
func NewRouter(shardSymbols map[string][]string, shardURLs map[string]string) *Router {
	symbolShards := make(map[string]string)
	for shardID, symbols := range shardSymbols {
		for _, symbol := range symbols {
			symbolShards[symbol] = shardID
		}
	}
	return &Router{shardURLs: shardURLs, symbolShards: symbolShards}
}

// ShardID returns the shard id owning symbol, or ErrUnknownSymbol.
func (r *Router) ShardID(symbol string) (string, error) {
	shardID, ok := r.symbolShards[symbol]
	if !ok {
		return "", ErrUnknownSymbol
	}
	return shardID, nil
}

// ShardURL returns the base URL of the shard owning symbol. Returns
// ErrUnknownSymbol if no shard owns the symbol, or ErrMisconfigured if the
// owning shard id has no registered URL.
func (r *Router) ShardURL(symbol string) (string, error) {
	shardID, err := r.ShardID(symbol)
	if err != nil {
		return "", err
	}
	url, ok := r.shardURLs[shardID]
	if !ok {
		return "", ErrMisconfigured
	}
	return url, nil
}

// URLForShard returns the base URL registered for shardID directly, used by
// the /seed/{shardId} passthrough which addresses a shard by id rather than
// by symbol. ok is false if shardID is unknown.
func (r *Router) URLForShard(shardID string) (url string, ok bool) {
	url, ok = r.shardURLs[shardID]
	return url, ok
}
