package gateway

import "testing"

func testRouter() *Router {
	return NewRouter(
		map[string][]string{
			"a": {"AAPL", "MSFT"},
			"b": {"GOOG"},
		},
		map[string]string{
			"a": "http://shard-a:8080",
			"b": "http://shard-b:8080",
		},
	)
}

func TestRouter_ShardIDResolvesOwningShard(t *testing.T) {
	r := testRouter()

	id, err := r.ShardID("AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "a" {
		t.Errorf("expected shard a, got %s", id)
	}

	id, err = r.ShardID("GOOG")
	if err != nil || id != "b" {
		t.Errorf("expected shard b for GOOG, got %s, err=%v", id, err)
	}
}

func TestRouter_UnknownSymbol(t *testing.T) {
	r := testRouter()

	if _, err := r.ShardID("TSLA"); err != ErrUnknownSymbol {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestRouter_Misconfigured(t *testing.T) {
	r := NewRouter(map[string][]string{"c": {"IBM"}}, map[string]string{})

	if _, err := r.ShardURL("IBM"); err != ErrMisconfigured {
		t.Errorf("expected ErrMisconfigured, got %v", err)
	}
}

func TestRouter_URLForShard(t *testing.T) {
	r := testRouter()

	url, ok := r.URLForShard("a")
	if !ok || url != "http://shard-a:8080" {
		t.Errorf("expected shard a's url, got %s, ok=%v", url, ok)
	}

	if _, ok := r.URLForShard("z"); ok {
		t.Errorf("expected ok=false for an unknown shard id")
	}
}

func TestRouter_DeterministicAcrossConstruction(t *testing.T) {
	shardSymbols := map[string][]string{"a": {"AAPL"}}
	shardURLs := map[string]string{"a": "http://shard-a:8080"}

	r1 := NewRouter(shardSymbols, shardURLs)
	r2 := NewRouter(shardSymbols, shardURLs)

	id1, _ := r1.ShardID("AAPL")
	id2, _ := r2.ShardID("AAPL")
	if id1 != id2 {
		t.Errorf("expected identical routing from identical configuration, got %s vs %s", id1, id2)
	}
}
