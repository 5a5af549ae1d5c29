// Package config reads the environment-variable configuration contract of
// spec.md §6, generalizing the getEnv/getEnvInt helpers from
// rishavpaul-system-design's rate-limiter/gateway/main.go into a reusable
// loader shared by both the gateway and shard binaries.
package config

import (
	"os"
	"strconv"
	"strings"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvUint64(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

// parseKV parses a comma list of "key=value" pairs, as used by
// ME_SHARD_MAP ("a=http://...,b=http://...").
func parseKV(s string) map[string]string {
	out := make(map[string]string)
	if s == "" {
		return out
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}

// parseKVList parses a comma list of "key=v1:v2:v3" pairs, as used by
// SHARD_SYMBOLS_MAP.
func parseKVList(s string) map[string][]string {
	out := make(map[string][]string)
	for k, v := range parseKV(s) {
		out[k] = splitNonEmpty(v, ":")
	}
	return out
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Gateway holds the gateway process's configuration.
type Gateway struct {
	HTTPPort    int
	MetricsPort int
	ShardURLs   map[string]string   // shardId -> baseUrl
	ShardSymbols map[string][]string // shardId -> symbols
}

// LoadGateway reads the gateway's environment configuration.
func LoadGateway() Gateway {
	return Gateway{
		HTTPPort:     getEnvInt("HTTP_PORT", 8080),
		MetricsPort:  getEnvInt("METRICS_PORT", 9091),
		ShardURLs:    parseKV(getEnv("ME_SHARD_MAP", "")),
		ShardSymbols: parseKVList(getEnv("SHARD_SYMBOLS_MAP", "")),
	}
}

// Shard holds one shard process's configuration.
type Shard struct {
	HTTPPort       int
	MetricsPort    int
	ShardID        string
	Symbols        []string
	KafkaBootstrap string
	WALPath        string
	WALSizeBytes   int64
	RingBufferSize uint64
}

// LoadShard reads a shard's environment configuration.
func LoadShard() Shard {
	walSizeMB := getEnvInt("WAL_SIZE_MB", 64)
	return Shard{
		HTTPPort:       getEnvInt("HTTP_PORT", 8080),
		MetricsPort:    getEnvInt("METRICS_PORT", 9091),
		ShardID:        getEnv("SHARD_ID", "a"),
		Symbols:        splitNonEmpty(getEnv("SHARD_SYMBOLS", ""), ","),
		KafkaBootstrap: getEnv("KAFKA_BOOTSTRAP", "localhost:9092"),
		WALPath:        getEnv("WAL_PATH", "/tmp/wal"),
		WALSizeBytes:   int64(walSizeMB) * 1024 * 1024,
		RingBufferSize: getEnvUint64("RING_BUFFER_SIZE", 131072),
	}
}
