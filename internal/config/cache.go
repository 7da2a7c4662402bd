package config

import (
	"strings"
	"time"
)

// CacheConfig controls the response cache middleware. Caching is
// skipped entirely when Enabled is false or no Redis client exists.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool // HTTP methods worth caching, usually GET
	TTL          time.Duration
	KeyStrategy  string // "route_query" or "route"
	Prefix       string
	MaxBodyBytes int // responses larger than this are not cached
}

// LoadCacheConfig builds a CacheConfig from the environment with
// defaults suited to the public browse endpoints.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
