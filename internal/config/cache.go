package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// BidCacheConfig defines settings for the highest-bid cache.
// TTL is the lifetime of each cached highest bid.  Backend selects the
// store: "redis" requires a reachable Redis, "memory" keeps entries in
// process, and "auto" uses Redis when available and memory otherwise.
type BidCacheConfig struct {
    TTL     time.Duration
    Backend string
}

// LoadBidCacheConfig reads BID_CACHE_TTL and BID_CACHE_BACKEND.  Defaults
// are used when variables are not set or invalid.
func LoadBidCacheConfig() BidCacheConfig {
    cfg := BidCacheConfig{
        TTL:     parseDur(getenv("BID_CACHE_TTL", "300s")),
        Backend: strings.ToLower(getenv("BID_CACHE_BACKEND", "auto")),
    }
    if cfg.TTL <= time.Second {
        cfg.TTL = 300 * time.Second
    }
    switch cfg.Backend {
    case "redis", "memory", "auto":
    default:
        cfg.Backend = "auto"
    }
    return cfg
}

// Helper functions reused from config.go and redis.go
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func atoi(s string) int {
    i, _ := strconv.Atoi(s)
    return i
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Second
    }
    return d
}
