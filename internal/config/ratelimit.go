package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig controls the token bucket in front of bid placement and
// the accept/reject actions.  Buckets are keyed per user and route by
// default, so each bidder gets Capacity rapid requests per route before
// falling back to RefillTokens per RefillInterval.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration // idle buckets expire after this
    KeyStrategy    string        // ip, user, route, ip_user, ip_route, user_route
    Prefix         string
    Debug          bool // expose the bucket key in X-RateLimit-Key
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables.  RATE_LIMIT_BURST
// and RATE_LIMIT_REFILL_EVERY are shorthands for capacity and a refill of
// one token per interval.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    strings.ToLower(getenv("RATE_LIMIT_KEY_STRATEGY", "user_route")),
        Prefix:         getenv("RATE_LIMIT_PREFIX", "rl:bid"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if burst := envInt("RATE_LIMIT_BURST", 0); burst > 0 {
        cfg.Capacity = burst
    }
    if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        cfg.RefillTokens = 1
        cfg.RefillInterval = every
    }
    cfg.Capacity = max(cfg.Capacity, 1)
    cfg.RefillTokens = max(cfg.RefillTokens, 1)
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // a bucket must outlive a full refill cycle
    cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
    return cfg
}

func envBool(key string, def bool) bool {
    v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
    if err != nil {
        switch strings.ToLower(os.Getenv(key)) {
        case "yes", "on":
            return true
        case "no", "off":
            return false
        }
        return def
    }
    return v
}

func envInt(key string, def int) int {
    if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
        return n
    }
    return def
}

func envDur(key string, def time.Duration) time.Duration {
    if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
        return d
    }
    return def
}
