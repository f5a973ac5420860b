package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestLoadBidCacheConfig(t *testing.T) {
    tests := []struct {
        name        string
        ttl         string
        backend     string
        wantTTL     time.Duration
        wantBackend string
    }{
        {"defaults", "", "", 300 * time.Second, "auto"},
        {"explicit", "90s", "Redis", 90 * time.Second, "redis"},
        {"too short", "500ms", "memory", 300 * time.Second, "memory"},
        {"garbage", "soon", "memcached", 300 * time.Second, "auto"},
    }
    for _, tc := range tests {
        t.Run(tc.name, func(t *testing.T) {
            t.Setenv("BID_CACHE_TTL", tc.ttl)
            t.Setenv("BID_CACHE_BACKEND", tc.backend)
            cfg := LoadBidCacheConfig()
            require.Equal(t, tc.wantTTL, cfg.TTL)
            require.Equal(t, tc.wantBackend, cfg.Backend)
        })
    }
}

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
    for _, k := range []string{"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_BURST", "RATE_LIMIT_REFILL_EVERY"} {
        t.Setenv(k, "")
    }
    cfg := LoadRateLimitConfig()
    require.True(t, cfg.Enabled)
    require.Equal(t, 10, cfg.Capacity)
    require.Equal(t, "user_route", cfg.KeyStrategy)
    require.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}
