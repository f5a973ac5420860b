package config

import (
    "context"
    "crypto/tls"
    "net"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
    log "github.com/sirupsen/logrus"
)

// NewRedisClient connects to the Redis behind the highest-bid cache and
// the rate limiter.  It returns nil when the server does not answer a
// ping; the cache then stays in process memory and rate limiting is off.
//
// Variables: REDIS_ADDR (host:port) or REDIS_HOST plus REDIS_PORT,
// REDIS_PASSWORD, REDIS_DB, REDIS_TLS, REDIS_TIMEOUT.
func NewRedisClient() *redis.Client {
    addr := getenv("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = net.JoinHostPort(host, port)
    }
    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       atoi(getenv("REDIS_DB", "0")),
    }
    // cache calls time out quickly and count as misses
    if timeout := envDur("REDIS_TIMEOUT", 500*time.Millisecond); timeout > 0 {
        opts.ReadTimeout = timeout
        opts.WriteTimeout = timeout
    }
    if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
        opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.WithFields(log.Fields{"addr": addr, "error": err}).Warn("redis unreachable")
        _ = client.Close()
        return nil
    }
    return client
}
