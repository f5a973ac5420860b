package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/realtime-auction/internal/config"
    "github.com/iliyamo/realtime-auction/internal/utils"
)

func limitedServer(t *testing.T, rdb *redis.Client) *echo.Echo {
    t.Helper()
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            10 * time.Minute,
        KeyStrategy:    "user_route",
        Prefix:         "rl:bid",
    }
    e := echo.New()
    e.POST("/api/v1/bid", func(c echo.Context) error {
        return c.JSON(http.StatusCreated, echo.Map{"user": UserID(c)})
    }, JWTAuth("s3cret"), NewTokenBucket(cfg, rdb))
    return e
}

func post(t *testing.T, e *echo.Echo, user string) *httptest.ResponseRecorder {
    t.Helper()
    tok, err := utils.NewAccessToken("s3cret", user, user, 5)
    require.NoError(t, err)
    req := httptest.NewRequest(http.MethodPost, "/api/v1/bid", nil)
    req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestTokenBucket_PerUser(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    e := limitedServer(t, rdb)

    require.Equal(t, http.StatusCreated, post(t, e, "alice").Code)
    require.Equal(t, http.StatusCreated, post(t, e, "alice").Code)
    rec := post(t, e, "alice")
    require.Equal(t, http.StatusTooManyRequests, rec.Code)
    require.NotEmpty(t, rec.Header().Get("Retry-After"))
    require.Contains(t, rec.Body.String(), "rate limit exceeded")

    // buckets are per user
    require.Equal(t, http.StatusCreated, post(t, e, "bob").Code)
}

func TestTokenBucket_FailsOpenWithoutRedis(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
    t.Cleanup(func() { _ = rdb.Close() })
    e := limitedServer(t, rdb)
    mr.Close()

    for i := 0; i < 5; i++ {
        require.Equal(t, http.StatusCreated, post(t, e, "alice").Code)
    }
}

func TestJWTAuth(t *testing.T) {
    e := echo.New()
    e.GET("/me", func(c echo.Context) error {
        return c.String(http.StatusOK, UserID(c)+"/"+Username(c))
    }, JWTAuth("s3cret"))

    tests := []struct {
        name   string
        header string
        code   int
    }{
        {"missing header", "", http.StatusUnauthorized},
        {"wrong scheme", "Basic abc", http.StatusUnauthorized},
        {"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
    }
    for _, tc := range tests {
        t.Run(tc.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/me", nil)
            if tc.header != "" {
                req.Header.Set(echo.HeaderAuthorization, tc.header)
            }
            rec := httptest.NewRecorder()
            e.ServeHTTP(rec, req)
            require.Equal(t, tc.code, rec.Code)
        })
    }

    tok, err := utils.NewAccessToken("s3cret", "u1", "alice", 5)
    require.NoError(t, err)
    req := httptest.NewRequest(http.MethodGet, "/me", nil)
    req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    require.Equal(t, http.StatusOK, rec.Code)
    require.Equal(t, "u1/alice", rec.Body.String())
}
