package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/warranty-claims/internal/config"
    "github.com/iliyamo/warranty-claims/internal/model"
    "github.com/iliyamo/warranty-claims/internal/utils"
)

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()

    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            10 * time.Minute,
        KeyStrategy:    "ip_route",
        Prefix:         "rl",
    }
    e := echo.New()
    e.POST("/v1/auth/login", ok, NewTokenBucket(cfg, rdb, nil))

    codes := []int{}
    for i := 0; i < 3; i++ {
        req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
        req.RemoteAddr = "10.0.0.1:1234"
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        codes = append(codes, rec.Code)
        if i == 2 && rec.Header().Get("Retry-After") == "" {
            t.Fatalf("blocked response should carry Retry-After")
        }
    }
    if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
        t.Fatalf("unexpected codes %v", codes)
    }

    req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
    req.RemoteAddr = "10.0.0.2:1234"
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    if rec.Code != http.StatusNoContent {
        t.Fatalf("other client should have its own bucket, got %d", rec.Code)
    }
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
    e := echo.New()
    e.GET("/x", ok, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil))
    for i := 0; i < 3; i++ {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
        if rec.Code != http.StatusNoContent {
            t.Fatalf("request %d: expected pass through, got %d", i, rec.Code)
        }
    }
}

func TestJWTAuthAndRole(t *testing.T) {
    const secret = "s3cret"
    e := echo.New()
    var seen model.Actor
    e.GET("/admin", func(c echo.Context) error {
        seen, _ = Actor(c)
        return c.NoContent(http.StatusNoContent)
    }, JWTAuth(secret), RequireRole(model.RoleAdmin))

    call := func(header string) int {
        req := httptest.NewRequest(http.MethodGet, "/admin", nil)
        if header != "" {
            req.Header.Set("Authorization", header)
        }
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        return rec.Code
    }

    if code := call(""); code != http.StatusUnauthorized {
        t.Fatalf("missing token: got %d", code)
    }
    if code := call("Bearer garbage"); code != http.StatusUnauthorized {
        t.Fatalf("bad token: got %d", code)
    }
    vendorTok, _ := utils.NewAccessToken(secret, "v1", "vendor", 5)
    if code := call("Bearer " + vendorTok.Token); code != http.StatusForbidden {
        t.Fatalf("vendor on admin route: got %d", code)
    }
    adminTok, _ := utils.NewAccessToken(secret, "a1", "admin", 5)
    if code := call("Bearer " + adminTok.Token); code != http.StatusNoContent {
        t.Fatalf("admin: got %d", code)
    }
    if seen.ID != "a1" || seen.Role != model.RoleAdmin {
        t.Fatalf("actor not stored: %+v", seen)
    }
}
