package utils

import (
    "testing"

    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("secret", "acc-1", "vendor", 5)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    id, role, err := ParseAccessToken("secret", tok.Token)
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if id != "acc-1" || role != "vendor" {
        t.Fatalf("unexpected claims: %s %s", id, role)
    }
    if _, _, err := ParseAccessToken("other", tok.Token); err == nil {
        t.Fatalf("expected wrong secret to fail")
    }
}

func TestExpiredAccessTokenRejected(t *testing.T) {
    tok, err := NewAccessToken("secret", "acc-1", "customer", -1)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    if _, _, err := ParseAccessToken("secret", tok.Token); err == nil {
        t.Fatalf("expected expired token to fail")
    }
}

func TestNumericCode(t *testing.T) {
    for i := 0; i < 50; i++ {
        code, err := NumericCode(6)
        if err != nil {
            t.Fatalf("code: %v", err)
        }
        if len(code) != 6 {
            t.Fatalf("expected 6 digits, got %q", code)
        }
        for _, r := range code {
            if r < '0' || r > '9' {
                t.Fatalf("non digit in %q", code)
            }
        }
    }
}

func TestHashCode(t *testing.T) {
    h, err := HashCode("123456", bcrypt.MinCost)
    if err != nil {
        t.Fatalf("hash: %v", err)
    }
    if !VerifyCode(h, "123456") {
        t.Fatalf("expected code to verify")
    }
    if VerifyCode(h, "654321") {
        t.Fatalf("expected wrong code to fail")
    }
}

func TestHashRefreshRawStable(t *testing.T) {
    rt, err := NewRefreshToken(1)
    if err != nil {
        t.Fatalf("refresh: %v", err)
    }
    if len(rt.Raw) != 96 {
        t.Fatalf("expected 96 hex chars, got %d", len(rt.Raw))
    }
    if HashRefreshRaw(rt.Raw) != HashRefreshRaw(rt.Raw) || HashRefreshRaw(rt.Raw) == rt.Raw {
        t.Fatalf("unexpected hash")
    }
}
