package http

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter()

	ipLimiter := limiter.GetLimiter("192.168.1.1")
	allowed := 0
	for i := 0; i < 25; i++ {
		if ipLimiter.Allow() {
			allowed++
		}
	}
	if allowed != 10 {
		t.Errorf("allowed %d/25 requests, want the burst of 10", allowed)
	}

	if limiter.GetLimiter("192.168.1.1") != ipLimiter {
		t.Error("same IP should reuse its limiter")
	}
	if !limiter.GetLimiter("192.168.1.2").Allow() {
		t.Error("a different IP should have its own budget")
	}
}

func TestRateLimiterEvictsIdleIPs(t *testing.T) {
	limiter := NewRateLimiter()
	clock := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		limiter.GetLimiter(fmt.Sprintf("10.0.0.%d", i))
	}
	if n := limiter.Len(); n != 50 {
		t.Fatalf("tracked %d IPs, want 50", n)
	}

	// one address keeps hammering while the rest go quiet
	busy := limiter.GetLimiter("10.0.0.1")
	for i := 0; i < 3; i++ {
		clock = clock.Add(30 * time.Second)
		limiter.GetLimiter("10.0.0.1")
	}
	if n := limiter.Len(); n != 1 {
		t.Fatalf("tracked %d IPs after idle sweep, want 1", n)
	}
	if limiter.GetLimiter("10.0.0.1") != busy {
		t.Fatal("active IP lost its bucket")
	}
}

func TestLoginRateLimited(t *testing.T) {
	h := newHarness(t)
	var last int
	for i := 0; i < 11; i++ {
		resp, _ := h.do(t, fiber.MethodPost, "/api/auth/login", "", `{"username":"nobody","password":"x"}`)
		last = resp.StatusCode
	}
	if last != fiber.StatusTooManyRequests {
		t.Fatalf("11th attempt status = %d", last)
	}
}

func TestRequestID(t *testing.T) {
	h := newHarness(t)

	resp, err := h.app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get(headerRequest) == "" {
		t.Fatal("missing generated request id")
	}

	req := httptest.NewRequest(fiber.MethodGet, "/health", nil)
	req.Header.Set(headerRequest, "abc-123")
	resp, err = h.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get(headerRequest); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestBearer(t *testing.T) {
	tests := map[string]string{
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"Basic abc":  "",
		"Bearer":     "",
		"Bearer a b": "",
		"":           "",
	}
	for header, want := range tests {
		if got := bearer(header); got != want {
			t.Errorf("bearer(%q) = %q, want %q", header, got, want)
		}
	}
}
