package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/naira-pay/naira_pay/internal/logging"
)

func newIdempotentApp(t *testing.T, hits *atomic.Int64) *fiber.App {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/pay", func(c *fiber.Ctx) error {
		hits.Add(1)
		return c.Status(http.StatusCreated).SendString("done")
	})
	app.Post("/other", func(c *fiber.Ctx) error {
		hits.Add(1)
		return c.Status(http.StatusCreated).SendString("other")
	})
	return app
}

func TestIdempotencyRequiresKey(t *testing.T) {
	var hits atomic.Int64
	app := newIdempotentApp(t, &hits)

	req := httptest.NewRequest(http.MethodPost, "/pay", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if hits.Load() != 0 {
		t.Fatalf("handler should not run without a key")
	}
}

func TestIdempotencyReplaysResponse(t *testing.T) {
	var hits atomic.Int64
	app := newIdempotentApp(t, &hits)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/pay", nil)
		req.Header.Set(idempotencyKeyHeader, "key-1")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("test request: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "done" {
			t.Fatalf("unexpected body %q", body)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected handler to run once, ran %d times", hits.Load())
	}
}

func TestIdempotencyKeyScopedPerEndpoint(t *testing.T) {
	var hits atomic.Int64
	app := newIdempotentApp(t, &hits)

	for _, path := range []string{"/pay", "/other"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(idempotencyKeyHeader, "shared-key")
		if _, err := app.Test(req); err != nil {
			t.Fatalf("test request: %v", err)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("same key on different endpoints must not replay, ran %d times", hits.Load())
	}
}

func TestIdempotencySkipsReads(t *testing.T) {
	var hits atomic.Int64
	app := newIdempotentApp(t, &hits)
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 without key, got %d", resp.StatusCode)
	}
}
