package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/cashflowguard/reminders/internal/cache"
	"github.com/cashflowguard/reminders/internal/config"
)

func TestLoggingMiddleware_PassesThroughAndCapturesStatus(t *testing.T) {
	var rec *statusRecorder
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, _ = w.(*statusRecorder)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	if rec == nil || rec.status != http.StatusCreated {
		t.Fatalf("expected recorder to capture %d, got %+v", http.StatusCreated, rec)
	}

	if body := rr.Body.String(); body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestNewSendGuard_MemoryWhenRedisDisabled(t *testing.T) {
	guard, closeFn := newSendGuard(config.RedisConfig{GuardTTL: time.Minute})
	defer closeFn()

	if _, ok := guard.(*cache.MemoryGuard); !ok {
		t.Fatalf("expected memory guard, got %T", guard)
	}
}

func TestNewSendGuard_RedisWhenEnabled(t *testing.T) {
	mr := miniredis.RunT(t)

	guard, closeFn := newSendGuard(config.RedisConfig{Enabled: true, Address: mr.Addr(), GuardTTL: time.Minute})
	defer closeFn()

	if _, ok := guard.(*cache.RedisGuard); !ok {
		t.Fatalf("expected redis guard, got %T", guard)
	}

	token, ok, err := guard.Acquire(context.Background(), cache.SendKey("1"))
	if err != nil || !ok {
		t.Fatalf("expected acquire to succeed, got ok=%v err=%v", ok, err)
	}
	if got, _ := mr.Get(cache.SendKey("1")); got != token {
		t.Fatalf("expected guard key in redis")
	}
}
