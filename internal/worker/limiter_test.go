package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiterAllowWithinBurst(t *testing.T) {
	l := NewLimiter(1, 2)

	if !l.Allow("https://example.com/a") {
		t.Error("first request within burst denied")
	}
	if !l.Allow("https://example.com/b") {
		t.Error("second request within burst denied")
	}
	if l.Allow("https://example.com/c") {
		t.Error("request beyond burst allowed without waiting")
	}
}

func TestLimiterIsolatesHosts(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("https://a.example.com/") {
		t.Error("first host denied")
	}
	if !l.Allow("https://b.example.com/") {
		t.Error("second host throttled by the first host's usage")
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	l := NewLimiter(0.01, 1)
	// Drain the burst.
	if !l.Allow("https://example.com/") {
		t.Fatal("initial request denied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "https://example.com/"); err == nil {
		t.Error("Wait returned nil despite exhausted rate and expired context")
	}
}

func TestLimiterSetHostRate(t *testing.T) {
	l := NewLimiter(0.01, 1)
	l.SetHostRate("fast.example.com", 100, 10)

	for i := 0; i < 5; i++ {
		if !l.Allow("https://fast.example.com/") {
			t.Fatalf("request %d denied despite raised host rate", i)
		}
	}
}

func TestLimiterRejectsBadURL(t *testing.T) {
	if l := NewLimiter(1, 1); l.Allow("://not-a-url") {
		t.Error("malformed URL allowed")
	}
}
