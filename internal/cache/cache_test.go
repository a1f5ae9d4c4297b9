package cache

import (
	"strings"
	"testing"
	"time"
)

func TestOracleKeySensitivity(t *testing.T) {
	base := OracleKey("keyword", "", "some document text")

	if !strings.HasPrefix(base, "fincascade:oracle:v1:") {
		t.Errorf("key missing versioned prefix: %q", base)
	}
	if OracleKey("keyword", "", "some document text") != base {
		t.Error("identical inputs must produce identical keys")
	}
	if OracleKey("openai", "", "some document text") == base {
		t.Error("provider change must change the key")
	}
	if OracleKey("keyword", "gpt-4o-mini", "some document text") == base {
		t.Error("model change must change the key")
	}
	if OracleKey("keyword", "", "other document text") == base {
		t.Error("content change must change the key")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := OracleKey("keyword", "", "doc")

	if _, found := c.Get(key); found {
		t.Fatal("empty cache reported a hit")
	}

	if err := c.Set(key, []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, found := c.Get(key)
	if !found || string(val) != "payload" {
		t.Fatalf("Get = (%q, %v), want (payload, true)", val, found)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("deleted entry still served")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := OracleKey("keyword", "", "doc")

	if err := c.Set(key, []byte("payload"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expired entry served")
	}
}

func TestLayeredCachePromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Hour, dir, time.Hour)
	key := OracleKey("keyword", "", "doc")

	if err := c.Set(key, []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Simulate a fresh process: new layered cache over the same disk dir.
	restarted := NewLayeredCache(time.Hour, dir, time.Hour)
	val, found := restarted.Get(key)
	if !found || string(val) != "payload" {
		t.Fatalf("disk layer miss after restart: (%q, %v)", val, found)
	}

	// The hit must now be served from memory even if the disk copy vanishes.
	if err := restarted.disk.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := restarted.Get(key); !found {
		t.Error("disk hit was not promoted into the memory layer")
	}
}

func TestLayeredCacheClear(t *testing.T) {
	c := NewLayeredCache(time.Hour, t.TempDir(), time.Hour)
	key := OracleKey("keyword", "", "doc")

	if err := c.Set(key, []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("entry survived Clear")
	}
}
