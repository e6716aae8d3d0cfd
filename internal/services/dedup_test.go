package services

import (
	"testing"
	"time"
)

func TestDedupSuppressesRepeatWithinTTL(t *testing.T) {
	d := NewDedupWindow(300 * time.Second)

	if !d.ShouldEmit("TICKET-1", "sig-a") {
		t.Fatal("first observation must emit")
	}
	if d.ShouldEmit("TICKET-1", "sig-a") {
		t.Fatal("repeat observation within TTL must be suppressed")
	}
}

func TestDedupNewSignatureEmits(t *testing.T) {
	d := NewDedupWindow(300 * time.Second)

	d.ShouldEmit("TICKET-1", "sig-a")
	if !d.ShouldEmit("TICKET-1", "sig-b") {
		t.Fatal("changed signature must emit")
	}
	if d.ShouldEmit("TICKET-1", "sig-b") {
		t.Fatal("repeat of the new signature must be suppressed")
	}
}

func TestDedupDistinctKeysIndependent(t *testing.T) {
	d := NewDedupWindow(300 * time.Second)

	d.ShouldEmit("TICKET-1", "sig-a")
	if !d.ShouldEmit("TICKET-2", "sig-a") {
		t.Fatal("same signature on a different key must emit")
	}
}

func TestDedupExpiryReopensWindow(t *testing.T) {
	d := NewDedupWindow(300 * time.Second)
	now := time.Now()
	d.now = func() time.Time { return now }

	if !d.ShouldEmit("TICKET-1", "sig-a") {
		t.Fatal("first observation must emit")
	}
	if d.ShouldEmit("TICKET-1", "sig-a") {
		t.Fatal("second observation must be suppressed")
	}

	now = now.Add(301 * time.Second)
	if !d.ShouldEmit("TICKET-1", "sig-a") {
		t.Fatal("same signature after TTL must emit again")
	}
}

func TestDedupLazyEviction(t *testing.T) {
	d := NewDedupWindow(300 * time.Second)
	now := time.Now()
	d.now = func() time.Time { return now }

	d.ShouldEmit("TICKET-1", "sig-a")
	d.ShouldEmit("TICKET-2", "sig-b")
	if d.Len() != 2 {
		t.Fatalf("entries = %d, want 2", d.Len())
	}

	now = now.Add(301 * time.Second)
	d.ShouldEmit("TICKET-3", "sig-c")
	if d.Len() != 1 {
		t.Errorf("expired entries not evicted, entries = %d, want 1", d.Len())
	}
}

func TestDedupForgetReopensKey(t *testing.T) {
	d := NewDedupWindow(300 * time.Second)

	if !d.ShouldEmit("TICKET-1", "sig-a") {
		t.Fatal("first observation must emit")
	}
	d.Forget("TICKET-1")
	if !d.ShouldEmit("TICKET-1", "sig-a") {
		t.Fatal("observation after Forget must emit")
	}

	// Forget of an unknown key is a no-op.
	d.Forget("TICKET-404")
	if d.Len() != 1 {
		t.Errorf("entries = %d, want 1", d.Len())
	}
}
