package redis

import (
	"context"
	"testing"
	"time"
)

func TestLockerAcquireIsExclusive(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locker := NewLocker(client)
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, "accruals", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}

	_, ok, err = locker.Acquire(ctx, "accruals", time.Minute)
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if ok {
		t.Fatalf("expected second acquire to be refused while held")
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	_, ok, err = locker.Acquire(ctx, "accruals", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, got ok=%v err=%v", ok, err)
	}
}

func TestLockerReleaseKeepsForeignLock(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	locker := NewLocker(client)
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, "accruals", time.Second)
	if err != nil || !ok {
		t.Fatalf("acquire failed: ok=%v err=%v", ok, err)
	}

	// Lock expires and is taken over by another holder.
	mr.FastForward(2 * time.Second)
	if _, ok, err := locker.Acquire(ctx, "accruals", time.Minute); err != nil || !ok {
		t.Fatalf("expected takeover after expiry, got ok=%v err=%v", ok, err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("stale release failed: %v", err)
	}
	if !mr.Exists(locker.prefix + "accruals") {
		t.Fatalf("stale release must not delete the new holder's lock")
	}
}
