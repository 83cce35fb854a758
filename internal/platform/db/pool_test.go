package db

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxpool.New does not open connections until first acquire, so a test can
// hand out real pool handles without a database listening.
func testPool(t *testing.T, ctx context.Context) (*pgxpool.Pool, error) {
	t.Helper()
	return pgxpool.New(ctx, "postgres://localhost:5432/app_test")
}

func TestLazyPool_CollapsesConcurrentDials(t *testing.T) {
	var dials int32
	lp := NewLazyPool("postgres://localhost:5432/app_test", 4, 1)
	lp.dial = func(ctx context.Context) (*pgxpool.Pool, error) {
		atomic.AddInt32(&dials, 1)
		time.Sleep(20 * time.Millisecond)
		return testPool(t, ctx)
	}
	defer lp.Close()

	const callers = 8
	pools := make([]*pgxpool.Pool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := lp.Get(context.Background())
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			pools[i] = p
		}(i)
	}
	wg.Wait()

	if n := atomic.LoadInt32(&dials); n != 1 {
		t.Fatalf("dials = %d, want 1", n)
	}
	for i := 1; i < callers; i++ {
		if pools[i] != pools[0] {
			t.Fatalf("caller %d received a different pool", i)
		}
	}

	// A later caller gets the cached pool without dialing again.
	p, err := lp.Get(context.Background())
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if p != pools[0] || atomic.LoadInt32(&dials) != 1 {
		t.Fatal("cached pool was re-dialed")
	}
}

func TestLazyPool_FailedDialRetries(t *testing.T) {
	var dials int32
	lp := NewLazyPool("postgres://localhost:5432/app_test", 4, 1)
	lp.dial = func(ctx context.Context) (*pgxpool.Pool, error) {
		if atomic.AddInt32(&dials, 1) == 1 {
			return nil, errors.New("connection refused")
		}
		return testPool(t, ctx)
	}
	defer lp.Close()

	if _, err := lp.Get(context.Background()); err == nil {
		t.Fatal("first get should surface the dial failure")
	}
	p, err := lp.Get(context.Background())
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if p == nil {
		t.Fatal("second get returned no pool")
	}
	if n := atomic.LoadInt32(&dials); n != 2 {
		t.Fatalf("dials = %d, want 2", n)
	}
}
