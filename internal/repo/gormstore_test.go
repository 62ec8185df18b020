package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormStore(db)
}

func TestGormStoreAppendAssignsMonotonicIDs(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	a, b := testDeal("g1", "A"), testDeal("g1", "B")
	if err := s.Append(ctx, a); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, b); err != nil {
		t.Fatalf("append: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", a.ID, b.ID)
	}
}

func TestGormStoreIDsSurviveDeletes(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	a := testDeal("g1", "A")
	_ = s.Append(ctx, a)
	if err := s.Remove(ctx, "g1", a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	b := testDeal("g1", "B")
	_ = s.Append(ctx, b)
	if b.ID != 2 {
		t.Fatalf("id after delete = %d, want 2 (never reused)", b.ID)
	}

	if _, err := s.Clear(ctx, "g1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	c := testDeal("g1", "C")
	_ = s.Append(ctx, c)
	if c.ID != 3 {
		t.Fatalf("id after clear = %d, want 3", c.ID)
	}
}

func TestGormStoreLoadOrderAndGuildFilter(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, g := range []string{"g1", "g2", "g1"} {
		d := testDeal(g, "C")
		d.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.Append(ctx, d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	g1, err := s.Load(ctx, "g1")
	if err != nil || len(g1) != 2 {
		t.Fatalf("Load(g1) = (%d, %v), want 2", len(g1), err)
	}
	if !g1[0].CreatedAt.Before(g1[1].CreatedAt) {
		t.Fatalf("deals not oldest-first: %v then %v", g1[0].CreatedAt, g1[1].CreatedAt)
	}

	all, _ := s.Load(ctx, "")
	if len(all) != 3 {
		t.Fatalf("Load(all) = %d, want 3", len(all))
	}
}

func TestGormStoreUpdate(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	d := testDeal("g1", "John")
	_ = s.Append(ctx, d)

	now := time.Now().UTC().Truncate(time.Second)
	d.Status = domain.StatusNoSale
	d.LossReason = domain.LossGhosted
	d.KW = nil
	d.ClosedAt = &now
	if err := s.Update(ctx, d); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.Load(ctx, "g1")
	if len(got) != 1 {
		t.Fatalf("got %d deals, want 1", len(got))
	}
	if got[0].Status != domain.StatusNoSale || got[0].LossReason != domain.LossGhosted {
		t.Fatalf("update not visible: %+v", got[0])
	}
	if got[0].KW != nil {
		t.Fatalf("zero-valued kw was not written, got %v", *got[0].KW)
	}

	missing := testDeal("g1", "Ghost")
	missing.ID = 999
	if err := s.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing = %v, want ErrNotFound", err)
	}
}

func TestGormStoreRemove(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	d := testDeal("g1", "John")
	_ = s.Append(ctx, d)

	if err := s.Remove(ctx, "g2", d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-guild remove = %v, want ErrNotFound", err)
	}
	if err := s.Remove(ctx, "g1", d.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, "g1", d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove = %v, want ErrNotFound", err)
	}
}

func TestGormStoreClear(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	_ = s.Append(ctx, testDeal("g1", "A"))
	_ = s.Append(ctx, testDeal("g1", "B"))
	_ = s.Append(ctx, testDeal("g2", "C"))

	n, err := s.Clear(ctx, "g1")
	if err != nil || n != 2 {
		t.Fatalf("Clear = (%d, %v), want 2", n, err)
	}
	n, err = s.Clear(ctx, "g1")
	if err != nil || n != 0 {
		t.Fatalf("second Clear = (%d, %v), want 0", n, err)
	}
	g2, _ := s.Load(ctx, "g2")
	if len(g2) != 1 {
		t.Fatalf("other guild lost deals: %+v", g2)
	}
}

func TestOpenSQLiteRejectsMissingParentDir(t *testing.T) {
	if _, err := OpenSQLite(filepath.Join(t.TempDir(), "nope", "ledger.db")); err == nil {
		t.Fatal("want error for missing parent directory")
	}
}
