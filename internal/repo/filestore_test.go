package repo

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

func f64(v float64) *float64 { return &v }

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deals.json")
	s, err := NewFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s, path
}

func testDeal(guildID, customer string) *domain.Deal {
	return &domain.Deal{
		GuildID:      guildID,
		CustomerName: customer,
		CloserID:     "1",
		CloserName:   "Ann",
		KW:           f64(7.2),
		Status:       domain.StatusSold,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestFileStoreAppendAssignsMonotonicIDs(t *testing.T) {
	s, _ := newTestFileStore(t)
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

func TestFileStoreReadYourWrite(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	d := testDeal("g1", "John Smith")
	if err := s.Append(ctx, d); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := s.Load(ctx, "g1")
	if err != nil || len(got) != 1 {
		t.Fatalf("Load = (%v, %v), want 1 deal", got, err)
	}
	if got[0].CustomerName != "John Smith" || got[0].ID != d.ID {
		t.Fatalf("loaded %+v, want the appended deal", got[0])
	}
}

func TestFileStoreGuildIsolation(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	_ = s.Append(ctx, testDeal("g1", "A"))
	_ = s.Append(ctx, testDeal("g2", "B"))

	g1, _ := s.Load(ctx, "g1")
	all, _ := s.Load(ctx, "")
	if len(g1) != 1 || len(all) != 2 {
		t.Fatalf("len(g1)=%d len(all)=%d, want 1 and 2", len(g1), len(all))
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, path := newTestFileStore(t)
	ctx := context.Background()

	d := testDeal("g1", "John Smith")
	d.SetterName = "Sam" // name-only setter survives the trip
	if err := s.Append(ctx, d); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Fresh store over the same file sees identical state.
	reopened, err := NewFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ := reopened.Load(ctx, "g1")
	if len(got) != 1 {
		t.Fatalf("got %d deals after reopen, want 1", len(got))
	}
	if got[0].SetterName != "Sam" || got[0].KW == nil || *got[0].KW != 7.2 {
		t.Fatalf("reloaded deal lost fields: %+v", got[0])
	}

	next := testDeal("g1", "Next")
	if err := reopened.Append(ctx, next); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if next.ID != 2 {
		t.Fatalf("next id after reopen = %d, want 2", next.ID)
	}
}

func TestFileStoreMissingFileStartsEmpty(t *testing.T) {
	s, _ := newTestFileStore(t)
	got, err := s.Load(context.Background(), "")
	if err != nil || len(got) != 0 {
		t.Fatalf("Load on fresh store = (%v, %v), want empty", got, err)
	}
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("corrupt file must not be fatal: %v", err)
	}
	got, _ := s.Load(context.Background(), "")
	if len(got) != 0 {
		t.Fatalf("corrupt store should load empty, got %d deals", len(got))
	}
}

func TestFileStoreLegacyLayoutWithoutVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.json")
	legacy := `{"next_id": 5, "deals": [{"id": 4, "guild_id": "g1", "customer_name": "Old", "status": "sold", "kw": 3.5, "created_at": "2026-01-02T03:04:05Z"}]}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	d := testDeal("g1", "New")
	if err := s.Append(context.Background(), d); err != nil {
		t.Fatalf("append: %v", err)
	}
	if d.ID != 5 {
		t.Fatalf("id = %d, want legacy next_id 5", d.ID)
	}

	// The rewritten file carries the version tag now.
	raw, _ := os.ReadFile(path)
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("saved file not valid JSON: %v", err)
	}
	if doc["version"] != float64(1) {
		t.Fatalf("saved version = %v, want 1", doc["version"])
	}
}

func TestFileStoreNextIDNeverBelowExistingIDs(t *testing.T) {
	// Header lies: next_id lower than the max deal id on disk.
	path := filepath.Join(t.TempDir(), "deals.json")
	bad := `{"next_id": 2, "deals": [{"id": 9, "guild_id": "g1", "customer_name": "X", "status": "sold", "created_at": "2026-01-02T03:04:05Z"}]}`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	d := testDeal("g1", "Y")
	_ = s.Append(context.Background(), d)
	if d.ID != 10 {
		t.Fatalf("id = %d, want 10", d.ID)
	}
}

func TestFileStoreUpdate(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	d := testDeal("g1", "John")
	_ = s.Append(ctx, d)

	d.Status = domain.StatusCanceled
	now := time.Now().UTC()
	d.CanceledAt = &now
	if err := s.Update(ctx, d); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Load(ctx, "g1")
	if got[0].Status != domain.StatusCanceled || got[0].CanceledAt == nil {
		t.Fatalf("update not visible: %+v", got[0])
	}

	missing := testDeal("g1", "Ghost")
	missing.ID = 999
	if err := s.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing = %v, want ErrNotFound", err)
	}
}

func TestFileStoreRemove(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	d := testDeal("g1", "John")
	_ = s.Append(ctx, d)

	if err := s.Remove(ctx, "g1", d.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, _ := s.Load(ctx, "g1")
	if len(got) != 0 {
		t.Fatalf("deal still present after remove: %+v", got)
	}
	if err := s.Remove(ctx, "g1", d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove = %v, want ErrNotFound", err)
	}
	// Wrong guild never matches.
	e := testDeal("g1", "Jane")
	_ = s.Append(ctx, e)
	if err := s.Remove(ctx, "g2", e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-guild remove = %v, want ErrNotFound", err)
	}
}

func TestFileStoreClear(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	_ = s.Append(ctx, testDeal("g1", "A"))
	_ = s.Append(ctx, testDeal("g1", "B"))
	_ = s.Append(ctx, testDeal("g2", "C"))

	n, err := s.Clear(ctx, "g1")
	if err != nil || n != 2 {
		t.Fatalf("Clear = (%d, %v), want 2", n, err)
	}
	g2, _ := s.Load(ctx, "g2")
	if len(g2) != 1 {
		t.Fatalf("other guild lost deals: %+v", g2)
	}

	// Ids keep climbing after a wipe.
	d := testDeal("g1", "D")
	_ = s.Append(ctx, d)
	if d.ID != 4 {
		t.Fatalf("id after clear = %d, want 4", d.ID)
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	s, path := newTestFileStore(t)
	_ = s.Append(context.Background(), testDeal("g1", "A"))

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "deals.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("directory contents = %v, want only deals.json", names)
	}
}
