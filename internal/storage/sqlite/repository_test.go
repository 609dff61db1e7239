package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"wallet/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "db", "wallet.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestEmptyDatabaseLoadsNoCards(t *testing.T) {
	repo := newTestRepo(t)
	cards, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected no cards, got %v", cards)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	in := []core.Card{
		{Name: "Zeta", PointValue: 1.5, DefaultMultiplier: 1, Multipliers: map[string]float64{"dining": 5, "travel": 3}},
		{Name: "Alpha", PointValue: 1, DefaultMultiplier: 2, Multipliers: map[string]float64{}},
	}
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out[0].Name != "Zeta" || out[1].Name != "Alpha" {
		t.Fatalf("order not preserved: %v", out)
	}
	if out[0].Multipliers["dining"] != 5 || out[0].Multipliers["travel"] != 3 || out[0].PointValue != 1.5 {
		t.Fatalf("values not preserved: %+v", out[0])
	}
	if out[1].DefaultMultiplier != 2 || len(out[1].Multipliers) != 0 {
		t.Fatalf("values not preserved: %+v", out[1])
	}

	// A second save fully replaces the first.
	if err := repo.Save(ctx, in[1:]); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err = repo.Load(ctx)
	if err != nil || len(out) != 1 || out[0].Name != "Alpha" {
		t.Fatalf("expected only Alpha, got %v (err=%v)", out, err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.db")
	for i := 0; i < 2; i++ {
		repo, err := NewRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}
