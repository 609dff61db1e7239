package jsonfile

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wallet/internal/core"
	"wallet/internal/storage"
)

const fixture = `[
  {"card_name": "Test Card A", "point_value": 1.5, "multipliers": {"dining": 5, "travel": 3, "pharmacies": 1.25}, "default_multiplier": 1},
  {"card_name": "Test Card B", "point_value": 1.0, "multipliers": {"groceries": 4, "dining": 4}, "default_multiplier": 2}
]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	writeFile(t, path, fixture)

	cards, err := New(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cards) != 2 || cards[0].Name != "Test Card A" || cards[1].Name != "Test Card B" {
		t.Fatalf("unexpected cards: %v", cards)
	}
	if cards[0].Multipliers["pharmacies"] != 1.25 || cards[1].DefaultMultiplier != 2 {
		t.Fatalf("unexpected values: %+v", cards)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	cases := map[string]string{
		"not json":        "{{{",
		"not a list":      `{"card_name": "x"}`,
		"missing field":   `[{"card_name": "x", "point_value": 1}]`,
		"bad number":      `[{"card_name": "x", "point_value": "abc", "default_multiplier": 1}]`,
		"trailing garbage": "[] garbage{",
		"two documents":    `[] []`,
		"extra bracket":    "[]]",
		"duplicate names": `[{"card_name": "x", "point_value": 1, "default_multiplier": 1}, {"card_name": "x", "point_value": 2, "default_multiplier": 1}]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cards.json")
			writeFile(t, path, content)
			_, err := New(path).Load(context.Background())
			if !errors.Is(err, storage.ErrCorrupt) {
				t.Fatalf("expected corrupt error, got %v", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cards.json")
	s := New(path)
	in := []core.Card{
		{Name: "Zeta", PointValue: 1.25, DefaultMultiplier: 1, Multipliers: map[string]float64{"gas": 3}},
		{Name: "Alpha", PointValue: 2, DefaultMultiplier: 1.5, Multipliers: nil},
	}
	if err := s.Save(context.Background(), in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out[0].Name != "Zeta" || out[1].Name != "Alpha" {
		t.Fatalf("order not preserved: %v", out)
	}
	if out[0].Multipliers["gas"] != 3 || out[1].PointValue != 2 || len(out[1].Multipliers) != 0 {
		t.Fatalf("values not preserved: %+v", out)
	}

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"card_name": "Zeta"`) || !strings.Contains(string(raw), `"multipliers": {}`) {
		t.Fatalf("unexpected file content:\n%s", raw)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	writeFile(t, path, fixture)
	s := New(path)
	if err := s.Save(context.Background(), nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	cards, err := s.Load(context.Background())
	if err != nil || len(cards) != 0 {
		t.Fatalf("expected empty store, got %v (err=%v)", cards, err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(filepath.Join(t.TempDir(), "cards.json"))
	if err := s.Save(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestSaveKeepsFileMode(t *testing.T) {
	dir := t.TempDir()

	fresh := filepath.Join(dir, "fresh.json")
	if err := New(fresh).Save(context.Background(), nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if fi, err := os.Stat(fresh); err != nil {
		t.Fatalf("stat: %v", err)
	} else if fi.Mode().Perm() != 0o644 {
		t.Fatalf("new file mode = %v, want %v", fi.Mode().Perm(), fs.FileMode(0o644))
	}

	existing := filepath.Join(dir, "existing.json")
	writeFile(t, existing, fixture)
	if err := os.Chmod(existing, 0o640); err != nil {
		t.Fatal(err)
	}
	if err := New(existing).Save(context.Background(), nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if fi, err := os.Stat(existing); err != nil {
		t.Fatalf("stat: %v", err)
	} else if fi.Mode().Perm() != 0o640 {
		t.Fatalf("existing file mode = %v, want %v", fi.Mode().Perm(), fs.FileMode(0o640))
	}
}
