// Package jsonfile persists the card collection as a JSON array of records.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"wallet/internal/core"
	"wallet/internal/storage"
)

// record is the on-disk shape of a card.
type record struct {
	CardName          string             `json:"card_name"`
	PointValue        float64            `json:"point_value"`
	Multipliers       map[string]float64 `json:"multipliers"`
	DefaultMultiplier float64            `json:"default_multiplier"`
}

const defaultFileMode fs.FileMode = 0o644

type Store struct {
	path string
}

var _ storage.Store = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load reads and validates every record. A missing file is reported as
// fs.ErrNotExist; undecodable content or an invalid record as storage.ErrCorrupt.
func (s *Store) Load(ctx context.Context) ([]core.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read cards file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", storage.ErrCorrupt, s.path, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, fmt.Errorf("%w: decode %s: trailing data after card list", storage.ErrCorrupt, s.path)
	}

	cards := make([]core.Card, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		card, err := core.NewCard(core.CardData(rec))
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", storage.ErrCorrupt, i, err)
		}
		if _, dup := seen[card.Name]; dup {
			return nil, fmt.Errorf("%w: record %d: duplicate card name %q", storage.ErrCorrupt, i, card.Name)
		}
		seen[card.Name] = struct{}{}
		cards = append(cards, card)
	}
	return cards, nil
}

// Save writes cards to a temporary file next to the target and renames it
// into place, so a crash never leaves a truncated store behind.
func (s *Store) Save(ctx context.Context, cards []core.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make([]record, len(cards))
	for i, c := range cards {
		mults := c.Multipliers
		if mults == nil {
			mults = map[string]float64{}
		}
		records[i] = record{
			CardName:          c.Name,
			PointValue:        c.PointValue,
			Multipliers:       mults,
			DefaultMultiplier: c.DefaultMultiplier,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode cards: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cards-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if err := tmp.Chmod(s.fileMode()); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace cards file: %w", err)
	}
	return nil
}

// fileMode keeps the permissions of an existing store file. CreateTemp
// creates files as 0600.
func (s *Store) fileMode() fs.FileMode {
	if fi, err := os.Stat(s.path); err == nil {
		return fi.Mode().Perm()
	}
	return defaultFileMode
}
