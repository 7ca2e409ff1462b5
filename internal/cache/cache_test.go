package cache

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/indexer"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
	"github.com/dendrite/dendrite/internal/vfs"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.bin")

	st := store.New()
	reg := identity.NewRegistry()
	id := reg.GetOrCreate("a")
	st.Upsert(&model.Note{ID: id, Path: "a.md", Key: "a", Title: "A", Frontmatter: map[string]any{"tags": []any{"x"}}})

	fs := vfs.NewMemory()
	idx := indexer.New(fs, semantic.NewDendronModel(), reg, st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	snap := Snapshot("Dendron", st, reg, idx)
	if err := Save(path, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok, err := Load(path)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if loaded.ModelID != "Dendron" || len(loaded.Notes) != 1 {
		t.Fatalf("unexpected snapshot: %+v", loaded)
	}

	st2 := store.New()
	reg2 := identity.NewRegistry()
	idx2 := indexer.New(fs, semantic.NewDendronModel(), reg2, st2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	Restore(loaded, st2, reg2, idx2)

	if _, ok := st2.NoteByPath("a.md"); !ok {
		t.Fatalf("expected restored note")
	}
	if got, ok := reg2.Lookup("a"); !ok || got != id {
		t.Fatalf("expected identity restored, got %v %v", got, ok)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	_, ok, err := Load(filepath.Join(t.TempDir(), "absent.bin"))
	if err != nil {
		t.Fatalf("Load of missing file should not error: %v", err)
	}
	if ok {
		t.Fatalf("ok should be false for a missing file")
	}
}

func TestLoad_VersionMismatchIsAnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.bin")
	bad := &PersistentState{Version: CurrentVersion + 1}
	if err := Save(path, bad); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected a schema version error")
	}
}
