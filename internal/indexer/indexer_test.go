package indexer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
	"github.com/dendrite/dendrite/internal/vfs"
)

func newTestIndexer() (*Indexer, *vfs.Memory, *store.Store) {
	fs := vfs.NewMemory()
	st := store.New()
	idx := New(fs, semantic.NewDendronModel(), identity.NewRegistry(), st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return idx, fs, st
}

func TestIndexer_FullScanFullParsesNewFiles(t *testing.T) {
	idx, fs, st := newTestIndexer()
	_ = fs.Write("foo.md", []byte("# Foo\nlinks to [[bar]]"))
	_ = fs.Write("bar.md", []byte("# Bar"))

	stats, err := idx.FullScan(context.Background())
	if err != nil {
		t.Fatalf("FullScan: %v", err)
	}
	if stats.FullParses != 2 {
		t.Fatalf("FullParses = %d, want 2", stats.FullParses)
	}
	if st.Len() != 2 {
		// The ghost id allocated for the [[bar]] link is unified with the
		// real bar.md note by the identity registry, not stored twice.
		t.Fatalf("Len() = %d, want 2 (foo, bar)", st.Len())
	}
}

func TestIndexer_RescanWithoutChangeIsMetadataHit(t *testing.T) {
	idx, fs, _ := newTestIndexer()
	_ = fs.Write("foo.md", []byte("# Foo"))

	if _, err := idx.FullScan(context.Background()); err != nil {
		t.Fatalf("FullScan: %v", err)
	}
	stats, err := idx.FullScan(context.Background())
	if err != nil {
		t.Fatalf("FullScan: %v", err)
	}
	if stats.Tier1Hits != 1 {
		t.Fatalf("Tier1Hits = %d, want 1", stats.Tier1Hits)
	}
}

func TestIndexer_HandleDeleteRemovesNote(t *testing.T) {
	idx, fs, st := newTestIndexer()
	_ = fs.Write("foo.md", []byte("# Foo"))
	if _, err := idx.IndexFile("foo.md"); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	if _, ok := st.NoteByPath("foo.md"); !ok {
		t.Fatalf("expected foo.md indexed")
	}
	if err := idx.HandleEvent(vfs.Event{Kind: vfs.EventDeleted, Path: "foo.md"}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if _, ok := st.NoteByPath("foo.md"); ok {
		t.Fatalf("expected foo.md removed")
	}
}
