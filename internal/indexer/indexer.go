// Package indexer drives the vault's two-tier (really three-check) change
// invalidation: a cheap (mtime, size) comparison first, a digest compare
// second, and only on a genuine miss does it re-parse and re-assemble.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dendrite/dendrite/internal/assembler"
	"github.com/dendrite/dendrite/internal/checksum"
	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/parser"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
	"github.com/dendrite/dendrite/internal/vfs"
	"github.com/dendrite/dendrite/internal/workerpool"
)

// Tier names a resolved invalidation outcome, reported for the Stats the
// same way original_source's workspace/indexer.rs counts tier1/tier2/full.
type Tier int

const (
	TierMetadata Tier = iota
	TierDigest
	TierFullParse
)

// FileMeta is the cheap per-file cache the metadata tier compares against.
type FileMeta struct {
	ModTime time.Time
	Size    int64
	Digest  string
}

// Stats accumulates indexing outcomes across a scan.
type Stats struct {
	TotalFiles int
	Tier1Hits  int // metadata-only hits
	Tier2Hits  int // digest matched, content tier skipped
	FullParses int
}

// Indexer owns the metadata cache and drives the Store through the
// Assembler. Its exported methods are safe to call concurrently; the
// per-path metadata cache is guarded by its own mutex, and the Store
// guards its own state, so parsing can be fanned out across a worker pool
// while still converging on a consistent Store.
type Indexer struct {
	fs       vfs.FileSystem
	model    semantic.Model
	identity *identity.Registry
	store    *store.Store
	asm      *assembler.Assembler
	logger   *slog.Logger

	metaMu sync.Mutex
	meta   map[string]FileMeta
}

// New constructs an Indexer.
func New(fs vfs.FileSystem, m semantic.Model, reg *identity.Registry, st *store.Store, logger *slog.Logger) *Indexer {
	return &Indexer{
		fs:       fs,
		model:    m,
		identity: reg,
		store:    st,
		asm:      assembler.New(m, reg),
		logger:   logger,
		meta:     make(map[string]FileMeta),
	}
}

// FullScan lists every supported file and indexes it, fanning parsing out
// across a bounded worker pool (default: number of hardware threads) per
// §5's "CPU-bound parsing runs on a worker pool" requirement. Files no
// longer present on disk are removed from the Store afterward.
func (idx *Indexer) FullScan(ctx context.Context) (*Stats, error) {
	metas, err := idx.fs.List("", idx.model.SupportedExtensions())
	if err != nil {
		return nil, fmt.Errorf("indexer: list: %w", err)
	}

	stats := &Stats{TotalFiles: len(metas)}
	var statsMu sync.Mutex
	onDisk := make(map[string]struct{}, len(metas))
	var onDiskMu sync.Mutex

	pool := workerpool.New(0)
	for _, m := range metas {
		m := m
		pool.Go(func() {
			onDiskMu.Lock()
			onDisk[m.Path] = struct{}{}
			onDiskMu.Unlock()

			tier, err := idx.IndexFile(m.Path)
			if err != nil {
				idx.logger.Warn("indexer: index file failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				return
			}
			statsMu.Lock()
			switch tier {
			case TierMetadata:
				stats.Tier1Hits++
			case TierDigest:
				stats.Tier2Hits++
			case TierFullParse:
				stats.FullParses++
			}
			statsMu.Unlock()
		})
	}
	pool.Wait()

	idx.pruneDeleted(onDisk)
	return stats, nil
}

// pruneDeleted removes notes backed by files that full-scan did not see.
func (idx *Indexer) pruneDeleted(onDisk map[string]struct{}) {
	for _, n := range idx.store.AllNotes() {
		if !n.HasPath() {
			continue
		}
		if _, ok := onDisk[n.Path]; !ok {
			idx.store.Remove(n.ID)
			idx.metaMu.Lock()
			delete(idx.meta, n.Path)
			idx.metaMu.Unlock()
		}
	}
}

// IndexFile runs the two-tier invalidation for a single path and returns
// which tier resolved it.
func (idx *Indexer) IndexFile(path string) (Tier, error) {
	stat, err := idx.fs.Stat(path)
	if err != nil {
		return TierFullParse, fmt.Errorf("indexer: stat %s: %w", path, err)
	}

	idx.metaMu.Lock()
	cached, hasCache := idx.meta[path]
	idx.metaMu.Unlock()

	_, existsInStore := idx.store.NoteByPath(path)

	if hasCache && existsInStore && cached.ModTime.Equal(stat.ModTime) && cached.Size == stat.Size {
		return TierMetadata, nil
	}

	data, err := idx.fs.Read(path)
	if err != nil {
		return TierFullParse, fmt.Errorf("indexer: read %s: %w", path, err)
	}
	digest := checksum.Sum(data)

	if hasCache && existsInStore && cached.Digest == digest {
		idx.metaMu.Lock()
		idx.meta[path] = FileMeta{ModTime: stat.ModTime, Size: stat.Size, Digest: digest}
		idx.metaMu.Unlock()
		return TierDigest, nil
	}

	res, err := parser.Parse(data)
	if err != nil {
		return TierFullParse, fmt.Errorf("indexer: parse %s: %w", path, err)
	}

	idx.applyParse(path, res)

	idx.metaMu.Lock()
	idx.meta[path] = FileMeta{ModTime: stat.ModTime, Size: stat.Size, Digest: res.Digest}
	idx.metaMu.Unlock()
	return TierFullParse, nil
}

// applyParse resolves this path's identity (rebinding the key if the file
// moved or its derived key otherwise changed) and assembles+stores the note.
func (idx *Indexer) applyParse(path string, res *parser.Result) {
	idx.applyParseAt(path, path, res)
}

// applyParseAt is applyParse generalized over a separate lookupPath: the
// path under which the existing note (if any) should be found in the
// Store, which may differ from path itself during a rename. Resolving the
// old id by lookupPath and rebinding its key, rather than letting
// identity.GetOrCreate mint a fresh id for path, is what keeps a note's id
// — and therefore its backlinks — stable across a rename.
func (idx *Indexer) applyParseAt(lookupPath, path string, res *parser.Result) {
	newKey := idx.model.KeyFromPath(path)

	var id model.NoteId
	if existing, ok := idx.store.NoteByPath(lookupPath); ok {
		id = existing.ID
		if existing.Key != newKey {
			idx.identity.Rebind(id, existing.Key, newKey)
		}
	} else {
		id = idx.identity.GetOrCreate(newKey)
	}

	note := idx.asm.Assemble(path, id, res)
	idx.store.Upsert(note)
}

// renameFile reindexes newPath while preserving the NoteId bound to
// oldPath, per spec.md §4.6's "Renamed … the Identity Registry preserving
// the id." Store.Upsert removes the stale oldPath→id path mapping itself
// once the note is re-materialized at path, so there is no separate
// RemoveByPath step here.
func (idx *Indexer) renameFile(oldPath, newPath string) error {
	stat, err := idx.fs.Stat(newPath)
	if err != nil {
		return fmt.Errorf("indexer: stat %s: %w", newPath, err)
	}
	data, err := idx.fs.Read(newPath)
	if err != nil {
		return fmt.Errorf("indexer: read %s: %w", newPath, err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return fmt.Errorf("indexer: parse %s: %w", newPath, err)
	}

	idx.applyParseAt(oldPath, newPath, res)

	idx.metaMu.Lock()
	delete(idx.meta, oldPath)
	idx.meta[newPath] = FileMeta{ModTime: stat.ModTime, Size: stat.Size, Digest: res.Digest}
	idx.metaMu.Unlock()
	return nil
}

// IndexContent parses and assembles data as if it were path's current
// content, bypassing the metadata/digest cache entirely. This is how an
// open editor buffer's unsaved text (the LSP overlay) gets reflected in
// the Store immediately on didChange, without polluting the on-disk
// metadata cache that FullScan/HandleEvent maintain for path.
func (idx *Indexer) IndexContent(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return fmt.Errorf("indexer: parse overlay %s: %w", path, err)
	}
	idx.applyParse(path, res)
	return nil
}

// HandleEvent applies one coalesced vfs.Event to the index.
func (idx *Indexer) HandleEvent(ev vfs.Event) error {
	switch ev.Kind {
	case vfs.EventCreated, vfs.EventModified:
		_, err := idx.IndexFile(ev.Path)
		return err
	case vfs.EventDeleted:
		idx.store.RemoveByPath(ev.Path)
		idx.metaMu.Lock()
		delete(idx.meta, ev.Path)
		idx.metaMu.Unlock()
		return nil
	case vfs.EventRenamed:
		return idx.renameFile(ev.OldPath, ev.Path)
	default:
		return nil
	}
}

// MetaSnapshot returns a copy of the metadata cache, for the Persistent
// Cache to serialize.
func (idx *Indexer) MetaSnapshot() map[string]FileMeta {
	idx.metaMu.Lock()
	defer idx.metaMu.Unlock()
	out := make(map[string]FileMeta, len(idx.meta))
	for k, v := range idx.meta {
		out[k] = v
	}
	return out
}

// RestoreMeta replaces the metadata cache from a persisted snapshot.
func (idx *Indexer) RestoreMeta(snapshot map[string]FileMeta) {
	idx.metaMu.Lock()
	defer idx.metaMu.Unlock()
	idx.meta = make(map[string]FileMeta, len(snapshot))
	for k, v := range snapshot {
		idx.meta[k] = v
	}
}
