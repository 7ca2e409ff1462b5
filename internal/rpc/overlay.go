package rpc

import "sync"

// Overlay holds the in-memory text of buffers the client currently has
// open, shadowing their on-disk content per spec.md §6's "overlay
// priority": an open document's buffer overrides disk content for
// parsing and query until it closes. It implements
// internal/refactor.ContentProvider by falling through to a disk reader
// for any URI that isn't currently open.
type Overlay struct {
	mu    sync.RWMutex
	open  map[string]string
	onFallback func(uri string) (string, error)
}

// NewOverlay constructs an Overlay. fallback reads a URI's content from
// disk when it has no open buffer.
func NewOverlay(fallback func(uri string) (string, error)) *Overlay {
	return &Overlay{open: make(map[string]string), onFallback: fallback}
}

// Open records uri's buffer content, called on textDocument/didOpen.
func (o *Overlay) Open(uri, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open[uri] = text
}

// Update replaces uri's buffer content wholesale, called on
// textDocument/didChange with full-document sync.
func (o *Overlay) Update(uri, text string) {
	o.Open(uri, text)
}

// Close discards uri's buffer, called on textDocument/didClose; disk
// content becomes authoritative again.
func (o *Overlay) Close(uri string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.open, uri)
}

// IsOpen reports whether uri currently has an overlay buffer.
func (o *Overlay) IsOpen(uri string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.open[uri]
	return ok
}

// GetContent returns uri's overlay text if open, otherwise falls through
// to disk. Satisfies internal/refactor.ContentProvider.
func (o *Overlay) GetContent(uri string) (string, error) {
	o.mu.RLock()
	text, ok := o.open[uri]
	o.mu.RUnlock()
	if ok {
		return text, nil
	}
	return o.onFallback(uri)
}
