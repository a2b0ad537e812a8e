package widget

import (
	"fmt"
	"sync"
)

// MemoryPreviews is an in-process PreviewStore. References look like
// "blob:preview/<n>" and stay live until revoked.
type MemoryPreviews struct {
	mu   sync.Mutex
	next uint64
	live map[string]File
}

// NewMemoryPreviews creates an empty store.
func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{live: make(map[string]File)}
}

// Create registers f and returns its reference.
func (p *MemoryPreviews) Create(f File) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	ref := fmt.Sprintf("blob:preview/%d", p.next)
	p.live[ref] = f
	return ref
}

// Revoke releases ref. Unknown references are ignored.
func (p *MemoryPreviews) Revoke(ref string) {
	p.mu.Lock()
	delete(p.live, ref)
	p.mu.Unlock()
}

// Lookup returns the file behind a live reference.
func (p *MemoryPreviews) Lookup(ref string) (File, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.live[ref]
	return f, ok
}

// Live reports how many references have not been revoked.
func (p *MemoryPreviews) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}
