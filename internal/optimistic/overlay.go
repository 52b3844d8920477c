package optimistic

import (
	"encoding/json"
	"fmt"
	"sync"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Overlay keeps RFC 7386 merge patches for entities changed locally but not
// yet confirmed by a fetch.
type Overlay struct {
	mu      sync.Mutex
	patches map[string][]byte
}

func NewOverlay() *Overlay {
	return &Overlay{patches: map[string][]byte{}}
}

// Put records the difference between original and modified under id.
func (o *Overlay) Put(id string, original, modified interface{}) error {
	before, err := json.Marshal(original)
	if err != nil {
		return fmt.Errorf("failed to encode original %s: %w", id, err)
	}
	after, err := json.Marshal(modified)
	if err != nil {
		return fmt.Errorf("failed to encode modified %s: %w", id, err)
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return fmt.Errorf("failed to diff %s: %w", id, err)
	}
	o.PutPatch(id, patch)
	return nil
}

// PutPatch records a raw merge patch, merging it with any pending one.
func (o *Overlay) PutPatch(id string, patch []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if prev, ok := o.patches[id]; ok {
		if merged, err := jsonpatch.MergeMergePatches(prev, patch); err == nil {
			o.patches[id] = merged
			return
		}
	}
	o.patches[id] = patch
}

// Drop forgets the patch for id, rolling the entity back to fetched state.
func (o *Overlay) Drop(id string) {
	o.mu.Lock()
	delete(o.patches, id)
	o.mu.Unlock()
}

// Clear forgets every patch.
func (o *Overlay) Clear() {
	o.mu.Lock()
	o.patches = map[string][]byte{}
	o.mu.Unlock()
}

// Has reports whether id has a pending patch.
func (o *Overlay) Has(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.patches[id]
	return ok
}

// Len returns the number of pending patches.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.patches)
}

func (o *Overlay) patch(id string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.patches[id]
	return p, ok
}

// Apply returns v with the pending patch for id applied. When the fetched v
// already reflects the patch, the patch is retired.
func Apply[T any](o *Overlay, id string, v T) (T, error) {
	patch, ok := o.patch(id)
	if !ok {
		return v, nil
	}
	doc, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("failed to encode %s: %w", id, err)
	}
	patched, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return v, fmt.Errorf("failed to patch %s: %w", id, err)
	}
	if jsonpatch.Equal(doc, patched) {
		o.retire(id, patch)
		return v, nil
	}
	var out T
	if err := json.Unmarshal(patched, &out); err != nil {
		return v, fmt.Errorf("failed to decode patched %s: %w", id, err)
	}
	return out, nil
}

// retire drops the patch unless it was replaced meanwhile.
func (o *Overlay) retire(id string, patch []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cur, ok := o.patches[id]; ok && string(cur) == string(patch) {
		delete(o.patches, id)
	}
}

// ApplyAll patches every element keyed by key.
func ApplyAll[T any](o *Overlay, items []T, key func(T) string) []T {
	out := make([]T, len(items))
	for i, it := range items {
		patched, err := Apply(o, key(it), it)
		if err != nil {
			patched = it
		}
		out[i] = patched
	}
	return out
}
