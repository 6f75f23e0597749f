// Package naming resolves outbound file names: stripping the in-progress
// marker from unpacked inputs and keeping concurrently dispatched tasks from
// claiming the same output path.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// UnpackPrefix marks files the upstream downloader is still writing (or has
// just finished unpacking). Stable scans skip them; the unpacked scan pass
// strips the marker from the output name.
const UnpackPrefix = "_UNPACK_"

// StripUnpackPrefix removes the in-progress marker from a file name.
// Names without the marker are returned unchanged.
func StripUnpackPrefix(name string) string {
	return strings.TrimPrefix(name, UnpackPrefix)
}

// CollisionResolver tracks output paths claimed by input files and resolves
// duplicates by appending " - dupN" suffixes. Transformation tasks run
// concurrently, so all methods are goroutine-safe.
type CollisionResolver struct {
	mu       sync.Mutex
	owners   map[string]string // output path → input path that owns it
	counters map[string]int    // base output path → next dup counter
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final output path for input, handling collisions.
// If requestedOutput is unclaimed (or already owned by input), it is returned
// as-is. Otherwise a " - dupN" variant is generated.
func (cr *CollisionResolver) Resolve(input, requestedOutput string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	owner, exists := cr.owners[requestedOutput]
	if !exists || owner == input {
		cr.owners[requestedOutput] = input
		return requestedOutput
	}

	dir := filepath.Dir(requestedOutput)
	base := filepath.Base(requestedOutput)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	counter := cr.counters[requestedOutput]
	if counter == 0 {
		counter = 1
	}

	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, counter, ext))
		cOwner, cExists := cr.owners[candidate]
		if !cExists || cOwner == input {
			cr.counters[requestedOutput] = counter + 1
			cr.owners[candidate] = input
			return candidate
		}
		counter++
	}
}
