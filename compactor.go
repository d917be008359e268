package holdfast

import "sync"

// HoleTable is a concrete, in-memory implementation of the Compactor
// contract from spec §3: HoleOf(size) returns a free data-file offset
// of exactly that size, or 0 if none is available. Grounded on the
// cpt_get(cpt, sv->len) call site in nessDB's log_append
// (original_source/engine/log.c); the compactor's real internals are
// explicitly out of scope for this module (spec §1 Non-goals /
// "external collaborators"), so this is a minimal free-list stand-in
// for testability. No free-list/allocator library appears in the
// retrieval pack — see DESIGN.md.
type HoleTable struct {
	mu    sync.Mutex
	holes map[uint32][]uint64
}

// NewHoleTable creates an empty hole table.
func NewHoleTable() *HoleTable {
	return &HoleTable{holes: make(map[uint32][]uint64)}
}

// Free records that offset now holds a reclaimed, size-byte hole
// eligible for reuse. Not part of the core's required Compactor
// interface, but needed for any caller to ever populate the table.
func (h *HoleTable) Free(offset uint64, size uint32) {
	if offset == 0 {
		// Offset 0 is inside the magic header and is never a legal hole.
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.holes[size] = append(h.holes[size], offset)
}

// HoleOf pops and returns a free offset of exactly size, or 0 if none
// is available.
func (h *HoleTable) HoleOf(size uint32) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	bucket := h.holes[size]
	if len(bucket) == 0 {
		return 0
	}
	offset := bucket[len(bucket)-1]
	h.holes[size] = bucket[:len(bucket)-1]
	return offset
}
