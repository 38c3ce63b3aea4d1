package registry

// HistoryCap bounds the audit history kept per part. Once full, appending
// evicts the oldest entry (sliding window, not rejection).
const HistoryCap = 10

// historyRing is a fixed-capacity ring buffer of history entries.
//
// A ring is used instead of a truncated slice so appends never reallocate
// and eviction is O(1): the oldest slot is simply overwritten.
type historyRing struct {
	entries [HistoryCap]HistoryEntry
	start   int // index of the oldest entry
	count   int // number of live entries, <= HistoryCap
}

// append adds e, evicting the oldest entry when full.
func (h *historyRing) append(e HistoryEntry) {
	if h.count < HistoryCap {
		h.entries[(h.start+h.count)%HistoryCap] = e
		h.count++
		return
	}
	// Full: overwrite the oldest slot and advance the window.
	h.entries[h.start] = e
	h.start = (h.start + 1) % HistoryCap
}

// snapshot returns the live entries oldest-first as a fresh slice.
func (h *historyRing) snapshot() []HistoryEntry {
	if h.count == 0 {
		return nil
	}
	out := make([]HistoryEntry, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.entries[(h.start+i)%HistoryCap]
	}
	return out
}
