package risk

import "sync"

// DefaultHistoryCapacity is the number of records kept before the oldest is evicted
const DefaultHistoryCapacity = 100

// History is a fixed-capacity ring buffer of RiskAllocationRecords.
// Appends are serialized; readers get copies.
type History struct {
	mu    sync.Mutex
	buf   []RiskAllocationRecord
	start int
	size  int
}

// NewHistory creates a ring buffer with the given capacity
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{buf: make([]RiskAllocationRecord, capacity)}
}

// Append adds a record, evicting the oldest when full
func (h *History) Append(r RiskAllocationRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = r
		h.size++
		return
	}
	h.buf[h.start] = r
	h.start = (h.start + 1) % len(h.buf)
}

// Records returns all records oldest first
func (h *History) Records() []RiskAllocationRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastLocked(h.size)
}

// Last returns up to n most recent records, oldest first
func (h *History) Last(n int) []RiskAllocationRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > h.size {
		n = h.size
	}
	return h.lastLocked(n)
}

func (h *History) lastLocked(n int) []RiskAllocationRecord {
	if n <= 0 {
		return []RiskAllocationRecord{}
	}
	out := make([]RiskAllocationRecord, n)
	first := h.start + h.size - n
	for i := 0; i < n; i++ {
		out[i] = h.buf[(first+i)%len(h.buf)]
	}
	return out
}

// Len returns the number of stored records
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Cap returns the capacity
func (h *History) Cap() int {
	return len(h.buf)
}
