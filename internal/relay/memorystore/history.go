package memorystore

// historyRing is a fixed-capacity FIFO of recent prices, oldest first.
type historyRing struct {
	buf   []HistoryPoint
	start int
	size  int
}

func newHistoryRing(capacity int) *historyRing {
	return &historyRing{buf: make([]HistoryPoint, capacity)}
}

// push appends p at the tail, evicting the oldest entry when full.
func (r *historyRing) push(p HistoryPoint) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = p
		r.size++
		return
	}
	r.buf[r.start] = p
	r.start = (r.start + 1) % len(r.buf)
}

func (r *historyRing) len() int {
	return r.size
}

// list returns a copy of the entries in arrival order.
func (r *historyRing) list() []HistoryPoint {
	out := make([]HistoryPoint, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
