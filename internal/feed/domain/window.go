package feed

// Window is a fixed-capacity FIFO buffer of samples kept in arrival order.
// It is not safe for concurrent use; the feed guards it.
type Window struct {
	buf   []Sample
	head  int
	count int
}

// NewWindow constructs an empty window. Capacity below one is clamped to one.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]Sample, capacity)}
}

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Len returns the number of samples held.
func (w *Window) Len() int { return w.count }

// Append adds sample at the back. When the window is full the oldest sample
// is evicted and returned with ok=true.
func (w *Window) Append(sample Sample) (evicted Sample, ok bool) {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = sample
		w.count++
		return Sample{}, false
	}
	evicted = w.buf[w.head]
	w.buf[w.head] = sample
	w.head = (w.head + 1) % len(w.buf)
	return evicted, true
}

// Samples returns a copy of the window contents, oldest first.
func (w *Window) Samples() []Sample {
	out := make([]Sample, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// Last returns the newest sample.
func (w *Window) Last() (Sample, bool) {
	if w.count == 0 {
		return Sample{}, false
	}
	return w.buf[(w.head+w.count-1)%len(w.buf)], true
}
