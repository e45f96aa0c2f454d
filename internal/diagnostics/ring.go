package diagnostics

// sample is one timestamped observation.
type sample struct {
	atMs  float64
	value float64
}

// ring is a fixed-capacity FIFO of samples. Pushing into a full ring
// overwrites the oldest entry, so memory stays bounded even if the host
// never calls Snapshot.
type ring struct {
	buf   []sample
	head  int // index of the oldest sample
	count int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]sample, capacity)}
}

func (r *ring) push(s sample) {
	if r.count == len(r.buf) {
		r.buf[r.head] = s
		r.head = (r.head + 1) % len(r.buf)
		return
	}
	r.buf[(r.head+r.count)%len(r.buf)] = s
	r.count++
}

// evictBefore drops samples strictly older than cutoffMs. Samples are
// assumed to arrive in timestamp order.
func (r *ring) evictBefore(cutoffMs float64) {
	for r.count > 0 && r.buf[r.head].atMs < cutoffMs {
		r.head = (r.head + 1) % len(r.buf)
		r.count--
	}
}

func (r *ring) len() int { return r.count }

// before reports whether atMs is older than the newest retained sample.
func (r *ring) before(atMs float64) bool {
	last, ok := r.newest()
	return ok && atMs < last.atMs
}

// at returns the i-th oldest retained sample.
func (r *ring) at(i int) sample {
	return r.buf[(r.head+i)%len(r.buf)]
}

func (r *ring) newest() (sample, bool) {
	if r.count == 0 {
		return sample{}, false
	}
	return r.at(r.count - 1), true
}

func (r *ring) oldest() (sample, bool) {
	if r.count == 0 {
		return sample{}, false
	}
	return r.at(0), true
}
