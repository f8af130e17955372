package fifo

// ring is the data area of a fifo. Copies that run past the end of the ring
// continue at its start.
type ring []byte

func (r ring) copyIn(at uint32, b []byte) {
	n := copy(r[at:], b)
	copy(r, b[n:])
}

func (r ring) copyOut(at uint32, b []byte) {
	n := copy(b, r[at:])
	copy(b[n:], r)
}

// slices returns the n bytes starting at at as up to two contiguous views.
func (r ring) slices(at, n uint32) (first, second []byte) {
	if end := uint64(at) + uint64(n); end <= uint64(len(r)) {
		return r[at:end:end], nil
	}
	k := uint32(len(r)) - at
	return r[at:], r[: n-k : n-k]
}
