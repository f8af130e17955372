package fifo

// Ring positions wrap, so they cannot be compared directly: position 2 comes
// after position 14 of a 16 byte fifo whose tail is at 12. Every ordering and
// subtraction of positions is done on their distance to the tail.

// distance returns how far p lies ahead of tail on a ring of size bytes.
func distance(size, tail, p uint32) uint32 {
	if p >= tail {
		return p - tail
	}
	return size - tail + p
}

// position is a cursor on the ring relative to a fixed tail.
type position struct {
	size uint32
	tail uint32
}

func (p position) of(pos uint32) uint32 { return distance(p.size, p.tail, pos) }

func (p position) lt(a, b uint32) bool { return p.of(a) < p.of(b) }

// at returns the absolute ring position lying d bytes ahead of the tail.
func (p position) at(d uint32) uint32 { return forward(p.size, p.tail, d) }

// forward returns the ring position n bytes after pos.
func forward(size, pos, n uint32) uint32 {
	return uint32((uint64(pos) + uint64(n)) % uint64(size))
}
