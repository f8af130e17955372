package fifo

import "fmt"

// none marks the absence of a segment index.
const none = ^uint32(0)

// Segment is a range of bytes written ahead of the tail of a fifo, waiting
// for the gap in front of it to be filled.
type Segment struct {
	Start  uint32 `json:"start"  yaml:"start"`
	Length uint32 `json:"length" yaml:"length"`
}

func (s Segment) String() string {
	return fmt.Sprintf("pos %d, len %d", s.Start, s.Length)
}

type segment struct {
	start  uint32
	length uint32
	prev   uint32
	next   uint32
}

func (s *segment) export() Segment {
	return Segment{Start: s.start, Length: s.length}
}

// segmentPool is an arena of segments addressed by index. Growing the pool
// may move the segments in memory, so pointers returned by at are only valid
// until the next call to get.
type segmentPool struct {
	items []segment
	free  []uint32
}

func (p *segmentPool) get() uint32 {
	if n := len(p.free); n > 0 {
		i := p.free[n-1]
		p.free = p.free[:n-1]
		return i
	}
	p.items = append(p.items, segment{})
	return uint32(len(p.items) - 1)
}

func (p *segmentPool) put(i uint32) {
	p.items[i] = segment{prev: none, next: none}
	p.free = append(p.free, i)
}

func (p *segmentPool) at(i uint32) *segment {
	return &p.items[i]
}

func (p *segmentPool) valid(i uint32) bool {
	return i < uint32(len(p.items))
}

func (p *segmentPool) len() int {
	return len(p.items) - len(p.free)
}

// directory is the list of out-of-order segments of a fifo, ordered by
// distance to the tail. Segments never overlap nor touch: ranges that do are
// merged on insertion.
type directory struct {
	pool   segmentPool
	head   uint32
	newest uint32
	size   uint32
}

func (d *directory) init(size uint32, prealloc int) {
	d.size = size
	d.head = none
	d.newest = none
	if prealloc > 0 {
		d.pool.items = make([]segment, 0, prealloc)
	}
}

func (d *directory) alloc(start, length uint32) uint32 {
	i := d.pool.get()
	*d.pool.at(i) = segment{start: start, length: length, prev: none, next: none}
	return i
}

func (d *directory) remove(i uint32) {
	s := d.pool.at(i)
	if s.next != none {
		d.pool.at(s.next).prev = s.prev
	}
	if s.prev != none {
		d.pool.at(s.prev).next = s.next
	} else {
		d.head = s.next
	}
	d.pool.put(i)
}

// add registers length bytes written offset bytes ahead of tail.
func (d *directory) add(tail, offset, length uint32) error {
	d.newest = none
	if length == 0 {
		return nil
	}

	p := position{size: d.size, tail: tail}
	start := p.at(offset)
	newStart, newEnd := offset, offset+length

	if d.head == none {
		d.head = d.alloc(start, length)
		d.newest = d.head
		return nil
	}

	// Find the first segment starting at or after the new one, stopping on the
	// last segment of the list.
	i := d.head
	s := d.pool.at(i)
	for s.next != none && p.lt(s.start, start) {
		if !d.pool.valid(s.next) {
			return ErrCorrupt
		}
		i = s.next
		s = d.pool.at(i)
	}

	// A predecessor reaching the new start absorbs the new range.
	if s.prev != none {
		if prev := d.pool.at(s.prev); newStart <= p.of(prev.start)+prev.length {
			return d.merge(p, s.prev, newStart, newEnd)
		}
	}

	sStart := p.of(s.start)
	sEnd := sStart + s.length

	switch {
	case newEnd < sStart:
		j := d.alloc(start, length)
		s = d.pool.at(i)
		n := d.pool.at(j)
		if s.prev != none {
			n.prev = s.prev
			d.pool.at(s.prev).next = j
		} else {
			d.head = j
		}
		n.next = i
		s.prev = j
		d.newest = j
		return nil

	case newStart > sEnd:
		if s.next != none {
			return ErrCorrupt
		}
		j := d.alloc(start, length)
		s = d.pool.at(i)
		d.pool.at(j).prev = i
		s.next = j
		d.newest = j
		return nil

	default:
		return d.merge(p, i, newStart, newEnd)
	}
}

// merge extends segment i to cover the range [newStart, newEnd) of tail
// distances, absorbing the following segments that the new end reaches.
func (d *directory) merge(p position, i, newStart, newEnd uint32) error {
	s := d.pool.at(i)
	sStart := p.of(s.start)
	sEnd := sStart + s.length

	lo, hi := sStart, sEnd
	if newStart < lo {
		lo = newStart
	}
	if newEnd > hi {
		hi = newEnd
	}
	if lo == sStart && hi == sEnd {
		return nil
	}

	if newEnd > sEnd {
		for j := s.next; j != none; {
			if !d.pool.valid(j) {
				return ErrCorrupt
			}
			n := d.pool.at(j)
			nStart := p.of(n.start)
			if nStart > hi {
				break
			}
			if nEnd := nStart + n.length; nEnd > hi {
				hi = nEnd
			}
			next := n.next
			d.remove(j)
			j = next
		}
	}

	s.start = p.at(lo)
	s.length = hi - lo
	d.newest = i
	return nil
}

// collect absorbs the segments made contiguous by n bytes written at tail. It
// returns the new tail and the number of bytes gained beyond the n written.
func (d *directory) collect(tail, n uint32) (uint32, uint32) {
	p := position{size: d.size, tail: tail}
	extra := uint32(0)

	for d.head != none {
		s := d.pool.at(d.head)
		start := p.of(s.start)
		if start > n {
			break
		}
		end := start + s.length
		d.remove(d.head)
		if end > n {
			extra = end - n
			break
		}
	}

	return p.at(n + extra), extra
}
