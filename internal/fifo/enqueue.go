package fifo

// Enqueue appends up to len(data) bytes at the tail of the fifo.
//
// The returned count includes the bytes of out-of-order segments that became
// contiguous with the tail as a result of the write, so it may exceed
// len(data). ErrFull is returned if the fifo had no free space.
func (f *Fifo) Enqueue(data []byte) (int, error) {
	if f.corrupt.Load() {
		return 0, ErrCorrupt
	}
	f.dir.newest = none

	// cursize can only decrease while the producer is working.
	cursize := f.hdr.cursize.Load()
	if cursize == f.nitems {
		return 0, ErrFull
	}

	n := f.nitems - cursize
	if len(data) < int(n) {
		n = uint32(len(data))
	}

	tail := f.hdr.tail.Load()
	f.ring.copyIn(tail, data[:n])
	return int(f.commit(tail, n)), nil
}

// EnqueueNoCopy accounts for n bytes which the caller already wrote at the
// tail of the fifo, typically through the views returned by WritableSlices.
func (f *Fifo) EnqueueNoCopy(n int) (int, error) {
	if f.corrupt.Load() {
		return 0, ErrCorrupt
	}
	f.dir.newest = none

	cursize := f.hdr.cursize.Load()
	if n < 0 {
		return 0, ErrNegative
	}
	if cursize == f.nitems || n > int(f.nitems-cursize) {
		return 0, ErrFull
	}
	return int(f.commit(f.hdr.tail.Load(), uint32(n))), nil
}

// WritableSlices returns views of the free space of the fifo starting at the
// tail. The second view is non-empty when the free space wraps around the end
// of the ring.
func (f *Fifo) WritableSlices() (first, second []byte) {
	cursize := f.hdr.cursize.Load()
	return f.ring.slices(f.hdr.tail.Load(), f.nitems-cursize)
}

// EnqueueWithOffset writes data offset bytes ahead of the tail without making
// it readable. The bytes become readable once contiguous enqueues fill the gap
// between the tail and the segment.
//
// The write is all or nothing: ErrFull is returned without copying anything
// if offset+len(data) exceeds the free space of the fifo.
func (f *Fifo) EnqueueWithOffset(offset int, data []byte) error {
	if f.corrupt.Load() {
		return ErrCorrupt
	}
	f.dir.newest = none

	if offset < 0 {
		return ErrNegative
	}

	cursize := f.hdr.cursize.Load()
	free := uint64(f.nitems - cursize)
	if uint64(offset)+uint64(len(data)) > free {
		return ErrFull
	}
	if len(data) == 0 {
		return nil
	}

	tail := f.hdr.tail.Load()
	if err := f.dir.add(tail, uint32(offset), uint32(len(data))); err != nil {
		return f.fail(err)
	}
	f.ring.copyIn(forward(f.nitems, tail, uint32(offset)), data)
	return nil
}

// commit publishes n bytes written at tail, collecting the out-of-order
// segments they reach.
func (f *Fifo) commit(tail, n uint32) uint32 {
	total := n
	next := forward(f.nitems, tail, n)

	if f.dir.head != none {
		var extra uint32
		next, extra = f.dir.collect(tail, n)
		total += extra
	}

	f.hdr.tail.Store(next)
	f.hdr.cursize.Add(total)
	return total
}
