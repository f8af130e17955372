package fifo

// Dequeue reads up to len(out) bytes from the head of the fifo.
//
// ErrEmpty is returned if the fifo holds no readable bytes.
func (f *Fifo) Dequeue(out []byte) (int, error) {
	// cursize can only increase while the consumer is working.
	cursize := f.hdr.cursize.Load()
	if cursize == 0 {
		return 0, ErrEmpty
	}

	n := cursize
	if len(out) < int(n) {
		n = uint32(len(out))
	}

	head := f.hdr.head.Load()
	f.ring.copyOut(head, out[:n])
	f.advance(head, n)
	return int(n), nil
}

// DequeueNoCopy releases n bytes which the caller consumed in place, typically
// through the views returned by ReadableSlices.
func (f *Fifo) DequeueNoCopy(n int) (int, error) {
	cursize := f.hdr.cursize.Load()
	if n < 0 {
		return 0, ErrNegative
	}
	if cursize == 0 || n > int(cursize) {
		return 0, ErrEmpty
	}
	f.advance(f.hdr.head.Load(), uint32(n))
	return n, nil
}

// DequeueDrop discards up to n bytes from the head of the fifo without copying
// them.
func (f *Fifo) DequeueDrop(n int) (int, error) {
	cursize := f.hdr.cursize.Load()
	if cursize == 0 {
		return 0, ErrEmpty
	}
	if n < 0 {
		return 0, ErrNegative
	}

	drop := cursize
	if n < int(drop) {
		drop = uint32(n)
	}
	f.advance(f.hdr.head.Load(), drop)
	return int(drop), nil
}

// Peek copies up to len(out) bytes starting offset bytes after the head,
// leaving the fifo unchanged.
//
// ErrEmpty is returned if offset is beyond the readable bytes.
func (f *Fifo) Peek(offset int, out []byte) (int, error) {
	cursize := f.hdr.cursize.Load()
	if offset < 0 {
		return 0, ErrNegative
	}
	if offset > int(cursize) {
		return 0, ErrEmpty
	}

	n := cursize - uint32(offset)
	if len(out) < int(n) {
		n = uint32(len(out))
	}

	at := forward(f.nitems, f.hdr.head.Load(), uint32(offset))
	f.ring.copyOut(at, out[:n])
	return int(n), nil
}

// ReadableSlices returns views of the readable bytes of the fifo starting at
// the head. The second view is non-empty when the data wraps around the end
// of the ring.
func (f *Fifo) ReadableSlices() (first, second []byte) {
	cursize := f.hdr.cursize.Load()
	return f.ring.slices(f.hdr.head.Load(), cursize)
}

func (f *Fifo) advance(head, n uint32) {
	f.hdr.head.Store(forward(f.nitems, head, n))
	f.hdr.cursize.Add(^(n - 1))
}
