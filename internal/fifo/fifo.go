// Package fifo implements a fixed-capacity byte stream fifo designed to be
// placed in shared memory between exactly one producer and one consumer.
//
// Besides appending at the tail, the producer may stage byte ranges ahead of
// the tail with EnqueueWithOffset. Those out-of-order segments are tracked in
// a private directory and become readable as soon as a contiguous enqueue
// closes the gap in front of them.
//
// The consumer only ever moves the head and the producer only ever moves the
// tail and the segment directory. The count of readable bytes is the single
// word both sides modify, always with atomic additions, so none of the
// operations take locks or block.
package fifo

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/stealthrocket/shmfifo/internal/shm"
)

var (
	// ErrFull is returned by producer operations when the fifo has no room
	// for the request.
	ErrFull = errors.New("fifo full")
	// ErrEmpty is returned by consumer operations when the fifo holds fewer
	// bytes than the request needs.
	ErrEmpty = errors.New("fifo empty")
	// ErrCorrupt is returned once the segment directory was found in an
	// inconsistent state. The fifo refuses further producer operations.
	ErrCorrupt = errors.New("fifo segment directory corrupted")
	// ErrCapacity is returned by New for capacities that cannot be
	// represented.
	ErrCapacity = errors.New("invalid fifo capacity")
	// ErrNegative is returned for negative offsets and byte counts.
	ErrNegative = errors.New("negative fifo offset or length")
)

// MaxCapacity is the largest capacity a fifo may be created with. Tail
// distances of segment ends are kept unreduced and must still fit in 32 bits.
const MaxCapacity = 1 << 30

// header is the part of the fifo shared by both sides. The consumer owns head,
// the producer owns tail, and cursize is updated by both with atomic adds.
// Each lives on its own cache line.
type header struct {
	head    atomic.Uint32
	_       cpu.CacheLinePad
	tail    atomic.Uint32
	_       cpu.CacheLinePad
	cursize atomic.Uint32
	_       cpu.CacheLinePad
}

const headerSize = int(unsafe.Sizeof(header{}))

// Fifo is a byte stream fifo with out-of-order segment reassembly.
//
// One goroutine may act as producer (Enqueue, EnqueueNoCopy,
// EnqueueWithOffset, WritableSlices) while another acts as consumer (Dequeue,
// DequeueNoCopy, DequeueDrop, Peek, ReadableSlices). Methods reporting on the
// segment directory must be called from the producer side.
type Fifo struct {
	hdr     *header
	ring    ring
	nitems  uint32
	dir     directory
	corrupt atomic.Bool

	mem     []byte
	release func([]byte) error
}

// Option configures the creation of a fifo.
type Option func(*options)

type options struct {
	segment  *shm.Segment
	segments int
}

// WithSegment instructs New to allocate the fifo from seg instead of creating
// a dedicated mapping. Closing the fifo returns its memory to seg.
func WithSegment(seg *shm.Segment) Option {
	return func(o *options) { o.segment = seg }
}

// Prealloc sets the initial capacity of the out-of-order segment pool.
func Prealloc(segments int) Option {
	return func(o *options) { o.segments = segments }
}

// New creates a fifo able to hold capacity bytes.
//
// The header and data are allocated in a single cache-line aligned block of
// shared memory. Allocation failures are returned as errors.
func New(capacity int, opts ...Option) (*Fifo, error) {
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	size := headerSize + capacity
	var mem []byte
	var release func([]byte) error

	if o.segment != nil {
		b, err := o.segment.Alloc(size)
		if err != nil {
			return nil, fmt.Errorf("allocating fifo of %d bytes: %w", capacity, err)
		}
		seg := o.segment
		mem, release = b, func(b []byte) error { seg.Release(b); return nil }
	} else {
		seg, err := shm.Anonymous(shm.AlignUp(size))
		if err != nil {
			return nil, fmt.Errorf("allocating fifo of %d bytes: %w", capacity, err)
		}
		b, err := seg.Alloc(size)
		if err != nil {
			seg.Close()
			return nil, fmt.Errorf("allocating fifo of %d bytes: %w", capacity, err)
		}
		mem, release = b, func([]byte) error { return seg.Close() }
	}

	f := &Fifo{
		hdr:     (*header)(unsafe.Pointer(unsafe.SliceData(mem))),
		ring:    ring(mem[headerSize : headerSize+capacity : headerSize+capacity]),
		nitems:  uint32(capacity),
		mem:     mem,
		release: release,
	}
	f.hdr.head.Store(0)
	f.hdr.tail.Store(0)
	f.hdr.cursize.Store(0)
	f.dir.init(uint32(capacity), o.segments)
	return f, nil
}

// Close releases the segment pool and the storage of the fifo. The fifo must
// not be used after being closed.
func (f *Fifo) Close() error {
	if f.mem == nil {
		return nil
	}
	mem, release := f.mem, f.release
	f.mem, f.release, f.ring, f.hdr = nil, nil, nil, nil
	f.dir = directory{}
	return release(mem)
}

// Capacity returns the number of bytes the fifo can hold.
func (f *Fifo) Capacity() int {
	return int(f.nitems)
}

// MaxDequeue returns the number of bytes readable by the consumer.
func (f *Fifo) MaxDequeue() int {
	return int(f.hdr.cursize.Load())
}

// MaxEnqueue returns the number of bytes the producer may append.
func (f *Fifo) MaxEnqueue() int {
	return int(f.nitems - f.hdr.cursize.Load())
}

// IsEmpty reports whether the fifo has no readable bytes.
func (f *Fifo) IsEmpty() bool { return f.hdr.cursize.Load() == 0 }

// IsFull reports whether the fifo has no room for contiguous bytes.
func (f *Fifo) IsFull() bool { return f.hdr.cursize.Load() == f.nitems }

// Head returns the position of the next byte to be read.
func (f *Fifo) Head() int { return int(f.hdr.head.Load()) }

// Tail returns the position of the next byte to be written.
func (f *Fifo) Tail() int { return int(f.hdr.tail.Load()) }

// InitPointers moves both the head and tail to pos modulo the capacity. It is
// used to align an empty fifo with a known stream position, and must not race
// with either side.
func (f *Fifo) InitPointers(pos uint32) {
	pos %= f.nitems
	f.hdr.head.Store(pos)
	f.hdr.tail.Store(pos)
}

// HasOOOData reports whether out-of-order segments are pending.
func (f *Fifo) HasOOOData() bool {
	return f.dir.head != none
}

// NumSegments returns the number of pending out-of-order segments.
func (f *Fifo) NumSegments() int {
	return f.dir.pool.len()
}

// Newest returns the last segment touched by the most recent offset enqueue,
// if any. The value is a debugging hint.
func (f *Fifo) Newest() (Segment, bool) {
	if f.dir.newest == none {
		return Segment{}, false
	}
	return f.dir.pool.at(f.dir.newest).export(), true
}

// FirstSegment returns the out-of-order segment closest to the tail.
func (f *Fifo) FirstSegment() (Segment, bool) {
	if f.dir.head == none {
		return Segment{}, false
	}
	return f.dir.pool.at(f.dir.head).export(), true
}

// Segments returns the pending out-of-order segments ordered by their
// distance to the tail.
func (f *Fifo) Segments() []Segment {
	segments := make([]Segment, 0, f.dir.pool.len())
	for i := f.dir.head; i != none; {
		s := f.dir.pool.at(i)
		segments = append(segments, s.export())
		i = s.next
	}
	return segments
}

func (f *Fifo) fail(err error) error {
	f.corrupt.Store(true)
	return err
}
