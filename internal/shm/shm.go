// Package shm manages regions of memory that may be shared between a dataplane
// and the applications it serves.
//
// A Segment is a single mapping carved into cache-line aligned blocks. The
// allocator is a bump pointer with a per-size free list: segments host many
// fixed-size objects (fifos) which are created and released as sessions come
// and go, so blocks are recycled by exact size rather than coalesced.
package shm

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Align is the alignment of every block returned by Segment.Alloc.
const Align = int(unsafe.Sizeof(cpu.CacheLinePad{}))

var (
	// ErrNoSpace is returned when a segment cannot satisfy an allocation.
	ErrNoSpace = errors.New("shm: segment exhausted")
	// ErrClosed is returned by operations on a closed segment.
	ErrClosed = errors.New("shm: segment closed")
)

// Segment is a memory mapping from which blocks are allocated.
//
// Segment methods are safe to use concurrently; allocations are expected on
// control paths, never on a per-byte data path.
type Segment struct {
	mu    sync.Mutex
	mem   []byte
	off   int
	free  map[int][][]byte
	file  *os.File
	unmap func([]byte) error
}

func newSegment(mem []byte, file *os.File, unmap func([]byte) error) *Segment {
	return &Segment{
		mem:   mem,
		free:  make(map[int][][]byte),
		file:  file,
		unmap: unmap,
	}
}

// Size returns the size of the segment in bytes.
func (s *Segment) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mem)
}

// Used returns the number of bytes handed out by the bump allocator. Released
// blocks are still counted since they remain reserved for reuse.
func (s *Segment) Used() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.off
}

// Name returns the path of the file backing the segment, or the empty string
// for anonymous segments.
func (s *Segment) Name() string {
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

// Alloc returns a zeroed block of at least size bytes, aligned on Align.
func (s *Segment) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid allocation size: %d", size)
	}
	size = AlignUp(size)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mem == nil {
		return nil, ErrClosed
	}
	if blocks := s.free[size]; len(blocks) > 0 {
		b := blocks[len(blocks)-1]
		s.free[size] = blocks[:len(blocks)-1]
		clear(b)
		return b, nil
	}
	if size > len(s.mem)-s.off {
		return nil, fmt.Errorf("%w: %d bytes requested, %d available", ErrNoSpace, size, len(s.mem)-s.off)
	}
	b := s.mem[s.off : s.off+size : s.off+size]
	s.off += size
	return b, nil
}

// Release returns a block obtained from Alloc to the segment.
func (s *Segment) Release(b []byte) {
	if len(b) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem != nil {
		s.free[len(b)] = append(s.free[len(b)], b)
	}
}

// Close unmaps the segment. Blocks previously allocated must not be used after
// the segment was closed.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mem == nil {
		return nil
	}
	mem := s.mem
	s.mem, s.free, s.off = nil, nil, 0

	var errs []error
	if s.unmap != nil {
		errs = append(errs, s.unmap(mem))
	}
	if s.file != nil {
		errs = append(errs, s.file.Close())
	}
	return errors.Join(errs...)
}

// AlignUp rounds size up to a multiple of Align.
func AlignUp(size int) int {
	return ((size + (Align - 1)) / Align) * Align
}
