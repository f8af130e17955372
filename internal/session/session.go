// Package session pairs byte fifos into bidirectional sessions shared between
// a dataplane and an application.
//
// The dataplane delivers received bytes, possibly out of order, into the rx
// fifo and drains the tx fifo for transmission. The application reads from rx
// and writes to tx. Each side waits on the readiness channels of the session
// instead of polling the fifos.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/stealthrocket/shmfifo/internal/fifo"
)

var (
	// ErrClosed is returned when writing to a session that was shut down.
	ErrClosed = errors.New("session closed")
	// ErrNotFound is returned when no session exists with the requested ID.
	ErrNotFound = errors.New("session not found")
)

// ID uniquely identifies a session.
type ID = uuid.UUID

// Index locates a session on one side of the connection: the position of the
// session in its owner's table and the thread that owns it.
type Index struct {
	Session int `json:"session" yaml:"session"`
	Thread  int `json:"thread"  yaml:"thread"`
}

func (i Index) String() string {
	return fmt.Sprintf("%d/%d", i.Thread, i.Session)
}

// event is an edge-coalesced notification. At most one notification is posted
// until the receiving side clears the event.
type event struct {
	flag  atomic.Bool
	ready chan struct{}
}

func (e *event) post() {
	if e.flag.CompareAndSwap(false, true) {
		e.wake()
	}
}

func (e *event) wake() {
	select {
	case e.ready <- struct{}{}:
	default:
	}
}

// Session is a pair of fifos shared by a dataplane and an application.
//
// The methods of the dataplane side (Deliver, DeliverAt, Transmit) must be
// called from a single goroutine, and so must the methods of the application
// side (Read, Write and their variants). The two sides may run concurrently.
type Session struct {
	id     ID
	server Index
	client Index

	rx *fifo.Fifo
	tx *fifo.Fifo

	// rxEvent is posted by the dataplane when it makes bytes readable in rx,
	// txEvent by the application when it writes to tx, and txSpace by the
	// dataplane when it frees space in tx.
	rxEvent event
	txEvent event
	txSpace event

	shutdown atomic.Bool
}

func newSession(id ID, server Index, rx, tx *fifo.Fifo) *Session {
	s := &Session{
		id:     id,
		server: server,
		rx:     rx,
		tx:     tx,
	}
	s.rxEvent.ready = make(chan struct{}, 1)
	s.txEvent.ready = make(chan struct{}, 1)
	s.txSpace.ready = make(chan struct{}, 1)
	return s
}

// ID returns the unique identifier of s.
func (s *Session) ID() ID { return s.id }

// Server returns the index of s on the dataplane side.
func (s *Session) Server() Index { return s.server }

// Client returns the index of s on the application side, as set by Attach.
func (s *Session) Client() Index { return s.client }

// Attach records the index of the application side of s.
func (s *Session) Attach(client Index) { s.client = client }

// Rx returns the fifo carrying bytes from the dataplane to the application.
func (s *Session) Rx() *fifo.Fifo { return s.rx }

// Tx returns the fifo carrying bytes from the application to the dataplane.
func (s *Session) Tx() *fifo.Fifo { return s.tx }

// Readable returns a channel receiving a value when bytes become readable
// after the application cleared the event with UnsetEvent.
func (s *Session) Readable() <-chan struct{} { return s.rxEvent.ready }

// Writable returns a channel receiving a value when the dataplane frees space
// in the tx fifo.
func (s *Session) Writable() <-chan struct{} { return s.txSpace.ready }

// Transmittable returns a channel receiving a value when the application
// wrote bytes to the tx fifo after the dataplane cleared the tx event.
func (s *Session) Transmittable() <-chan struct{} { return s.txEvent.ready }

// HasEvent reports whether a notification of readable bytes is outstanding.
func (s *Session) HasEvent() bool { return s.rxEvent.flag.Load() }

// SetEvent marks a notification as outstanding. It returns false if one
// already was, in which case the caller must not post another.
func (s *Session) SetEvent() bool { return s.rxEvent.flag.CompareAndSwap(false, true) }

// UnsetEvent clears the outstanding notification so the next delivery posts
// a new one. The application calls it before draining the rx fifo.
func (s *Session) UnsetEvent() { s.rxEvent.flag.Store(false) }

// Shutdown marks the session as closed. Readers observe io.EOF once the rx
// fifo is drained and writers get ErrClosed. Waiters on both sides are woken.
func (s *Session) Shutdown() {
	if s.shutdown.CompareAndSwap(false, true) {
		s.rxEvent.wake()
		s.txEvent.wake()
		s.txSpace.wake()
	}
}

// Closed reports whether Shutdown was called.
func (s *Session) Closed() bool { return s.shutdown.Load() }

// Deliver appends in-order bytes to the rx fifo and notifies the application.
// The returned count includes out-of-order bytes that became readable.
func (s *Session) Deliver(data []byte) (int, error) {
	n, err := s.rx.Enqueue(data)
	if n > 0 {
		s.rxEvent.post()
	}
	return n, err
}

// DeliverAt stores bytes offset bytes ahead of the rx tail. They are not
// readable until the gap is filled so no notification is posted.
func (s *Session) DeliverAt(offset int, data []byte) error {
	return s.rx.EnqueueWithOffset(offset, data)
}

// Enqueue and EnqueueWithOffset make the dataplane side of a session usable
// wherever a fifo producer is expected.
func (s *Session) Enqueue(data []byte) (int, error) { return s.Deliver(data) }

func (s *Session) EnqueueWithOffset(offset int, data []byte) error {
	return s.DeliverAt(offset, data)
}

// Transmit moves up to len(out) bytes written by the application out of the
// tx fifo and notifies the application that space is available.
func (s *Session) Transmit(out []byte) (int, error) {
	s.txEvent.flag.Store(false)
	n, err := s.tx.Dequeue(out)
	if n > 0 {
		s.txSpace.wake()
	}
	return n, err
}

// TryRead reads readable bytes from the rx fifo without waiting. It returns
// fifo.ErrEmpty if there are none.
func (s *Session) TryRead(p []byte) (int, error) {
	s.UnsetEvent()
	return s.rx.Dequeue(p)
}

// Read reads from the rx fifo, waiting for bytes to become readable.
func (s *Session) Read(p []byte) (int, error) {
	return s.ReadContext(context.Background(), p)
}

// ReadContext reads from the rx fifo, waiting until bytes are readable, the
// session is shut down, or ctx is canceled.
func (s *Session) ReadContext(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := s.TryRead(p)
		if !errors.Is(err, fifo.ErrEmpty) {
			return n, err
		}
		if s.Closed() {
			// Bytes delivered before the shutdown are still readable.
			if n, err := s.rx.Dequeue(p); err == nil {
				return n, nil
			}
			return 0, io.EOF
		}
		select {
		case <-s.rxEvent.ready:
		case <-ctx.Done():
			return 0, context.Cause(ctx)
		}
	}
}

// TryWrite writes as many bytes of p as fit in the tx fifo without waiting.
// It returns fifo.ErrFull if the fifo had no free space.
func (s *Session) TryWrite(p []byte) (int, error) {
	if s.Closed() {
		return 0, ErrClosed
	}
	n, err := s.tx.Enqueue(p)
	if n > 0 {
		s.txEvent.post()
	}
	return n, err
}

// Write writes all of p to the tx fifo, waiting for space as needed.
func (s *Session) Write(p []byte) (int, error) {
	return s.WriteContext(context.Background(), p)
}

// WriteContext writes all of p to the tx fifo, waiting for the dataplane to
// free space until the session is shut down or ctx is canceled. The number of
// bytes written before an error is returned with it.
func (s *Session) WriteContext(ctx context.Context, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := s.TryWrite(p[written:])
		written += n
		if err != nil && !errors.Is(err, fifo.ErrFull) {
			return written, err
		}
		if n > 0 {
			continue
		}
		select {
		case <-s.txSpace.ready:
		case <-ctx.Done():
			return written, context.Cause(ctx)
		}
	}
	return written, nil
}

// Format implements fmt.Formatter. The %v verb prints the session identity and
// fifo occupancy, %+v adds the indices and the state of both fifos. Other
// verbs are reported as errors.
func (s *Session) Format(w fmt.State, v rune) {
	switch v {
	case 'v', 's':
	default:
		fmt.Fprintf(w, "%%!%c(*session.Session=%s)", v, s.id)
		return
	}
	fmt.Fprintf(w, "[%s] rx %d/%d tx %d/%d", s.id,
		s.rx.MaxDequeue(), s.rx.Capacity(),
		s.tx.MaxDequeue(), s.tx.Capacity())
	if s.Closed() {
		io.WriteString(w, " closed")
	}
	if w.Flag('+') {
		fmt.Fprintf(w, "\n server %s client %s has_event %t", s.server, s.client, s.HasEvent())
		fmt.Fprintf(w, "\n rx: %v", s.rx)
		fmt.Fprintf(w, "\n tx: %v", s.tx)
	}
}
