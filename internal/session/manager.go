package session

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/stealthrocket/shmfifo/internal/fifo"
	"github.com/stealthrocket/shmfifo/internal/shm"
)

// Config carries the parameters of sessions created by a Manager.
type Config struct {
	// Sizes of the fifos allocated for each session, in bytes.
	RxFifoSize int
	TxFifoSize int
	// Number of out-of-order segment slots reserved by each fifo up front.
	PreallocSegments int
	// Index of the thread owning the sessions on the dataplane side.
	Thread int
	// Destination of lifecycle messages. Defaults to the standard logger.
	Logger *log.Logger
}

// Manager allocates sessions from a shared memory segment and keeps track of
// the sessions that are open.
type Manager struct {
	seg    *shm.Segment
	config Config
	log    *log.Logger

	mutex    sync.Mutex
	table    []*Session
	sessions map[ID]*Session
}

// NewManager returns a Manager carving session fifos out of seg.
func NewManager(seg *shm.Segment, config Config) *Manager {
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		seg:      seg,
		config:   config,
		log:      logger,
		sessions: make(map[ID]*Session),
	}
}

// Open allocates a new session with a fresh ID.
func (m *Manager) Open() (*Session, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	opts := []fifo.Option{
		fifo.WithSegment(m.seg),
		fifo.Prealloc(m.config.PreallocSegments),
	}

	rx, err := fifo.New(m.config.RxFifoSize, opts...)
	if err != nil {
		m.log.Printf("session: cannot allocate rx fifo: %v", err)
		return nil, fmt.Errorf("opening session: %w", err)
	}
	tx, err := fifo.New(m.config.TxFifoSize, opts...)
	if err != nil {
		rx.Close()
		m.log.Printf("session: cannot allocate tx fifo: %v", err)
		return nil, fmt.Errorf("opening session: %w", err)
	}

	index := m.freeSlot()
	s := newSession(uuid.New(), Index{Session: index, Thread: m.config.Thread}, rx, tx)
	m.table[index] = s
	m.sessions[s.id] = s

	m.log.Printf("session %s: opened at %s (rx %d, tx %d, segment %d/%d)",
		s.id, s.server, rx.Capacity(), tx.Capacity(), m.seg.Used(), m.seg.Size())
	return s, nil
}

func (m *Manager) freeSlot() int {
	for i, s := range m.table {
		if s == nil {
			return i
		}
	}
	m.table = append(m.table, nil)
	return len(m.table) - 1
}

// Lookup returns the open session with the given ID.
func (m *Manager) Lookup(id ID) (*Session, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Sessions returns the open sessions ordered by their index.
func (m *Manager) Sessions() []*Session {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.table {
		if s != nil {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

// Close shuts down the session with the given ID and returns its fifos to the
// segment. Both sides of the session must have stopped using it.
func (m *Manager) Close(id ID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.close(s)
}

// Shutdown closes all open sessions.
func (m *Manager) Shutdown() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var errs []error
	for _, s := range m.table {
		if s != nil {
			errs = append(errs, m.close(s))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) close(s *Session) error {
	s.Shutdown()
	delete(m.sessions, s.id)
	m.table[s.server.Session] = nil

	err := errors.Join(s.rx.Close(), s.tx.Close())
	if err != nil {
		m.log.Printf("session %s: closed with error: %v", s.id, err)
	} else {
		m.log.Printf("session %s: closed", s.id)
	}
	return err
}
