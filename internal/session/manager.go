// Package session keeps named circuit simulators for the server. Each
// session serialises its own mutations and announces semantic changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/events"
	"go-circuit-lab/internal/models"
)

// ErrExists is returned when creating a session whose id is taken
var ErrExists = errors.New("circuit already exists")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Session is a named simulator instance
type Session struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time

	mu  sync.Mutex
	sim *engine.Simulator
}

// Info summarises a session for listings
type Info struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	Revision    uint64               `json:"revision"`
	Nodes       int                  `json:"nodes"`
	Components  int                  `json:"components"`
	Wires       int                  `json:"wires"`
	Semantics   models.SemanticState `json:"semantics"`
}

// info must be called with s.mu held
func (s *Session) info() *Info {
	nodes, comps, wires := s.sim.Counts()
	return &Info{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		Revision:    s.sim.Revision(),
		Nodes:       nodes,
		Components:  comps,
		Wires:       wires,
		Semantics:   s.sim.Semantics(),
	}
}

// Manager handles session lifecycle
type Manager struct {
	sessions  map[string]*Session
	order     []string
	publisher events.Publisher
	logger    *slog.Logger
	simOpts   []engine.Option
	mutex     sync.RWMutex
}

// NewManager creates a session manager. A nil publisher drops events and a
// nil logger discards output.
func NewManager(publisher events.Publisher, logger *slog.Logger, simOpts ...engine.Option) *Manager {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		publisher: publisher,
		logger:    logger,
		simOpts:   append([]engine.Option{engine.WithLogger(logger)}, simOpts...),
	}
}

// Create registers a new empty circuit. An empty id is replaced by a uuid.
func (m *Manager) Create(id, name, description string) (*Info, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if !idPattern.MatchString(id) {
		return nil, models.NewValidationError("id", id, "must contain only letters, digits, '-' or '_'")
	}
	if name == "" {
		name = id
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrExists, id)
	}

	sess := &Session{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		sim:         engine.NewSimulator(m.simOpts...),
	}
	m.sessions[id] = sess
	m.order = append(m.order, id)

	m.logger.Info("circuit created", "circuit", id)
	return sess.info(), nil
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sess, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: circuit %s", engine.ErrNotFound, id)
	}
	return sess, nil
}

// Get returns a summary of one session
func (m *Manager) Get(id string) (*Info, error) {
	sess, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.info(), nil
}

// List returns every session in creation order
func (m *Manager) List() []*Info {
	m.mutex.RLock()
	sessions := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		sessions = append(sessions, m.sessions[id])
	}
	m.mutex.RUnlock()

	result := make([]*Info, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		result = append(result, sess.info())
		sess.mu.Unlock()
	}
	return result
}

// Count returns the number of sessions
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return fmt.Errorf("%w: circuit %s", engine.ErrNotFound, id)
	}
	delete(m.sessions, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	m.logger.Info("circuit deleted", "circuit", id)
	return nil
}

// Mutate runs fn with exclusive access to the session's simulator. When fn
// succeeds and the circuit was recomputed a SemanticsChanged event is
// published. Publish failures are logged, not returned.
func (m *Manager) Mutate(ctx context.Context, id string, fn func(*engine.Simulator) error) error {
	sess, err := m.lookup(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	before := sess.sim.Revision()
	if err := fn(sess.sim); err != nil {
		return err
	}
	revision := sess.sim.Revision()
	if revision == before {
		return nil
	}

	// Publishing under the session lock keeps events in revision order
	ev := events.NewSemanticsChanged(id, revision, sess.sim.Semantics())
	if err := m.publisher.Publish(ctx, ev); err != nil {
		m.logger.Warn("failed to publish semantics", "circuit", id, "revision", revision, "error", err)
	}
	return nil
}

// View runs fn with the session's simulator locked. fn must not mutate it.
func (m *Manager) View(id string, fn func(*engine.Simulator) error) error {
	sess, err := m.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.sim)
}

// Load installs a circuit definition. The session named by def.ID is
// replaced in place, or created when it does not exist yet.
func (m *Manager) Load(ctx context.Context, def *models.CircuitDefinitionJSON) (*Info, error) {
	id := def.ID
	if _, err := m.lookup(id); id == "" || err != nil {
		info, err := m.Create(id, def.Name, def.Description)
		if err != nil {
			return nil, err
		}
		id = info.ID
	}

	if err := m.Mutate(ctx, id, func(sim *engine.Simulator) error {
		return sim.Load(def)
	}); err != nil {
		return nil, err
	}

	sess, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if def.Name != "" {
		sess.Name = def.Name
	}
	if def.Description != "" {
		sess.Description = def.Description
	}
	return sess.info(), nil
}

// Export returns the session's circuit in definition form
func (m *Manager) Export(id string) (*models.CircuitDefinitionJSON, error) {
	sess, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.sim.Export(sess.ID, sess.Name, sess.Description), nil
}

// Close releases the event publisher
func (m *Manager) Close() {
	m.publisher.Close()
}
