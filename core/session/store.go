// Package session keeps the conversational state of every live session.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
)

// DefaultHistorySize is the number of turns kept per session
const DefaultHistorySize = 5

// ThreadCatalog validates thread ids
type ThreadCatalog interface {
	HasThread(threadID string) bool
}

type entry struct {
	mu      sync.Mutex
	session *model.Session
}

// Store maps session ids to sessions. The map has its own lock and every
// session has a lock of its own, so turns of different sessions never wait
// on each other.
type Store struct {
	catalog     ThreadCatalog
	historySize int
	logger      *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewStore creates an empty store. historySize <= 0 uses DefaultHistorySize
// and a nil logger uses slog.Default.
func NewStore(catalog ThreadCatalog, historySize int, logger *slog.Logger) *Store {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		catalog:     catalog,
		historySize: historySize,
		logger:      logger,
		sessions:    make(map[string]*entry),
	}
}

// Start creates a session bound to threadID and returns its id
func (s *Store) Start(threadID string) (string, error) {
	if !s.catalog.HasThread(threadID) {
		return "", helper.NewError("start session", fmt.Errorf("%w: %s", model.ErrInvalidThread, threadID))
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.sessions[id] = &entry{session: model.NewSession(id, threadID)}
	s.mu.Unlock()

	s.logger.Debug("Started session", slog.String("session_id", id), slog.String("thread_id", threadID))
	return id, nil
}

// Get returns a snapshot of the session
func (s *Store) Get(sessionID string) (model.Session, error) {
	var snapshot model.Session
	err := s.with(sessionID, "get session", func(session *model.Session) error {
		snapshot = session.Clone()
		return nil
	})
	return snapshot, err
}

// Reset clears history and entity memory, keeping the thread binding
func (s *Store) Reset(sessionID string) error {
	return s.with(sessionID, "reset session", func(session *model.Session) error {
		session.Clear()
		return nil
	})
}

// Switch binds the session to another thread and clears its context.
// An invalid thread leaves the session untouched.
func (s *Store) Switch(sessionID string, threadID string) error {
	return s.with(sessionID, "switch thread", func(session *model.Session) error {
		if !s.catalog.HasThread(threadID) {
			return fmt.Errorf("%w: %s", model.ErrInvalidThread, threadID)
		}
		session.ThreadID = threadID
		session.Clear()
		return nil
	})
}

// AppendTurn records a question and its answer, evicting the oldest turn
// beyond the history size
func (s *Store) AppendTurn(sessionID string, userText string, answer string) error {
	return s.with(sessionID, "append turn", func(session *model.Session) error {
		session.AppendTurn(model.Turn{UserText: userText, Answer: answer}, s.historySize)
		return nil
	})
}

// Update runs fn with exclusive access to the live session. Turns on the
// same session are serialized, and fn must not keep the pointer.
func (s *Store) Update(sessionID string, fn func(session *model.Session) error) error {
	return s.with(sessionID, "update session", fn)
}

// HistorySize is the number of turns kept per session
func (s *Store) HistorySize() int {
	return s.historySize
}

// Len is the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) with(sessionID string, operation string, fn func(session *model.Session) error) error {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return helper.NewError(operation, fmt.Errorf("%w: %s", model.ErrSessionNotFound, sessionID))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.session); err != nil {
		return helper.NewError(operation, err)
	}
	return nil
}
