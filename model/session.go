package model

import "time"

// Turn is one question and the answer given to it.
type Turn struct {
	UserText string    `json:"user_text" yaml:"user_text"`
	Answer   string    `json:"answer" yaml:"answer"`
	At       time.Time `json:"at" yaml:"at"`
}

// Session is the conversational context of one caller bound to one thread.
type Session struct {
	SessionID    string    `json:"session_id" yaml:"session_id"`
	ThreadID     string    `json:"thread_id" yaml:"thread_id"`
	RecentTurns  []Turn    `json:"recent_turns" yaml:"recent_turns"`
	EntityMemory Entities  `json:"entity_memory" yaml:"entity_memory"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewSession creates an empty session bound to threadID.
func NewSession(sessionID, threadID string) *Session {
	now := time.Now()
	return &Session{
		SessionID:    sessionID,
		ThreadID:     threadID,
		RecentTurns:  []Turn{},
		EntityMemory: NewEntities(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AppendTurn adds a turn and evicts the oldest ones beyond capacity.
func (s *Session) AppendTurn(turn Turn, capacity int) {
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	s.RecentTurns = append(s.RecentTurns, turn)
	if capacity > 0 && len(s.RecentTurns) > capacity {
		s.RecentTurns = append([]Turn{}, s.RecentTurns[len(s.RecentTurns)-capacity:]...)
	}
	s.UpdatedAt = turn.At
}

// Clear drops history and entity memory, keeping the thread binding.
func (s *Session) Clear() {
	s.RecentTurns = []Turn{}
	s.EntityMemory = NewEntities()
	s.UpdatedAt = time.Now()
}

// Clone deep-copies the session so it can leave the store's lock.
func (s *Session) Clone() Session {
	clone := *s
	clone.RecentTurns = append([]Turn{}, s.RecentTurns...)
	clone.EntityMemory = s.EntityMemory.Clone()
	return clone
}
