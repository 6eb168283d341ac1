package state

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
)

// ConversationMessage is one turn of an interactive exchange.
type ConversationMessage struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session accumulates clarification state across turns of one interactive
// conversation. It lives only in memory; nothing here is durable.
type Session struct {
	ID            string
	History       []ConversationMessage
	CollectedInfo map[string]string
	// CurrentIntent is the intent being clarified; a short answer turn that
	// classifies unclear on its own falls back to it.
	CurrentIntent contractx.Intent
	// CustomerID caches the resolved identity for the whole conversation.
	CustomerID *int64
	Rounds     int
	UpdatedAt  time.Time
}

func (s *Session) Append(role, content string, now time.Time) {
	s.History = append(s.History, ConversationMessage{
		Role:    role,
		Content: content,
		At:      now.UTC(),
	})
	s.UpdatedAt = now.UTC()
}

// Collect merges newly extracted fields, keeping earlier answers unless the
// new turn restates them.
func (s *Session) Collect(fields map[string]string) {
	if s.CollectedInfo == nil {
		s.CollectedInfo = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		if strings.TrimSpace(v) != "" {
			s.CollectedInfo[k] = v
		}
	}
}

// ResetClarification clears gathered info after a cycle completes so the next
// request starts fresh. The cached customer identity survives; it belongs to
// the conversation, not to one request.
func (s *Session) ResetClarification() {
	s.CollectedInfo = nil
	s.CurrentIntent = ""
	s.Rounds = 0
}

// SessionManager owns interactive sessions keyed by id. Safe for concurrent
// use; each session itself is only touched by its own conversation loop.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session, 4),
	}
}

// GetOrCreate returns the session for id, creating it (with a generated id
// when empty) on first use.
func (m *SessionManager) GetOrCreate(id string, now time.Time) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	id = strings.TrimSpace(id)
	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return s
		}
	} else {
		id = uuid.NewString()[:8]
	}

	s := &Session{
		ID:        id,
		UpdatedAt: now.UTC(),
	}
	m.sessions[id] = s
	return s
}

func (m *SessionManager) Reset(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
