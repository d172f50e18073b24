package sessions

import (
	"sync"

	"github.com/adeptdev/adept/messages"
)

// Session holds a conversation history across agent runs.
type Session interface {
	GetHistory() []messages.ChatMessage
	AddMessage(messages.ChatMessage)
	AddMessages([]messages.ChatMessage)
	Clear()
	// Close releases any resources backing the session (file locks etc).
	Close() error
}

// MemorySession is an in-process session with no persistence.
type MemorySession struct {
	mu      sync.RWMutex
	history []messages.ChatMessage
}

// NewMemorySession creates an empty in-memory session.
func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

func (s *MemorySession) GetHistory() []messages.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]messages.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

func (s *MemorySession) AddMessage(msg messages.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
}

func (s *MemorySession) AddMessages(msgs []messages.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
}

func (s *MemorySession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

func (s *MemorySession) Close() error { return nil }
