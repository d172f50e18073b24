package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/adeptdev/adept/messages"
)

// fileSessionState is the on-disk JSON shape.
type fileSessionState struct {
	History []messages.ChatMessage `json:"history"`
	Created time.Time              `json:"created"`
	Updated time.Time              `json:"updated"`
}

// FileSession persists its history as JSON, holding an exclusive flock on
// the file for its whole lifetime so concurrent processes cannot interleave
// writes.
type FileSession struct {
	mu    sync.RWMutex
	state fileSessionState
	path  string
	lock  *flock.Flock
}

// NewFileSession opens or creates a session file, acquiring the lock with a
// 10 second timeout.
func NewFileSession(path string) (*FileSession, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	fileLock := flock.New(path)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquiring session lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("session %s is locked by another process", path)
	}

	s := &FileSession{
		path: path,
		lock: fileLock,
		state: fileSessionState{
			Created: time.Now(),
		},
	}

	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		if err := json.Unmarshal(data, &s.state); err != nil {
			fileLock.Unlock()
			return nil, fmt.Errorf("parsing session %s: %w", path, err)
		}
	}

	return s, nil
}

func (s *FileSession) GetHistory() []messages.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]messages.ChatMessage, len(s.state.History))
	copy(out, s.state.History)
	return out
}

func (s *FileSession) AddMessage(msg messages.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.History = append(s.state.History, msg)
	s.save()
}

func (s *FileSession) AddMessages(msgs []messages.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.History = append(s.state.History, msgs...)
	s.save()
}

func (s *FileSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.History = nil
	s.save()
}

// save writes the state under the held mutex. A write failure keeps the
// in-memory history intact, so the conversation can continue.
func (s *FileSession) save() {
	s.state.Updated = time.Now()
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		zap.S().Warnw("session_marshal_failed", "path", s.path, "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		zap.S().Warnw("session_write_failed", "path", s.path, "error", err)
	}
}

// Close releases the file lock.
func (s *FileSession) Close() error {
	return s.lock.Unlock()
}
