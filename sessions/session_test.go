package sessions

import (
	"path/filepath"
	"testing"

	"github.com/adeptdev/adept/messages"
)

func TestMemorySession(t *testing.T) {
	s := NewMemorySession()

	s.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "hello"})
	s.AddMessages([]messages.ChatMessage{
		{Role: messages.MessageRoleAssistant, Content: "hi"},
	})

	history := s.GetHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(history))
	}
	if history[0].Content != "hello" || history[1].Content != "hi" {
		t.Error("Expected history in insertion order")
	}

	// Mutating the returned slice must not affect the session.
	history[0].Content = "changed"
	if s.GetHistory()[0].Content != "hello" {
		t.Error("Expected GetHistory to return a copy")
	}

	s.Clear()
	if len(s.GetHistory()) != 0 {
		t.Error("Expected empty history after Clear")
	}
}

func TestFileSessionPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")

	s, err := NewFileSession(path)
	if err != nil {
		t.Fatal(err)
	}
	s.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "remember me"})
	s.AddMessage(messages.ChatMessage{
		Role:       messages.MessageRoleTool,
		Content:    "42",
		ToolCallID: "call_1",
		ToolName:   "get_answer",
	})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewFileSession(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	history := reopened.GetHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(history))
	}
	if history[0].Content != "remember me" {
		t.Errorf("Expected first message to persist, got %q", history[0].Content)
	}
	if history[1].ToolCallID != "call_1" || history[1].ToolName != "get_answer" {
		t.Error("Expected tool metadata to persist")
	}
}

func TestFileSessionClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")

	s, err := NewFileSession(path)
	if err != nil {
		t.Fatal(err)
	}
	s.AddMessage(messages.ChatMessage{Role: messages.MessageRoleUser, Content: "x"})
	s.Clear()
	s.Close()

	reopened, err := NewFileSession(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if len(reopened.GetHistory()) != 0 {
		t.Error("Expected cleared history to persist as empty")
	}
}
