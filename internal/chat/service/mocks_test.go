package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
)

// --- Mocks ---

type mockModel struct {
	mu       sync.Mutex
	requests []*domain.ModelRequest
	reply    string
	err      error
}

func (m *mockModel) Generate(_ context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ModelResponse{Text: m.reply, Model: "mock", PromptTokens: 10, CompletionTokens: 5}, nil
}

func (m *mockModel) last() *domain.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

type mockConversations struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	messages      map[string][]domain.ChatMessage
	nextID        int64
	titles        map[string]string
	addErr        error
}

func newMockConversations() *mockConversations {
	return &mockConversations{
		conversations: map[string]*domain.Conversation{},
		messages:      map[string][]domain.ChatMessage{},
		titles:        map[string]string{},
	}
}

func (m *mockConversations) ListConversations(_ context.Context, userID string) ([]domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockConversations) GetConversation(_ context.Context, userID, id string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.UserID != userID {
		return nil, &maindomain.ErrNotFound{Resource: "conversation", ID: id}
	}
	cp := *c
	return &cp, nil
}

func (m *mockConversations) CreateConversation(_ context.Context, userID, title string) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("conv-%d", len(m.conversations)+1)
	c := &domain.Conversation{ID: id, UserID: userID, Title: title, CreatedAt: time.Now()}
	m.conversations[id] = c
	return c, nil
}

func (m *mockConversations) UpdateConversationTitle(_ context.Context, userID, id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles[id] = title
	if c, ok := m.conversations[id]; ok && c.UserID == userID {
		c.Title = title
	}
	return nil
}

func (m *mockConversations) ListMessages(_ context.Context, id string) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ChatMessage(nil), m.messages[id]...), nil
}

func (m *mockConversations) AddMessage(_ context.Context, msg *domain.ChatMessage) (*domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return nil, m.addErr
	}
	m.nextID++
	saved := *msg
	saved.ID = m.nextID
	saved.CreatedAt = time.Now()
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], saved)
	return &saved, nil
}

type mockDirectory struct {
	roster    []maindomain.Cooperado
	risks     []maindomain.ChurnRisk
	err       error
	churnHits int
}

func (m *mockDirectory) Roster(context.Context, string) ([]maindomain.Cooperado, error) {
	return m.roster, m.err
}

func (m *mockDirectory) ChurnRisks(context.Context, string) ([]maindomain.ChurnRisk, error) {
	m.churnHits++
	return m.risks, m.err
}
