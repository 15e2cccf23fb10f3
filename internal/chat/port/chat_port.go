// Package port define as interfaces (ports) do módulo de chat.
//
// Seguindo a arquitetura hexagonal, o ChatService depende dessas interfaces
// e NÃO dos clients concretos (Gemini, Supabase).
package port

import (
	"context"

	chatdomain "github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
)

// ModelCaller envia um prompt ao modelo generativo.
// Implementado pelo GeminiClient e pelo SimulatedModel.
type ModelCaller interface {
	Generate(ctx context.Context, req *chatdomain.ModelRequest) (*chatdomain.ModelResponse, error)
}

// ConversationStore persiste conversas e mensagens.
type ConversationStore interface {
	ListConversations(ctx context.Context, userID string) ([]chatdomain.Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID string) (*chatdomain.Conversation, error)
	CreateConversation(ctx context.Context, userID, title string) (*chatdomain.Conversation, error)
	UpdateConversationTitle(ctx context.Context, userID, conversationID, title string) error
	ListMessages(ctx context.Context, conversationID string) ([]chatdomain.ChatMessage, error)
	AddMessage(ctx context.Context, msg *chatdomain.ChatMessage) (*chatdomain.ChatMessage, error)
}

// MemberDirectory fornece a carteira de cooperados e a lista de risco de churn.
// Implementado pelo InsightsService.
type MemberDirectory interface {
	Roster(ctx context.Context, userID string) ([]maindomain.Cooperado, error)
	ChurnRisks(ctx context.Context, userID string) ([]maindomain.ChurnRisk, error)
}

// Renderer converte a resposta em markdown para HTML seguro.
type Renderer interface {
	Render(markdown string) (string, error)
}
