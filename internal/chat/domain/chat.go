// Package domain define os tipos do assistente de IA "Sofia".
//
// O fluxo de uma mensagem numa conversa:
//  1. Usuário manda {"message": "..."} em POST /v1/conversations/{id}/messages
//  2. BFF grava a mensagem do usuário (sender_type = "user")
//  3. BFF monta o contexto (carteira de cooperados, histórico da conversa)
//  4. Strategy Pattern decide como enriquecer o prompt (cooperado, churn, geral)
//  5. BFF chama o modelo (Gemini ou simulado)
//  6. BFF grava a resposta (sender_type = "ai") e devolve as duas mensagens
package domain

import (
	"time"

	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
)

// ============================================================
// Persistência: tabelas conversations e chat_messages
// ============================================================

// DefaultConversationTitle é o título de uma conversa recém-criada.
const DefaultConversationTitle = "Nova conversa"

// Conversation é uma conversa do usuário com a Sofia.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// SenderType identifica quem escreveu a mensagem.
type SenderType string

const (
	SenderUser SenderType = "user"
	SenderAI   SenderType = "ai"
)

// ChatMessage é uma mensagem gravada em chat_messages.
// UserID é vazio nas mensagens da IA.
type ChatMessage struct {
	ID             int64      `json:"id,omitempty"`
	ConversationID string     `json:"conversation_id"`
	UserID         string     `json:"user_id,omitempty"`
	SenderType     SenderType `json:"sender_type"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ============================================================
// API: Request/Response entre o dashboard e o BFF
// ============================================================

// CreateConversationRequest é o body (opcional) de POST /v1/conversations.
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// SendMessageRequest é o body de POST /v1/conversations/{id}/messages.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse devolve a mensagem do usuário, a resposta da IA
// e a resposta renderizada em HTML sanitizado.
type SendMessageResponse struct {
	UserMessage *ChatMessage `json:"user_message"`
	AIMessage   *ChatMessage `json:"ai_message"`
	HTML        string       `json:"html"`
	Intent      string       `json:"intent"`
}

// ChatRequest é o body de POST /v1/chat (rota sem conversa, paridade com a edge function).
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse é a resposta de POST /v1/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ============================================================
// Modelo: Request/Response entre o BFF e o modelo generativo
// ============================================================

// Turn é uma mensagem do histórico enviada ao modelo.
type Turn struct {
	Role string // "user" ou "model"
	Text string
}

// ModelRequest é o que as strategies montam para o modelo.
type ModelRequest struct {
	SystemInstruction string
	History           []Turn
	Prompt            string

	// Mentioned é o cooperado citado na mensagem (nil se nenhum).
	// O modelo simulado usa isso para montar o resumo sem chamar a API.
	Mentioned *maindomain.Cooperado
}

// ModelResponse é a resposta do modelo com o consumo de tokens.
type ModelResponse struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ============================================================
// Strategy Context: o que cada strategy recebe
// ============================================================

// Intents reconhecidos pelo roteador.
const (
	IntentCooperado = "cooperado"
	IntentChurn     = "churn"
	IntentGeneral   = "general"
)

// ChatContext encapsula tudo que uma Strategy precisa para montar o prompt.
// É montado pelo ChatService antes de delegar.
type ChatContext struct {
	UserID  string
	Message string

	// DetectedIntent é a intenção detectada pelo roteador.
	DetectedIntent string

	// Roster é a carteira de cooperados do usuário (com interações).
	Roster []maindomain.Cooperado

	// Mentioned é o cooperado citado na mensagem, quando houver.
	Mentioned *maindomain.Cooperado

	// History são as mensagens anteriores da conversa (mais antigas primeiro).
	History []ChatMessage
}
