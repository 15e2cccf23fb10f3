// Package service implementa o ChatService da Sofia.
//
// ============================================================
// ARQUITETURA: Strategy Pattern para enriquecer o prompt
// ============================================================
//
// Fluxo de POST /v1/conversations/{id}/messages:
//  1. Confere se a conversa é do usuário
//  2. Busca em paralelo o histórico da conversa e a carteira de cooperados
//  3. Grava a mensagem do usuário
//  4. Detecta a intenção (cooperado citado? churn? geral?)
//  5. A Strategy correspondente monta o ModelRequest
//  6. Chama o modelo; se falhar, responde com o texto de fallback
//  7. Grava a resposta da IA e renderiza o markdown em HTML seguro
//
// Strategies disponíveis:
//   - CooperadoStrategy: resumo completo do cooperado citado
//   - ChurnStrategy: lista de cooperados em risco de churn
//   - GeneralStrategy: só a carteira no system instruction
package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/port"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// chatTracer é o tracer OpenTelemetry para o módulo de chat.
var chatTracer = otel.Tracer("chat/service")

const (
	// FallbackReply é devolvido quando o modelo falha.
	FallbackReply = "Desculpe, não consegui processar sua solicitação no momento."

	maxMessageRunes = 4000
	maxTitleRunes   = 40
	maxHistoryTurns = 20
)

// ============================================================
// ChatStrategy: interface que cada contexto implementa
// ============================================================

// ChatStrategy define o contrato de uma estratégia.
//
// CanHandle: diz se essa strategy sabe lidar com a intenção detectada
// Handle:    monta o request do modelo para a mensagem
type ChatStrategy interface {
	CanHandle(intent string) bool
	Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ModelRequest, error)
}

// ============================================================
// ChatService: orquestrador com strategy routing
// ============================================================

// ChatService é o serviço principal do assistente.
type ChatService struct {
	model     port.ModelCaller
	store     port.ConversationStore
	directory port.MemberDirectory
	renderer  port.Renderer

	// A ordem importa: a primeira strategy que aceita a intenção ganha.
	// A última deve ser a GeneralStrategy.
	strategies []ChatStrategy

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewChatService cria o ChatService com as dependências injetadas.
func NewChatService(
	model port.ModelCaller,
	store port.ConversationStore,
	directory port.MemberDirectory,
	renderer port.Renderer,
	strategies []ChatStrategy,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		model:      model,
		store:      store,
		directory:  directory,
		renderer:   renderer,
		strategies: strategies,
		metrics:    metrics,
		logger:     logger,
	}
}

// DefaultStrategies devolve as strategies na ordem de prioridade.
func DefaultStrategies(directory port.MemberDirectory, logger *zap.Logger) []ChatStrategy {
	return []ChatStrategy{
		NewCooperadoStrategy(),
		NewChurnStrategy(directory, logger),
		NewGeneralStrategy(),
	}
}

// ============================================================
// Conversas
// ============================================================

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ListConversations")
	defer span.End()

	convs, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// CreateConversation cria uma conversa; título vazio vira "Nova conversa".
func (s *ChatService) CreateConversation(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.CreateConversation")
	defer span.End()

	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultConversationTitle
	}
	conv, err := s.store.CreateConversation(ctx, userID, truncateRunes(title, 120))
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.logger.Info("conversation created",
		zap.String("user_id", userID),
		zap.String("conversation_id", conv.ID),
	)
	return conv, nil
}

// Messages lista as mensagens de uma conversa do usuário, mais antigas primeiro.
func (s *ChatService) Messages(ctx context.Context, userID, conversationID string) ([]domain.ChatMessage, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Messages")
	defer span.End()

	if _, err := s.store.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// ============================================================
// SendMessage: POST /v1/conversations/{id}/messages
// ============================================================

func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID string, req *domain.SendMessageRequest) (*domain.SendMessageResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("chat", time.Since(start))
	}()

	message, err := validateMessage(req.Message)
	if err != nil {
		return nil, err
	}

	conv, err := s.store.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	// Histórico e carteira em paralelo.
	var (
		history []domain.ChatMessage
		roster  []maindomain.Cooperado
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		msgs, err := s.store.ListMessages(gCtx, conversationID)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		history = msgs
		return nil
	})
	g.Go(func() error {
		rows, err := s.directory.Roster(gCtx, userID)
		if err != nil {
			return fmt.Errorf("roster: %w", err)
		}
		roster = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrChatRequest("error")
		return nil, err
	}

	userMsg, err := s.store.AddMessage(ctx, &domain.ChatMessage{
		ConversationID: conversationID,
		UserID:         userID,
		SenderType:     domain.SenderUser,
		Content:        message,
	})
	if err != nil {
		s.metrics.IncrChatRequest("error")
		return nil, fmt.Errorf("save user message: %w", err)
	}

	chatCtx := &domain.ChatContext{
		UserID:  userID,
		Message: message,
		Roster:  roster,
		History: history,
	}
	reply, err := s.answer(ctx, chatCtx)
	if err != nil {
		s.metrics.IncrChatRequest("error")
		return nil, err
	}

	aiMsg, err := s.store.AddMessage(ctx, &domain.ChatMessage{
		ConversationID: conversationID,
		SenderType:     domain.SenderAI,
		Content:        reply,
	})
	if err != nil {
		s.metrics.IncrChatRequest("error")
		return nil, fmt.Errorf("save ai message: %w", err)
	}

	// A primeira mensagem dá nome a uma conversa ainda sem título.
	if conv.Title == domain.DefaultConversationTitle && len(history) == 0 {
		title := truncateRunes(message, maxTitleRunes)
		if err := s.store.UpdateConversationTitle(ctx, userID, conversationID, title); err != nil {
			s.logger.Warn("failed to retitle conversation",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
	}

	html, err := s.renderer.Render(reply)
	if err != nil {
		s.logger.Warn("markdown render failed", zap.Error(err))
		html = ""
	}

	return &domain.SendMessageResponse{
		UserMessage: userMsg,
		AIMessage:   aiMsg,
		HTML:        html,
		Intent:      chatCtx.DetectedIntent,
	}, nil
}

// ============================================================
// Chat: POST /v1/chat (sem conversa persistida)
// ============================================================

func (s *ChatService) Chat(ctx context.Context, userID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Chat")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("chat", time.Since(start))
	}()

	message, err := validateMessage(req.Message)
	if err != nil {
		return nil, err
	}

	roster, err := s.directory.Roster(ctx, userID)
	if err != nil {
		s.metrics.IncrChatRequest("error")
		return nil, fmt.Errorf("roster: %w", err)
	}

	reply, err := s.answer(ctx, &domain.ChatContext{UserID: userID, Message: message, Roster: roster})
	if err != nil {
		s.metrics.IncrChatRequest("error")
		return nil, err
	}
	return &domain.ChatResponse{Reply: reply}, nil
}

// answer detecta a intenção, delega para a strategy e chama o modelo.
// Falha do modelo vira FallbackReply; falha da strategy é devolvida.
func (s *ChatService) answer(ctx context.Context, chatCtx *domain.ChatContext) (string, error) {
	intent, mentioned := detectIntent(chatCtx.Message, chatCtx.Roster)
	chatCtx.DetectedIntent = intent
	chatCtx.Mentioned = mentioned

	s.logger.Info("chat message received",
		zap.String("user_id", chatCtx.UserID),
		zap.String("intent", intent),
		zap.Int("message_length", len(chatCtx.Message)),
	)

	var strategy ChatStrategy
	for _, st := range s.strategies {
		if st.CanHandle(intent) {
			strategy = st
			break
		}
	}
	if strategy == nil {
		return "", fmt.Errorf("no chat strategy for intent %q", intent)
	}

	modelReq, err := strategy.Handle(ctx, chatCtx)
	if err != nil {
		return "", fmt.Errorf("strategy %s: %w", intent, err)
	}
	modelReq.History = toTurns(chatCtx.History)

	resp, err := s.model.Generate(ctx, modelReq)
	if err != nil {
		s.logger.Error("model call failed, using fallback",
			zap.String("user_id", chatCtx.UserID),
			zap.String("intent", intent),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("model")
		s.metrics.IncrChatRequest("fallback")
		return FallbackReply, nil
	}

	s.metrics.RecordTokens(resp.PromptTokens, resp.CompletionTokens)
	s.metrics.IncrChatRequest("success")
	return resp.Text, nil
}

// ============================================================
// detectIntent: roteamento por nome citado e palavras-chave
// ============================================================

var churnKeywords = []string{"churn", "risco", "evasão", "evasao", "inativo", "sem contato"}

// detectIntent devolve "cooperado" quando a mensagem cita o nome de um
// cooperado da carteira (o nome mais longo ganha), "churn" para as
// palavras-chave de risco e "general" no resto.
func detectIntent(message string, roster []maindomain.Cooperado) (string, *maindomain.Cooperado) {
	lower := strings.ToLower(message)

	var (
		mentioned *maindomain.Cooperado
		bestLen   int
	)
	for i := range roster {
		name := strings.ToLower(strings.TrimSpace(roster[i].Name))
		if utf8.RuneCountInString(name) < 3 {
			continue
		}
		if !strings.Contains(lower, name) {
			continue
		}
		if len(name) > bestLen {
			mentioned = &roster[i]
			bestLen = len(name)
		}
	}
	if mentioned != nil {
		return domain.IntentCooperado, mentioned
	}

	for _, kw := range churnKeywords {
		if strings.Contains(lower, kw) {
			return domain.IntentChurn, nil
		}
	}
	return domain.IntentGeneral, nil
}

// toTurns converte as últimas mensagens da conversa para o formato do modelo.
func toTurns(history []domain.ChatMessage) []domain.Turn {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	turns := make([]domain.Turn, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.SenderType == domain.SenderAI {
			role = "model"
		}
		turns = append(turns, domain.Turn{Role: role, Text: m.Content})
	}
	return turns
}

func validateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", &maindomain.ErrValidation{Field: "message", Message: "required"}
	}
	if utf8.RuneCountInString(message) > maxMessageRunes {
		return "", &maindomain.ErrValidation{Field: "message", Message: fmt.Sprintf("must have at most %d characters", maxMessageRunes)}
	}
	return message, nil
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "..."
}
