// Package handler implementa as rotas do assistente Sofia.
//
//	GET  /v1/conversations                 → conversas do usuário
//	POST /v1/conversations                 → cria conversa ({"title": "..."} opcional)
//	GET  /v1/conversations/{id}/messages   → mensagens, mais antigas primeiro
//	POST /v1/conversations/{id}/messages   → {"message": "..."} → mensagem + resposta da IA
//	POST /v1/chat                          → {"message": "..."} → {"reply": "..."}
//
// Os handlers são finos: validam o básico e delegam pro ChatService.
// O id do usuário vem do middleware de autenticação via UserIDFunc.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/service"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// tracer é o tracer OpenTelemetry para o módulo chat/handler.
var tracer = otel.Tracer("chat/handler")

// maxBodyBytes é o mesmo teto de body das rotas do CRM.
const maxBodyBytes = 1 << 20

// UserIDFunc extrai o usuário autenticado do contexto da request.
type UserIDFunc func(ctx context.Context) string

// ListConversationsHandler: GET /v1/conversations
func ListConversationsHandler(chatSvc *service.ChatService, userID UserIDFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/conversations")
		defer span.End()

		convs, err := chatSvc.ListConversations(ctx, userID(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

// CreateConversationHandler: POST /v1/conversations
func CreateConversationHandler(chatSvc *service.ChatService, userID UserIDFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversations")
		defer span.End()

		// Body é opcional: sem body a conversa nasce como "Nova conversa".
		var req domain.CreateConversationRequest
		if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		conv, err := chatSvc.CreateConversation(ctx, userID(ctx), req.Title)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, conv)
	}
}

// ListMessagesHandler: GET /v1/conversations/{id}/messages
func ListMessagesHandler(chatSvc *service.ChatService, userID UserIDFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/conversations/{id}/messages")
		defer span.End()

		conversationID := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("conversation.id", conversationID))

		msgs, err := chatSvc.Messages(ctx, userID(ctx), conversationID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

// SendMessageHandler: POST /v1/conversations/{id}/messages
//
// Response (201 Created):
//
//	{"user_message": {...}, "ai_message": {...}, "html": "<p>...</p>", "intent": "general"}
func SendMessageHandler(chatSvc *service.ChatService, userID UserIDFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/conversations/{id}/messages")
		defer span.End()

		conversationID := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("conversation.id", conversationID))

		var req domain.SendMessageRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"message\": \"...\"}")
			return
		}

		resp, err := chatSvc.SendMessage(ctx, userID(ctx), conversationID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// ChatHandler: POST /v1/chat, sem conversa persistida.
//
// Request:  {"message": "Quem está em risco de churn?"}
// Response: {"reply": "..."}
func ChatHandler(chatSvc *service.ChatService, userID UserIDFunc, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		var req domain.ChatRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"message\": \"...\"}")
			return
		}

		resp, err := chatSvc.Chat(ctx, userID(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody lê o JSON com o body limitado a maxBodyBytes.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// handleServiceError mapeia erros de domínio para HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var (
		notFound     *maindomain.ErrNotFound
		validation   *maindomain.ErrValidation
		unauthorized *maindomain.ErrUnauthorized
		forbidden    *maindomain.ErrForbidden
		conflict     *maindomain.ErrConflict
		external     *maindomain.ErrExternalService
		circuit      *maindomain.ErrCircuitOpen
		timeout      *maindomain.ErrTimeout
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &unauthorized):
		writeError(w, http.StatusUnauthorized, unauthorized.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, forbidden.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &circuit):
		writeError(w, http.StatusServiceUnavailable, circuit.Error())
	case errors.As(err, &timeout):
		writeError(w, http.StatusGatewayTimeout, timeout.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(external.Err))
		writeError(w, http.StatusBadGateway, "external service unavailable: "+external.Service)
	default:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
