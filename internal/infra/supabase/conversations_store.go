package supabase

import (
	"context"
	"fmt"
	"net/http"

	chatdomain "github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Conversations & chat messages store (implements chat/port.ConversationStore)
// ============================================================

func (c *Client) ListConversations(ctx context.Context, userID string) ([]chatdomain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListConversations")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("conversations?user_id=%s&order=created_at.desc", eq(userID))
	var rows []chatdomain.Conversation
	if err := c.getRows(ctx, "conversations", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetConversation(ctx context.Context, userID, conversationID string) (*chatdomain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetConversation")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	path := fmt.Sprintf("conversations?id=%s&user_id=%s&limit=1", eq(conversationID), eq(userID))
	var rows []chatdomain.Conversation
	if err := c.getRows(ctx, "conversations", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "conversation", ID: conversationID}
	}
	return &rows[0], nil
}

func (c *Client) CreateConversation(ctx context.Context, userID, title string) (*chatdomain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateConversation")
	defer span.End()

	data := map[string]any{
		"id":      uuid.New().String(),
		"user_id": userID,
		"title":   title,
	}

	var conv chatdomain.Conversation
	if err := c.writeRow(ctx, http.MethodPost, "conversation", "", "conversations", data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) UpdateConversationTitle(ctx context.Context, userID, conversationID, title string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateConversationTitle")
	defer span.End()

	path := fmt.Sprintf("conversations?id=%s&user_id=%s", eq(conversationID), eq(userID))
	return c.writeRow(ctx, http.MethodPatch, "conversation", conversationID, path, map[string]any{"title": title}, nil)
}

func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]chatdomain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMessages")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	path := fmt.Sprintf("chat_messages?conversation_id=%s&order=created_at.asc,id.asc", eq(conversationID))
	var rows []chatdomain.ChatMessage
	if err := c.getRows(ctx, "chat_messages", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) AddMessage(ctx context.Context, msg *chatdomain.ChatMessage) (*chatdomain.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AddMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", msg.ConversationID),
		attribute.String("sender", string(msg.SenderType)),
	)

	data := map[string]any{
		"conversation_id": msg.ConversationID,
		"sender_type":     msg.SenderType,
		"content":         msg.Content,
	}
	if msg.UserID != "" {
		data["user_id"] = msg.UserID
	}

	var saved chatdomain.ChatMessage
	if err := c.writeRow(ctx, http.MethodPost, "chat_message", "", "chat_messages", data, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}
