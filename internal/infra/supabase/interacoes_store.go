package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Interações store: member timeline
// ============================================================

func (c *Client) ListInteracoes(ctx context.Context, cooperadoID int64) ([]domain.Interacao, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInteracoes")
	defer span.End()
	span.SetAttributes(attribute.Int64("cooperado.id", cooperadoID))

	path := fmt.Sprintf("interacoes?cooperado_id=%s&order=date.desc", eq(cooperadoID))
	var rows []domain.Interacao
	if err := c.getRows(ctx, "interacoes", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) CreateInteracao(ctx context.Context, authorID string, cooperadoID int64, row map[string]any) (*domain.Interacao, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInteracao")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", authorID), attribute.Int64("cooperado.id", cooperadoID))

	data := withOwner(row, "author_id", authorID)
	data["cooperado_id"] = cooperadoID

	var it domain.Interacao
	if err := c.writeRow(ctx, http.MethodPost, "interacao", "", "interacoes", data, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (c *Client) UpdateInteracao(ctx context.Context, authorID string, id int64, row map[string]any) (*domain.Interacao, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateInteracao")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", authorID), attribute.Int64("interacao.id", id))

	path := fmt.Sprintf("interacoes?id=%s&author_id=%s", eq(id), eq(authorID))
	var it domain.Interacao
	if err := c.writeRow(ctx, http.MethodPatch, "interacao", strconv.FormatInt(id, 10), path, row, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (c *Client) DeleteInteracao(ctx context.Context, authorID string, id int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteInteracao")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", authorID), attribute.Int64("interacao.id", id))

	path := fmt.Sprintf("interacoes?id=%s&author_id=%s", eq(id), eq(authorID))
	return c.writeRow(ctx, http.MethodDelete, "interacao", strconv.FormatInt(id, 10), path, nil, nil)
}
