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
// Oportunidades store: pipeline with the member embedded
// ============================================================

const oportunidadeSelect = "select=*,cooperados(*)"

func (c *Client) ListOportunidades(ctx context.Context, userID string) ([]domain.Oportunidade, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOportunidades")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("oportunidades?user_id=%s&%s&order=created_at.desc", eq(userID), oportunidadeSelect)
	var rows []domain.Oportunidade
	if err := c.getRows(ctx, "oportunidades", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetOportunidade(ctx context.Context, userID string, id int64) (*domain.Oportunidade, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetOportunidade")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("oportunidade.id", id))

	path := fmt.Sprintf("oportunidades?id=%s&user_id=%s&%s&limit=1", eq(id), eq(userID), oportunidadeSelect)
	var rows []domain.Oportunidade
	if err := c.getRows(ctx, "oportunidades", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "oportunidade", ID: strconv.FormatInt(id, 10)}
	}
	return &rows[0], nil
}

func (c *Client) CreateOportunidade(ctx context.Context, userID string, row map[string]any) (*domain.Oportunidade, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateOportunidade")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var op domain.Oportunidade
	path := "oportunidades?" + oportunidadeSelect
	if err := c.writeRow(ctx, http.MethodPost, "oportunidade", "", path, withOwner(row, "user_id", userID), &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func (c *Client) UpdateOportunidade(ctx context.Context, userID string, id int64, row map[string]any) (*domain.Oportunidade, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateOportunidade")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("oportunidade.id", id))

	path := fmt.Sprintf("oportunidades?id=%s&user_id=%s&%s", eq(id), eq(userID), oportunidadeSelect)
	var op domain.Oportunidade
	if err := c.writeRow(ctx, http.MethodPatch, "oportunidade", strconv.FormatInt(id, 10), path, row, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func (c *Client) UpdateOportunidadeStage(ctx context.Context, userID string, id int64, stage domain.Stage) (*domain.Oportunidade, error) {
	return c.UpdateOportunidade(ctx, userID, id, map[string]any{"stage": stage})
}

func (c *Client) DeleteOportunidade(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteOportunidade")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("oportunidade.id", id))

	path := fmt.Sprintf("oportunidades?id=%s&user_id=%s", eq(id), eq(userID))
	return c.writeRow(ctx, http.MethodDelete, "oportunidade", strconv.FormatInt(id, 10), path, nil, nil)
}
