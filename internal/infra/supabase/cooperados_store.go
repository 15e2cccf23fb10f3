package supabase

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Cooperados store: list, detail with timeline, create, update, delete
// ============================================================

func (c *Client) ListCooperados(ctx context.Context, userID string) ([]domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCooperados")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("cooperados?user_id=%s&select=*&order=name.asc", eq(userID))
	var rows []domain.Cooperado
	if err := c.getRows(ctx, "cooperados", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCooperadosWithInteracoes embeds each member's timeline; used by the
// chat context and the churn analysis.
func (c *Client) ListCooperadosWithInteracoes(ctx context.Context, userID string) ([]domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCooperadosWithInteracoes")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("cooperados?user_id=%s&select=*,interacoes(*)&order=name.asc&interacoes.order=date.desc", eq(userID))
	var rows []domain.Cooperado
	if err := c.getRows(ctx, "cooperados", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetCooperado(ctx context.Context, userID string, id int64) (*domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCooperado")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("cooperado.id", id))

	path := fmt.Sprintf("cooperados?id=%s&user_id=%s&select=*,interacoes(*)&interacoes.order=date.desc&limit=1", eq(id), eq(userID))
	var rows []domain.Cooperado
	if err := c.getRows(ctx, "cooperados", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "cooperado", ID: strconv.FormatInt(id, 10)}
	}

	coop := &rows[0]
	sort.SliceStable(coop.Interacoes, func(i, j int) bool {
		return coop.Interacoes[i].Date.After(coop.Interacoes[j].Date)
	})
	return coop, nil
}

func (c *Client) CreateCooperado(ctx context.Context, userID string, row map[string]any) (*domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCooperado")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var coop domain.Cooperado
	if err := c.writeRow(ctx, http.MethodPost, "cooperado", "", "cooperados", withOwner(row, "user_id", userID), &coop); err != nil {
		return nil, err
	}
	return &coop, nil
}

func (c *Client) UpdateCooperado(ctx context.Context, userID string, id int64, row map[string]any) (*domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCooperado")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("cooperado.id", id))

	path := fmt.Sprintf("cooperados?id=%s&user_id=%s", eq(id), eq(userID))
	var coop domain.Cooperado
	if err := c.writeRow(ctx, http.MethodPatch, "cooperado", strconv.FormatInt(id, 10), path, row, &coop); err != nil {
		return nil, err
	}
	return &coop, nil
}

func (c *Client) DeleteCooperado(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCooperado")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("cooperado.id", id))

	path := fmt.Sprintf("cooperados?id=%s&user_id=%s", eq(id), eq(userID))
	return c.writeRow(ctx, http.MethodDelete, "cooperado", strconv.FormatInt(id, 10), path, nil, nil)
}

// withOwner copies row and stamps the ownership column.
func withOwner(row map[string]any, col, owner string) map[string]any {
	out := make(map[string]any, len(row)+1)
	for k, v := range row {
		out[k] = v
	}
	out[col] = owner
	return out
}
