package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
)

// ============================================================
// Produtos store: catalog
// ============================================================

func (c *Client) ListProdutos(ctx context.Context, userID string) ([]domain.Produto, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProdutos")
	defer span.End()

	path := fmt.Sprintf("produtos?user_id=%s&order=name.asc", eq(userID))
	var rows []domain.Produto
	if err := c.getRows(ctx, "produtos", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetProduto(ctx context.Context, userID string, id int64) (*domain.Produto, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProduto")
	defer span.End()

	path := fmt.Sprintf("produtos?id=%s&user_id=%s&limit=1", eq(id), eq(userID))
	var rows []domain.Produto
	if err := c.getRows(ctx, "produtos", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "produto", ID: strconv.FormatInt(id, 10)}
	}
	return &rows[0], nil
}

func (c *Client) CreateProduto(ctx context.Context, userID string, row map[string]any) (*domain.Produto, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProduto")
	defer span.End()

	data := withOwner(row, "user_id", userID)
	if _, ok := data["active"]; !ok {
		data["active"] = true
	}

	var p domain.Produto
	if err := c.writeRow(ctx, http.MethodPost, "produto", "", "produtos", data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduto(ctx context.Context, userID string, id int64, row map[string]any) (*domain.Produto, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProduto")
	defer span.End()

	path := fmt.Sprintf("produtos?id=%s&user_id=%s", eq(id), eq(userID))
	var p domain.Produto
	if err := c.writeRow(ctx, http.MethodPatch, "produto", strconv.FormatInt(id, 10), path, row, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduto(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProduto")
	defer span.End()

	path := fmt.Sprintf("produtos?id=%s&user_id=%s", eq(id), eq(userID))
	return c.writeRow(ctx, http.MethodDelete, "produto", strconv.FormatInt(id, 10), path, nil, nil)
}
