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
// Tarefas store: tasks
// ============================================================

func (c *Client) ListTarefas(ctx context.Context, userID string) ([]domain.Tarefa, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTarefas")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("tarefas?user_id=%s&order=due_date.asc.nullslast,created_at.asc", eq(userID))
	var rows []domain.Tarefa
	if err := c.getRows(ctx, "tarefas", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) CreateTarefa(ctx context.Context, userID string, row map[string]any) (*domain.Tarefa, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTarefa")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	data := withOwner(row, "user_id", userID)
	data["completed"] = false

	var t domain.Tarefa
	if err := c.writeRow(ctx, http.MethodPost, "tarefa", "", "tarefas", data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTarefa(ctx context.Context, userID string, id int64, row map[string]any) (*domain.Tarefa, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTarefa")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("tarefa.id", id))

	path := fmt.Sprintf("tarefas?id=%s&user_id=%s", eq(id), eq(userID))
	var t domain.Tarefa
	if err := c.writeRow(ctx, http.MethodPatch, "tarefa", strconv.FormatInt(id, 10), path, row, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTarefa(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTarefa")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int64("tarefa.id", id))

	path := fmt.Sprintf("tarefas?id=%s&user_id=%s", eq(id), eq(userID))
	return c.writeRow(ctx, http.MethodDelete, "tarefa", strconv.FormatInt(id, 10), path, nil, nil)
}

// ListOverdueTarefas is not scoped by user; only the scheduler calls it.
func (c *Client) ListOverdueTarefas(ctx context.Context, before string) ([]domain.Tarefa, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOverdueTarefas")
	defer span.End()
	span.SetAttributes(attribute.String("before", before))

	path := fmt.Sprintf("tarefas?completed=eq.false&due_date=lt.%s&select=id,user_id,title,due_date,priority,completed", before)
	var rows []domain.Tarefa
	if err := c.getRows(ctx, "tarefas", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
