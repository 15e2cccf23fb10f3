package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"

	"go.uber.org/zap"
)

// TarefaService manages tasks.
type TarefaService struct {
	store         port.TarefaStore
	cooperados    port.CooperadoStore
	oportunidades port.OportunidadeStore
	cache         port.Cache[any]
	now           Clock
	logger        *zap.Logger
}

func NewTarefaService(store port.TarefaStore, cooperados port.CooperadoStore, oportunidades port.OportunidadeStore, cache port.Cache[any], now Clock, logger *zap.Logger) *TarefaService {
	if now == nil {
		now = time.Now
	}
	return &TarefaService{store: store, cooperados: cooperados, oportunidades: oportunidades, cache: cache, now: now, logger: logger}
}

// List returns pending tasks first, then completed ones, keeping store order
// inside each group. Each task carries the overdue flag.
func (s *TarefaService) List(ctx context.Context, userID, status string) ([]domain.Tarefa, error) {
	ctx, span := tracer.Start(ctx, "TarefaService.List")
	defer span.End()

	var wantCompleted *bool
	switch {
	case isAll(status, domain.FilterAll, domain.FilterAllTypes):
	case strings.EqualFold(status, domain.FilterPending):
		v := false
		wantCompleted = &v
	case strings.EqualFold(status, domain.FilterCompleted):
		v := true
		wantCompleted = &v
	default:
		return nil, &domain.ErrValidation{Field: "status", Message: "must be pending or completed"}
	}

	rows, err := s.store.ListTarefas(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tarefas: %w", err)
	}

	now := s.now()
	out := make([]domain.Tarefa, 0, len(rows))
	for i := range rows {
		t := rows[i]
		if wantCompleted != nil && t.Completed != *wantCompleted {
			continue
		}
		t.Overdue = t.IsOverdue(now)
		out = append(out, t)
	}
	sortPendingFirst(out)
	return out, nil
}

func sortPendingFirst(ts []domain.Tarefa) {
	sort.SliceStable(ts, func(i, j int) bool {
		return !ts[i].Completed && ts[j].Completed
	})
}

func (s *TarefaService) Create(ctx context.Context, userID string, in *domain.TarefaInput) (*domain.Tarefa, error) {
	ctx, span := tracer.Start(ctx, "TarefaService.Create")
	defer span.End()

	if err := in.Validate(true); err != nil {
		return nil, err
	}
	if in.Priority == nil {
		p := domain.PriorityMedia
		in.Priority = &p
	}
	if err := s.checkLinks(ctx, userID, in); err != nil {
		return nil, err
	}

	t, err := s.store.CreateTarefa(ctx, userID, in.Row())
	if err != nil {
		return nil, fmt.Errorf("create tarefa: %w", err)
	}
	t.Overdue = t.IsOverdue(s.now())
	invalidateUser(s.cache, userID)

	s.logger.Info("tarefa created", zap.String("user_id", userID), zap.Int64("tarefa_id", t.ID))
	return t, nil
}

func (s *TarefaService) Update(ctx context.Context, userID string, id int64, in *domain.TarefaInput) (*domain.Tarefa, error) {
	ctx, span := tracer.Start(ctx, "TarefaService.Update")
	defer span.End()

	if err := in.Validate(false); err != nil {
		return nil, err
	}
	row := in.Row()
	if err := noFields(row); err != nil {
		return nil, err
	}
	if err := s.checkLinks(ctx, userID, in); err != nil {
		return nil, err
	}
	t, err := s.store.UpdateTarefa(ctx, userID, id, row)
	if err != nil {
		return nil, fmt.Errorf("update tarefa: %w", err)
	}
	t.Overdue = t.IsOverdue(s.now())
	invalidateUser(s.cache, userID)
	return t, nil
}

// SetCompleted toggles completion (PATCH .../complete).
func (s *TarefaService) SetCompleted(ctx context.Context, userID string, id int64, completed bool) (*domain.Tarefa, error) {
	ctx, span := tracer.Start(ctx, "TarefaService.SetCompleted")
	defer span.End()

	t, err := s.store.UpdateTarefa(ctx, userID, id, map[string]any{"completed": completed})
	if err != nil {
		return nil, fmt.Errorf("complete tarefa: %w", err)
	}
	t.Overdue = t.IsOverdue(s.now())
	invalidateUser(s.cache, userID)
	return t, nil
}

func (s *TarefaService) Delete(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "TarefaService.Delete")
	defer span.End()

	if err := s.store.DeleteTarefa(ctx, userID, id); err != nil {
		return fmt.Errorf("delete tarefa: %w", err)
	}
	invalidateUser(s.cache, userID)
	return nil
}

// checkLinks makes sure the linked member and opportunity belong to the caller.
func (s *TarefaService) checkLinks(ctx context.Context, userID string, in *domain.TarefaInput) error {
	if in.CooperadoID != nil {
		if _, err := s.cooperados.GetCooperado(ctx, userID, *in.CooperadoID); err != nil {
			return fmt.Errorf("linked cooperado: %w", err)
		}
	}
	if in.OportunidadeID != nil {
		if _, err := s.oportunidades.GetOportunidade(ctx, userID, *in.OportunidadeID); err != nil {
			return fmt.Errorf("linked oportunidade: %w", err)
		}
	}
	return nil
}
