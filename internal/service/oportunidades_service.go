package service

import (
	"context"
	"fmt"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OportunidadeService manages the sales pipeline and its Kanban board.
type OportunidadeService struct {
	store      port.OportunidadeStore
	cooperados port.CooperadoStore
	cache      port.Cache[any]
	logger     *zap.Logger
}

func NewOportunidadeService(store port.OportunidadeStore, cooperados port.CooperadoStore, cache port.Cache[any], logger *zap.Logger) *OportunidadeService {
	return &OportunidadeService{store: store, cooperados: cooperados, cache: cache, logger: logger}
}

// List returns opportunities whose title or member name contains q.
func (s *OportunidadeService) List(ctx context.Context, userID, q string) ([]domain.Oportunidade, error) {
	ctx, span := tracer.Start(ctx, "OportunidadeService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.store.ListOportunidades(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list oportunidades: %w", err)
	}
	out := make([]domain.Oportunidade, 0, len(rows))
	for i := range rows {
		if rows[i].Matches(q) {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// Board groups the (searched) opportunities into one column per stage, in
// pipeline order. Every stage is present even when empty.
func (s *OportunidadeService) Board(ctx context.Context, userID, q string) ([]domain.BoardColumn, error) {
	ctx, span := tracer.Start(ctx, "OportunidadeService.Board")
	defer span.End()

	ops, err := s.List(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return buildBoard(ops), nil
}

func buildBoard(ops []domain.Oportunidade) []domain.BoardColumn {
	index := make(map[domain.Stage]int, len(domain.Stages))
	board := make([]domain.BoardColumn, len(domain.Stages))
	for i, st := range domain.Stages {
		index[st] = i
		board[i] = domain.BoardColumn{Stage: st, Cards: []domain.Oportunidade{}}
	}
	for _, op := range ops {
		i, ok := index[op.Stage]
		if !ok {
			continue
		}
		col := &board[i]
		col.Cards = append(col.Cards, op)
		col.Count++
		col.Total += op.Value
	}
	return board
}

func (s *OportunidadeService) Create(ctx context.Context, userID string, in *domain.OportunidadeInput) (*domain.Oportunidade, error) {
	ctx, span := tracer.Start(ctx, "OportunidadeService.Create")
	defer span.End()

	if err := in.Validate(true); err != nil {
		return nil, err
	}
	if in.Stage == nil {
		st := domain.StageProspeccao
		in.Stage = &st
	}
	if err := s.checkCooperado(ctx, userID, in.CooperadoID); err != nil {
		return nil, err
	}

	op, err := s.store.CreateOportunidade(ctx, userID, in.Row())
	if err != nil {
		return nil, fmt.Errorf("create oportunidade: %w", err)
	}
	invalidateUser(s.cache, userID)

	s.logger.Info("oportunidade created",
		zap.String("user_id", userID),
		zap.Int64("oportunidade_id", op.ID),
		zap.String("stage", string(op.Stage)),
	)
	return op, nil
}

func (s *OportunidadeService) Update(ctx context.Context, userID string, id int64, in *domain.OportunidadeInput) (*domain.Oportunidade, error) {
	ctx, span := tracer.Start(ctx, "OportunidadeService.Update")
	defer span.End()

	if err := in.Validate(false); err != nil {
		return nil, err
	}
	row := in.Row()
	if err := noFields(row); err != nil {
		return nil, err
	}
	if err := s.checkCooperado(ctx, userID, in.CooperadoID); err != nil {
		return nil, err
	}
	op, err := s.store.UpdateOportunidade(ctx, userID, id, row)
	if err != nil {
		return nil, fmt.Errorf("update oportunidade: %w", err)
	}
	invalidateUser(s.cache, userID)
	return op, nil
}

// MoveStage is the Kanban drag-and-drop.
func (s *OportunidadeService) MoveStage(ctx context.Context, userID string, id int64, stage domain.Stage) (*domain.Oportunidade, error) {
	ctx, span := tracer.Start(ctx, "OportunidadeService.MoveStage")
	defer span.End()
	span.SetAttributes(attribute.Int64("oportunidade.id", id), attribute.String("stage", string(stage)))

	if !stage.Valid() {
		return nil, &domain.ErrValidation{Field: "stage", Message: "unknown pipeline stage"}
	}
	op, err := s.store.UpdateOportunidadeStage(ctx, userID, id, stage)
	if err != nil {
		return nil, fmt.Errorf("move oportunidade: %w", err)
	}
	invalidateUser(s.cache, userID)

	s.logger.Info("oportunidade moved",
		zap.String("user_id", userID),
		zap.Int64("oportunidade_id", id),
		zap.String("stage", string(stage)),
	)
	return op, nil
}

func (s *OportunidadeService) Delete(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "OportunidadeService.Delete")
	defer span.End()

	if err := s.store.DeleteOportunidade(ctx, userID, id); err != nil {
		return fmt.Errorf("delete oportunidade: %w", err)
	}
	invalidateUser(s.cache, userID)
	return nil
}

// checkCooperado makes sure a linked member belongs to the caller.
func (s *OportunidadeService) checkCooperado(ctx context.Context, userID string, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.cooperados.GetCooperado(ctx, userID, *id); err != nil {
		return fmt.Errorf("linked cooperado: %w", err)
	}
	return nil
}
