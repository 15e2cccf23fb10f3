package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// InteracaoService manages a member's timeline. Reads and creates check that
// the member belongs to the caller; updates and deletes are scoped by author.
type InteracaoService struct {
	cooperados port.CooperadoStore
	store      port.InteracaoStore
	cache      port.Cache[any]
	now        Clock
	logger     *zap.Logger
}

func NewInteracaoService(cooperados port.CooperadoStore, store port.InteracaoStore, cache port.Cache[any], now Clock, logger *zap.Logger) *InteracaoService {
	if now == nil {
		now = time.Now
	}
	return &InteracaoService{cooperados: cooperados, store: store, cache: cache, now: now, logger: logger}
}

func (s *InteracaoService) List(ctx context.Context, userID string, cooperadoID int64, q, typ string) ([]domain.Interacao, error) {
	ctx, span := tracer.Start(ctx, "InteracaoService.List")
	defer span.End()
	span.SetAttributes(attribute.Int64("cooperado.id", cooperadoID))

	if _, err := s.cooperados.GetCooperado(ctx, userID, cooperadoID); err != nil {
		return nil, fmt.Errorf("get cooperado: %w", err)
	}
	items, err := s.store.ListInteracoes(ctx, cooperadoID)
	if err != nil {
		return nil, fmt.Errorf("list interacoes: %w", err)
	}
	return filterTimeline(items, q, typ)
}

// Create records a timeline entry; the caller is the author and the date
// defaults to now.
func (s *InteracaoService) Create(ctx context.Context, userID string, cooperadoID int64, in *domain.InteracaoInput) (*domain.Interacao, error) {
	ctx, span := tracer.Start(ctx, "InteracaoService.Create")
	defer span.End()
	span.SetAttributes(attribute.Int64("cooperado.id", cooperadoID))

	if err := in.Validate(true); err != nil {
		return nil, err
	}
	if in.Date == nil {
		now := s.now()
		in.Date = &now
	}
	if _, err := s.cooperados.GetCooperado(ctx, userID, cooperadoID); err != nil {
		return nil, fmt.Errorf("get cooperado: %w", err)
	}

	it, err := s.store.CreateInteracao(ctx, userID, cooperadoID, in.Row())
	if err != nil {
		return nil, fmt.Errorf("create interacao: %w", err)
	}
	invalidateUser(s.cache, userID)

	s.logger.Info("interacao created",
		zap.String("user_id", userID),
		zap.Int64("cooperado_id", cooperadoID),
		zap.String("type", string(it.Type)),
	)
	return it, nil
}

func (s *InteracaoService) Update(ctx context.Context, userID string, id int64, in *domain.InteracaoInput) (*domain.Interacao, error) {
	ctx, span := tracer.Start(ctx, "InteracaoService.Update")
	defer span.End()

	if err := in.Validate(false); err != nil {
		return nil, err
	}
	row := in.Row()
	if err := noFields(row); err != nil {
		return nil, err
	}
	it, err := s.store.UpdateInteracao(ctx, userID, id, row)
	if err != nil {
		return nil, fmt.Errorf("update interacao: %w", err)
	}
	invalidateUser(s.cache, userID)
	return it, nil
}

func (s *InteracaoService) Delete(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "InteracaoService.Delete")
	defer span.End()

	if err := s.store.DeleteInteracao(ctx, userID, id); err != nil {
		return fmt.Errorf("delete interacao: %w", err)
	}
	invalidateUser(s.cache, userID)
	return nil
}
