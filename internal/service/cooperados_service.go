package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CooperadoService manages members and their detail view.
type CooperadoService struct {
	store  port.CooperadoStore
	cache  port.Cache[any]
	logger *zap.Logger
}

func NewCooperadoService(store port.CooperadoStore, cache port.Cache[any], logger *zap.Logger) *CooperadoService {
	return &CooperadoService{store: store, cache: cache, logger: logger}
}

// List returns the caller's members filtered by free text and tier.
func (s *CooperadoService) List(ctx context.Context, userID, q, tier string) ([]domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "CooperadoService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	allTiers := isAll(tier, domain.FilterAll)
	if !allTiers && !domain.Tier(tier).Valid() {
		return nil, &domain.ErrValidation{Field: "tier", Message: "unknown tier " + tier}
	}

	rows, err := s.store.ListCooperados(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cooperados: %w", err)
	}

	out := make([]domain.Cooperado, 0, len(rows))
	for i := range rows {
		c := &rows[i]
		if !allTiers && string(c.Tier) != tier {
			continue
		}
		if !c.Matches(q) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

// Get returns the member with its timeline newest first, filtered by q and type.
func (s *CooperadoService) Get(ctx context.Context, userID string, id int64, q, typ string) (*domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "CooperadoService.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("cooperado.id", id))

	c, err := s.store.GetCooperado(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get cooperado: %w", err)
	}
	timeline, err := filterTimeline(c.Interacoes, q, typ)
	if err != nil {
		return nil, err
	}
	c.Interacoes = timeline
	return c, nil
}

func (s *CooperadoService) Create(ctx context.Context, userID string, in *domain.CooperadoInput) (*domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "CooperadoService.Create")
	defer span.End()

	if err := in.Validate(true); err != nil {
		return nil, err
	}
	c, err := s.store.CreateCooperado(ctx, userID, in.Row())
	if err != nil {
		return nil, fmt.Errorf("create cooperado: %w", err)
	}
	invalidateUser(s.cache, userID)

	s.logger.Info("cooperado created",
		zap.String("user_id", userID),
		zap.Int64("cooperado_id", c.ID),
	)
	return c, nil
}

func (s *CooperadoService) Update(ctx context.Context, userID string, id int64, in *domain.CooperadoInput) (*domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "CooperadoService.Update")
	defer span.End()

	if err := in.Validate(false); err != nil {
		return nil, err
	}
	row := in.Row()
	if err := noFields(row); err != nil {
		return nil, err
	}
	c, err := s.store.UpdateCooperado(ctx, userID, id, row)
	if err != nil {
		return nil, fmt.Errorf("update cooperado: %w", err)
	}
	invalidateUser(s.cache, userID)
	return c, nil
}

func (s *CooperadoService) Delete(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "CooperadoService.Delete")
	defer span.End()

	if err := s.store.DeleteCooperado(ctx, userID, id); err != nil {
		return fmt.Errorf("delete cooperado: %w", err)
	}
	invalidateUser(s.cache, userID)

	s.logger.Info("cooperado deleted",
		zap.String("user_id", userID),
		zap.Int64("cooperado_id", id),
	)
	return nil
}

// filterTimeline sorts newest first and applies the text and type filters.
func filterTimeline(items []domain.Interacao, q, typ string) ([]domain.Interacao, error) {
	allTypes := isAll(typ, domain.FilterAllTypes, domain.FilterAll)
	if !allTypes && !domain.InteractionType(typ).Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "unknown interaction type " + typ}
	}

	out := make([]domain.Interacao, 0, len(items))
	for i := range items {
		it := &items[i]
		if !allTypes && string(it.Type) != typ {
			continue
		}
		if !it.Matches(q) {
			continue
		}
		out = append(out, *it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}
