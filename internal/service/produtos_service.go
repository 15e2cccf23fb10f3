package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"

	"go.uber.org/zap"
)

// ProdutoService manages the product catalog.
type ProdutoService struct {
	store  port.ProdutoStore
	logger *zap.Logger
}

func NewProdutoService(store port.ProdutoStore, logger *zap.Logger) *ProdutoService {
	return &ProdutoService{store: store, logger: logger}
}

// List filters by text (name or description), category and status
// (Todos, Ativos, Inativos).
func (s *ProdutoService) List(ctx context.Context, userID, q, category, status string) ([]domain.Produto, error) {
	ctx, span := tracer.Start(ctx, "ProdutoService.List")
	defer span.End()

	var wantActive *bool
	switch {
	case isAll(status, domain.FilterAll):
	case strings.EqualFold(status, domain.FilterAtivos):
		v := true
		wantActive = &v
	case strings.EqualFold(status, domain.FilterInativos):
		v := false
		wantActive = &v
	default:
		return nil, &domain.ErrValidation{Field: "status", Message: "must be one of Todos, Ativos, Inativos"}
	}
	allCategories := isAll(category, domain.FilterAll)

	rows, err := s.store.ListProdutos(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list produtos: %w", err)
	}

	out := make([]domain.Produto, 0, len(rows))
	for i := range rows {
		p := &rows[i]
		if !allCategories && p.Category != category {
			continue
		}
		if wantActive != nil && p.Active != *wantActive {
			continue
		}
		if !p.Matches(q) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// Categories returns the distinct non-empty categories sorted, prefixed by "Todos".
func (s *ProdutoService) Categories(ctx context.Context, userID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "ProdutoService.Categories")
	defer span.End()

	rows, err := s.store.ListProdutos(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list produtos: %w", err)
	}

	seen := make(map[string]struct{})
	cats := make([]string, 0)
	for _, p := range rows {
		c := strings.TrimSpace(p.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return append([]string{domain.FilterAll}, cats...), nil
}

func (s *ProdutoService) Get(ctx context.Context, userID string, id int64) (*domain.Produto, error) {
	ctx, span := tracer.Start(ctx, "ProdutoService.Get")
	defer span.End()

	p, err := s.store.GetProduto(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get produto: %w", err)
	}
	return p, nil
}

func (s *ProdutoService) Create(ctx context.Context, userID string, in *domain.ProdutoInput) (*domain.Produto, error) {
	ctx, span := tracer.Start(ctx, "ProdutoService.Create")
	defer span.End()

	if err := in.Validate(true); err != nil {
		return nil, err
	}
	p, err := s.store.CreateProduto(ctx, userID, in.Row())
	if err != nil {
		return nil, fmt.Errorf("create produto: %w", err)
	}
	s.logger.Info("produto created", zap.String("user_id", userID), zap.Int64("produto_id", p.ID))
	return p, nil
}

func (s *ProdutoService) Update(ctx context.Context, userID string, id int64, in *domain.ProdutoInput) (*domain.Produto, error) {
	ctx, span := tracer.Start(ctx, "ProdutoService.Update")
	defer span.End()

	if err := in.Validate(false); err != nil {
		return nil, err
	}
	row := in.Row()
	if err := noFields(row); err != nil {
		return nil, err
	}
	p, err := s.store.UpdateProduto(ctx, userID, id, row)
	if err != nil {
		return nil, fmt.Errorf("update produto: %w", err)
	}
	return p, nil
}

func (s *ProdutoService) Delete(ctx context.Context, userID string, id int64) error {
	ctx, span := tracer.Start(ctx, "ProdutoService.Delete")
	defer span.End()

	if err := s.store.DeleteProduto(ctx, userID, id); err != nil {
		return fmt.Errorf("delete produto: %w", err)
	}
	return nil
}
