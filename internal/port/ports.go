// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string)
}

// Rows passed to Create*/Update* come from the domain input types and never
// carry id, user_id or created_at; the store sets ownership itself.

// CooperadoStore persists members.
type CooperadoStore interface {
	ListCooperados(ctx context.Context, userID string) ([]domain.Cooperado, error)
	ListCooperadosWithInteracoes(ctx context.Context, userID string) ([]domain.Cooperado, error)
	GetCooperado(ctx context.Context, userID string, id int64) (*domain.Cooperado, error)
	CreateCooperado(ctx context.Context, userID string, row map[string]any) (*domain.Cooperado, error)
	UpdateCooperado(ctx context.Context, userID string, id int64, row map[string]any) (*domain.Cooperado, error)
	DeleteCooperado(ctx context.Context, userID string, id int64) error
}

// InteracaoStore persists member timeline entries. Writes are scoped by author.
type InteracaoStore interface {
	ListInteracoes(ctx context.Context, cooperadoID int64) ([]domain.Interacao, error)
	CreateInteracao(ctx context.Context, authorID string, cooperadoID int64, row map[string]any) (*domain.Interacao, error)
	UpdateInteracao(ctx context.Context, authorID string, id int64, row map[string]any) (*domain.Interacao, error)
	DeleteInteracao(ctx context.Context, authorID string, id int64) error
}

// OportunidadeStore persists pipeline opportunities (listed with the member embedded).
type OportunidadeStore interface {
	ListOportunidades(ctx context.Context, userID string) ([]domain.Oportunidade, error)
	GetOportunidade(ctx context.Context, userID string, id int64) (*domain.Oportunidade, error)
	CreateOportunidade(ctx context.Context, userID string, row map[string]any) (*domain.Oportunidade, error)
	UpdateOportunidade(ctx context.Context, userID string, id int64, row map[string]any) (*domain.Oportunidade, error)
	UpdateOportunidadeStage(ctx context.Context, userID string, id int64, stage domain.Stage) (*domain.Oportunidade, error)
	DeleteOportunidade(ctx context.Context, userID string, id int64) error
}

// ProdutoStore persists the product catalog.
type ProdutoStore interface {
	ListProdutos(ctx context.Context, userID string) ([]domain.Produto, error)
	GetProduto(ctx context.Context, userID string, id int64) (*domain.Produto, error)
	CreateProduto(ctx context.Context, userID string, row map[string]any) (*domain.Produto, error)
	UpdateProduto(ctx context.Context, userID string, id int64, row map[string]any) (*domain.Produto, error)
	DeleteProduto(ctx context.Context, userID string, id int64) error
}

// TarefaStore persists tasks.
type TarefaStore interface {
	ListTarefas(ctx context.Context, userID string) ([]domain.Tarefa, error)
	CreateTarefa(ctx context.Context, userID string, row map[string]any) (*domain.Tarefa, error)
	UpdateTarefa(ctx context.Context, userID string, id int64, row map[string]any) (*domain.Tarefa, error)
	DeleteTarefa(ctx context.Context, userID string, id int64) error

	// ListOverdueTarefas returns pending tasks due before the given day (YYYY-MM-DD) for every user.
	ListOverdueTarefas(ctx context.Context, before string) ([]domain.Tarefa, error)
}

// ProfileStore reads user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// HealthChecker probes the backing store.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
