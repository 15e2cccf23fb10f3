package service_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/cache"
)

// --- Mocks ---

// fakeStore is an in-memory stand-in for every CRM store port, scoped by user
// the way the PostgREST filters are.
type fakeStore struct {
	mu sync.Mutex

	cooperados    []domain.Cooperado
	interacoes    []domain.Interacao
	oportunidades []domain.Oportunidade
	produtos      []domain.Produto
	tarefas       []domain.Tarefa
	profiles      map[string]*domain.Profile

	err     error // returned by every call when set
	nextID  int64
	lastRow map[string]any
	calls   map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 100, calls: map[string]int{}, profiles: map[string]*domain.Profile{}}
}

func (f *fakeStore) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.err
}

func (f *fakeStore) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func notFound(resource string, id int64) error {
	return &domain.ErrNotFound{Resource: resource, ID: strconv.FormatInt(id, 10)}
}

// --- cooperados ---

func (f *fakeStore) ListCooperados(_ context.Context, userID string) ([]domain.Cooperado, error) {
	if err := f.hit("ListCooperados"); err != nil {
		return nil, err
	}
	var out []domain.Cooperado
	for _, c := range f.cooperados {
		if c.UserID == userID {
			c.Interacoes = nil
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCooperadosWithInteracoes(_ context.Context, userID string) ([]domain.Cooperado, error) {
	if err := f.hit("ListCooperadosWithInteracoes"); err != nil {
		return nil, err
	}
	var out []domain.Cooperado
	for _, c := range f.cooperados {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetCooperado(_ context.Context, userID string, id int64) (*domain.Cooperado, error) {
	if err := f.hit("GetCooperado"); err != nil {
		return nil, err
	}
	for _, c := range f.cooperados {
		if c.ID == id && c.UserID == userID {
			c := c
			return &c, nil
		}
	}
	return nil, notFound("cooperado", id)
}

func (f *fakeStore) CreateCooperado(_ context.Context, userID string, row map[string]any) (*domain.Cooperado, error) {
	if err := f.hit("CreateCooperado"); err != nil {
		return nil, err
	}
	f.lastRow = row
	f.nextID++
	name, _ := row["name"].(string)
	c := domain.Cooperado{ID: f.nextID, UserID: userID, Name: name, CreatedAt: time.Now()}
	f.cooperados = append(f.cooperados, c)
	return &c, nil
}

func (f *fakeStore) UpdateCooperado(_ context.Context, userID string, id int64, row map[string]any) (*domain.Cooperado, error) {
	if err := f.hit("UpdateCooperado"); err != nil {
		return nil, err
	}
	f.lastRow = row
	for i := range f.cooperados {
		if f.cooperados[i].ID == id && f.cooperados[i].UserID == userID {
			if name, ok := row["name"].(string); ok {
				f.cooperados[i].Name = name
			}
			c := f.cooperados[i]
			return &c, nil
		}
	}
	return nil, notFound("cooperado", id)
}

func (f *fakeStore) DeleteCooperado(_ context.Context, userID string, id int64) error {
	if err := f.hit("DeleteCooperado"); err != nil {
		return err
	}
	for i := range f.cooperados {
		if f.cooperados[i].ID == id && f.cooperados[i].UserID == userID {
			f.cooperados = append(f.cooperados[:i], f.cooperados[i+1:]...)
			return nil
		}
	}
	return notFound("cooperado", id)
}

// --- interacoes ---

func (f *fakeStore) ListInteracoes(_ context.Context, cooperadoID int64) ([]domain.Interacao, error) {
	if err := f.hit("ListInteracoes"); err != nil {
		return nil, err
	}
	var out []domain.Interacao
	for _, it := range f.interacoes {
		if it.CooperadoID == cooperadoID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateInteracao(_ context.Context, authorID string, cooperadoID int64, row map[string]any) (*domain.Interacao, error) {
	if err := f.hit("CreateInteracao"); err != nil {
		return nil, err
	}
	f.lastRow = row
	f.nextID++
	it := domain.Interacao{ID: f.nextID, CooperadoID: cooperadoID, AuthorID: authorID}
	if title, ok := row["title"].(string); ok {
		it.Title = title
	}
	f.interacoes = append(f.interacoes, it)
	return &it, nil
}

func (f *fakeStore) UpdateInteracao(_ context.Context, authorID string, id int64, row map[string]any) (*domain.Interacao, error) {
	if err := f.hit("UpdateInteracao"); err != nil {
		return nil, err
	}
	f.lastRow = row
	for _, it := range f.interacoes {
		if it.ID == id && it.AuthorID == authorID {
			it := it
			return &it, nil
		}
	}
	return nil, notFound("interacao", id)
}

func (f *fakeStore) DeleteInteracao(_ context.Context, authorID string, id int64) error {
	if err := f.hit("DeleteInteracao"); err != nil {
		return err
	}
	for _, it := range f.interacoes {
		if it.ID == id && it.AuthorID == authorID {
			return nil
		}
	}
	return notFound("interacao", id)
}

// --- oportunidades ---

func (f *fakeStore) ListOportunidades(_ context.Context, userID string) ([]domain.Oportunidade, error) {
	if err := f.hit("ListOportunidades"); err != nil {
		return nil, err
	}
	var out []domain.Oportunidade
	for _, o := range f.oportunidades {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) GetOportunidade(_ context.Context, userID string, id int64) (*domain.Oportunidade, error) {
	if err := f.hit("GetOportunidade"); err != nil {
		return nil, err
	}
	for _, o := range f.oportunidades {
		if o.ID == id && o.UserID == userID {
			o := o
			return &o, nil
		}
	}
	return nil, notFound("oportunidade", id)
}

func (f *fakeStore) CreateOportunidade(_ context.Context, userID string, row map[string]any) (*domain.Oportunidade, error) {
	if err := f.hit("CreateOportunidade"); err != nil {
		return nil, err
	}
	f.lastRow = row
	f.nextID++
	o := domain.Oportunidade{ID: f.nextID, UserID: userID}
	if st, ok := row["stage"].(domain.Stage); ok {
		o.Stage = st
	}
	f.oportunidades = append(f.oportunidades, o)
	return &o, nil
}

func (f *fakeStore) UpdateOportunidade(_ context.Context, userID string, id int64, row map[string]any) (*domain.Oportunidade, error) {
	if err := f.hit("UpdateOportunidade"); err != nil {
		return nil, err
	}
	f.lastRow = row
	for _, o := range f.oportunidades {
		if o.ID == id && o.UserID == userID {
			o := o
			return &o, nil
		}
	}
	return nil, notFound("oportunidade", id)
}

func (f *fakeStore) UpdateOportunidadeStage(_ context.Context, userID string, id int64, stage domain.Stage) (*domain.Oportunidade, error) {
	if err := f.hit("UpdateOportunidadeStage"); err != nil {
		return nil, err
	}
	for i := range f.oportunidades {
		if f.oportunidades[i].ID == id && f.oportunidades[i].UserID == userID {
			f.oportunidades[i].Stage = stage
			o := f.oportunidades[i]
			return &o, nil
		}
	}
	return nil, notFound("oportunidade", id)
}

func (f *fakeStore) DeleteOportunidade(_ context.Context, userID string, id int64) error {
	if err := f.hit("DeleteOportunidade"); err != nil {
		return err
	}
	return nil
}

// --- produtos ---

func (f *fakeStore) ListProdutos(_ context.Context, userID string) ([]domain.Produto, error) {
	if err := f.hit("ListProdutos"); err != nil {
		return nil, err
	}
	var out []domain.Produto
	for _, p := range f.produtos {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetProduto(_ context.Context, userID string, id int64) (*domain.Produto, error) {
	if err := f.hit("GetProduto"); err != nil {
		return nil, err
	}
	for _, p := range f.produtos {
		if p.ID == id && p.UserID == userID {
			p := p
			return &p, nil
		}
	}
	return nil, notFound("produto", id)
}

func (f *fakeStore) CreateProduto(_ context.Context, userID string, row map[string]any) (*domain.Produto, error) {
	if err := f.hit("CreateProduto"); err != nil {
		return nil, err
	}
	f.lastRow = row
	f.nextID++
	p := domain.Produto{ID: f.nextID, UserID: userID, Active: true}
	return &p, nil
}

func (f *fakeStore) UpdateProduto(_ context.Context, userID string, id int64, row map[string]any) (*domain.Produto, error) {
	if err := f.hit("UpdateProduto"); err != nil {
		return nil, err
	}
	f.lastRow = row
	return &domain.Produto{ID: id, UserID: userID}, nil
}

func (f *fakeStore) DeleteProduto(_ context.Context, _ string, _ int64) error {
	return f.hit("DeleteProduto")
}

// --- tarefas ---

func (f *fakeStore) ListTarefas(_ context.Context, userID string) ([]domain.Tarefa, error) {
	if err := f.hit("ListTarefas"); err != nil {
		return nil, err
	}
	var out []domain.Tarefa
	for _, t := range f.tarefas {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTarefa(_ context.Context, userID string, row map[string]any) (*domain.Tarefa, error) {
	if err := f.hit("CreateTarefa"); err != nil {
		return nil, err
	}
	f.lastRow = row
	f.nextID++
	t := domain.Tarefa{ID: f.nextID, UserID: userID}
	if due, ok := row["due_date"].(string); ok {
		t.DueDate = due
	}
	return &t, nil
}

func (f *fakeStore) UpdateTarefa(_ context.Context, userID string, id int64, row map[string]any) (*domain.Tarefa, error) {
	if err := f.hit("UpdateTarefa"); err != nil {
		return nil, err
	}
	f.lastRow = row
	for i := range f.tarefas {
		if f.tarefas[i].ID == id && f.tarefas[i].UserID == userID {
			if v, ok := row["completed"].(bool); ok {
				f.tarefas[i].Completed = v
			}
			t := f.tarefas[i]
			return &t, nil
		}
	}
	return nil, notFound("tarefa", id)
}

func (f *fakeStore) DeleteTarefa(_ context.Context, _ string, _ int64) error {
	return f.hit("DeleteTarefa")
}

func (f *fakeStore) ListOverdueTarefas(_ context.Context, before string) ([]domain.Tarefa, error) {
	if err := f.hit("ListOverdueTarefas"); err != nil {
		return nil, err
	}
	var out []domain.Tarefa
	for _, t := range f.tarefas {
		if !t.Completed && t.DueDate != "" && t.DueDate < before {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- profiles ---

func (f *fakeStore) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	if err := f.hit("GetProfile"); err != nil {
		return nil, err
	}
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
}

// --- helpers ---

func newCache(t *testing.T) *cache.InMemory[any] {
	t.Helper()
	c := cache.New[any](time.Minute)
	t.Cleanup(c.Close)
	return c
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func ptr[T any](v T) *T { return &v }
