package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	chatdomain "github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/resilience"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/supabase"

	"go.uber.org/zap"
)

func newClient(t *testing.T, handler http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}
	return supabase.NewClient(srv.Client(), srv.URL, "anon-key", "service-key",
		resilience.NewCircuitBreaker("supabase-test", zap.NewNop()), cfg, zap.NewNop())
}

func TestClient_ListCooperadosSendsAuthAndOwnerFilter(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/cooperados" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "eq.user-1" {
			t.Errorf("expected owner filter eq.user-1, got %q", got)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer service-key" {
			t.Errorf("unexpected Authorization %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`[{"id": 1, "user_id": "user-1", "name": "Ana", "tier": "Ouro", "value": 1500.5, "created_at": "2025-01-02T10:00:00Z"}]`))
	})

	rows, err := client.ListCooperados(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Ana" || rows[0].Tier != domain.TierOuro || rows[0].Value != 1500.5 {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestClient_GetCooperadoNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.GetCooperado(context.Background(), "user-1", 7)

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if nf.ID != "7" {
		t.Errorf("expected id 7, got %s", nf.ID)
	}
}

func TestClient_GetCooperadoSortsTimeline(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 7, "name": "Ana", "interacoes": [
			{"id": 1, "type": "call", "title": "old", "date": "2025-01-01T00:00:00Z"},
			{"id": 2, "type": "note", "title": "new", "date": "2025-03-01T00:00:00Z"}
		]}]`))
	})

	c, err := client.GetCooperado(context.Background(), "user-1", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Interacoes) != 2 || c.Interacoes[0].Title != "new" {
		t.Errorf("expected newest interaction first, got %+v", c.Interacoes)
	}
}

func TestClient_CreateStampsOwner(t *testing.T) {
	var body map[string]any
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("expected return=representation")
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id": 10, "user_id": "user-1", "name": "Nova"}]`))
	})

	c, err := client.CreateCooperado(context.Background(), "user-1", map[string]any{"name": "Nova"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != 10 {
		t.Errorf("expected id 10, got %d", c.ID)
	}
	if body["user_id"] != "user-1" || body["name"] != "Nova" {
		t.Errorf("unexpected payload %v", body)
	}
}

func TestClient_UpdateMatchingNothingIsNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.UpdateTarefa(context.Background(), "user-1", 3, map[string]any{"completed": true})

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_DeleteOwnedRow(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`[{"id": 3}]`))
	})

	if err := client.DeleteProduto(context.Background(), "user-1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_PostgRESTErrorsMapToDomain(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"conflict", http.StatusConflict, `{"code":"23505","message":"duplicate key"}`, func(err error) bool {
			var e *domain.ErrConflict
			return errors.As(err, &e)
		}},
		{"foreign key", http.StatusBadRequest, `{"code":"23503","message":"violates foreign key"}`, func(err error) bool {
			var e *domain.ErrValidation
			return errors.As(err, &e)
		}},
		{"bad request", http.StatusBadRequest, `{"code":"22P02","message":"invalid input value for enum"}`, func(err error) bool {
			var e *domain.ErrValidation
			return errors.As(err, &e)
		}},
		{"server error", http.StatusInternalServerError, `oops`, func(err error) bool {
			var e *domain.ErrExternalService
			return errors.As(err, &e)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.CreateOportunidade(context.Background(), "user-1", map[string]any{"title": "x"})
			if !tt.check(err) {
				t.Errorf("unexpected error type: %T %v", err, err)
			}
		})
	}
}

func TestClient_ReadsRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListTarefas(context.Background(), "user-1")

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClient_ReadsDoNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, _ = client.ListProdutos(context.Background(), "user-1")

	if calls.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", calls.Load())
	}
}

func TestClient_GetOportunidadeScopedToOwner(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/rest/v1/oportunidades" || q.Get("id") != "eq.21" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if q.Get("user_id") == "eq.user-1" {
			_, _ = w.Write([]byte(`[{"id": 21, "user_id": "user-1", "title": "Crédito rural", "stage": "Proposta"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	op, err := client.GetOportunidade(context.Background(), "user-1", 21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Stage != domain.StageProposta {
		t.Errorf("unexpected oportunidade: %+v", op)
	}

	_, err = client.GetOportunidade(context.Background(), "user-2", 21)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}
}

func TestClient_ClientErrorsDoNotOpenBreaker(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"22P02","message":"invalid input syntax for type uuid"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	for i := 0; i < 5; i++ {
		_, err := client.GetConversation(context.Background(), "user-1", "bad")
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Fatalf("call %d: expected validation error, got %v", i, err)
		}
	}

	if _, err := client.ListCooperados(context.Background(), "user-2"); err != nil {
		t.Fatalf("expected healthy read for another user, got %v", err)
	}
}

func TestClient_AddAIMessageOmitsUser(t *testing.T) {
	var body map[string]any
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`[{"id": 5, "conversation_id": "c1", "sender_type": "ai", "content": "olá"}]`))
	})

	msg, err := client.AddMessage(context.Background(), &chatdomain.ChatMessage{ConversationID: "c1", SenderType: chatdomain.SenderAI, Content: "olá"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ID != 5 {
		t.Errorf("expected id 5, got %d", msg.ID)
	}
	if _, ok := body["user_id"]; ok {
		t.Error("ai messages must not carry user_id")
	}
}

func TestClient_ListOverdueTarefas(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("completed") != "eq.false" || q.Get("due_date") != "lt.2025-06-15" {
			t.Errorf("unexpected filters %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"id": 1, "user_id": "a", "title": "x", "due_date": "2025-06-01"}]`))
	})

	rows, err := client.ListOverdueTarefas(context.Background(), "2025-06-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(rows))
	}
}

func TestClient_Ping(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/profiles" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[]`))
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
