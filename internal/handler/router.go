package handler

import (
	"net/http"
	"time"

	chathandler "github.com/gestorcoop/gestorcoop-bff-go/internal/chat/handler"
	chatservice "github.com/gestorcoop/gestorcoop-bff-go/internal/chat/service"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/observability"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps groups everything the router wires into handlers.
type Deps struct {
	Cooperados    *service.CooperadoService
	Interacoes    *service.InteracaoService
	Oportunidades *service.OportunidadeService
	Produtos      *service.ProdutoService
	Tarefas       *service.TarefaService
	Dashboard     *service.DashboardService
	Insights      *service.InsightsService
	Auth          *service.AuthService
	Chat          *chatservice.ChatService

	// Health probes the backing store for /healthz; nil reports only the BFF itself.
	Health port.HealthChecker
	// Sweep reports the last overdue sweep on /readyz; optional.
	Sweep SweepStatus

	Metrics        *observability.Metrics
	AllowedOrigins []string
	Logger         *zap.Logger
}

// SweepStatus is satisfied by service.OverdueSweeper.
type SweepStatus interface {
	LastRun() (time.Time, int)
}

// NewRouter creates the HTTP router with all routes and middleware.
// Every /v1 route except dev login requires a Supabase access token.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Health, logger))
	r.Get("/readyz", readyzHandler(d.Sweep))
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/dev-login", devLoginHandler(d.Auth, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(d.Auth, logger))

			r.Get("/me", meHandler(d.Auth, logger))
			r.Get("/metrics/assistant", assistantMetricsHandler(d.Metrics))

			// Cooperados e timeline
			r.Get("/cooperados", listCooperadosHandler(d.Cooperados, logger))
			r.Post("/cooperados", createCooperadoHandler(d.Cooperados, logger))
			r.Get("/cooperados/{id}", getCooperadoHandler(d.Cooperados, logger))
			r.Put("/cooperados/{id}", updateCooperadoHandler(d.Cooperados, logger))
			r.Delete("/cooperados/{id}", deleteCooperadoHandler(d.Cooperados, logger))
			r.Get("/cooperados/{id}/interacoes", listInteracoesHandler(d.Interacoes, logger))
			r.Post("/cooperados/{id}/interacoes", createInteracaoHandler(d.Interacoes, logger))
			r.Put("/interacoes/{id}", updateInteracaoHandler(d.Interacoes, logger))
			r.Delete("/interacoes/{id}", deleteInteracaoHandler(d.Interacoes, logger))

			// Pipeline
			r.Get("/oportunidades", listOportunidadesHandler(d.Oportunidades, logger))
			r.Get("/oportunidades/board", boardHandler(d.Oportunidades, logger))
			r.Post("/oportunidades", createOportunidadeHandler(d.Oportunidades, logger))
			r.Put("/oportunidades/{id}", updateOportunidadeHandler(d.Oportunidades, logger))
			r.Patch("/oportunidades/{id}/stage", moveStageHandler(d.Oportunidades, logger))
			r.Delete("/oportunidades/{id}", deleteOportunidadeHandler(d.Oportunidades, logger))

			// Catálogo
			r.Get("/produtos", listProdutosHandler(d.Produtos, logger))
			r.Get("/produtos/categories", categoriesHandler(d.Produtos, logger))
			r.Post("/produtos", createProdutoHandler(d.Produtos, logger))
			r.Get("/produtos/{id}", getProdutoHandler(d.Produtos, logger))
			r.Put("/produtos/{id}", updateProdutoHandler(d.Produtos, logger))
			r.Delete("/produtos/{id}", deleteProdutoHandler(d.Produtos, logger))

			// Tarefas
			r.Get("/tarefas", listTarefasHandler(d.Tarefas, logger))
			r.Post("/tarefas", createTarefaHandler(d.Tarefas, logger))
			r.Put("/tarefas/{id}", updateTarefaHandler(d.Tarefas, logger))
			r.Patch("/tarefas/{id}/complete", completeTarefaHandler(d.Tarefas, logger))
			r.Delete("/tarefas/{id}", deleteTarefaHandler(d.Tarefas, logger))

			// Dashboard, relatórios e insights
			r.Get("/dashboard", dashboardHandler(d.Dashboard, logger))
			r.Get("/reports/tiers", tiersHandler(d.Dashboard, logger))
			r.Get("/reports/growth", growthHandler(d.Dashboard, logger))
			r.Get("/insights", insightsHandler(d.Insights, logger))

			// Sofia
			userID := chathandler.UserIDFunc(UserIDFromContext)
			r.Get("/conversations", chathandler.ListConversationsHandler(d.Chat, userID, logger))
			r.Post("/conversations", chathandler.CreateConversationHandler(d.Chat, userID, logger))
			r.Get("/conversations/{id}/messages", chathandler.ListMessagesHandler(d.Chat, userID, logger))
			r.Post("/conversations/{id}/messages", chathandler.SendMessageHandler(d.Chat, userID, logger))
			r.Post("/chat", chathandler.ChatHandler(d.Chat, userID, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(health port.HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "gestorcoop-bff", Status: "healthy", LastChecked: now},
		}

		if health != nil {
			start := time.Now()
			err := health.Ping(ctx)
			status := "healthy"
			if err != nil {
				logger.Warn("healthz: supabase probe failed", zap.Error(err))
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(sweep SweepStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"status": "ready"}
		if sweep != nil {
			at, overdue := sweep.LastRun()
			status := map[string]any{"overdue_tasks": overdue}
			if !at.IsZero() {
				status["last_run"] = at.UTC().Format(time.RFC3339)
			}
			resp["overdue_sweep"] = status
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func assistantMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetAssistantSnapshot())
	}
}
