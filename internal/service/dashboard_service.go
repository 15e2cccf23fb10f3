package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/observability"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	recentCooperados    = 3
	defaultGrowthMonths = 6
	maxGrowthMonths     = 24
)

var monthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// DashboardService aggregates the KPI cards and report charts.
type DashboardService struct {
	cooperados    port.CooperadoStore
	oportunidades port.OportunidadeStore
	tarefas       port.TarefaStore
	cache         port.Cache[any]
	metrics       *observability.Metrics
	now           Clock
	churnWindow   int
	logger        *zap.Logger
}

func NewDashboardService(
	cooperados port.CooperadoStore,
	oportunidades port.OportunidadeStore,
	tarefas port.TarefaStore,
	cache port.Cache[any],
	metrics *observability.Metrics,
	now Clock,
	churnWindowDays int,
	logger *zap.Logger,
) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		cooperados:    cooperados,
		oportunidades: oportunidades,
		tarefas:       tarefas,
		cache:         cache,
		metrics:       metrics,
		now:           now,
		churnWindow:   churnWindowOrDefault(churnWindowDays),
		logger:        logger,
	}
}

// Dashboard returns the per-user KPI snapshot, served from cache when fresh.
func (s *DashboardService) Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.Dashboard")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	key := dashboardKey(userID)
	if cached, ok := s.cache.Get(key); ok {
		if d, ok := cached.(*domain.Dashboard); ok {
			s.metrics.IncrCacheHit("dashboard")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return d, nil
		}
	}
	s.metrics.IncrCacheMiss("dashboard")

	var (
		cooperados    []domain.Cooperado
		oportunidades []domain.Oportunidade
		tarefas       []domain.Tarefa
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.cooperados.ListCooperadosWithInteracoes(gCtx, userID)
		if err != nil {
			s.metrics.IncrExternalError("supabase")
			return fmt.Errorf("cooperados: %w", err)
		}
		cooperados = rows
		return nil
	})

	g.Go(func() error {
		rows, err := s.oportunidades.ListOportunidades(gCtx, userID)
		if err != nil {
			s.metrics.IncrExternalError("supabase")
			return fmt.Errorf("oportunidades: %w", err)
		}
		oportunidades = rows
		return nil
	})

	g.Go(func() error {
		rows, err := s.tarefas.ListTarefas(gCtx, userID)
		if err != nil {
			s.metrics.IncrExternalError("supabase")
			return fmt.Errorf("tarefas: %w", err)
		}
		tarefas = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	d := buildDashboard(cooperados, oportunidades, tarefas, s.now(), s.churnWindow)
	s.cache.Set(key, d)

	s.logger.Debug("dashboard built",
		zap.String("user_id", userID),
		zap.Int("cooperados", d.TotalCooperados),
		zap.Int("oportunidades", len(oportunidades)),
	)
	return d, nil
}

func buildDashboard(cooperados []domain.Cooperado, ops []domain.Oportunidade, tarefas []domain.Tarefa, now time.Time, churnWindow int) *domain.Dashboard {
	d := &domain.Dashboard{
		TotalCooperados: len(cooperados),
		GeneratedAt:     now.UTC(),
	}

	byStage := make(map[domain.Stage]*domain.StageTotal, len(domain.Stages))
	d.PipelineByStage = make([]domain.StageTotal, len(domain.Stages))
	for i, st := range domain.Stages {
		d.PipelineByStage[i] = domain.StageTotal{Stage: st}
		byStage[st] = &d.PipelineByStage[i]
	}

	var won, lost int
	for _, op := range ops {
		if t, ok := byStage[op.Stage]; ok {
			t.Count++
			t.Value += op.Value
		}
		switch {
		case op.Stage == domain.StageGanho:
			won++
			d.WonValue += op.Value
		case op.Stage == domain.StagePerdido:
			lost++
		default:
			d.OpenPipeline += op.Value
		}
	}
	if won+lost > 0 {
		d.WinRate = round1(float64(won) / float64(won+lost) * 100)
	}

	for i := range tarefas {
		if tarefas[i].Completed {
			continue
		}
		d.OpenTasks++
		if tarefas[i].IsOverdue(now) {
			d.OverdueTasks++
		}
	}

	d.RecentCooperados = newestCooperados(cooperados, recentCooperados)
	d.ChurnAlerts = len(churnRisks(cooperados, now, churnWindow))
	return d
}

// newestCooperados returns the n most recently created members without their timelines.
func newestCooperados(rows []domain.Cooperado, n int) []domain.Cooperado {
	sorted := make([]domain.Cooperado, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	for i := range sorted {
		sorted[i].Interacoes = nil
	}
	return sorted
}

// Tiers returns the member count and share of every tier, including empty ones.
func (s *DashboardService) Tiers(ctx context.Context, userID string) ([]domain.TierSlice, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.Tiers")
	defer span.End()

	rows, err := s.cooperados.ListCooperados(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cooperados: %w", err)
	}
	return tierDistribution(rows), nil
}

func tierDistribution(rows []domain.Cooperado) []domain.TierSlice {
	counts := make(map[domain.Tier]int, len(domain.Tiers))
	for _, c := range rows {
		counts[c.Tier]++
	}
	out := make([]domain.TierSlice, len(domain.Tiers))
	for i, t := range domain.Tiers {
		out[i] = domain.TierSlice{Tier: t, Count: counts[t]}
		if len(rows) > 0 {
			out[i].Percent = round1(float64(counts[t]) / float64(len(rows)) * 100)
		}
	}
	return out
}

// Growth returns new members per month for the last `months` months, oldest first.
func (s *DashboardService) Growth(ctx context.Context, userID string, months int) ([]domain.GrowthPoint, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.Growth")
	defer span.End()

	rows, err := s.cooperados.ListCooperados(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cooperados: %w", err)
	}
	return monthlyGrowth(rows, s.now(), months), nil
}

func monthlyGrowth(rows []domain.Cooperado, now time.Time, months int) []domain.GrowthPoint {
	switch {
	case months <= 0:
		months = defaultGrowthMonths
	case months > maxGrowthMonths:
		months = maxGrowthMonths
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	points := make([]domain.GrowthPoint, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0)
		key := m.Format("2006-01")
		points[i] = domain.GrowthPoint{Month: key, Label: monthLabels[m.Month()-1]}
		index[key] = i
	}

	for i := range rows {
		joined := rows[i].JoinedAt()
		if joined.IsZero() {
			continue
		}
		if idx, ok := index[joined.Format("2006-01")]; ok {
			points[idx].Count++
		}
	}
	return points
}
