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

// DefaultChurnWindowDays is used when the configured window is not positive.
const DefaultChurnWindowDays = 60

// InsightsService computes the analysis panel and serves the member roster
// the chat assistant uses as context.
type InsightsService struct {
	cooperados    port.CooperadoStore
	oportunidades port.OportunidadeStore
	cache         port.Cache[any]
	metrics       *observability.Metrics
	now           Clock
	churnWindow   int
	logger        *zap.Logger
}

func NewInsightsService(
	cooperados port.CooperadoStore,
	oportunidades port.OportunidadeStore,
	cache port.Cache[any],
	metrics *observability.Metrics,
	now Clock,
	churnWindowDays int,
	logger *zap.Logger,
) *InsightsService {
	if now == nil {
		now = time.Now
	}
	return &InsightsService{
		cooperados:    cooperados,
		oportunidades: oportunidades,
		cache:         cache,
		metrics:       metrics,
		now:           now,
		churnWindow:   churnWindowOrDefault(churnWindowDays),
		logger:        logger,
	}
}

// Roster returns the caller's members with their timelines (cached).
func (s *InsightsService) Roster(ctx context.Context, userID string) ([]domain.Cooperado, error) {
	ctx, span := tracer.Start(ctx, "InsightsService.Roster")
	defer span.End()

	key := rosterKey(userID)
	if cached, ok := s.cache.Get(key); ok {
		if rows, ok := cached.([]domain.Cooperado); ok {
			s.metrics.IncrCacheHit("roster")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return rows, nil
		}
	}
	s.metrics.IncrCacheMiss("roster")

	rows, err := s.cooperados.ListCooperadosWithInteracoes(ctx, userID)
	if err != nil {
		s.metrics.IncrExternalError("supabase")
		return nil, fmt.Errorf("roster: %w", err)
	}
	s.cache.Set(key, rows)
	return rows, nil
}

// ChurnRisks returns members without contact inside the churn window.
func (s *InsightsService) ChurnRisks(ctx context.Context, userID string) ([]domain.ChurnRisk, error) {
	rows, err := s.Roster(ctx, userID)
	if err != nil {
		return nil, err
	}
	return churnRisks(rows, s.now(), s.churnWindow), nil
}

// Insights builds the three analysis lists.
func (s *InsightsService) Insights(ctx context.Context, userID string) (*domain.Insights, error) {
	ctx, span := tracer.Start(ctx, "InsightsService.Insights")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("insights", time.Since(start))
	}()

	var (
		roster []domain.Cooperado
		ops    []domain.Oportunidade
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.Roster(gCtx, userID)
		roster = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.oportunidades.ListOportunidades(gCtx, userID)
		if err != nil {
			s.metrics.IncrExternalError("supabase")
			return fmt.Errorf("oportunidades: %w", err)
		}
		ops = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}

	now := s.now()
	out := &domain.Insights{
		ChurnWindowDays: s.churnWindow,
		ChurnRisks:      churnRisks(roster, now, s.churnWindow),
		CrossSell:       crossSell(roster, ops),
		StalledDeals:    stalledDeals(ops, now),
	}

	s.logger.Debug("insights built",
		zap.String("user_id", userID),
		zap.Int("churn_risks", len(out.ChurnRisks)),
		zap.Int("cross_sell", len(out.CrossSell)),
		zap.Int("stalled_deals", len(out.StalledDeals)),
	)
	return out, nil
}

// daysBetween counts calendar days from a to b, each read in its own zone.
func churnWindowOrDefault(days int) int {
	if days <= 0 {
		return DefaultChurnWindowDays
	}
	return days
}

func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func churnRisks(rows []domain.Cooperado, now time.Time, window int) []domain.ChurnRisk {
	out := make([]domain.ChurnRisk, 0)
	for i := range rows {
		c := &rows[i]
		last, ok := c.LastInteraction()
		if !ok {
			out = append(out, domain.ChurnRisk{CooperadoID: c.ID, Name: c.Name, Tier: c.Tier, Value: c.Value})
			continue
		}
		days := daysBetween(last, now)
		if days < window {
			continue
		}
		out = append(out, domain.ChurnRisk{CooperadoID: c.ID, Name: c.Name, Tier: c.Tier, Value: c.Value, DaysSinceLast: &days})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

func crossSell(rows []domain.Cooperado, ops []domain.Oportunidade) []domain.CrossSell {
	withOpen := make(map[int64]bool)
	for _, op := range ops {
		if op.Stage.Open() {
			withOpen[op.CooperadoID] = true
		}
	}
	out := make([]domain.CrossSell, 0)
	for _, c := range rows {
		if c.Tier != domain.TierOuro && c.Tier != domain.TierDiamante {
			continue
		}
		if withOpen[c.ID] {
			continue
		}
		out = append(out, domain.CrossSell{CooperadoID: c.ID, Name: c.Name, Tier: c.Tier, Value: c.Value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

func stalledDeals(ops []domain.Oportunidade, now time.Time) []domain.StalledDeal {
	out := make([]domain.StalledDeal, 0)
	for i := range ops {
		op := &ops[i]
		if !op.Stage.Open() {
			continue
		}
		due, ok := domain.ParseDate(op.ExpectedCloseDate)
		if !ok {
			continue
		}
		days := daysBetween(due, now)
		if days <= 0 {
			continue
		}
		out = append(out, domain.StalledDeal{
			OportunidadeID:    op.ID,
			Title:             op.Title,
			CooperadoName:     op.CooperadoName(),
			Stage:             op.Stage,
			Value:             op.Value,
			ExpectedCloseDate: op.ExpectedCloseDate,
			DaysOverdue:       days,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysOverdue > out[j].DaysOverdue })
	return out
}
