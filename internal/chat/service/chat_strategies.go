// Package service implementa as strategies da Sofia.
//
// Todas compartilham o mesmo system instruction (persona + carteira do
// usuário). O que muda é o contexto extra anexado ao prompt.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/infra"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/port"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"

	"go.uber.org/zap"
)

const (
	maxTimelineItems = 5
	maxChurnItems    = 10
)

// SystemInstruction monta a persona da Sofia com a carteira do usuário.
func SystemInstruction(roster []maindomain.Cooperado) string {
	var ctx string
	if len(roster) == 0 {
		ctx = "O usuário não possui cooperados cadastrados."
	} else {
		parts := make([]string, 0, len(roster))
		for _, c := range roster {
			parts = append(parts, fmt.Sprintf("%s (%s, Nível %s)", c.Name, orDash(c.CompanyName), orDash(string(c.Tier))))
		}
		ctx = "Aqui está uma lista dos cooperados do usuário: " + strings.Join(parts, ", ") + "."
	}

	return "Você é \"Sofia\", uma consultora de IA para a plataforma GestorCoop. " +
		"Sua função é fornecer insights precisos e acionáveis sobre os dados da cooperativa. " +
		"Seja concisa e direta. " +
		"Quando um usuário mencionar o nome de um cooperado, você deve automaticamente buscar e apresentar um resumo dos dados dele, sem que o usuário precise pedir. " +
		ctx + " Responda em português."
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// ============================================================
// CooperadoStrategy: cooperado citado na mensagem
// ============================================================

type CooperadoStrategy struct{}

func NewCooperadoStrategy() *CooperadoStrategy { return &CooperadoStrategy{} }

func (s *CooperadoStrategy) CanHandle(intent string) bool { return intent == domain.IntentCooperado }

func (s *CooperadoStrategy) Handle(_ context.Context, chatCtx *domain.ChatContext) (*domain.ModelRequest, error) {
	c := chatCtx.Mentioned
	if c == nil {
		return nil, fmt.Errorf("cooperado intent without a mentioned member")
	}
	return &domain.ModelRequest{
		SystemInstruction: SystemInstruction(chatCtx.Roster),
		Prompt:            chatCtx.Message + "\n\nDados do cooperado citado:\n" + memberContext(c),
		Mentioned:         c,
	}, nil
}

// memberContext descreve o cooperado e as interações mais recentes.
func memberContext(c *maindomain.Cooperado) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Nome: %s\n", c.Name)
	fmt.Fprintf(&b, "- Empresa: %s\n", orDash(c.CompanyName))
	fmt.Fprintf(&b, "- Setor: %s\n", orDash(c.Sector))
	fmt.Fprintf(&b, "- Nível: %s\n", orDash(string(c.Tier)))
	fmt.Fprintf(&b, "- Cliente desde: %s\n", orDash(c.Since))
	fmt.Fprintf(&b, "- Valor em pipeline: %s\n", infra.FormatBRL(c.Value))
	fmt.Fprintf(&b, "- Faturamento anual: %s\n", infra.FormatBRL(c.AnnualRevenue))
	fmt.Fprintf(&b, "- Funcionários: %d\n", c.EmployeeCount)
	fmt.Fprintf(&b, "- Engajamento: %.1f%%\n", c.EngagementRate)
	fmt.Fprintf(&b, "- Conversão: %.1f%%\n", c.ConversionRate)
	fmt.Fprintf(&b, "- Email: %s\n", orDash(c.Email))
	if c.Notes != "" {
		fmt.Fprintf(&b, "- Observações: %s\n", c.Notes)
	}

	timeline := make([]maindomain.Interacao, len(c.Interacoes))
	copy(timeline, c.Interacoes)
	sort.SliceStable(timeline, func(i, j int) bool { return timeline[i].Date.After(timeline[j].Date) })
	if len(timeline) > maxTimelineItems {
		timeline = timeline[:maxTimelineItems]
	}
	if len(timeline) == 0 {
		b.WriteString("Sem interações registradas.")
		return b.String()
	}
	b.WriteString("Interações recentes:\n")
	for _, it := range timeline {
		fmt.Fprintf(&b, "- %s [%s] %s", it.Date.Format("02/01/2006"), it.Type, it.Title)
		if it.Description != "" {
			fmt.Fprintf(&b, ": %s", it.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ============================================================
// ChurnStrategy: perguntas sobre risco de churn
// ============================================================

type ChurnStrategy struct {
	directory port.MemberDirectory
	logger    *zap.Logger
}

func NewChurnStrategy(directory port.MemberDirectory, logger *zap.Logger) *ChurnStrategy {
	return &ChurnStrategy{directory: directory, logger: logger}
}

func (s *ChurnStrategy) CanHandle(intent string) bool { return intent == domain.IntentChurn }

func (s *ChurnStrategy) Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ModelRequest, error) {
	risks, err := s.directory.ChurnRisks(ctx, chatCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("churn risks: %w", err)
	}
	s.logger.Debug("churn context built",
		zap.String("user_id", chatCtx.UserID),
		zap.Int("risks", len(risks)),
	)
	return &domain.ModelRequest{
		SystemInstruction: SystemInstruction(chatCtx.Roster),
		Prompt:            chatCtx.Message + "\n\n" + churnContext(risks),
	}, nil
}

func churnContext(risks []maindomain.ChurnRisk) string {
	if len(risks) == 0 {
		return "Nenhum cooperado em risco de churn no momento."
	}
	var b strings.Builder
	b.WriteString("Cooperados em risco de churn (maior valor primeiro):\n")
	for i, r := range risks {
		if i == maxChurnItems {
			fmt.Fprintf(&b, "- e mais %d cooperados\n", len(risks)-maxChurnItems)
			break
		}
		last := "nunca contatado"
		if r.DaysSinceLast != nil {
			last = fmt.Sprintf("%d dias sem contato", *r.DaysSinceLast)
		}
		fmt.Fprintf(&b, "- %s (Nível %s, %s): %s\n", r.Name, orDash(string(r.Tier)), infra.FormatBRL(r.Value), last)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ============================================================
// GeneralStrategy: fallback, só a carteira como contexto
// ============================================================

type GeneralStrategy struct{}

func NewGeneralStrategy() *GeneralStrategy { return &GeneralStrategy{} }

func (s *GeneralStrategy) CanHandle(string) bool { return true }

func (s *GeneralStrategy) Handle(_ context.Context, chatCtx *domain.ChatContext) (*domain.ModelRequest, error) {
	return &domain.ModelRequest{
		SystemInstruction: SystemInstruction(chatCtx.Roster),
		Prompt:            chatCtx.Message,
	}, nil
}
