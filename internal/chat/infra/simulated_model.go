package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
)

// ============================================================
// SimulatedModel: respostas prontas quando não há GEMINI_API_KEY
// ============================================================
//
// Mantém o dashboard utilizável em desenvolvimento: resumo do cooperado
// citado, resposta de churn, rascunho de e-mail e uma resposta padrão.

const simulatedModelName = "simulated"

const (
	simulatedChurnReply = "Analisando os dados... A análise preditiva indica que os cooperados com baixa interação nos últimos 90 dias e valor de pipeline estagnado têm um risco de churn 35% maior. Recomendo uma campanha de reengajamento para este segmento."

	simulatedEmailReply = `Claro! Aqui está um rascunho de e-mail de follow-up:

**Assunto:** Acompanhamento da nossa conversa sobre investimentos

Olá [Nome do Cooperado],

Espero que esteja tudo bem.

Estou escrevendo para dar seguimento à nossa conversa sobre seus objetivos de investimento. Com base no que discutimos, preparei uma proposta personalizada que acredito estar alinhada com suas expectativas.

Você teria um momento esta semana para conversarmos por 15 minutos?

Atenciosamente,
[Seu Nome]`

	simulatedDefaultReply = "Entendido. Processando sua solicitação... Com base nos dados atuais, a tendência de crescimento de novos cooperados é de 15% ao mês. O produto mais popular é o 'Crédito Pessoal'."
)

// SimulatedModel implementa port.ModelCaller sem rede.
type SimulatedModel struct {
	delay time.Duration
}

// NewSimulatedModel cria o modelo simulado. delay imita a latência da API.
func NewSimulatedModel(delay time.Duration) *SimulatedModel {
	return &SimulatedModel{delay: delay}
}

func (m *SimulatedModel) Generate(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	_, span := tracer.Start(ctx, "SimulatedModel.Generate")
	defer span.End()

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	text := simulatedReply(req)
	return &domain.ModelResponse{
		Text:             text,
		Model:            simulatedModelName,
		PromptTokens:     estimateTokens(req.SystemInstruction) + estimateTokens(req.Prompt),
		CompletionTokens: estimateTokens(text),
	}, nil
}

func simulatedReply(req *domain.ModelRequest) string {
	lower := strings.ToLower(req.Prompt)

	if c := req.Mentioned; c != nil {
		return memberSummary(c)
	}
	if strings.Contains(lower, "risco de churn") || strings.Contains(lower, "churn") {
		return simulatedChurnReply
	}
	if strings.Contains(lower, "gerar e-mail") || strings.Contains(lower, "gerar email") {
		return simulatedEmailReply
	}
	return simulatedDefaultReply
}

func memberSummary(c *maindomain.Cooperado) string {
	since := "não informado"
	if t, ok := maindomain.ParseDate(c.Since); ok {
		since = t.Format("02/01/2006")
	}
	email := c.Email
	if email == "" {
		email = "não informado"
	}
	return fmt.Sprintf(`Aqui estão os dados de **%s**:

- **Nível:** %s
- **Cliente desde:** %s
- **Valor em Pipeline:** %s
- **Email:** %s

Posso ajudar com mais alguma análise sobre %s?`,
		c.Name, c.Tier, since, FormatBRL(c.Value), email, c.Name)
}

// FormatBRL formata um valor como moeda brasileira (R$ 1.234,56).
func FormatBRL(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	cents := int64(v*100 + 0.5)
	intPart := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", intPart)
	var sb strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(r)
	}

	out := fmt.Sprintf("R$ %s,%02d", sb.String(), frac)
	if neg {
		out = "-" + out
	}
	return out
}

// estimateTokens aproxima ~4 caracteres por token.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return len(s)/4 + 1
}
