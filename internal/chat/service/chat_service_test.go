package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/service"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/markdown"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const userID = "user-1"

func roster() []maindomain.Cooperado {
	return []maindomain.Cooperado{
		{ID: 1, Name: "Ana", CompanyName: "Agro Ana", Tier: maindomain.TierPrata},
		{ID: 2, Name: "Ana Souza", CompanyName: "Souza Agro", Tier: maindomain.TierOuro, Value: 50000,
			Interacoes: []maindomain.Interacao{
				{Type: maindomain.InteractionCall, Title: "Ligação antiga", Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)},
				{Type: maindomain.InteractionEmail, Title: "Proposta enviada", Date: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)},
			}},
		{ID: 3, Name: "Jo", CompanyName: "Curto"},
	}
}

type fixture struct {
	svc       *service.ChatService
	model     *mockModel
	store     *mockConversations
	directory *mockDirectory
	metrics   *observability.Metrics
}

func newFixture() *fixture {
	f := &fixture{
		model:     &mockModel{reply: "**Resumo** pronto"},
		store:     newMockConversations(),
		directory: &mockDirectory{roster: roster()},
		metrics:   observability.NewMetrics(),
	}
	logger := zap.NewNop()
	f.svc = service.NewChatService(f.model, f.store, f.directory, markdown.NewRenderer(),
		service.DefaultStrategies(f.directory, logger), f.metrics, logger)
	return f
}

func (f *fixture) conversation(t *testing.T, title string) string {
	t.Helper()
	conv, err := f.svc.CreateConversation(context.Background(), userID, title)
	require.NoError(t, err)
	return conv.ID
}

func TestCreateConversation_DefaultTitle(t *testing.T) {
	f := newFixture()

	conv, err := f.svc.CreateConversation(context.Background(), userID, "   ")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConversationTitle, conv.Title)

	long := strings.Repeat("a", 200)
	conv, err = f.svc.CreateConversation(context.Background(), userID, long)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 120)+"...", conv.Title)
}

func TestSendMessage_CooperadoIntentPicksLongestName(t *testing.T) {
	f := newFixture()
	id := f.conversation(t, "")

	resp, err := f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: "Me fale sobre a Ana Souza"})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentCooperado, resp.Intent)
	req := f.model.last()
	require.NotNil(t, req)
	require.NotNil(t, req.Mentioned)
	assert.Equal(t, int64(2), req.Mentioned.ID)
	assert.Contains(t, req.Prompt, "Dados do cooperado citado:")
	assert.Contains(t, req.Prompt, "Proposta enviada")
	assert.Less(t, strings.Index(req.Prompt, "Proposta enviada"), strings.Index(req.Prompt, "Ligação antiga"), "newest interaction first")
	assert.Contains(t, req.SystemInstruction, "Sofia")
	assert.Contains(t, req.SystemInstruction, "Ana Souza (Souza Agro, Nível Ouro)")
}

func TestSendMessage_PersistsBothMessagesAndRendersHTML(t *testing.T) {
	f := newFixture()
	id := f.conversation(t, "")

	resp, err := f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: "  Como está a carteira?  "})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentGeneral, resp.Intent)
	assert.Equal(t, domain.SenderUser, resp.UserMessage.SenderType)
	assert.Equal(t, "Como está a carteira?", resp.UserMessage.Content)
	assert.Equal(t, userID, resp.UserMessage.UserID)
	assert.Equal(t, domain.SenderAI, resp.AIMessage.SenderType)
	assert.Empty(t, resp.AIMessage.UserID)
	assert.Equal(t, "**Resumo** pronto", resp.AIMessage.Content)
	assert.Contains(t, resp.HTML, "<strong>Resumo</strong>")

	msgs, err := f.svc.Messages(context.Background(), userID, id)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSendMessage_RetitlesOnlyOnFirstMessage(t *testing.T) {
	f := newFixture()
	id := f.conversation(t, "")

	_, err := f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: strings.Repeat("b", 50)})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("b", 40)+"...", f.store.titles[id])

	_, err = f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: "segunda"})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("b", 40)+"...", f.store.titles[id])

	named := f.conversation(t, "Planejamento")
	_, err = f.svc.SendMessage(context.Background(), userID, named, &domain.SendMessageRequest{Message: "oi"})
	require.NoError(t, err)
	_, retitled := f.store.titles[named]
	assert.False(t, retitled)
}

func TestSendMessage_HistoryExcludesCurrentMessage(t *testing.T) {
	f := newFixture()
	id := f.conversation(t, "")

	_, err := f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: "primeira"})
	require.NoError(t, err)
	_, err = f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: "segunda"})
	require.NoError(t, err)

	req := f.model.last()
	require.Len(t, req.History, 2)
	assert.Equal(t, domain.Turn{Role: "user", Text: "primeira"}, req.History[0])
	assert.Equal(t, "model", req.History[1].Role)
	assert.Equal(t, "segunda", req.Prompt)
}

func TestSendMessage_ChurnIntent(t *testing.T) {
	f := newFixture()
	days := 75
	f.directory.risks = []maindomain.ChurnRisk{
		{CooperadoID: 9, Name: "Carlos", Tier: maindomain.TierBronze, Value: 1500, DaysSinceLast: &days},
		{CooperadoID: 8, Name: "Beatriz", Value: 800},
	}
	id := f.conversation(t, "")

	resp, err := f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: "Quem está em risco de evasão?"})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentChurn, resp.Intent)
	assert.Equal(t, 1, f.directory.churnHits)
	prompt := f.model.last().Prompt
	assert.Contains(t, prompt, "Carlos (Nível Bronze, R$ 1.500,00): 75 dias sem contato")
	assert.Contains(t, prompt, "Beatriz (Nível -, R$ 800,00): nunca contatado")
}

func TestSendMessage_ChurnWithoutRisks(t *testing.T) {
	f := newFixture()
	id := f.conversation(t, "")

	_, err := f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: "algum churn?"})
	require.NoError(t, err)

	assert.Contains(t, f.model.last().Prompt, "Nenhum cooperado em risco de churn no momento.")
}

func TestSendMessage_ModelFailureFallsBack(t *testing.T) {
	f := newFixture()
	f.model.err = errors.New("gemini down")
	id := f.conversation(t, "")

	resp, err := f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: "olá"})
	require.NoError(t, err)

	assert.Equal(t, service.FallbackReply, resp.AIMessage.Content)
	snap := f.metrics.GetAssistantSnapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, 1.0, snap.FallbackRate)
}

func TestSendMessage_Validation(t *testing.T) {
	f := newFixture()
	id := f.conversation(t, "")

	for _, msg := range []string{"", "   ", strings.Repeat("x", 4001)} {
		_, err := f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: msg})
		var ve *maindomain.ErrValidation
		assert.ErrorAs(t, err, &ve)
	}
	assert.Nil(t, f.model.last(), "model must not be called")
}

func TestSendMessage_ConversationOfAnotherUser(t *testing.T) {
	f := newFixture()
	id := f.conversation(t, "")

	_, err := f.svc.SendMessage(context.Background(), "intruso", id, &domain.SendMessageRequest{Message: "oi"})

	var nf *maindomain.ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, f.store.messages[id])
}

func TestSendMessage_RosterError(t *testing.T) {
	f := newFixture()
	f.directory.err = &maindomain.ErrCircuitOpen{Service: "supabase"}
	id := f.conversation(t, "")

	_, err := f.svc.SendMessage(context.Background(), userID, id, &domain.SendMessageRequest{Message: "oi"})

	var co *maindomain.ErrCircuitOpen
	require.ErrorAs(t, err, &co)
	assert.Empty(t, f.store.messages[id], "nothing is saved when context loading fails")
}

func TestChat_ReturnsReply(t *testing.T) {
	f := newFixture()
	f.directory.roster = nil

	resp, err := f.svc.Chat(context.Background(), userID, &domain.ChatRequest{Message: "Olá, Sofia"})
	require.NoError(t, err)

	assert.Equal(t, "**Resumo** pronto", resp.Reply)
	req := f.model.last()
	assert.Empty(t, req.History)
	assert.Contains(t, req.SystemInstruction, "O usuário não possui cooperados cadastrados.")
}

func TestMessages_OtherUsersConversation(t *testing.T) {
	f := newFixture()
	id := f.conversation(t, "")

	_, err := f.svc.Messages(context.Background(), "intruso", id)

	var nf *maindomain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}
